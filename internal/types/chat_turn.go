package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChatTurn ties together a single user message -> assistant message generation
// and records what the pipeline did with it: classified intent, routed model,
// correction attempts, and any violations still attached at the end.
type ChatTurn struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`

	UserMessageID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_message_id"`
	AssistantMessageID uuid.UUID `gorm:"type:uuid;not null;index" json:"assistant_message_id"`

	Intent string `gorm:"type:text;not null;index" json:"intent"`
	Model  string `gorm:"type:text;not null;default:''" json:"model"`

	Status   string `gorm:"type:text;not null;default:'accepted';index" json:"status"`
	Attempts int    `gorm:"not null;default:0" json:"attempts"`

	Violations datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"violations"`

	StartedAt   *time.Time `gorm:"index" json:"started_at,omitempty"`
	CompletedAt *time.Time `gorm:"index" json:"completed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChatTurn) TableName() string { return "chat_turn" }
