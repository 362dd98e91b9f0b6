package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Conversation is one Jasper chat thread. The assistant state the pipeline
// depends on (pending meal-plan request, allergy flags, recorded allergens)
// lives in typed columns rather than loose metadata so every read/write goes
// through the conversation state service.
type Conversation struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Title    string         `gorm:"column:title;not null;default:'New chat'" json:"title"`
	Status   string         `gorm:"column:status;not null;default:'active';index" json:"status"`
	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata;not null;default:'{}'" json:"metadata,omitempty"`

	// Assistant state for the meal-plan safety flow.
	PendingMealPlanRequest *string        `gorm:"type:text;column:pending_meal_plan_request" json:"pending_meal_plan_request,omitempty"`
	AskedAllergies         bool           `gorm:"column:asked_allergies;not null;default:false" json:"asked_allergies"`
	Allergens              datatypes.JSON `gorm:"type:jsonb;column:allergens;not null;default:'[]'" json:"allergens"`

	// Concurrency-safe per-conversation sequencing:
	NextSeq int64 `gorm:"column:next_seq;not null;default:0" json:"next_seq"`

	LastMessageAt time.Time `gorm:"column:last_message_at;not null;default:now();index" json:"last_message_at"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Conversation) TableName() string { return "conversation" }
