package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email     string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Password  string         `gorm:"column:password;not null" json:"-"`
	FirstName string         `gorm:"column:first_name;not null;default:''" json:"first_name"`
	LastName  string         `gorm:"column:last_name;not null;default:''" json:"last_name"`
	Role      string         `gorm:"column:role;not null;default:'teacher';index" json:"role"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }
