package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account able to log meals and chat with the assistant.
type User struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Email               string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash        string    `gorm:"not null" json:"-" swaggerignore:"true"`
	DisplayName         string    `gorm:"not null" json:"display_name"`
	OnboardingCompleted bool      `gorm:"not null;default:false" json:"onboarding_completed"`
	Profile             *Profile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// BeforeCreate assigns the id and normalises the e-mail. Ids are generated
// here rather than by a column default so SQLite and PostgreSQL behave alike.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
