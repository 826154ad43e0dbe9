package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/veoxhq/veox-backend/pkg/enums"
)

// User is a marketplace participant. Phone and email are the contact details
// gated behind the paid contact unlock.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;type:text;not null"`
	FullName     string         `gorm:"column:full_name;type:text;not null"`
	Phone        *string        `gorm:"column:phone;type:text"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null"`
	Locale       enums.Locale   `gorm:"column:locale;type:text;not null;default:'ru'"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
