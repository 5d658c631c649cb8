package models

import (
	"time"
)

// User mirrors the account service's users table. This service only reads it.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Username  string    `gorm:"uniqueIndex;size:64;not null;default:''" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role      string    `gorm:"size:20;not null;index" json:"role"` // OWNER | TENANT | ADMIN
	FCMToken  string    `gorm:"size:512" json:"-"`                  // For push notifications
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName falls back to username, then email.
func (u *User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}
