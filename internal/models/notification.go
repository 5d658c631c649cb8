package models

import (
	"time"
)

type Notification struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	RecipientID       uint      `gorm:"not null;index" json:"recipient_id"`
	Title             string    `gorm:"size:255;not null" json:"title"`
	Message           string    `gorm:"size:1000;not null" json:"message"`
	Type              string    `gorm:"size:50;not null;index" json:"type"`
	IsRead            bool      `gorm:"not null" json:"is_read"`
	CreatedAt         time.Time `gorm:"not null;index" json:"created_at"`
	ActionURL         string    `gorm:"size:500" json:"action_url"`
	RelatedContractID *uint     `gorm:"index" json:"related_contract_id"`
	RelatedSpaceID    *uint     `gorm:"index" json:"related_space_id"`
	RelatedUserID     *uint     `json:"related_user_id"`
}

func (Notification) TableName() string {
	return "notifications"
}
