package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is one direct message between two users. Users are referenced by id only.
type Message struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	SenderID          uint           `gorm:"not null;index:idx_messages_pair,priority:1" json:"sender_id"`
	RecipientID       uint           `gorm:"not null;index:idx_messages_pair,priority:2;index:idx_messages_unread,priority:1" json:"recipient_id"`
	Content           string         `gorm:"size:2000;not null" json:"content"`
	SentAt            time.Time      `gorm:"not null;index" json:"sent_at"`
	IsRead            bool           `gorm:"not null;index:idx_messages_unread,priority:2" json:"is_read"`
	MessageType       string         `gorm:"size:32;not null;default:'TEXT'" json:"message_type"`
	RelatedContractID *uint          `gorm:"index" json:"related_contract_id"`
	RelatedSpaceID    *uint          `gorm:"index" json:"related_space_id"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}

// Counterparty returns the other side of the conversation as seen by userID.
func (m *Message) Counterparty(userID uint) uint {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}
