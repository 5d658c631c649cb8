package dto

import (
	"time"

	"spacerent/internal/models"

	"github.com/samber/lo"
)

type MessageDTO struct {
	ID                uint      `json:"id"`
	Content           string    `json:"content"`
	SentAt            time.Time `json:"sent_at"`
	IsRead            bool      `json:"is_read"`
	MessageType       string    `json:"message_type"`
	SenderID          uint      `json:"sender_id"`
	SenderName        string    `json:"sender_name"`
	SenderRole        string    `json:"sender_role"`
	RecipientID       uint      `json:"recipient_id"`
	RecipientName     string    `json:"recipient_name"`
	RecipientRole     string    `json:"recipient_role"`
	RelatedContractID *uint     `json:"related_contract_id,omitempty"`
	RelatedSpaceID    *uint     `json:"related_space_id,omitempty"`
}

type NotificationDTO struct {
	ID                uint      `json:"id"`
	Title             string    `json:"title"`
	Message           string    `json:"message"`
	Type              string    `json:"type"`
	IsRead            bool      `json:"is_read"`
	CreatedAt         time.Time `json:"created_at"`
	ActionURL         string    `json:"action_url,omitempty"`
	RecipientID       uint      `json:"recipient_id"`
	RecipientName     string    `json:"recipient_name"`
	RelatedContractID *uint     `json:"related_contract_id,omitempty"`
	RelatedSpaceID    *uint     `json:"related_space_id,omitempty"`
	RelatedUserID     *uint     `json:"related_user_id,omitempty"`
}

// Users is an id-indexed set of resolved users. Unknown ids render with empty names.
type Users map[uint]*models.User

func (u Users) name(id uint) string {
	if x := u[id]; x != nil {
		return x.DisplayName()
	}
	return ""
}

func (u Users) role(id uint) string {
	if x := u[id]; x != nil {
		return x.Role
	}
	return ""
}

func NewMessage(m *models.Message, users Users) MessageDTO {
	return MessageDTO{
		ID:                m.ID,
		Content:           m.Content,
		SentAt:            m.SentAt,
		IsRead:            m.IsRead,
		MessageType:       m.MessageType,
		SenderID:          m.SenderID,
		SenderName:        users.name(m.SenderID),
		SenderRole:        users.role(m.SenderID),
		RecipientID:       m.RecipientID,
		RecipientName:     users.name(m.RecipientID),
		RecipientRole:     users.role(m.RecipientID),
		RelatedContractID: m.RelatedContractID,
		RelatedSpaceID:    m.RelatedSpaceID,
	}
}

func NewMessages(list []models.Message, users Users) []MessageDTO {
	return lo.Map(list, func(m models.Message, _ int) MessageDTO {
		return NewMessage(&m, users)
	})
}

func NewNotification(n *models.Notification, users Users) NotificationDTO {
	return NotificationDTO{
		ID:                n.ID,
		Title:             n.Title,
		Message:           n.Message,
		Type:              n.Type,
		IsRead:            n.IsRead,
		CreatedAt:         n.CreatedAt,
		ActionURL:         n.ActionURL,
		RecipientID:       n.RecipientID,
		RecipientName:     users.name(n.RecipientID),
		RelatedContractID: n.RelatedContractID,
		RelatedSpaceID:    n.RelatedSpaceID,
		RelatedUserID:     n.RelatedUserID,
	}
}

func NewNotifications(list []models.Notification, users Users) []NotificationDTO {
	return lo.Map(list, func(n models.Notification, _ int) NotificationDTO {
		return NewNotification(&n, users)
	})
}

// MessageUserIDs lists every distinct user referenced by the messages.
func MessageUserIDs(list []models.Message) []uint {
	ids := make([]uint, 0, len(list)*2)
	for _, m := range list {
		ids = append(ids, m.SenderID, m.RecipientID)
	}
	return lo.Uniq(ids)
}

func NotificationUserIDs(list []models.Notification) []uint {
	return lo.Uniq(lo.Map(list, func(n models.Notification, _ int) uint { return n.RecipientID }))
}
