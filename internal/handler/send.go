package handler

import (
	"context"
	"log/slog"

	"spacerent/internal/service"
)

// Sender is the single send path behind both POST /messages/send and the
// live channel's send-message frame: store the message, then notify the recipient.
type Sender struct {
	messages      *service.MessageService
	notifications *service.NotificationService
	log           *slog.Logger
}

func NewSender(messages *service.MessageService, notifications *service.NotificationService, logger *slog.Logger) *Sender {
	return &Sender{messages: messages, notifications: notifications, log: logger}
}

// Send fails only when the message itself could not be stored. A failed
// NEW_MESSAGE notification is logged.
func (s *Sender) Send(ctx context.Context, in service.SendMessageInput) (*service.SentMessage, error) {
	m, err := s.messages.SendMessage(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.notifications.NotifyNewMessage(ctx, m.RecipientID, m.Sender.DisplayName(), m.ID); err != nil {
		s.log.Warn("new message notification failed", "message_id", m.ID, "recipient_id", m.RecipientID, "error", err)
	}
	return m, nil
}
