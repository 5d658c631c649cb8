package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"spacerent/internal/domain"
	"spacerent/internal/dto"
	"spacerent/internal/metrics"
	"spacerent/internal/models"
	"spacerent/internal/push"
	"spacerent/internal/repository"
)

type SendMessageInput struct {
	SenderID          uint
	RecipientID       uint
	Content           string
	MessageType       string // blank means TEXT
	RelatedContractID *uint
	RelatedSpaceID    *uint
}

// MessageService owns direct messages: the durable write first, then a
// best-effort push to whoever is connected.
type MessageService struct {
	store MessageStore
	users UserDirectory
	index *ConversationIndex
	push  deliverer
	log   *slog.Logger
	now   func() time.Time
}

func NewMessageService(store MessageStore, users UserDirectory, ch push.Channel, logger *slog.Logger) *MessageService {
	return &MessageService{
		store: store,
		users: users,
		index: NewConversationIndex(store),
		push:  deliverer{ch: ch, log: logger},
		log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ValidateContent trims content and checks it holds 1 to MaxMessageLength characters.
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", invalid("message content cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > domain.MaxMessageLength {
		return "", invalid("message content cannot exceed %d characters", domain.MaxMessageLength)
	}
	return trimmed, nil
}

// ParseMessageType maps blank to TEXT and rejects anything outside the enum.
func ParseMessageType(raw string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" {
		return domain.MessageTypeText, nil
	}
	if !slices.Contains(domain.MessageTypes, t) {
		return "", invalid("unknown message type %q", raw)
	}
	return t, nil
}

// SentMessage is a stored message together with the users it was sent between.
type SentMessage struct {
	*models.Message
	Sender    *models.User
	Recipient *models.User
}

// DTO renders the message without another directory lookup.
func (m *SentMessage) DTO() dto.MessageDTO {
	return dto.NewMessage(m.Message, dto.Users{m.Sender.ID: m.Sender, m.Recipient.ID: m.Recipient})
}

func (s *MessageService) SendMessage(ctx context.Context, in SendMessageInput) (*SentMessage, error) {
	sender, err := s.user(ctx, in.SenderID, "sender")
	if err != nil {
		return nil, err
	}
	recipient, err := s.user(ctx, in.RecipientID, "recipient")
	if err != nil {
		return nil, err
	}
	content, err := ValidateContent(in.Content)
	if err != nil {
		return nil, err
	}
	msgType, err := ParseMessageType(in.MessageType)
	if err != nil {
		return nil, err
	}

	m := &models.Message{
		SenderID:          sender.ID,
		RecipientID:       recipient.ID,
		Content:           content,
		SentAt:            s.now(),
		IsRead:            false,
		MessageType:       msgType,
		RelatedContractID: in.RelatedContractID,
		RelatedSpaceID:    in.RelatedSpaceID,
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	metrics.MessagesSent.WithLabelValues(msgType).Inc()
	s.log.Info("message saved", "message_id", m.ID, "sender_id", sender.ID, "recipient_id", recipient.ID)

	sent := &SentMessage{Message: m, Sender: sender, Recipient: recipient}
	_ = s.push.deliver(ctx, recipient.ID, push.Event{
		Type:    domain.EventNewMessage,
		Message: sent.DTO(),
	})
	return sent, nil
}

func (s *MessageService) GetMessage(ctx context.Context, messageID uint) (*models.Message, error) {
	return s.message(ctx, messageID)
}

func (s *MessageService) GetConversation(ctx context.Context, user1ID, user2ID uint) ([]models.Message, error) {
	if _, err := s.user(ctx, user1ID, "user"); err != nil {
		return nil, err
	}
	if _, err := s.user(ctx, user2ID, "user"); err != nil {
		return nil, err
	}
	return s.store.ListConversation(ctx, user1ID, user2ID)
}

func (s *MessageService) GetUserMessages(ctx context.Context, userID uint) ([]models.Message, error) {
	if _, err := s.user(ctx, userID, "user"); err != nil {
		return nil, err
	}
	return s.store.ListByUser(ctx, userID)
}

func (s *MessageService) GetUnreadMessages(ctx context.Context, userID uint) ([]models.Message, error) {
	if _, err := s.user(ctx, userID, "user"); err != nil {
		return nil, err
	}
	return s.store.ListUnread(ctx, userID)
}

func (s *MessageService) GetRecentConversations(ctx context.Context, userID uint) ([]models.Message, error) {
	if _, err := s.user(ctx, userID, "user"); err != nil {
		return nil, err
	}
	return s.index.Recent(ctx, userID)
}

func (s *MessageService) GetUnreadMessagesCount(ctx context.Context, userID uint) (int64, error) {
	if _, err := s.user(ctx, userID, "user"); err != nil {
		return 0, err
	}
	return s.store.CountUnread(ctx, userID)
}

func (s *MessageService) GetMessagesByContract(ctx context.Context, contractID uint) ([]models.Message, error) {
	return s.store.ListByContract(ctx, contractID)
}

func (s *MessageService) GetMessagesBySpace(ctx context.Context, spaceID uint) ([]models.Message, error) {
	return s.store.ListBySpace(ctx, spaceID)
}

// MarkMessagesAsRead marks everything senderID sent to userID as read and
// sends senderID a read receipt. Calling it again changes nothing.
func (s *MessageService) MarkMessagesAsRead(ctx context.Context, userID, senderID uint) error {
	if _, err := s.user(ctx, userID, "user"); err != nil {
		return err
	}
	if _, err := s.user(ctx, senderID, "sender"); err != nil {
		return err
	}
	n, err := s.store.MarkConversationRead(ctx, userID, senderID)
	if err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	s.log.Info("conversation marked read", "user_id", userID, "sender_id", senderID, "updated", n)

	_ = s.push.deliver(ctx, senderID, push.Event{
		Type: domain.EventMessagesRead,
		Data: ReadReceipt{ReaderID: userID, SenderID: senderID},
	})
	return nil
}

// MarkMessageAsRead is a no-op for a message that is already read.
func (s *MessageService) MarkMessageAsRead(ctx context.Context, messageID uint) error {
	m, err := s.message(ctx, messageID)
	if err != nil {
		return err
	}
	if m.IsRead {
		return nil
	}
	flipped, err := s.store.MarkRead(ctx, messageID)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	if !flipped {
		// Someone else got there first and sent the receipt.
		return nil
	}
	_ = s.push.deliver(ctx, m.SenderID, push.Event{
		Type: domain.EventMessageRead,
		Data: ReadReceipt{ReaderID: m.RecipientID, SenderID: m.SenderID, MessageID: m.ID},
	})
	return nil
}

// DeleteMessage lets the original sender remove their own message.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, requestingUserID uint) error {
	m, err := s.message(ctx, messageID)
	if err != nil {
		return err
	}
	if m.SenderID != requestingUserID {
		return denied("you can only delete your own messages")
	}
	if err := s.store.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	s.log.Info("message deleted", "message_id", messageID, "user_id", requestingUserID)
	return nil
}

// ReadReceipt is the payload of MESSAGE_READ and MESSAGES_READ events.
type ReadReceipt struct {
	ReaderID  uint `json:"reader_id"`
	SenderID  uint `json:"sender_id"`
	MessageID uint `json:"message_id,omitempty"`
}

func (s *MessageService) user(ctx context.Context, id uint, role string) (*models.User, error) {
	return lookupUser(ctx, s.users, id, role)
}

func (s *MessageService) message(ctx context.Context, id uint) (*models.Message, error) {
	m, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("message not found with id: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup message %d: %w", id, err)
	}
	return m, nil
}
