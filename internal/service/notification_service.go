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

const (
	DefaultRecentWindow    = 30 * 24 * time.Hour
	DefaultRetentionMonths = 3
)

type CreateNotificationInput struct {
	RecipientID       uint
	Title             string
	Message           string
	Type              string
	ActionURL         string
	RelatedContractID *uint
	RelatedSpaceID    *uint
	RelatedUserID     *uint
}

type NotificationService struct {
	store           NotificationStore
	users           UserDirectory
	push            deliverer
	log             *slog.Logger
	now             func() time.Time
	recentWindow    time.Duration
	retentionMonths int
}

func NewNotificationService(store NotificationStore, users UserDirectory, ch push.Channel, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		store:           store,
		users:           users,
		push:            deliverer{ch: ch, log: logger},
		log:             logger,
		now:             func() time.Time { return time.Now().UTC() },
		recentWindow:    DefaultRecentWindow,
		retentionMonths: DefaultRetentionMonths,
	}
}

// WithRetention overrides the recent-list window and the cleanup age.
// Non-positive values keep the defaults.
func (s *NotificationService) WithRetention(recentWindow time.Duration, retentionMonths int) *NotificationService {
	if recentWindow > 0 {
		s.recentWindow = recentWindow
	}
	if retentionMonths > 0 {
		s.retentionMonths = retentionMonths
	}
	return s
}

// ValidateNotification checks the caller-supplied fields and returns a trimmed copy.
func ValidateNotification(in CreateNotificationInput) (CreateNotificationInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	in.Type = strings.TrimSpace(in.Type)
	if in.Title == "" {
		return in, invalid("notification title cannot be empty")
	}
	if in.Message == "" {
		return in, invalid("notification message cannot be empty")
	}
	if in.Type == "" {
		return in, invalid("notification type cannot be empty")
	}
	if utf8.RuneCountInString(in.Title) > domain.MaxNotificationTitleLength {
		return in, invalid("notification title cannot exceed %d characters", domain.MaxNotificationTitleLength)
	}
	if utf8.RuneCountInString(in.Message) > domain.MaxNotificationMessageLength {
		return in, invalid("notification message cannot exceed %d characters", domain.MaxNotificationMessageLength)
	}
	if utf8.RuneCountInString(in.ActionURL) > domain.MaxActionURLLength {
		return in, invalid("action url cannot exceed %d characters", domain.MaxActionURLLength)
	}
	if !slices.Contains(domain.NotificationTypes, in.Type) {
		return in, invalid("unknown notification type %q", in.Type)
	}
	return in, nil
}

func (s *NotificationService) CreateNotification(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	recipient, err := lookupUser(ctx, s.users, in.RecipientID, "recipient")
	if err != nil {
		return nil, err
	}
	in, err = ValidateNotification(in)
	if err != nil {
		return nil, err
	}
	n := &models.Notification{
		RecipientID:       recipient.ID,
		Title:             in.Title,
		Message:           in.Message,
		Type:              in.Type,
		IsRead:            false,
		CreatedAt:         s.now(),
		ActionURL:         in.ActionURL,
		RelatedContractID: in.RelatedContractID,
		RelatedSpaceID:    in.RelatedSpaceID,
		RelatedUserID:     in.RelatedUserID,
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("save notification: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(n.Type).Inc()
	s.log.Info("notification created", "notification_id", n.ID, "recipient_id", n.RecipientID, "type", n.Type)

	_ = s.push.deliver(ctx, recipient.ID, push.Event{
		Type:         domain.EventNewNotification,
		Notification: dto.NewNotification(n, dto.Users{recipient.ID: recipient}),
	})
	return n, nil
}

func (s *NotificationService) GetNotification(ctx context.Context, notificationID uint) (*models.Notification, error) {
	return s.notification(ctx, notificationID)
}

func (s *NotificationService) GetUserNotifications(ctx context.Context, userID uint) ([]models.Notification, error) {
	if _, err := lookupUser(ctx, s.users, userID, "user"); err != nil {
		return nil, err
	}
	return s.store.ListByUser(ctx, userID)
}

func (s *NotificationService) GetUnreadNotifications(ctx context.Context, userID uint) ([]models.Notification, error) {
	if _, err := lookupUser(ctx, s.users, userID, "user"); err != nil {
		return nil, err
	}
	return s.store.ListUnread(ctx, userID)
}

// GetRecentNotifications returns what the user received within the recent window (30 days by default).
func (s *NotificationService) GetRecentNotifications(ctx context.Context, userID uint) ([]models.Notification, error) {
	if _, err := lookupUser(ctx, s.users, userID, "user"); err != nil {
		return nil, err
	}
	return s.store.ListSince(ctx, userID, s.now().Add(-s.recentWindow))
}

func (s *NotificationService) GetNotificationsByType(ctx context.Context, userID uint, notifType string) ([]models.Notification, error) {
	if _, err := lookupUser(ctx, s.users, userID, "user"); err != nil {
		return nil, err
	}
	if !slices.Contains(domain.NotificationTypes, notifType) {
		return nil, invalid("unknown notification type %q", notifType)
	}
	return s.store.ListByType(ctx, userID, notifType)
}

func (s *NotificationService) GetUnreadNotificationsCount(ctx context.Context, userID uint) (int64, error) {
	if _, err := lookupUser(ctx, s.users, userID, "user"); err != nil {
		return 0, err
	}
	return s.store.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkNotificationAsRead(ctx context.Context, notificationID uint) error {
	if _, err := s.notification(ctx, notificationID); err != nil {
		return err
	}
	if _, err := s.store.MarkRead(ctx, notificationID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationService) MarkAllNotificationsAsRead(ctx context.Context, userID uint) error {
	if _, err := lookupUser(ctx, s.users, userID, "user"); err != nil {
		return err
	}
	n, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	s.log.Info("notifications marked read", "user_id", userID, "updated", n)
	return nil
}

// DeleteNotification lets the recipient remove one of their notifications.
func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID, requestingUserID uint) error {
	n, err := s.notification(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.RecipientID != requestingUserID {
		return denied("you can only delete your own notifications")
	}
	if err := s.store.Delete(ctx, notificationID); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	s.log.Info("notification deleted", "notification_id", notificationID, "user_id", requestingUserID)
	return nil
}

// CleanupOldNotifications purges notifications created before now minus the retention period.
func (s *NotificationService) CleanupOldNotifications(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, -s.retentionMonths, 0)
	n, err := s.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup notifications: %w", err)
	}
	s.log.Info("old notifications cleaned up", "before", cutoff, "deleted", n)
	return n, nil
}

func (s *NotificationService) notification(ctx context.Context, id uint) (*models.Notification, error) {
	n, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("notification not found with id: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup notification %d: %w", id, err)
	}
	return n, nil
}
