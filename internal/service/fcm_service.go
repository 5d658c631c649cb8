package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"spacerent/internal/domain"
	"spacerent/internal/dto"
	"spacerent/internal/push"
)

// fcmSender is the part of *messaging.Client we use.
type fcmSender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// FCMService forwards NEW_MESSAGE and NEW_NOTIFICATION events to the user's
// device via Firebase Cloud Messaging. Other events, and MESSAGE_RECEIVED
// notifications, are ignored.
type FCMService struct {
	client fcmSender
	users  UserDirectory
	log    *slog.Logger
}

var _ push.Channel = (*FCMService)(nil)

// NewFCMService creates an FCM service. Returns nil if Firebase is not configured.
func NewFCMService(ctx context.Context, serviceAccountPath string, users UserDirectory, logger *slog.Logger) *FCMService {
	if serviceAccountPath == "" {
		return nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		logger.Error("fcm: init firebase app", "error", err)
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		logger.Error("fcm: messaging client", "error", err)
		return nil
	}
	return &FCMService{client: client, users: users, log: logger}
}

func newFCMService(client fcmSender, users UserDirectory, logger *slog.Logger) *FCMService {
	return &FCMService{client: client, users: users, log: logger}
}

// Publish sends a device push when the event has a mobile rendering and the
// user registered a token. A nil service is a no-op.
func (s *FCMService) Publish(ctx context.Context, userID uint, ev push.Event) error {
	if s == nil {
		return nil
	}
	title, body, data, ok := renderFCM(ev)
	if !ok {
		return nil
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("fcm: lookup user %d: %w", userID, err)
	}
	if u.FCMToken == "" {
		return nil
	}
	if err := s.Send(ctx, u.FCMToken, title, body, data); err != nil {
		return fmt.Errorf("fcm: send to user %d: %w", userID, err)
	}
	return nil
}

// Send sends a push notification to the given FCM token.
func (s *FCMService) Send(ctx context.Context, token string, title, body string, data map[string]string) error {
	if s == nil || token == "" {
		return nil
	}
	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  data,
		Token: token,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		s.log.Warn("fcm: send failed", "error", err)
		return err
	}
	return nil
}

// renderFCM maps an event to a device notification. FCM data values must be strings.
func renderFCM(ev push.Event) (title, body string, data map[string]string, ok bool) {
	switch ev.Type {
	case domain.EventNewMessage:
		m, isDTO := ev.Message.(dto.MessageDTO)
		if !isDTO {
			return "", "", nil, false
		}
		return "New message from " + m.SenderName, m.Content, map[string]string{
			"type":       ev.Type,
			"message_id": strconv.FormatUint(uint64(m.ID), 10),
			"sender_id":  strconv.FormatUint(uint64(m.SenderID), 10),
		}, true
	case domain.EventNewNotification:
		n, isDTO := ev.Notification.(dto.NotificationDTO)
		// MESSAGE_RECEIVED duplicates the NEW_MESSAGE push the device already got.
		if !isDTO || n.Type == domain.NotificationMessageReceived {
			return "", "", nil, false
		}
		return n.Title, n.Message, map[string]string{
			"type":              ev.Type,
			"notification_id":   strconv.FormatUint(uint64(n.ID), 10),
			"notification_type": n.Type,
			"action_url":        n.ActionURL,
		}, true
	default:
		return "", "", nil, false
	}
}
