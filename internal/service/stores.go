package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spacerent/internal/models"
	"spacerent/internal/repository"
)

// UserDirectory resolves user ids owned by the account service.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.User, error)
}

type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	ListConversation(ctx context.Context, a, b uint) ([]models.Message, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Message, error)
	ListUnread(ctx context.Context, userID uint) ([]models.Message, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	ListByContract(ctx context.Context, contractID uint) ([]models.Message, error)
	ListBySpace(ctx context.Context, spaceID uint) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, recipientID, senderID uint) (int64, error)
	MarkRead(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, id uint) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Notification, error)
	ListUnread(ctx context.Context, userID uint) ([]models.Notification, error)
	ListByType(ctx context.Context, userID uint, notifType string) ([]models.Notification, error)
	ListSince(ctx context.Context, userID uint, since time.Time) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id uint) (bool, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

func lookupUser(ctx context.Context, users UserDirectory, id uint, role string) (*models.User, error) {
	u, err := users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("%s not found with id: %d", role, id)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s %d: %w", role, id, err)
	}
	return u, nil
}
