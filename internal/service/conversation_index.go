package service

import (
	"context"

	"spacerent/internal/models"

	"github.com/samber/lo"
)

// ConversationIndex derives the inbox view from the flat message log: one row
// per counterparty, holding the latest message exchanged with them.
type ConversationIndex struct {
	store MessageStore
}

func NewConversationIndex(store MessageStore) *ConversationIndex {
	return &ConversationIndex{store: store}
}

// Recent returns the latest message per counterparty of userID, newest first.
func (ix *ConversationIndex) Recent(ctx context.Context, userID uint) ([]models.Message, error) {
	all, err := ix.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return LatestPerCounterparty(userID, all), nil
}

// LatestPerCounterparty expects list ordered newest first (sent_at DESC, id DESC)
// and keeps the first message seen for each counterparty.
func LatestPerCounterparty(userID uint, list []models.Message) []models.Message {
	return lo.UniqBy(list, func(m models.Message) uint {
		return m.Counterparty(userID)
	})
}
