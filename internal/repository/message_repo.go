package repository

import (
	"context"

	"spacerent/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var m models.Message
	err := r.db.WithContext(ctx).First(&m, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// ListConversation returns every message exchanged between a and b, oldest first.
// Ties on sent_at keep insertion order.
func (r *MessageRepository) ListConversation(ctx context.Context, a, b uint) ([]models.Message, error) {
	var list []models.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("sent_at ASC").Order("id ASC").
		Find(&list).Error
	return list, err
}

// ListByUser returns messages sent or received by userID, newest first.
func (r *MessageRepository) ListByUser(ctx context.Context, userID uint) ([]models.Message, error) {
	var list []models.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("sent_at DESC").Order("id DESC").
		Find(&list).Error
	return list, err
}

func (r *MessageRepository) ListUnread(ctx context.Context, userID uint) ([]models.Message, error) {
	var list []models.Message
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Order("sent_at DESC").Order("id DESC").
		Find(&list).Error
	return list, err
}

func (r *MessageRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var c int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&c).Error
	return c, err
}

func (r *MessageRepository) ListByContract(ctx context.Context, contractID uint) ([]models.Message, error) {
	var list []models.Message
	err := r.db.WithContext(ctx).Where("related_contract_id = ?", contractID).
		Order("sent_at ASC").Order("id ASC").Find(&list).Error
	return list, err
}

func (r *MessageRepository) ListBySpace(ctx context.Context, spaceID uint) ([]models.Message, error) {
	var list []models.Message
	err := r.db.WithContext(ctx).Where("related_space_id = ?", spaceID).
		Order("sent_at ASC").Order("id ASC").Find(&list).Error
	return list, err
}

// MarkConversationRead flips every unread message from senderID to recipientID.
// Returns the number of rows that changed.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, recipientID, senderID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND is_read = ?", recipientID, senderID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// MarkRead flips one message. It reports false when the row was already read,
// so concurrent callers agree on who performed the transition.
func (r *MessageRepository) MarkRead(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true)
	return res.RowsAffected == 1, res.Error
}

// Delete soft-deletes the message; it disappears from every query above.
func (r *MessageRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Message{}, id).Error
}
