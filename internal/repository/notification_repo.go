package repository

import (
	"context"
	"time"

	"spacerent/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	err := r.db.WithContext(ctx).First(&n, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).Where("recipient_id = ?", userID).
		Order("created_at DESC").Order("id DESC").Find(&list).Error
	return list, err
}

func (r *NotificationRepository) ListUnread(ctx context.Context, userID uint) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).Where("recipient_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").Order("id DESC").Find(&list).Error
	return list, err
}

func (r *NotificationRepository) ListByType(ctx context.Context, userID uint, notifType string) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).Where("recipient_id = ? AND type = ?", userID, notifType).
		Order("created_at DESC").Order("id DESC").Find(&list).Error
	return list, err
}

// ListSince returns the user's notifications created at or after since.
func (r *NotificationRepository) ListSince(ctx context.Context, userID uint, since time.Time) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).Where("recipient_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").Order("id DESC").Find(&list).Error
	return list, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var c int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).Count(&c).Error
	return c, err
}

func (r *NotificationRepository) Count(ctx context.Context) (int64, error) {
	var c int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Count(&c).Error
	return c, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true)
	return res.RowsAffected == 1, res.Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Notification{}, id).Error
}

// DeleteBefore purges notifications created strictly before the cutoff.
func (r *NotificationRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", before).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
