package repository

import (
	"context"
	"testing"
	"time"

	"spacerent/internal/domain"
	"spacerent/internal/models"
	"spacerent/internal/testdb"

	"github.com/stretchr/testify/require"
)

func newNotification(to uint, notifType string, at time.Time) *models.Notification {
	return &models.Notification{
		RecipientID: to,
		Title:       "title",
		Message:     "message",
		Type:        notifType,
		CreatedAt:   at,
	}
}

func TestNotificationRepository_Queries(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := testdb.Open(t)
	repo := NewNotificationRepository(db)
	u := testdb.User(t, db, "tina", domain.RoleTenant)
	other := testdb.User(t, db, "otto", domain.RoleOwner)

	old := newNotification(u.ID, domain.NotificationPaymentDue, base.AddDate(0, 0, -40))
	recent := newNotification(u.ID, domain.NotificationContractCreated, base.AddDate(0, 0, -1))
	for _, n := range []*models.Notification{old, recent, newNotification(other.ID, domain.NotificationPaymentDue, base)} {
		req.NoError(repo.Create(ctx, n))
	}

	list, err := repo.ListByUser(ctx, u.ID)
	req.NoError(err)
	req.Len(list, 2)
	req.Equal(recent.ID, list[0].ID, "newest first")

	since, err := repo.ListSince(ctx, u.ID, base.AddDate(0, 0, -30))
	req.NoError(err)
	req.Len(since, 1)
	req.Equal(recent.ID, since[0].ID)

	byType, err := repo.ListByType(ctx, u.ID, domain.NotificationPaymentDue)
	req.NoError(err)
	req.Len(byType, 1)
	req.Equal(old.ID, byType[0].ID)

	updated, err := repo.MarkAllRead(ctx, u.ID)
	req.NoError(err)
	req.EqualValues(2, updated)
	n, err := repo.CountUnread(ctx, u.ID)
	req.NoError(err)
	req.Zero(n)
	n, err = repo.CountUnread(ctx, other.ID)
	req.NoError(err)
	req.EqualValues(1, n)
}

func TestNotificationRepository_DeleteBeforeIsStrict(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := testdb.Open(t)
	repo := NewNotificationRepository(db)
	u := testdb.User(t, db, "tina", domain.RoleTenant)

	cutoff := base.AddDate(0, -3, 0)
	older := newNotification(u.ID, domain.NotificationSystemAlert, cutoff.Add(-time.Second))
	atCutoff := newNotification(u.ID, domain.NotificationSystemAlert, cutoff)
	for _, n := range []*models.Notification{older, atCutoff} {
		req.NoError(repo.Create(ctx, n))
	}

	deleted, err := repo.DeleteBefore(ctx, cutoff)
	req.NoError(err)
	req.EqualValues(1, deleted)

	_, err = repo.GetByID(ctx, older.ID)
	req.ErrorIs(err, ErrNotFound)
	_, err = repo.GetByID(ctx, atCutoff.ID)
	req.NoError(err)
}

func TestUserRepository_GetByIDs(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := testdb.Open(t)
	repo := NewUserRepository(db)
	a := testdb.User(t, db, "alice", domain.RoleTenant)

	got, err := repo.GetByIDs(ctx, []uint{a.ID, 999})
	req.NoError(err)
	req.Len(got, 1)
	req.Equal("alice", got[a.ID].Name)

	_, err = repo.GetByID(ctx, 999)
	req.ErrorIs(err, ErrNotFound)
}
