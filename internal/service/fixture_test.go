package service

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"spacerent/internal/domain"
	"spacerent/internal/mocks"
	"spacerent/internal/models"
	"spacerent/internal/push"
	"spacerent/internal/repository"
	"spacerent/internal/testdb"

	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// clock hands out strictly increasing instants so ordering never ties by accident.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(start time.Time) *clock { return &clock{now: start} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.Add(-time.Second)
}

type fixture struct {
	db            *gorm.DB
	users         *repository.UserRepository
	messageRepo   *repository.MessageRepository
	notifRepo     *repository.NotificationRepository
	push          *mocks.MockChannel
	clock         *clock
	messages      *MessageService
	notifications *NotificationService
	tenant        *models.User
	owner         *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	ctrl := gomock.NewController(t)
	f := &fixture{
		db:          db,
		users:       repository.NewUserRepository(db),
		messageRepo: repository.NewMessageRepository(db),
		notifRepo:   repository.NewNotificationRepository(db),
		push:        mocks.NewMockChannel(ctrl),
		clock:       newClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)),
		tenant:      testdb.User(t, db, "tina", domain.RoleTenant),
		owner:       testdb.User(t, db, "otto", domain.RoleOwner),
	}
	f.messages = NewMessageService(f.messageRepo, f.users, f.push, discard)
	f.messages.now = f.clock.Now
	f.notifications = NewNotificationService(f.notifRepo, f.users, f.push, discard)
	f.notifications.now = f.clock.Now
	return f
}

// eventOf matches a push.Event by type.
type eventOf string

func (e eventOf) Matches(x any) bool {
	ev, ok := x.(push.Event)
	return ok && ev.Type == string(e)
}

func (e eventOf) String() string { return fmt.Sprintf("push event %s", string(e)) }
