//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=../mocks/mock_channel.go -package=mocks

// Package push carries best-effort, at-most-once events to connected users.
// Nothing here is durable: the database stays the source of truth, and a user
// without a live connection simply misses the event.
package push

import (
	"context"
	"errors"
)

// Event is the envelope written to the live channel.
type Event struct {
	Type         string `json:"type"`
	UserID       uint   `json:"user_id"`
	Message      any    `json:"message,omitempty"`
	Notification any    `json:"notification,omitempty"`
	Data         any    `json:"data,omitempty"`
}

// Channel delivers an event to every live connection of userID.
// A missing connection is not an error.
type Channel interface {
	Publish(ctx context.Context, userID uint, ev Event) error
}

// Nop drops everything.
type Nop struct{}

func (Nop) Publish(context.Context, uint, Event) error { return nil }

// Fanout publishes to every member and joins their errors.
type Fanout []Channel

func (f Fanout) Publish(ctx context.Context, userID uint, ev Event) error {
	var errs []error
	for _, ch := range f {
		if ch == nil {
			continue
		}
		if err := ch.Publish(ctx, userID, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
