package service

import (
	"context"
	"fmt"
	"log/slog"

	"spacerent/internal/metrics"
	"spacerent/internal/push"
)

// deliverer wraps a push.Channel so that a failed or panicking publish turns
// into a logged error value the caller can discard.
type deliverer struct {
	ch  push.Channel
	log *slog.Logger
}

func (d deliverer) deliver(ctx context.Context, userID uint, ev push.Event) (err error) {
	if d.ch == nil {
		return nil
	}
	ev.UserID = userID
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrDeliveryFailed, r)
		}
		if err != nil {
			metrics.PushEvents.WithLabelValues(ev.Type, "failed").Inc()
			d.log.Warn("push delivery failed", "event", ev.Type, "user_id", userID, "error", err)
			return
		}
		metrics.PushEvents.WithLabelValues(ev.Type, "ok").Inc()
	}()
	// Publish outlives the request that triggered it.
	if pubErr := d.ch.Publish(context.WithoutCancel(ctx), userID, ev); pubErr != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, pubErr)
	}
	return nil
}
