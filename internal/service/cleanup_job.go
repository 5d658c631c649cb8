package service

import (
	"context"
	"log/slog"
	"time"
)

// CleanupJob periodically purges notifications past the retention period.
type CleanupJob struct {
	notifications *NotificationService
	interval      time.Duration
	log           *slog.Logger
}

func NewCleanupJob(notifications *NotificationService, interval time.Duration, logger *slog.Logger) *CleanupJob {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &CleanupJob{notifications: notifications, interval: interval, log: logger}
}

// Run blocks until ctx is cancelled.
func (j *CleanupJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	j.log.Info("notification cleanup scheduled", "interval", j.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.notifications.CleanupOldNotifications(ctx); err != nil {
				j.log.Error("notification cleanup failed", "error", err)
			}
		}
	}
}
