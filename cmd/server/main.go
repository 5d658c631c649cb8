package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"spacerent/config"
	"spacerent/internal/database"
	"spacerent/internal/events"
	"spacerent/internal/middleware"
	"spacerent/internal/push"
	"spacerent/internal/repository"
	"spacerent/internal/router"
	"spacerent/internal/service"
	"spacerent/internal/ws"

	"github.com/go-redis/redis/v8"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := newLogger(cfg.Server.LogLevel)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db, cfg.Database.MigrateUsers); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	hub := ws.NewHub()
	var live push.Channel = hub
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		relay := push.NewRedisRelay(rdb, hub, logger)
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("push relay stopped", "error", err)
			}
		}()
		live = relay
		logger.Info("push relay enabled", "addr", cfg.Redis.Addr)
	}

	channel := push.Fanout{live}
	if fcm := service.NewFCMService(ctx, cfg.Push.FirebaseServiceAccountPath, userRepo, logger); fcm != nil {
		channel = append(channel, fcm)
		logger.Info("fcm push enabled")
	} else if cfg.Push.FirebaseServiceAccountPath != "" {
		logger.Warn("fcm push disabled: failed to init (check service account file)")
	}

	messages := service.NewMessageService(messageRepo, userRepo, channel, logger)
	notifications := service.NewNotificationService(notificationRepo, userRepo, channel, logger).
		WithRetention(cfg.Notifications.RecentWindow, cfg.Notifications.RetentionMonths)

	go service.NewCleanupJob(notifications, cfg.Notifications.CleanupInterval, logger).Run(ctx)

	if cfg.AMQP.URL != "" {
		consumer := events.NewConsumer(cfg.AMQP, notifications, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("event bridge stopped", "error", err)
			}
		}()
	}

	limiter := middleware.NewInMemoryRateLimiter(cfg.Server.RateLimit, 60*time.Second)
	go limiter.Run(ctx)

	engine := router.Setup(cfg, router.Deps{
		Users:         userRepo,
		Messages:      messages,
		Notifications: notifications,
		Hub:           hub,
		Limiter:       limiter,
	}, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		l = slog.LevelDebug
	case "WARN":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
