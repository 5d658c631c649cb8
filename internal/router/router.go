package router

import (
	"log/slog"
	"net/http"
	"time"

	"spacerent/config"
	"spacerent/internal/domain"
	"spacerent/internal/handler"
	"spacerent/internal/middleware"
	"spacerent/internal/service"
	"spacerent/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Users         service.UserDirectory
	Messages      *service.MessageService
	Notifications *service.NotificationService
	Hub           *ws.Hub
	Limiter       *middleware.InMemoryRateLimiter
}

func Setup(cfg *config.Config, d Deps, logger *slog.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(logger))
	r.Use(middleware.Metrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID}
	r.Use(cors.New(corsConfig))

	if d.Limiter == nil {
		d.Limiter = middleware.NewInMemoryRateLimiter(cfg.Server.RateLimit, 60*time.Second)
	}

	presenter := handler.NewPresenter(d.Users)
	sender := handler.NewSender(d.Messages, d.Notifications, logger)
	messageHandler := handler.NewMessageHandler(d.Messages, sender, presenter, logger)
	notificationHandler := handler.NewNotificationHandler(d.Notifications, presenter, logger)
	liveHandler := handler.NewLiveHandler(&cfg.JWT, d.Hub, sender, d.Messages, cfg.Push.ClientBuffer, logger)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.RequireRole(domain.RoleAdmin)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "live_connections": d.Hub.ClientCount()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/notifications", liveHandler.Upgrade)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(d.Limiter), authMw)
	{
		msgs := api.Group("/messages")
		{
			msgs.POST("/send", messageHandler.Send)
			msgs.GET("/conversation/:user1Id/:user2Id", messageHandler.Conversation)
			msgs.GET("/user/:userId", messageHandler.UserMessages)
			msgs.GET("/unread/:userId", messageHandler.Unread)
			msgs.GET("/conversations/:userId", messageHandler.Conversations)
			msgs.POST("/mark-read", messageHandler.MarkConversationRead)
			msgs.POST("/mark-read/:messageId", messageHandler.MarkRead)
			msgs.GET("/unread-count/:userId", messageHandler.UnreadCount)
			msgs.DELETE("/:messageId", messageHandler.Delete)
			msgs.GET("/contract/:contractId", messageHandler.ByContract)
			msgs.GET("/space/:spaceId", messageHandler.BySpace)
		}

		notifs := api.Group("/notifications")
		{
			notifs.POST("", adminMw, notificationHandler.Create)
			notifs.GET("/user/:userId", notificationHandler.List)
			notifs.GET("/unread/:userId", notificationHandler.Unread)
			notifs.GET("/unread-count/:userId", notificationHandler.UnreadCount)
			notifs.GET("/recent/:userId", notificationHandler.Recent)
			notifs.POST("/mark-read/:notificationId", notificationHandler.MarkRead)
			notifs.POST("/mark-all-read/:userId", notificationHandler.MarkAllRead)
			notifs.DELETE("/:notificationId", notificationHandler.Delete)
			notifs.POST("/cleanup", adminMw, notificationHandler.Cleanup)
		}
	}

	return r
}
