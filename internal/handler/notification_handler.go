package handler

import (
	"log/slog"
	"net/http"

	"spacerent/internal/middleware"
	"spacerent/internal/models"
	"spacerent/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications *service.NotificationService
	presenter     *Presenter
	log           *slog.Logger
}

func NewNotificationHandler(notifications *service.NotificationService, presenter *Presenter, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, presenter: presenter, log: logger}
}

type createNotificationRequest struct {
	RecipientID       uint   `json:"recipient_id" binding:"required"`
	Title             string `json:"title"`
	Message           string `json:"message"`
	Type              string `json:"type"`
	ActionURL         string `json:"action_url"`
	RelatedContractID *uint  `json:"related_contract_id"`
	RelatedSpaceID    *uint  `json:"related_space_id"`
	RelatedUserID     *uint  `json:"related_user_id"`
}

// Create handles POST /notifications (admin only).
func (h *NotificationHandler) Create(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := h.notifications.CreateNotification(c.Request.Context(), service.CreateNotificationInput{
		RecipientID:       req.RecipientID,
		Title:             req.Title,
		Message:           req.Message,
		Type:              req.Type,
		ActionURL:         req.ActionURL,
		RelatedContractID: req.RelatedContractID,
		RelatedSpaceID:    req.RelatedSpaceID,
		RelatedUserID:     req.RelatedUserID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out, err := h.presenter.Notification(c.Request.Context(), n)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"notification": out})
}

// List handles GET /notifications/user/:userId with an optional ?type= filter.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := ownUserParam(c)
	if !ok {
		return
	}
	var (
		list []models.Notification
		err  error
	)
	if t := c.Query("type"); t != "" {
		list, err = h.notifications.GetNotificationsByType(c.Request.Context(), userID, t)
	} else {
		list, err = h.notifications.GetUserNotifications(c.Request.Context(), userID)
	}
	h.writeNotifications(c, list, err)
}

func (h *NotificationHandler) Unread(c *gin.Context) {
	userID, ok := ownUserParam(c)
	if !ok {
		return
	}
	list, err := h.notifications.GetUnreadNotifications(c.Request.Context(), userID)
	h.writeNotifications(c, list, err)
}

func (h *NotificationHandler) Recent(c *gin.Context) {
	userID, ok := ownUserParam(c)
	if !ok {
		return
	}
	list, err := h.notifications.GetRecentNotifications(c.Request.Context(), userID)
	h.writeNotifications(c, list, err)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := ownUserParam(c)
	if !ok {
		return
	}
	n, err := h.notifications.GetUnreadNotificationsCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "notificationId")
	if !ok {
		return
	}
	n, err := h.notifications.GetNotification(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !middleware.IsSelfOrAdmin(c, n.RecipientID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.notifications.MarkNotificationAsRead(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := ownUserParam(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkAllNotificationsAsRead(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Delete handles DELETE /notifications/:notificationId?userId=. userId defaults to the caller.
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "notificationId")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	if c.Query("userId") != "" {
		if userID, ok = queryID(c, "userId"); !ok {
			return
		}
	}
	if !middleware.IsSelfOrAdmin(c, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.notifications.DeleteNotification(c.Request.Context(), id, userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Cleanup handles POST /notifications/cleanup (admin only).
func (h *NotificationHandler) Cleanup(c *gin.Context) {
	n, err := h.notifications.CleanupOldNotifications(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *NotificationHandler) writeNotifications(c *gin.Context, list []models.Notification, err error) {
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out, err := h.presenter.Notifications(c.Request.Context(), list)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}
