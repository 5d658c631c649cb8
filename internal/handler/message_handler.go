package handler

import (
	"log/slog"
	"net/http"

	"spacerent/internal/domain"
	"spacerent/internal/middleware"
	"spacerent/internal/models"
	"spacerent/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type MessageHandler struct {
	messages  *service.MessageService
	sender    *Sender
	presenter *Presenter
	log       *slog.Logger
}

func NewMessageHandler(messages *service.MessageService, sender *Sender, presenter *Presenter, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, sender: sender, presenter: presenter, log: logger}
}

type sendMessageRequest struct {
	// SenderID may be omitted; when present it must match the caller.
	SenderID          uint   `json:"sender_id"`
	RecipientID       uint   `json:"recipient_id" binding:"required"`
	Content           string `json:"content"`
	MessageType       string `json:"message_type"`
	RelatedContractID *uint  `json:"related_contract_id"`
	RelatedSpaceID    *uint  `json:"related_space_id"`
}

type markConversationReadRequest struct {
	UserID   uint `json:"user_id" binding:"required"`
	SenderID uint `json:"sender_id" binding:"required"`
}

// Send handles POST /messages/send.
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	callerID := middleware.GetUserID(c)
	if req.SenderID != 0 && req.SenderID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot send on behalf of another user"})
		return
	}
	m, err := h.sender.Send(c.Request.Context(), service.SendMessageInput{
		SenderID:          callerID,
		RecipientID:       req.RecipientID,
		Content:           req.Content,
		MessageType:       req.MessageType,
		RelatedContractID: req.RelatedContractID,
		RelatedSpaceID:    req.RelatedSpaceID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": m.DTO()})
}

func (h *MessageHandler) Conversation(c *gin.Context) {
	user1, ok := parseID(c, "user1Id")
	if !ok {
		return
	}
	user2, ok := parseID(c, "user2Id")
	if !ok {
		return
	}
	if !middleware.IsSelfOrAdmin(c, user1) && !middleware.IsSelfOrAdmin(c, user2) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	list, err := h.messages.GetConversation(c.Request.Context(), user1, user2)
	h.writeMessages(c, list, err)
}

func (h *MessageHandler) UserMessages(c *gin.Context) {
	userID, ok := ownUserParam(c)
	if !ok {
		return
	}
	list, err := h.messages.GetUserMessages(c.Request.Context(), userID)
	h.writeMessages(c, list, err)
}

func (h *MessageHandler) Unread(c *gin.Context) {
	userID, ok := ownUserParam(c)
	if !ok {
		return
	}
	list, err := h.messages.GetUnreadMessages(c.Request.Context(), userID)
	h.writeMessages(c, list, err)
}

// Conversations returns the inbox: the latest message per counterparty.
func (h *MessageHandler) Conversations(c *gin.Context) {
	userID, ok := ownUserParam(c)
	if !ok {
		return
	}
	list, err := h.messages.GetRecentConversations(c.Request.Context(), userID)
	h.writeMessages(c, list, err)
}

func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userID, ok := ownUserParam(c)
	if !ok {
		return
	}
	n, err := h.messages.GetUnreadMessagesCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// MarkConversationRead handles POST /messages/mark-read.
func (h *MessageHandler) MarkConversationRead(c *gin.Context) {
	var req markConversationReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !middleware.IsSelfOrAdmin(c, req.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.messages.MarkMessagesAsRead(c.Request.Context(), req.UserID, req.SenderID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MarkRead handles POST /messages/mark-read/:messageId. Only the recipient may mark a message read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "messageId")
	if !ok {
		return
	}
	m, err := h.messages.GetMessage(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !middleware.IsSelfOrAdmin(c, m.RecipientID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.messages.MarkMessageAsRead(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Delete handles DELETE /messages/:messageId?userId=. userId defaults to the caller.
func (h *MessageHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "messageId")
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
	if err := h.messages.DeleteMessage(c.Request.Context(), id, userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) ByContract(c *gin.Context) {
	id, ok := parseID(c, "contractId")
	if !ok {
		return
	}
	list, err := h.messages.GetMessagesByContract(c.Request.Context(), id)
	h.writeMessages(c, visibleTo(c, list), err)
}

func (h *MessageHandler) BySpace(c *gin.Context) {
	id, ok := parseID(c, "spaceId")
	if !ok {
		return
	}
	list, err := h.messages.GetMessagesBySpace(c.Request.Context(), id)
	h.writeMessages(c, visibleTo(c, list), err)
}

func ownUserParam(c *gin.Context) (uint, bool) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return 0, false
	}
	if !middleware.IsSelfOrAdmin(c, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return 0, false
	}
	return userID, true
}

// visibleTo keeps the messages the caller sent or received. Admins see all of them.
func visibleTo(c *gin.Context, list []models.Message) []models.Message {
	if middleware.GetRole(c) == domain.RoleAdmin {
		return list
	}
	caller := middleware.GetUserID(c)
	return lo.Filter(list, func(m models.Message, _ int) bool {
		return m.SenderID == caller || m.RecipientID == caller
	})
}

func (h *MessageHandler) writeMessages(c *gin.Context, list []models.Message, err error) {
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out, err := h.presenter.Messages(c.Request.Context(), list)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}
