package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"spacerent/config"
	"spacerent/internal/auth"
	"spacerent/internal/domain"
	"spacerent/internal/push"
	"spacerent/internal/service"
	"spacerent/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Inbound live-channel frame types.
const (
	FrameSendMessage = "send-message"
	FrameMarkRead    = "mark-read"
)

type frameHeader struct {
	Type string `json:"type" validate:"required,oneof=send-message mark-read"`
}

type sendMessageFrame struct {
	RecipientID       uint   `json:"recipient_id" validate:"required"`
	Content           string `json:"content" validate:"required"`
	MessageType       string `json:"message_type"`
	RelatedContractID *uint  `json:"related_contract_id"`
	RelatedSpaceID    *uint  `json:"related_space_id"`
}

// markReadFrame marks one message (message_id) or a whole conversation (sender_id) as read.
type markReadFrame struct {
	MessageID uint `json:"message_id" validate:"required_without=SenderID"`
	SenderID  uint `json:"sender_id" validate:"required_without=MessageID"`
}

type LiveHandler struct {
	cfg      *config.JWTConfig
	hub      *ws.Hub
	sender   *Sender
	messages *service.MessageService
	buffer   int
	validate *validator.Validate
	log      *slog.Logger
}

func NewLiveHandler(cfg *config.JWTConfig, hub *ws.Hub, sender *Sender, messages *service.MessageService, buffer int, logger *slog.Logger) *LiveHandler {
	if buffer <= 0 {
		buffer = 256
	}
	return &LiveHandler{
		cfg:      cfg,
		hub:      hub,
		sender:   sender,
		messages: messages,
		buffer:   buffer,
		validate: validator.New(),
		log:      logger,
	}
}

// Upgrade handles GET /ws/notifications?token=. The connection receives every
// push event for the token's user and accepts send-message and mark-read frames.
func (h *LiveHandler) Upgrade(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	claims, err := auth.ParseAccessToken(h.cfg, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	conn, err := ws.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := ws.NewClient(uuid.NewString(), claims.UserID, claims.Role, h.buffer)
	h.hub.Register(client)
	defer client.Close()
	h.log.Info("live channel connected", "user_id", claims.UserID, "client_id", client.ID)

	go ws.WritePump(client, conn)

	ws.PrepareRead(conn)
	ctx := c.Request.Context()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("live channel read failed", "user_id", claims.UserID, "error", err)
			}
			break
		}
		h.handleFrame(ctx, client, raw)
	}
	h.log.Info("live channel disconnected", "user_id", claims.UserID, "client_id", client.ID)
}

func (h *LiveHandler) handleFrame(ctx context.Context, client *ws.Client, raw []byte) {
	var head frameHeader
	if err := h.decode(raw, &head); err != nil {
		h.replyError(client, err)
		return
	}
	switch head.Type {
	case FrameSendMessage:
		var f sendMessageFrame
		if err := h.decode(raw, &f); err != nil {
			h.replyError(client, err)
			return
		}
		m, err := h.sender.Send(ctx, service.SendMessageInput{
			SenderID:          client.UserID,
			RecipientID:       f.RecipientID,
			Content:           f.Content,
			MessageType:       f.MessageType,
			RelatedContractID: f.RelatedContractID,
			RelatedSpaceID:    f.RelatedSpaceID,
		})
		if err != nil {
			h.replyError(client, err)
			return
		}
		h.reply(client, push.Event{Type: domain.EventMessageSent, UserID: client.UserID, Message: m.DTO()})
	case FrameMarkRead:
		var f markReadFrame
		if err := h.decode(raw, &f); err != nil {
			h.replyError(client, err)
			return
		}
		if err := h.markRead(ctx, client.UserID, f); err != nil {
			h.replyError(client, err)
		}
	}
}

func (h *LiveHandler) markRead(ctx context.Context, userID uint, f markReadFrame) error {
	if f.MessageID == 0 {
		return h.messages.MarkMessagesAsRead(ctx, userID, f.SenderID)
	}
	m, err := h.messages.GetMessage(ctx, f.MessageID)
	if err != nil {
		return err
	}
	if m.RecipientID != userID {
		return fmt.Errorf("%w: you can only mark your own messages as read", service.ErrPermissionDenied)
	}
	return h.messages.MarkMessageAsRead(ctx, f.MessageID)
}

func (h *LiveHandler) decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
	}
	if err := h.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
	}
	return nil
}

func (h *LiveHandler) reply(client *ws.Client, ev push.Event) {
	if err := client.Reply(ev); err != nil {
		h.log.Warn("live channel reply dropped", "user_id", client.UserID, "event", ev.Type, "error", err)
	}
}

func (h *LiveHandler) replyError(client *ws.Client, err error) {
	msg := err.Error()
	if statusFor(err) == http.StatusInternalServerError {
		h.log.Error("live channel frame failed", "user_id", client.UserID, "error", err)
		msg = "internal error"
	}
	h.reply(client, push.Event{Type: domain.EventError, UserID: client.UserID, Data: gin.H{"error": msg}})
}
