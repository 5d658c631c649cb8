package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spacerent/config"
	"spacerent/internal/auth"
	"spacerent/internal/domain"
	"spacerent/internal/dto"
	"spacerent/internal/models"
	"spacerent/internal/push"
	"spacerent/internal/repository"
	"spacerent/internal/service"
	"spacerent/internal/testdb"
	"spacerent/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	t        *testing.T
	cfg      *config.Config
	engine   *gin.Engine
	hub      *ws.Hub
	tenant   *models.User
	owner    *models.User
	admin    *models.User
	outsider *models.User
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := testdb.Open(t)
	cfg := config.Defaults()

	users := repository.NewUserRepository(db)
	hub := ws.NewHub()
	messages := service.NewMessageService(repository.NewMessageRepository(db), users, hub, logger)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), users, hub, logger)

	return &testApp{
		t:   t,
		cfg: cfg,
		engine: Setup(cfg, Deps{
			Users:         users,
			Messages:      messages,
			Notifications: notifications,
			Hub:           hub,
		}, logger),
		hub:      hub,
		tenant:   testdb.User(t, db, "tina", domain.RoleTenant),
		owner:    testdb.User(t, db, "otto", domain.RoleOwner),
		admin:    testdb.User(t, db, "ada", domain.RoleAdmin),
		outsider: testdb.User(t, db, "olga", domain.RoleTenant),
	}
}

func (a *testApp) token(u *models.User) string {
	a.t.Helper()
	tok, err := auth.GenerateAccessToken(&a.cfg.JWT, u.ID, u.Email, u.Role)
	require.NoError(a.t, err)
	return tok
}

func (a *testApp) do(method, path string, as *models.User, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(as))
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSendMessageAlsoNotifiesRecipient(t *testing.T) {
	req := require.New(t)
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/v1/messages/send", app.tenant, gin.H{"recipient_id": app.owner.ID, "content": "Hello"})
	req.Equal(http.StatusCreated, w.Code, w.Body.String())
	sent := decode[struct {
		Message dto.MessageDTO `json:"message"`
	}](t, w)
	req.Equal("Hello", sent.Message.Content)
	req.Equal("tina", sent.Message.SenderName)
	req.Equal(domain.RoleOwner, sent.Message.RecipientRole)
	req.NotEmpty(w.Header().Get("X-Request-ID"))

	w = app.do(http.MethodGet, fmt.Sprintf("/api/v1/messages/unread-count/%d", app.owner.ID), app.owner, nil)
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"count":1}`, w.Body.String())

	w = app.do(http.MethodGet, fmt.Sprintf("/api/v1/notifications/user/%d?type=MESSAGE_RECEIVED", app.owner.ID), app.owner, nil)
	req.Equal(http.StatusOK, w.Code)
	notifs := decode[struct {
		Notifications []dto.NotificationDTO `json:"notifications"`
	}](t, w)
	req.Len(notifs.Notifications, 1)
	req.Equal("You have received a new message from tina", notifs.Notifications[0].Message)

	w = app.do(http.MethodGet, fmt.Sprintf("/api/v1/messages/conversations/%d", app.owner.ID), app.owner, nil)
	req.Equal(http.StatusOK, w.Code)
	inbox := decode[struct {
		Messages []dto.MessageDTO `json:"messages"`
	}](t, w)
	req.Len(inbox.Messages, 1)

	w = app.do(http.MethodPost, "/api/v1/messages/mark-read", app.owner, gin.H{"user_id": app.owner.ID, "sender_id": app.tenant.ID})
	req.Equal(http.StatusOK, w.Code)
	w = app.do(http.MethodGet, fmt.Sprintf("/api/v1/messages/unread-count/%d", app.owner.ID), app.owner, nil)
	req.JSONEq(`{"count":0}`, w.Body.String())
}

func TestErrorMapping(t *testing.T) {
	app := newTestApp(t)
	tests := []struct {
		name   string
		method string
		path   string
		as     func() *models.User
		body   any
		want   int
	}{
		{"no token", http.MethodGet, "/api/v1/messages/user/1", func() *models.User { return nil }, nil, http.StatusUnauthorized},
		{"someone else's inbox", http.MethodGet, fmt.Sprintf("/api/v1/messages/user/%d", app.owner.ID), func() *models.User { return app.tenant }, nil, http.StatusForbidden},
		{"admin reads any inbox", http.MethodGet, fmt.Sprintf("/api/v1/messages/user/%d", app.owner.ID), func() *models.User { return app.admin }, nil, http.StatusOK},
		{"unknown recipient", http.MethodPost, "/api/v1/messages/send", func() *models.User { return app.tenant }, gin.H{"recipient_id": 999, "content": "hi"}, http.StatusNotFound},
		{"blank content", http.MethodPost, "/api/v1/messages/send", func() *models.User { return app.tenant }, gin.H{"recipient_id": app.owner.ID, "content": "   "}, http.StatusBadRequest},
		{"spoofed sender", http.MethodPost, "/api/v1/messages/send", func() *models.User { return app.tenant }, gin.H{"sender_id": app.owner.ID, "recipient_id": app.owner.ID, "content": "hi"}, http.StatusForbidden},
		{"bad id", http.MethodPost, "/api/v1/messages/mark-read/abc", func() *models.User { return app.tenant }, nil, http.StatusBadRequest},
		{"missing message", http.MethodPost, "/api/v1/messages/mark-read/999", func() *models.User { return app.tenant }, nil, http.StatusNotFound},
		{"tenant cannot create notifications", http.MethodPost, "/api/v1/notifications", func() *models.User { return app.tenant }, gin.H{"recipient_id": app.tenant.ID, "title": "t", "message": "m", "type": "SYSTEM_ALERT"}, http.StatusForbidden},
		{"admin creates notification", http.MethodPost, "/api/v1/notifications", func() *models.User { return app.admin }, gin.H{"recipient_id": app.tenant.ID, "title": "t", "message": "m", "type": "SYSTEM_ALERT"}, http.StatusCreated},
		{"empty title", http.MethodPost, "/api/v1/notifications", func() *models.User { return app.admin }, gin.H{"recipient_id": app.tenant.ID, "title": "", "message": "m", "type": "SYSTEM_ALERT"}, http.StatusBadRequest},
		{"admin cleanup", http.MethodPost, "/api/v1/notifications/cleanup", func() *models.User { return app.admin }, nil, http.StatusOK},
		{"tenant cleanup", http.MethodPost, "/api/v1/notifications/cleanup", func() *models.User { return app.tenant }, nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(tt.method, tt.path, tt.as(), tt.body)
			require.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestDeleteMessageOnlyBySender(t *testing.T) {
	req := require.New(t)
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/v1/messages/send", app.tenant, gin.H{"recipient_id": app.owner.ID, "content": "oops"})
	req.Equal(http.StatusCreated, w.Code)
	id := decode[struct {
		Message dto.MessageDTO `json:"message"`
	}](t, w).Message.ID

	w = app.do(http.MethodDelete, fmt.Sprintf("/api/v1/messages/%d", id), app.owner, nil)
	req.Equal(http.StatusForbidden, w.Code)
	w = app.do(http.MethodDelete, fmt.Sprintf("/api/v1/messages/%d?userId=%d", id, app.owner.ID), app.tenant, nil)
	req.Equal(http.StatusForbidden, w.Code)
	w = app.do(http.MethodDelete, fmt.Sprintf("/api/v1/messages/%d?userId=%d", id, app.tenant.ID), app.tenant, nil)
	req.Equal(http.StatusNoContent, w.Code)
	w = app.do(http.MethodDelete, fmt.Sprintf("/api/v1/messages/%d", id), app.tenant, nil)
	req.Equal(http.StatusNotFound, w.Code)
}

func TestTaggedMessagesVisibleToParticipantsOnly(t *testing.T) {
	req := require.New(t)
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/v1/messages/send", app.tenant, gin.H{
		"recipient_id":        app.owner.ID,
		"content":             "private contract talk",
		"related_contract_id": 7,
		"related_space_id":    3,
	})
	req.Equal(http.StatusCreated, w.Code, w.Body.String())

	type messages struct {
		Messages []dto.MessageDTO `json:"messages"`
	}
	for _, path := range []string{"/api/v1/messages/contract/7", "/api/v1/messages/space/3"} {
		for _, tc := range []struct {
			as   *models.User
			want int
		}{
			{app.tenant, 1},
			{app.owner, 1},
			{app.admin, 1},
			{app.outsider, 0},
		} {
			w := app.do(http.MethodGet, path, tc.as, nil)
			req.Equal(http.StatusOK, w.Code)
			req.Len(decode[messages](t, w).Messages, tc.want, "%s as %s", path, tc.as.Name)
		}
	}
	w = app.do(http.MethodGet, "/api/v1/messages/contract/7", app.outsider, nil)
	req.JSONEq(`{"messages":[]}`, w.Body.String())
}

func TestLiveChannel(t *testing.T) {
	req := require.New(t)
	app := newTestApp(t)
	srv := httptest.NewServer(app.engine)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications?token="
	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"garbage", nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+app.token(app.owner), nil)
	req.NoError(err)
	defer conn.Close()
	req.Eventually(func() bool { return app.hub.IsOnline(app.owner.ID) }, time.Second, 5*time.Millisecond)

	read := func() push.Event {
		t.Helper()
		req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
		var ev push.Event
		req.NoError(conn.ReadJSON(&ev))
		return ev
	}

	// A REST send reaches the connected recipient as the message, then its notification
	w := app.do(http.MethodPost, "/api/v1/messages/send", app.tenant, gin.H{"recipient_id": app.owner.ID, "content": "Hello"})
	req.Equal(http.StatusCreated, w.Code)
	req.Equal(domain.EventNewMessage, read().Type)
	req.Equal(domain.EventNewNotification, read().Type)

	// A send-message frame takes the same path and is acknowledged on this connection
	req.NoError(conn.WriteJSON(gin.H{"type": "send-message", "recipient_id": app.tenant.ID, "content": "Hi back"}))
	ack := read()
	req.Equal(domain.EventMessageSent, ack.Type)
	req.EqualValues(app.owner.ID, ack.UserID)

	w = app.do(http.MethodGet, fmt.Sprintf("/api/v1/notifications/unread-count/%d", app.tenant.ID), app.tenant, nil)
	req.JSONEq(`{"count":1}`, w.Body.String())

	// Invalid frames get an error reply and keep the connection open
	req.NoError(conn.WriteJSON(gin.H{"type": "dance"}))
	req.Equal(domain.EventError, read().Type)
	req.NoError(conn.WriteJSON(gin.H{"type": "send-message", "recipient_id": app.tenant.ID}))
	req.Equal(domain.EventError, read().Type)

	// mark-read by sender clears the owner's unread messages
	req.NoError(conn.WriteJSON(gin.H{"type": "mark-read", "sender_id": app.tenant.ID}))
	req.Eventually(func() bool {
		w := app.do(http.MethodGet, fmt.Sprintf("/api/v1/messages/unread-count/%d", app.owner.ID), app.owner, nil)
		return w.Body.String() == `{"count":0}`
	}, time.Second, 10*time.Millisecond)
}
