package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/arthurdotwork/livechat/internal/adapters/secondary/channel"
	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/gorilla/websocket"
)

type ChatService interface {
	Connect(ctx context.Context, user domain.UserID, ch domain.Channel)
	Disconnect(ctx context.Context, user domain.UserID, ch domain.Channel)
	Heartbeat(user domain.UserID, ch domain.Channel)
	Handle(ctx context.Context, user domain.UserID, ch domain.Channel, raw []byte) error
}

type Config struct {
	IdentityHeader string
	IdleTimeout    time.Duration
	MaxFrameSize   int64
	Channel        channel.Config
}

// Handler upgrades authenticated requests to a live channel and pumps the
// client's frames into the chat service.
type Handler struct {
	chatService ChatService
	config      Config
	upgrader    websocket.Upgrader
}

func NewHandler(chatService ChatService, config Config) *Handler {
	return &Handler{
		chatService: chatService,
		config:      config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := domain.UserID(r.Header.Get(h.config.IdentityHeader))
	if user == "" {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.DebugContext(ctx, "error upgrading connection", "user_id", user, "error", err)
		return
	}

	ch := channel.NewWebsocketChannel(conn, h.config.Channel)
	h.chatService.Connect(ctx, user, ch)
	defer h.chatService.Disconnect(ctx, user, ch)

	if h.config.MaxFrameSize > 0 {
		conn.SetReadLimit(h.config.MaxFrameSize)
	}

	h.extendDeadline(conn)
	conn.SetPongHandler(func(string) error {
		h.chatService.Heartbeat(user, ch)
		h.extendDeadline(conn)
		return nil
	})

	for {
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, websocket.ErrCloseSent) {
				slog.DebugContext(ctx, "connection read ended", "user_id", user, "error", err)
			}

			return
		}

		h.extendDeadline(conn)

		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		if err := h.chatService.Handle(ctx, user, ch, raw); err != nil {
			slog.DebugContext(ctx, "frame rejected", "user_id", user, "error", err)
		}
	}
}

func (h *Handler) extendDeadline(conn *websocket.Conn) {
	if h.config.IdleTimeout <= 0 {
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(h.config.IdleTimeout))
}
