package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type ChatService interface {
	CreateChat(ctx context.Context, creator domain.UserID, participants []domain.UserID) (domain.Chat, error)
	Chats(ctx context.Context, user domain.UserID) ([]domain.ChatSummary, error)
	History(ctx context.Context, user domain.UserID, chat domain.ChatID) ([]domain.Message, error)
	SendMessage(ctx context.Context, user domain.UserID, chat domain.ChatID, content string) (domain.Message, error)
	UpdateStatus(ctx context.Context, user domain.UserID, chat domain.ChatID, id domain.MessageID, status string) (domain.Message, error)
}

type identityKey struct{}

type JSONHandler struct {
	chatService ChatService
	validate    *validator.Validate
}

func NewJSONHandler(chatService ChatService) *JSONHandler {
	return &JSONHandler{
		chatService: chatService,
		validate:    validator.New(),
	}
}

// NewRouter mounts the REST routes and the live endpoint. Every route but
// the health check requires the identity header set by the auth gate.
func NewRouter(h *JSONHandler, live http.Handler, identityHeader string) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/ws", live).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(identity(identityHeader))
	api.HandleFunc("/chats", h.CreateChat).Methods(http.MethodPost)
	api.HandleFunc("/chats", h.GetChats).Methods(http.MethodGet)
	api.HandleFunc("/chats/{chatId}/messages", h.GetMessages).Methods(http.MethodGet)
	api.HandleFunc("/chats/{chatId}/messages", h.SendMessage).Methods(http.MethodPost)
	api.HandleFunc("/chats/messages/{messageId}/status", h.UpdateStatus).Methods(http.MethodPut)

	return r
}

func identity(header string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := r.Header.Get(header)
			if user == "" {
				writeError(w, http.StatusUnauthorized, "missing identity")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, domain.UserID(user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFrom(ctx context.Context) domain.UserID {
	user, _ := ctx.Value(identityKey{}).(domain.UserID)
	return user
}

func (h *JSONHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *JSONHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Participants []domain.UserID `json:"participants" validate:"required,min=1,max=256,dive,required,max=128"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chat, err := h.chatService.CreateChat(r.Context(), userFrom(r.Context()), req.Participants)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, chat)
}

func (h *JSONHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chatService.Chats(r.Context(), userFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]domain.ChatSummary{"chats": chats})
}

func (h *JSONHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	chat := domain.ChatID(mux.Vars(r)["chatId"])

	messages, err := h.chatService.History(r.Context(), userFrom(r.Context()), chat)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]domain.Message{"messages": messages})
}

func (h *JSONHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chat := domain.ChatID(mux.Vars(r)["chatId"])

	message, err := h.chatService.SendMessage(r.Context(), userFrom(r.Context()), chat, req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

// UpdateStatus takes the requested status from the status query parameter.
func (h *JSONHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		writeError(w, http.StatusBadRequest, "missing status")
		return
	}

	id := domain.MessageID(mux.Vars(r)["messageId"])

	message, err := h.chatService.UpdateStatus(r.Context(), userFrom(r.Context()), "", id, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, message)
}

func (h *JSONHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrMalformedFrame):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, domain.Describe(err))
	case errors.Is(err, domain.ErrStaleTransition):
		writeError(w, http.StatusConflict, domain.Describe(err))
	case errors.Is(err, domain.ErrAccessDenied):
		writeError(w, http.StatusForbidden, domain.Describe(err))
	case errors.Is(err, domain.ErrPersistenceFailure):
		slog.ErrorContext(r.Context(), "store unavailable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, domain.Describe(err))
	default:
		slog.ErrorContext(r.Context(), "unexpected error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, domain.Describe(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("error encoding response", "error", err)
	}
}
