package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// ChatService is the inbound side of a live channel: it admits connections
// and turns decoded frames into guarded store mutations followed by routed
// events. The caller supplies the authenticated identity; frames never do.
type ChatService struct {
	store    Store
	registry *Registry
	router   *Router
	guard    *AccessGuard
	decoder  *FrameDecoder
	now      func() time.Time
}

func NewChatService(store Store, registry *Registry, router *Router, decoder *FrameDecoder) *ChatService {
	return &ChatService{
		store:    store,
		registry: registry,
		router:   router,
		guard:    NewAccessGuard(store),
		decoder:  decoder,
		now:      time.Now,
	}
}

func (s *ChatService) Connect(ctx context.Context, user UserID, ch Channel) {
	s.registry.Register(ctx, user, ch)
	slog.DebugContext(ctx, "client connected", "user_id", user, "channel_id", ch.ID())
}

func (s *ChatService) Disconnect(ctx context.Context, user UserID, ch Channel) {
	s.registry.Unregister(ctx, user, ch)

	if err := ch.Close(); err != nil {
		slog.ErrorContext(ctx, "error closing channel", "user_id", user, "error", err)
	}

	slog.DebugContext(ctx, "client disconnected", "user_id", user, "channel_id", ch.ID())
}

// Heartbeat records transport-level activity such as websocket pongs.
func (s *ChatService) Heartbeat(user UserID, ch Channel) {
	s.registry.Touch(user, ch)
}

// Handle processes one inbound frame. Failures are answered on ch only and
// returned for logging; none of them should terminate the connection.
func (s *ChatService) Handle(ctx context.Context, user UserID, ch Channel, raw []byte) error {
	s.registry.Touch(user, ch)

	frame, err := s.decoder.Decode(raw)
	if err != nil {
		return s.reject(ctx, ch, frame, err)
	}

	if frame.SenderID != "" && frame.SenderID != user {
		return s.reject(ctx, ch, frame, fmt.Errorf("%w: sender %s does not match connection", ErrAccessDenied, frame.SenderID))
	}

	switch frame.Type {
	case FrameMessage:
		err = s.sendMessage(ctx, user, ch, frame)
	case FrameStatus:
		err = s.updateStatus(ctx, user, ch, frame)
	case FramePresence:
		err = s.reply(ch, Frame{Type: FrameAck, RequestID: frame.RequestID, Timestamp: lo.ToPtr(s.now().UTC())})
	default:
		err = fmt.Errorf("%w: unknown type %q", ErrMalformedFrame, frame.Type)
	}

	if err != nil {
		return s.reject(ctx, ch, frame, err)
	}

	return nil
}

// Close notifies every connected client that the server is going away and
// closes their channels.
func (s *ChatService) Close(ctx context.Context) error {
	payload, err := EncodeFrame(Frame{
		Type:      FrameClosing,
		Content:   "server is closing",
		Timestamp: lo.ToPtr(s.now().UTC()),
	})
	if err != nil {
		return fmt.Errorf("EncodeFrame: %w", err)
	}

	channels := s.registry.Snapshot(s.registry.Online())
	slog.DebugContext(ctx, "sending server closing notification", "connected_users", len(channels))

	for user, ch := range channels {
		if err := ch.Send(payload); err != nil {
			slog.DebugContext(ctx, "failed to send server closing", "user_id", user, "error", err)
		}

		if err := ch.Close(); err != nil {
			slog.ErrorContext(ctx, "error closing channel", "user_id", user, "error", err)
		}
	}

	return nil
}

// CreateChat opens a chat between creator and participants.
func (s *ChatService) CreateChat(ctx context.Context, creator UserID, participants []UserID) (Chat, error) {
	members := lo.Uniq(lo.Compact(append([]UserID{creator}, participants...)))
	if len(members) < 2 {
		return Chat{}, fmt.Errorf("%w: a chat needs at least two participants", ErrInvalidRequest)
	}

	chat, err := s.store.CreateChat(ctx, members)
	if err != nil {
		return Chat{}, fmt.Errorf("%w: store.CreateChat: %w", ErrPersistenceFailure, err)
	}

	slog.DebugContext(ctx, "chat created", "chat_id", chat.ID, "participants", len(members))

	return chat, nil
}

// Chats lists the chats of user with their participants and the time of
// their latest message.
func (s *ChatService) Chats(ctx context.Context, user UserID) ([]ChatSummary, error) {
	ids, err := s.store.GetUserChats(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%w: store.GetUserChats: %w", ErrPersistenceFailure, err)
	}

	summaries := make([]ChatSummary, 0, len(ids))
	for _, id := range ids {
		participants, err := s.store.GetChatParticipants(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: store.GetChatParticipants: %w", ErrPersistenceFailure, err)
		}

		messages, err := s.store.GetChatMessages(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: store.GetChatMessages: %w", ErrPersistenceFailure, err)
		}

		summary := ChatSummary{ID: id, Name: ChatName(participants), Participants: participants}
		if len(messages) > 0 {
			summary.LastMessageAt = lo.ToPtr(messages[len(messages)-1].Timestamp)
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// History returns the messages of a chat the user belongs to, oldest first.
// Clients use it to catch up on what was published while they were offline.
func (s *ChatService) History(ctx context.Context, user UserID, chat ChatID) ([]Message, error) {
	if _, err := s.guard.Authorize(ctx, user, chat); err != nil {
		return nil, fmt.Errorf("guard.Authorize: %w", err)
	}

	messages, err := s.store.GetChatMessages(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("%w: store.GetChatMessages: %w", ErrPersistenceFailure, err)
	}

	return messages, nil
}

// SendMessage persists a message from user and publishes it to the chat's
// online members. Messages of a chat are published in the order the store
// accepted them.
func (s *ChatService) SendMessage(ctx context.Context, user UserID, chat ChatID, content string) (Message, error) {
	if err := s.decoder.CheckContent(content); err != nil {
		return Message{}, err
	}

	audience, err := s.guard.Authorize(ctx, user, chat)
	if err != nil {
		return Message{}, fmt.Errorf("guard.Authorize: %w", err)
	}

	var message Message
	report, err := s.router.Sequence(ctx, ChatLane(chat), func(ctx context.Context) (Event, []UserID, error) {
		m, err := s.store.CreateMessage(ctx, chat, user, content)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: store.CreateMessage: %w", ErrPersistenceFailure, err)
		}

		message = m
		return MessageEvent{Message: m}, audience, nil
	})
	if err != nil {
		return Message{}, fmt.Errorf("router.Sequence: %w", err)
	}

	slog.DebugContext(ctx, "message published",
		"chat_id", chat,
		"message_id", message.ID,
		"delivered", len(report.Delivered),
		"offline", len(report.Offline))

	return message, nil
}

func (s *ChatService) sendMessage(ctx context.Context, user UserID, ch Channel, frame Frame) error {
	message, err := s.SendMessage(ctx, user, frame.ChatID, frame.Content)
	if err != nil {
		return err
	}

	ack := MessageEvent{Message: message}.Frame()
	ack.Type = FrameAck
	ack.RequestID = frame.RequestID

	return s.reply(ch, ack)
}

// UpdateStatus moves a message forward in its lifecycle on behalf of user and
// publishes the change to the chat's online members. An empty chat resolves
// it from the message. Requesting the current status changes nothing.
func (s *ChatService) UpdateStatus(ctx context.Context, user UserID, chat ChatID, id MessageID, status string) (Message, error) {
	if chat == "" {
		m, err := s.store.GetMessage(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Message{}, fmt.Errorf("%w: message %s", ErrAccessDenied, id)
			}

			return Message{}, fmt.Errorf("%w: store.GetMessage: %w", ErrPersistenceFailure, err)
		}

		chat = m.ChatID
	}

	audience, err := s.guard.Authorize(ctx, user, chat)
	if err != nil {
		return Message{}, fmt.Errorf("guard.Authorize: %w", err)
	}

	requested, err := ParseStatus(status)
	if err != nil {
		return Message{}, err
	}

	var current Message
	_, err = s.router.Sequence(ctx, ChatLane(chat), func(ctx context.Context) (Event, []UserID, error) {
		m, err := s.store.GetMessage(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: message %s", ErrAccessDenied, id)
			}

			return nil, nil, fmt.Errorf("%w: store.GetMessage: %w", ErrPersistenceFailure, err)
		}

		if m.ChatID != chat {
			return nil, nil, fmt.Errorf("%w: message %s", ErrAccessDenied, id)
		}

		next, changed, err := Transition(m.Status, requested)
		if err != nil {
			return nil, nil, err
		}

		current = m
		if !changed {
			return nil, nil, nil
		}

		updated, err := s.store.SetMessageStatus(ctx, m.ID, next)
		if err != nil {
			if errors.Is(err, ErrStaleTransition) {
				return nil, nil, err
			}

			return nil, nil, fmt.Errorf("%w: store.SetMessageStatus: %w", ErrPersistenceFailure, err)
		}

		current = updated
		return StatusEvent{
			MessageID: updated.ID,
			ChatID:    updated.ChatID,
			Status:    updated.Status,
			ActorID:   user,
			Timestamp: s.now().UTC(),
		}, audience, nil
	})
	if err != nil {
		return Message{}, fmt.Errorf("router.Sequence: %w", err)
	}

	return current, nil
}

func (s *ChatService) updateStatus(ctx context.Context, user UserID, ch Channel, frame Frame) error {
	current, err := s.UpdateStatus(ctx, user, frame.ChatID, frame.MessageID, string(frame.Status))
	if err != nil {
		return err
	}

	return s.reply(ch, Frame{
		Type:      FrameAck,
		RequestID: frame.RequestID,
		ChatID:    current.ChatID,
		MessageID: current.ID,
		Status:    current.Status,
		Timestamp: lo.ToPtr(s.now().UTC()),
	})
}

func (s *ChatService) reject(ctx context.Context, ch Channel, frame Frame, cause error) error {
	reply := Frame{
		Type:      FrameErr,
		RequestID: frame.RequestID,
		ChatID:    frame.ChatID,
		MessageID: frame.MessageID,
		Timestamp: lo.ToPtr(s.now().UTC()),
		Error: &FrameError{
			Code:      CodeOf(cause),
			Message:   Describe(cause),
			Retryable: Retryable(cause),
		},
	}

	if Benign(cause) {
		reply.Type = FrameNotice
	}

	if err := s.reply(ch, reply); err != nil {
		slog.DebugContext(ctx, "error replying to sender", "error", err)
	}

	return cause
}

func (s *ChatService) reply(ch Channel, f Frame) error {
	payload, err := EncodeFrame(f)
	if err != nil {
		return fmt.Errorf("EncodeFrame: %w", err)
	}

	if err := ch.Send(payload); err != nil {
		return fmt.Errorf("%w: channel.Send: %w", ErrRecipientUnreachable, err)
	}

	return nil
}
