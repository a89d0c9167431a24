package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

// PresenceBroadcaster publishes registry presence transitions to everyone
// sharing a chat with the user. Notify only enqueues; Run drains the queue in
// order on a single goroutine.
type PresenceBroadcaster struct {
	store Store

	mu     sync.Mutex
	queue  []PresenceEvent
	signal chan struct{}
}

func NewPresenceBroadcaster(store Store) *PresenceBroadcaster {
	return &PresenceBroadcaster{
		store:  store,
		signal: make(chan struct{}, 1),
	}
}

func (b *PresenceBroadcaster) Notify(event PresenceEvent) {
	b.mu.Lock()
	b.queue = append(b.queue, event)
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
}

func (b *PresenceBroadcaster) Run(ctx context.Context, publisher Publisher) error {
	for {
		select {
		case <-ctx.Done():
			slog.DebugContext(ctx, "context done, stopping presence broadcaster")
			return nil
		case <-b.signal:
		}

		for _, event := range b.drain() {
			b.broadcast(ctx, publisher, event)
		}
	}
}

// Audience returns the users sharing at least one chat with user, user excluded.
func (b *PresenceBroadcaster) Audience(ctx context.Context, user UserID) ([]UserID, error) {
	chats, err := b.store.GetUserChats(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("store.GetUserChats: %w", err)
	}

	var audience []UserID
	for _, chat := range chats {
		participants, err := b.store.GetChatParticipants(ctx, chat)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}

			return nil, fmt.Errorf("store.GetChatParticipants: %w", err)
		}

		audience = append(audience, participants...)
	}

	return lo.Without(lo.Uniq(audience), user), nil
}

func (b *PresenceBroadcaster) broadcast(ctx context.Context, publisher Publisher, event PresenceEvent) {
	audience, err := b.Audience(ctx, event.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "error resolving presence audience", "user_id", event.UserID, "error", err)
		return
	}

	report, err := publisher.Publish(ctx, event, audience)
	if err != nil {
		slog.ErrorContext(ctx, "error publishing presence", "user_id", event.UserID, "error", err)
		return
	}

	slog.DebugContext(ctx, "presence published",
		"user_id", event.UserID,
		"online", event.Online,
		"delivered", len(report.Delivered))
}

func (b *PresenceBroadcaster) drain() []PresenceEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := b.queue
	b.queue = nil

	return events
}
