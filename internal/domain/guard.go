package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
)

type AccessGuard struct {
	store Store
}

func NewAccessGuard(store Store) *AccessGuard {
	return &AccessGuard{store: store}
}

// Authorize returns the chat's current participants when user is one of them.
// Unknown chats and non-members get the same ErrAccessDenied so the caller
// cannot probe for chat existence.
func (g *AccessGuard) Authorize(ctx context.Context, user UserID, chat ChatID) ([]UserID, error) {
	participants, err := g.store.GetChatParticipants(ctx, chat)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: chat %s", ErrAccessDenied, chat)
		}

		return nil, fmt.Errorf("%w: store.GetChatParticipants: %w", ErrPersistenceFailure, err)
	}

	if !lo.Contains(participants, user) {
		return nil, fmt.Errorf("%w: chat %s", ErrAccessDenied, chat)
	}

	return participants, nil
}
