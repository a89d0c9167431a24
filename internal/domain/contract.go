package domain

import (
	"context"
)

// Store is the persistence collaborator. Implementations own their
// transaction discipline; every call is atomic from the caller's view.
type Store interface {
	CreateChat(ctx context.Context, participants []UserID) (Chat, error)
	GetUserChats(ctx context.Context, user UserID) ([]ChatID, error)
	// GetChatParticipants returns ErrNotFound for unknown chats.
	GetChatParticipants(ctx context.Context, chat ChatID) ([]UserID, error)
	CreateMessage(ctx context.Context, chat ChatID, sender UserID, content string) (Message, error)
	GetMessage(ctx context.Context, id MessageID) (Message, error)
	GetChatMessages(ctx context.Context, chat ChatID) ([]Message, error)
	// SetMessageStatus re-validates the transition against the stored status
	// and returns ErrStaleTransition on regression.
	SetMessageStatus(ctx context.Context, id MessageID, status Status) (Message, error)
}

// Channel is one open duplex connection to a user.
type Channel interface {
	ID() string
	// Send enqueues a frame without blocking. It fails with ErrChannelClosed
	// or ErrChannelFull.
	Send(frame []byte) error
	Close() error
}

// Relay forwards published envelopes to the other nodes of a cluster.
type Relay interface {
	Relay(ctx context.Context, envelope Envelope) error
}

// PresenceSink receives registry presence transitions. Notify is called with
// the registry lock held and must not block.
type PresenceSink interface {
	Notify(event PresenceEvent)
}

type Publisher interface {
	Publish(ctx context.Context, event Event, audience []UserID) (DeliveryReport, error)
}
