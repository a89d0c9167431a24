package domain

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type registration struct {
	channel  Channel
	lastSeen atomic.Int64
}

// Registry maps each user to at most one live channel. Only map mutations are
// serialized; closing channels and any other I/O happen outside the lock.
type Registry struct {
	mu       sync.RWMutex
	entries  map[UserID]*registration
	presence PresenceSink
	now      func() time.Time
}

func NewRegistry(presence PresenceSink) *Registry {
	return &Registry{
		entries:  make(map[UserID]*registration),
		presence: presence,
		now:      time.Now,
	}
}

// Register stores ch as the user's channel. A previously registered channel
// is evicted and closed. Presence goes online only if the user had no channel.
func (r *Registry) Register(ctx context.Context, user UserID, ch Channel) {
	reg := &registration{channel: ch}
	reg.lastSeen.Store(r.now().UnixNano())

	r.mu.Lock()
	previous, online := r.entries[user]
	r.entries[user] = reg
	if !online {
		r.emit(user, true)
	}
	r.mu.Unlock()

	if !online || previous.channel.ID() == ch.ID() {
		return
	}

	slog.DebugContext(ctx, "evicting previous channel", "user_id", user, "channel_id", previous.channel.ID())

	if err := previous.channel.Close(); err != nil {
		slog.ErrorContext(ctx, "error closing evicted channel", "user_id", user, "error", err)
	}
}

// Unregister removes the user's entry only if it still holds ch, so a late
// close of a replaced channel cannot drop a fresh reconnect.
func (r *Registry) Unregister(ctx context.Context, user UserID, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.entries[user]
	if !ok || reg.channel.ID() != ch.ID() {
		return false
	}

	delete(r.entries, user)
	r.emit(user, false)

	slog.DebugContext(ctx, "channel unregistered", "user_id", user, "channel_id", ch.ID())

	return true
}

func (r *Registry) Lookup(user UserID) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.entries[user]
	if !ok {
		return nil, false
	}

	return reg.channel, true
}

// Snapshot returns the channels of the online subset of users.
func (r *Registry) Snapshot(users []UserID) map[UserID]Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	online := make(map[UserID]Channel, len(users))
	for _, user := range users {
		if reg, ok := r.entries[user]; ok {
			online[user] = reg.channel
		}
	}

	return online
}

func (r *Registry) Online() []UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]UserID, 0, len(r.entries))
	for user := range r.entries {
		users = append(users, user)
	}

	return users
}

// Touch records activity on ch. It reports false when ch is not the user's
// registered channel.
func (r *Registry) Touch(user UserID, ch Channel) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.entries[user]
	if !ok || reg.channel.ID() != ch.ID() {
		return false
	}

	reg.lastSeen.Store(r.now().UnixNano())
	return true
}

// Sweep unregisters and closes every channel without activity for longer
// than idle, returning the affected users.
func (r *Registry) Sweep(ctx context.Context, idle time.Duration) []UserID {
	deadline := r.now().Add(-idle).UnixNano()

	var (
		users    []UserID
		channels []Channel
	)

	r.mu.Lock()
	for user, reg := range r.entries {
		if reg.lastSeen.Load() >= deadline {
			continue
		}

		delete(r.entries, user)
		r.emit(user, false)
		users = append(users, user)
		channels = append(channels, reg.channel)
	}
	r.mu.Unlock()

	for i, ch := range channels {
		if err := ch.Close(); err != nil {
			slog.ErrorContext(ctx, "error closing idle channel", "user_id", users[i], "error", err)
		}
	}

	return users
}

func (r *Registry) emit(user UserID, online bool) {
	if r.presence == nil {
		return
	}

	r.presence.Notify(PresenceEvent{UserID: user, Online: online, Timestamp: r.now().UTC()})
}
