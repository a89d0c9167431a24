package domain_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	id string

	mu      sync.Mutex
	frames  [][]byte
	closed   bool
	sendErr  error
	closeErr error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{id: uuid.NewString()}
}

func (c *fakeChannel) ID() string { return c.id }

func (c *fakeChannel) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sendErr != nil {
		return c.sendErr
	}

	if c.closed {
		return domain.ErrChannelClosed
	}

	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return c.closeErr
}

func (c *fakeChannel) failWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sendErr = err
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *fakeChannel) received(t *testing.T) []domain.Frame {
	t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()

	frames := make([]domain.Frame, 0, len(c.frames))
	for _, raw := range c.frames {
		var f domain.Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		frames = append(frames, f)
	}

	return frames
}

func (c *fakeChannel) receivedOfType(t *testing.T, typ domain.FrameType) []domain.Frame {
	t.Helper()

	var frames []domain.Frame
	for _, f := range c.received(t) {
		if f.Type == typ {
			frames = append(frames, f)
		}
	}

	return frames
}

type presenceRecorder struct {
	mu     sync.Mutex
	events []domain.PresenceEvent
}

func (r *presenceRecorder) Notify(event domain.PresenceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *presenceRecorder) recorded() []domain.PresenceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]domain.PresenceEvent(nil), r.events...)
}
