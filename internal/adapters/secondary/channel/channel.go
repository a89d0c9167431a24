package channel

import (
	"log/slog"
	"sync"
	"time"

	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn the writer needs.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Config struct {
	BufferSize   int
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// WebsocketChannel is a live channel backed by a websocket connection. Frames
// are queued and written by a single goroutine; Send never blocks.
type WebsocketChannel struct {
	id     string
	conn   Conn
	config Config

	mu     sync.RWMutex
	closed bool
	out    chan []byte
	done   chan struct{}
}

func NewWebsocketChannel(conn Conn, config Config) *WebsocketChannel {
	if config.BufferSize <= 0 {
		config.BufferSize = 1
	}

	c := &WebsocketChannel{
		id:     uuid.NewString(),
		conn:   conn,
		config: config,
		out:    make(chan []byte, config.BufferSize),
		done:   make(chan struct{}),
	}

	go c.write()

	return c
}

func (c *WebsocketChannel) ID() string {
	return c.id
}

func (c *WebsocketChannel) Send(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return domain.ErrChannelClosed
	}

	select {
	case c.out <- frame:
		return nil
	default:
		return domain.ErrChannelFull
	}
}

// Close stops accepting frames. Already queued frames are still written
// before the connection is closed.
func (c *WebsocketChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.out)
	}

	return nil
}

// Done is closed once the underlying connection has been closed.
func (c *WebsocketChannel) Done() <-chan struct{} {
	return c.done
}

func (c *WebsocketChannel) write() {
	defer close(c.done)
	defer c.conn.Close() //nolint:errcheck

	var tick <-chan time.Time
	if c.config.PingInterval > 0 {
		ticker := time.NewTicker(c.config.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case frame, ok := <-c.out:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = c.conn.WriteControl(websocket.CloseMessage, msg, c.deadline())
				return
			}

			if err := c.conn.SetWriteDeadline(c.deadline()); err != nil {
				c.fail(err)
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.fail(err)
				return
			}
		case <-tick:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, c.deadline()); err != nil {
				c.fail(err)
				return
			}
		}
	}
}

func (c *WebsocketChannel) fail(err error) {
	slog.Debug("channel write failed", "channel_id", c.id, "error", err)
	_ = c.Close()
}

func (c *WebsocketChannel) deadline() time.Time {
	if c.config.WriteTimeout <= 0 {
		return time.Time{}
	}

	return time.Now().Add(c.config.WriteTimeout)
}
