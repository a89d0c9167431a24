package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	*redis.Client
}

type Message = redis.Message

const Nil = redis.Nil

var ErrFailedToReceiveMessage = errors.New("failed to receive message")

// Connect opens a client on addr and checks the server answers.
func Connect(ctx context.Context, addr string) (*Client, error) {
	c := &Client{Client: redis.NewClient(&redis.Options{Addr: addr})}

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("client.Ping: %w", err)
	}

	return c, nil
}

// Subscribe listens on channel and returns a function that hands every
// received payload to handler until ctx is done or handler fails.
func (c *Client) Subscribe(ctx context.Context, channel string) func(handler func(Message) error) error {
	pubsub := c.Client.Subscribe(ctx, channel)

	return func(handler func(Message) error) error {
		stop := make(chan struct{})
		defer close(stop)

		// Receive does not watch ctx cancellation, closing the subscription unblocks it.
		go func() {
			select {
			case <-ctx.Done():
			case <-stop:
			}
			_ = pubsub.Close()
		}()

		for {
			msg, err := pubsub.Receive(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}

				return fmt.Errorf("pubsub.Receive: %w: %w", ErrFailedToReceiveMessage, err)
			}

			m, ok := msg.(*Message)
			if !ok {
				continue
			}

			if err := handler(*m); err != nil {
				return fmt.Errorf("handler: %w", err)
			}
		}
	}
}

func (c *Client) Publish(ctx context.Context, channel string, message any) error {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := c.Client.Publish(ctx, channel, msgBytes).Err(); err != nil {
		return fmt.Errorf("client.Publish: %w", err)
	}

	return nil
}
