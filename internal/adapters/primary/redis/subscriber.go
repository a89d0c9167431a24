package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/arthurdotwork/livechat/internal/infrastructure/redis"
)

type Receiver interface {
	Receive(ctx context.Context, envelope domain.Envelope) (domain.DeliveryReport, error)
}

// Subscriber delivers envelopes relayed by other nodes to the local channels.
type Subscriber struct {
	redisClient *redis.Client
	receiver    Receiver
}

func NewSubscriber(redisClient *redis.Client, receiver Receiver) *Subscriber {
	return &Subscriber{
		redisClient: redisClient,
		receiver:    receiver,
	}
}

func (s *Subscriber) Subscribe(ctx context.Context, channel string) error {
	subscriber := s.redisClient.Subscribe(ctx, channel)

	if err := subscriber(func(msg redis.Message) error {
		var envelope domain.Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			slog.ErrorContext(ctx, "dropping undecodable envelope", "channel", channel, "error", err)
			return nil
		}

		if _, err := s.receiver.Receive(ctx, envelope); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("receiver.Receive: %w", err)
		}

		return nil
	}); err != nil {
		slog.ErrorContext(ctx, "error subscribing to redis", "error", err)
		return fmt.Errorf("subscriber: %w", err)
	}

	return nil
}
