package broadcaster

import (
	"context"
	"fmt"

	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/arthurdotwork/livechat/internal/infrastructure/redis"
)

// RedisRelay publishes envelopes on a redis pub/sub channel shared by every node.
type RedisRelay struct {
	redisClient *redis.Client
	channel     string
}

func NewRedisRelay(redisClient *redis.Client, channel string) *RedisRelay {
	return &RedisRelay{redisClient: redisClient, channel: channel}
}

func (b *RedisRelay) Relay(ctx context.Context, envelope domain.Envelope) error {
	if err := b.redisClient.Publish(ctx, b.channel, envelope); err != nil {
		return fmt.Errorf("redisClient.Publish: %w", err)
	}

	return nil
}
