package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/arthurdotwork/livechat/internal/infrastructure/redis"
	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const maxStatusRetries = 5

// RedisStore keeps chats and messages as JSON strings. Chat membership and
// message order are tracked in lists so reads never scan the keyspace.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func chatKey(id domain.ChatID) string { return "livechat:chat:" + string(id) }
func chatMessagesKey(id domain.ChatID) string { return "livechat:chat:" + string(id) + ":messages" }
func userChatsKey(id domain.UserID) string { return "livechat:user:" + string(id) + ":chats" }
func messageKey(id domain.MessageID) string { return "livechat:message:" + string(id) }

func (s *RedisStore) CreateChat(ctx context.Context, participants []domain.UserID) (domain.Chat, error) {
	chat := domain.Chat{
		ID:           domain.ChatID(uuid.NewString()),
		Participants: lo.Uniq(participants),
		CreatedAt:    s.now().UTC(),
	}

	b, err := json.Marshal(chat)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("json.Marshal: %w", err)
	}

	if _, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, chatKey(chat.ID), b, 0)
		for _, user := range chat.Participants {
			pipe.RPush(ctx, userChatsKey(user), string(chat.ID))
		}

		return nil
	}); err != nil {
		return domain.Chat{}, fmt.Errorf("client.TxPipelined: %w", err)
	}

	return chat, nil
}

func (s *RedisStore) GetUserChats(ctx context.Context, user domain.UserID) ([]domain.ChatID, error) {
	ids, err := s.client.LRange(ctx, userChatsKey(user), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("client.LRange: %w", err)
	}

	return lo.Map(ids, func(id string, _ int) domain.ChatID { return domain.ChatID(id) }), nil
}

func (s *RedisStore) GetChatParticipants(ctx context.Context, chat domain.ChatID) ([]domain.UserID, error) {
	c, err := s.getChat(ctx, s.client.Client, chat)
	if err != nil {
		return nil, err
	}

	return c.Participants, nil
}

func (s *RedisStore) CreateMessage(ctx context.Context, chat domain.ChatID, sender domain.UserID, content string) (domain.Message, error) {
	exists, err := s.client.Exists(ctx, chatKey(chat)).Result()
	if err != nil {
		return domain.Message{}, fmt.Errorf("client.Exists: %w", err)
	}

	if exists == 0 {
		return domain.Message{}, fmt.Errorf("chat %s: %w", chat, domain.ErrNotFound)
	}

	message := domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		ChatID:    chat,
		SenderID:  sender,
		Content:   content,
		Timestamp: s.now().UTC(),
		Status:    domain.StatusSent,
	}

	b, err := json.Marshal(message)
	if err != nil {
		return domain.Message{}, fmt.Errorf("json.Marshal: %w", err)
	}

	if _, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, messageKey(message.ID), b, 0)
		pipe.RPush(ctx, chatMessagesKey(chat), string(message.ID))
		return nil
	}); err != nil {
		return domain.Message{}, fmt.Errorf("client.TxPipelined: %w", err)
	}

	return message, nil
}

func (s *RedisStore) GetMessage(ctx context.Context, id domain.MessageID) (domain.Message, error) {
	return s.getMessage(ctx, s.client.Client, id)
}

func (s *RedisStore) GetChatMessages(ctx context.Context, chat domain.ChatID) ([]domain.Message, error) {
	if _, err := s.getChat(ctx, s.client.Client, chat); err != nil {
		return nil, err
	}

	ids, err := s.client.LRange(ctx, chatMessagesKey(chat), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("client.LRange: %w", err)
	}

	if len(ids) == 0 {
		return []domain.Message{}, nil
	}

	keys := lo.Map(ids, func(id string, _ int) string { return messageKey(domain.MessageID(id)) })
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("client.MGet: %w", err)
	}

	messages := make([]domain.Message, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}

		var m domain.Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("json.Unmarshal: %w", err)
		}

		messages = append(messages, m)
	}

	return messages, nil
}

// SetMessageStatus re-checks the transition under WATCH so concurrent
// updates of the same message cannot move its status backwards.
func (s *RedisStore) SetMessageStatus(ctx context.Context, id domain.MessageID, status domain.Status) (domain.Message, error) {
	key := messageKey(id)

	var result domain.Message
	update := func(tx *goredis.Tx) error {
		message, err := s.getMessage(ctx, tx, id)
		if err != nil {
			return err
		}

		next, changed, err := domain.Transition(message.Status, status)
		if err != nil {
			return fmt.Errorf("domain.Transition: %w", err)
		}

		result = message
		if !changed {
			return nil
		}

		message.Status = next
		b, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}

		if _, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			return nil
		}); err != nil {
			return err
		}

		result = message
		return nil
	}

	for i := 0; i < maxStatusRetries; i++ {
		err := s.client.Watch(ctx, update, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}

		if err != nil {
			return domain.Message{}, fmt.Errorf("client.Watch: %w", err)
		}

		return result, nil
	}

	return domain.Message{}, fmt.Errorf("client.Watch: %w", goredis.TxFailedErr)
}

func (s *RedisStore) getChat(ctx context.Context, c goredis.Cmdable, id domain.ChatID) (domain.Chat, error) {
	raw, err := c.Get(ctx, chatKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Chat{}, fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
		}

		return domain.Chat{}, fmt.Errorf("client.Get: %w", err)
	}

	var chat domain.Chat
	if err := json.Unmarshal(raw, &chat); err != nil {
		return domain.Chat{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	return chat, nil
}

func (s *RedisStore) getMessage(ctx context.Context, c goredis.Cmdable, id domain.MessageID) (domain.Message, error) {
	raw, err := c.Get(ctx, messageKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Message{}, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
		}

		return domain.Message{}, fmt.Errorf("client.Get: %w", err)
	}

	var message domain.Message
	if err := json.Unmarshal(raw, &message); err != nil {
		return domain.Message{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	return message, nil
}
