package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type MemoryStore struct {
	chats        map[domain.ChatID]domain.Chat
	userChats    map[domain.UserID][]domain.ChatID
	messages     map[domain.MessageID]domain.Message
	chatMessages map[domain.ChatID][]domain.MessageID
	now          func() time.Time
	sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:        make(map[domain.ChatID]domain.Chat),
		userChats:    make(map[domain.UserID][]domain.ChatID),
		messages:     make(map[domain.MessageID]domain.Message),
		chatMessages: make(map[domain.ChatID][]domain.MessageID),
		now:          time.Now,
	}
}

func (s *MemoryStore) CreateChat(ctx context.Context, participants []domain.UserID) (domain.Chat, error) {
	s.Lock()
	defer s.Unlock()

	chat := domain.Chat{
		ID:           domain.ChatID(uuid.NewString()),
		Participants: lo.Uniq(participants),
		CreatedAt:    s.now().UTC(),
	}

	s.chats[chat.ID] = chat
	for _, user := range chat.Participants {
		s.userChats[user] = append(s.userChats[user], chat.ID)
	}

	return chat, nil
}

func (s *MemoryStore) GetUserChats(ctx context.Context, user domain.UserID) ([]domain.ChatID, error) {
	s.RLock()
	defer s.RUnlock()

	return append([]domain.ChatID{}, s.userChats[user]...), nil
}

func (s *MemoryStore) GetChatParticipants(ctx context.Context, chat domain.ChatID) ([]domain.UserID, error) {
	s.RLock()
	defer s.RUnlock()

	c, ok := s.chats[chat]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", chat, domain.ErrNotFound)
	}

	return append([]domain.UserID{}, c.Participants...), nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, chat domain.ChatID, sender domain.UserID, content string) (domain.Message, error) {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.chats[chat]; !ok {
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

	s.messages[message.ID] = message
	s.chatMessages[chat] = append(s.chatMessages[chat], message.ID)

	return message, nil
}

func (s *MemoryStore) GetMessage(ctx context.Context, id domain.MessageID) (domain.Message, error) {
	s.RLock()
	defer s.RUnlock()

	message, ok := s.messages[id]
	if !ok {
		return domain.Message{}, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}

	return message, nil
}

func (s *MemoryStore) GetChatMessages(ctx context.Context, chat domain.ChatID) ([]domain.Message, error) {
	s.RLock()
	defer s.RUnlock()

	if _, ok := s.chats[chat]; !ok {
		return nil, fmt.Errorf("chat %s: %w", chat, domain.ErrNotFound)
	}

	return lo.Map(s.chatMessages[chat], func(id domain.MessageID, _ int) domain.Message {
		return s.messages[id]
	}), nil
}

func (s *MemoryStore) SetMessageStatus(ctx context.Context, id domain.MessageID, status domain.Status) (domain.Message, error) {
	s.Lock()
	defer s.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return domain.Message{}, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}

	next, changed, err := domain.Transition(message.Status, status)
	if err != nil {
		return domain.Message{}, fmt.Errorf("domain.Transition: %w", err)
	}

	if changed {
		message.Status = next
		s.messages[id] = message
	}

	return message, nil
}
