package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const maxConflictRetries = 5

// BadgerStore persists chats and messages in an embedded badger database.
//
// Keys:
//
//	chat:{chat_id}                              -> Chat
//	userchat:{user_id}:{chat_id}                -> empty
//	msg:{message_id}                            -> Message
//	chatmsg:{chat_id}:{unix_nano_padded}:{id}   -> message id
//
// The 19-digit zero padding keeps a chat's messages in chronological order
// under a plain prefix scan.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, now: time.Now}
}

// OpenBadger opens the database at path, or an in-memory one when path is empty.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger.Open: %w", err)
	}

	return db, nil
}

func (s *BadgerStore) CreateChat(ctx context.Context, participants []domain.UserID) (domain.Chat, error) {
	chat := domain.Chat{
		ID:           domain.ChatID(uuid.NewString()),
		Participants: lo.Uniq(participants),
		CreatedAt:    s.now().UTC(),
	}

	b, err := json.Marshal(chat)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("json.Marshal: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte("chat:"+string(chat.ID)), b); err != nil {
			return err
		}

		for _, user := range chat.Participants {
			if err := txn.Set(userChatKey(user, chat.ID), nil); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		return domain.Chat{}, fmt.Errorf("db.Update: %w", err)
	}

	return chat, nil
}

func (s *BadgerStore) GetUserChats(ctx context.Context, user domain.UserID) ([]domain.ChatID, error) {
	prefix := []byte("userchat:" + string(user) + ":")

	var chats []domain.ChatID
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			chats = append(chats, domain.ChatID(it.Item().Key()[len(prefix):]))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db.View: %w", err)
	}

	return chats, nil
}

func (s *BadgerStore) GetChatParticipants(ctx context.Context, chat domain.ChatID) ([]domain.UserID, error) {
	var c domain.Chat
	if err := s.db.View(func(txn *badger.Txn) error {
		return get(txn, "chat:"+string(chat), &c)
	}); err != nil {
		return nil, fmt.Errorf("chat %s: %w", chat, err)
	}

	return c.Participants, nil
}

func (s *BadgerStore) CreateMessage(ctx context.Context, chat domain.ChatID, sender domain.UserID, content string) (domain.Message, error) {
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

	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte("chat:" + string(chat))); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("chat %s: %w", chat, domain.ErrNotFound)
			}

			return err
		}

		if err := txn.Set([]byte("msg:"+string(message.ID)), b); err != nil {
			return err
		}

		return txn.Set(chatMessageKey(message), []byte(message.ID))
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("db.Update: %w", err)
	}

	return message, nil
}

func (s *BadgerStore) GetMessage(ctx context.Context, id domain.MessageID) (domain.Message, error) {
	var message domain.Message
	if err := s.db.View(func(txn *badger.Txn) error {
		return get(txn, "msg:"+string(id), &message)
	}); err != nil {
		return domain.Message{}, fmt.Errorf("message %s: %w", id, err)
	}

	return message, nil
}

func (s *BadgerStore) GetChatMessages(ctx context.Context, chat domain.ChatID) ([]domain.Message, error) {
	prefix := []byte("chatmsg:" + string(chat) + ":")

	messages := []domain.Message{}
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte("chat:" + string(chat))); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("chat %s: %w", chat, domain.ErrNotFound)
			}

			return err
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			var m domain.Message
			if err := get(txn, "msg:"+string(id), &m); err != nil {
				return err
			}

			messages = append(messages, m)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db.View: %w", err)
	}

	return messages, nil
}

// SetMessageStatus runs the transition inside a read-write transaction and
// retries when a concurrent update of the same message wins the commit.
func (s *BadgerStore) SetMessageStatus(ctx context.Context, id domain.MessageID, status domain.Status) (domain.Message, error) {
	key := "msg:" + string(id)

	var result domain.Message
	update := func(txn *badger.Txn) error {
		var message domain.Message
		if err := get(txn, key, &message); err != nil {
			return fmt.Errorf("message %s: %w", id, err)
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

		result = message
		return txn.Set([]byte(key), b)
	}

	for i := 0; i < maxConflictRetries; i++ {
		err := s.db.Update(update)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}

		if err != nil {
			return domain.Message{}, fmt.Errorf("db.Update: %w", err)
		}

		return result, nil
	}

	return domain.Message{}, fmt.Errorf("db.Update: %w", badger.ErrConflict)
}

func get(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrNotFound
		}

		return fmt.Errorf("txn.Get: %w", err)
	}

	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func userChatKey(user domain.UserID, chat domain.ChatID) []byte {
	return []byte("userchat:" + string(user) + ":" + string(chat))
}

func chatMessageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("chatmsg:%s:%019d:%s", m.ChatID, m.Timestamp.UnixNano(), m.ID))
}
