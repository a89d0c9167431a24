package domain_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/arthurdotwork/livechat/internal/domain/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type chatServiceFixture struct {
	store    *mocks.MockStore
	registry *domain.Registry
	service  *domain.ChatService
}

func newChatServiceFixture(t *testing.T, opts ...domain.RouterOption) chatServiceFixture {
	t.Helper()

	store := mocks.NewMockStore(t)
	registry := domain.NewRegistry(nil)
	router := domain.NewRouter(registry, opts...)

	return chatServiceFixture{
		store:    store,
		registry: registry,
		service:  domain.NewChatService(store, registry, router, domain.NewFrameDecoder(4096)),
	}
}

func (f chatServiceFixture) connect(ctx context.Context, user domain.UserID) *fakeChannel {
	ch := newFakeChannel()
	f.service.Connect(ctx, user, ch)

	return ch
}

func TestChatService_SendMessage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("it should persist once and deliver to online members only", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()
		f.store.On("CreateMessage", mock.Anything, domain.ChatID("chat-1"), domain.UserID("A"), "hi").
			Return(domain.Message{ID: "m-1", ChatID: "chat-1", SenderID: "A", Content: "hi", Status: domain.StatusSent, Timestamp: now}, nil).
			Once()

		err := f.service.Handle(ctx, "A", a, []byte(`{"type":"message","chatId":"chat-1","content":"hi","requestId":"r-1"}`))
		require.NoError(t, err)

		frames := a.received(t)
		require.Len(t, frames, 1, "sender must not receive an echo")
		require.Equal(t, domain.FrameAck, frames[0].Type)
		require.Equal(t, "r-1", frames[0].RequestID)
		require.Equal(t, domain.MessageID("m-1"), frames[0].MessageID)
		require.Equal(t, domain.StatusSent, frames[0].Status)
	})

	t.Run("it should deliver the persisted message to other members", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")
		b := f.connect(ctx, "B")

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()
		f.store.On("CreateMessage", mock.Anything, domain.ChatID("chat-1"), domain.UserID("A"), "hi").
			Return(domain.Message{ID: "m-1", ChatID: "chat-1", SenderID: "A", Content: "hi", Status: domain.StatusSent, Timestamp: now}, nil).
			Once()

		require.NoError(t, f.service.Handle(ctx, "A", a, []byte(`{"type":"message","chatId":"chat-1","senderId":"A","content":"hi"}`)))

		frames := b.received(t)
		require.Len(t, frames, 1)
		require.Equal(t, domain.FrameMessage, frames[0].Type)
		require.Equal(t, domain.UserID("A"), frames[0].SenderID)
		require.Equal(t, "hi", frames[0].Content)
		require.True(t, now.Equal(*frames[0].Timestamp))
		require.Empty(t, a.receivedOfType(t, domain.FrameMessage))
	})

	t.Run("it should deny non members without persisting or broadcasting", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")
		c := f.connect(ctx, "C")

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()

		err := f.service.Handle(ctx, "C", c, []byte(`{"type":"message","chatId":"chat-1","content":"hi","requestId":"r-2"}`))
		require.ErrorIs(t, err, domain.ErrAccessDenied)

		frames := c.received(t)
		require.Len(t, frames, 1)
		require.Equal(t, domain.FrameErr, frames[0].Type)
		require.Equal(t, "r-2", frames[0].RequestID)
		require.Equal(t, domain.CodeAccessDenied, frames[0].Error.Code)
		require.False(t, frames[0].Error.Retryable)

		require.Empty(t, a.received(t))
		f.store.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("it should deny unknown chats", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("ghost")).Return(nil, domain.ErrNotFound).Once()

		err := f.service.Handle(ctx, "A", a, []byte(`{"type":"message","chatId":"ghost","content":"hi"}`))
		require.ErrorIs(t, err, domain.ErrAccessDenied)
		require.Equal(t, domain.CodeAccessDenied, a.receivedOfType(t, domain.FrameErr)[0].Error.Code)
	})

	t.Run("it should reject a sender that does not match the connection", func(t *testing.T) {
		f := newChatServiceFixture(t)
		c := f.connect(ctx, "C")

		err := f.service.Handle(ctx, "C", c, []byte(`{"type":"message","chatId":"chat-1","senderId":"A","content":"hi"}`))
		require.ErrorIs(t, err, domain.ErrAccessDenied)
		require.Equal(t, domain.CodeAccessDenied, c.receivedOfType(t, domain.FrameErr)[0].Error.Code)
	})

	t.Run("it should report persistence failures without broadcasting", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")
		b := f.connect(ctx, "B")

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()
		f.store.On("CreateMessage", mock.Anything, domain.ChatID("chat-1"), domain.UserID("A"), "hi").
			Return(domain.Message{}, fmt.Errorf("disk full")).
			Once()

		err := f.service.Handle(ctx, "A", a, []byte(`{"type":"message","chatId":"chat-1","content":"hi"}`))
		require.ErrorIs(t, err, domain.ErrPersistenceFailure)

		frames := a.received(t)
		require.Len(t, frames, 1)
		require.Equal(t, domain.FrameErr, frames[0].Type)
		require.Equal(t, domain.CodePersistenceFailure, frames[0].Error.Code)
		require.True(t, frames[0].Error.Retryable)
		require.NotContains(t, frames[0].Error.Message, "disk full")

		require.Empty(t, b.received(t))
	})

	t.Run("it should keep the connection open on malformed frames", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")

		err := f.service.Handle(ctx, "A", a, []byte(`{"type":"typing","requestId":"r-3"}`))
		require.ErrorIs(t, err, domain.ErrMalformedFrame)

		frames := a.received(t)
		require.Len(t, frames, 1)
		require.Equal(t, domain.FrameErr, frames[0].Type)
		require.Equal(t, "r-3", frames[0].RequestID)
		require.Equal(t, domain.CodeMalformedFrame, frames[0].Error.Code)

		require.False(t, a.isClosed())
		_, ok := f.registry.Lookup("A")
		require.True(t, ok)
	})

	t.Run("it should answer presence pings", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")

		require.NoError(t, f.service.Handle(ctx, "A", a, []byte(`{"type":"presence","requestId":"r-4"}`)))

		frames := a.received(t)
		require.Len(t, frames, 1)
		require.Equal(t, domain.FrameAck, frames[0].Type)
		require.Equal(t, "r-4", frames[0].RequestID)
	})
}

func TestChatService_UpdateStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sent := domain.Message{ID: "m-1", ChatID: "chat-1", SenderID: "A", Content: "hi", Status: domain.StatusSent}

	t.Run("it should broadcast a read receipt to every member including the sender", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")
		b := f.connect(ctx, "B")

		read := sent
		read.Status = domain.StatusRead

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()
		f.store.On("GetMessage", mock.Anything, domain.MessageID("m-1")).Return(sent, nil).Once()
		f.store.On("SetMessageStatus", mock.Anything, domain.MessageID("m-1"), domain.StatusRead).Return(read, nil).Once()

		require.NoError(t, f.service.Handle(ctx, "B", b, []byte(`{"type":"status","chatId":"chat-1","messageId":"m-1","status":"READ","requestId":"r-1"}`)))

		statuses := a.receivedOfType(t, domain.FrameStatus)
		require.Len(t, statuses, 1)
		require.Equal(t, domain.StatusRead, statuses[0].Status)
		require.Equal(t, domain.UserID("B"), statuses[0].SenderID)
		require.Equal(t, domain.MessageID("m-1"), statuses[0].MessageID)

		require.Len(t, b.receivedOfType(t, domain.FrameStatus), 1)

		acks := b.receivedOfType(t, domain.FrameAck)
		require.Len(t, acks, 1)
		require.Equal(t, "r-1", acks[0].RequestID)
		require.Equal(t, domain.StatusRead, acks[0].Status)
	})

	t.Run("it should answer a regression with a notice and no broadcast", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")
		b := f.connect(ctx, "B")

		delivered := sent
		delivered.Status = domain.StatusDelivered

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()
		f.store.On("GetMessage", mock.Anything, domain.MessageID("m-1")).Return(delivered, nil).Once()

		err := f.service.Handle(ctx, "B", b, []byte(`{"type":"status","chatId":"chat-1","messageId":"m-1","status":"SENT"}`))
		require.ErrorIs(t, err, domain.ErrStaleTransition)

		frames := b.received(t)
		require.Len(t, frames, 1)
		require.Equal(t, domain.FrameNotice, frames[0].Type)
		require.Equal(t, domain.CodeStaleTransition, frames[0].Error.Code)

		require.Empty(t, a.received(t))
		f.store.AssertNotCalled(t, "SetMessageStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("it should acknowledge a repeated status without persisting", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")
		b := f.connect(ctx, "B")

		delivered := sent
		delivered.Status = domain.StatusDelivered

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()
		f.store.On("GetMessage", mock.Anything, domain.MessageID("m-1")).Return(delivered, nil).Once()

		require.NoError(t, f.service.Handle(ctx, "B", b, []byte(`{"type":"status","chatId":"chat-1","messageId":"m-1","status":"delivered"}`)))

		frames := b.received(t)
		require.Len(t, frames, 1)
		require.Equal(t, domain.FrameAck, frames[0].Type)
		require.Equal(t, domain.StatusDelivered, frames[0].Status)

		require.Empty(t, a.received(t))
	})

	t.Run("it should reject unknown statuses", func(t *testing.T) {
		f := newChatServiceFixture(t)
		b := f.connect(ctx, "B")

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()

		err := f.service.Handle(ctx, "B", b, []byte(`{"type":"status","chatId":"chat-1","messageId":"m-1","status":"SEEN"}`))
		require.ErrorIs(t, err, domain.ErrUnknownStatus)
		require.Equal(t, domain.CodeInvalidStatus, b.received(t)[0].Error.Code)
	})

	t.Run("it should deny messages that belong to another chat", func(t *testing.T) {
		f := newChatServiceFixture(t)
		b := f.connect(ctx, "B")

		other := sent
		other.ChatID = "chat-2"

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()
		f.store.On("GetMessage", mock.Anything, domain.MessageID("m-1")).Return(other, nil).Once()

		err := f.service.Handle(ctx, "B", b, []byte(`{"type":"status","chatId":"chat-1","messageId":"m-1","status":"READ"}`))
		require.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("it should deny unknown messages", func(t *testing.T) {
		f := newChatServiceFixture(t)
		b := f.connect(ctx, "B")

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()
		f.store.On("GetMessage", mock.Anything, domain.MessageID("m-9")).Return(domain.Message{}, domain.ErrNotFound).Once()

		err := f.service.Handle(ctx, "B", b, []byte(`{"type":"status","chatId":"chat-1","messageId":"m-9","status":"READ"}`))
		require.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("it should surface a stale write detected by the store", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")
		b := f.connect(ctx, "B")

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()
		f.store.On("GetMessage", mock.Anything, domain.MessageID("m-1")).Return(sent, nil).Once()
		f.store.On("SetMessageStatus", mock.Anything, domain.MessageID("m-1"), domain.StatusDelivered).
			Return(domain.Message{}, domain.ErrStaleTransition).
			Once()

		err := f.service.Handle(ctx, "B", b, []byte(`{"type":"status","chatId":"chat-1","messageId":"m-1","status":"DELIVERED"}`))
		require.ErrorIs(t, err, domain.ErrStaleTransition)
		require.NotErrorIs(t, err, domain.ErrPersistenceFailure)

		require.Equal(t, domain.FrameNotice, b.received(t)[0].Type)
		require.Empty(t, a.received(t))
	})
}

func TestChatService_Ordering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("it should deliver a message before the receipt that follows it", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")
		b := f.connect(ctx, "B")
		c := f.connect(ctx, "C")

		m1 := domain.Message{ID: "m-1", ChatID: "chat-1", SenderID: "A", Content: "M1", Status: domain.StatusSent}
		read := m1
		read.Status = domain.StatusRead

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B", "C"}, nil)
		f.store.On("CreateMessage", mock.Anything, domain.ChatID("chat-1"), domain.UserID("A"), "M1").Return(m1, nil).Once()
		f.store.On("GetMessage", mock.Anything, domain.MessageID("m-1")).Return(m1, nil).Once()
		f.store.On("SetMessageStatus", mock.Anything, domain.MessageID("m-1"), domain.StatusRead).Return(read, nil).Once()

		require.NoError(t, f.service.Handle(ctx, "A", a, []byte(`{"type":"message","chatId":"chat-1","content":"M1"}`)))
		require.NoError(t, f.service.Handle(ctx, "B", b, []byte(`{"type":"status","chatId":"chat-1","messageId":"m-1","status":"READ"}`)))

		frames := c.received(t)
		require.Len(t, frames, 2)
		require.Equal(t, domain.FrameMessage, frames[0].Type)
		require.Equal(t, domain.FrameStatus, frames[1].Type)
	})

	t.Run("it should give every member the same order under concurrent senders", func(t *testing.T) {
		f := newChatServiceFixture(t, domain.WithEchoToSender(true))
		members := []domain.UserID{"A", "B", "C"}

		channels := make(map[domain.UserID]*fakeChannel, len(members))
		for _, member := range members {
			channels[member] = f.connect(ctx, member)
		}

		var seq atomic.Int64
		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return(members, nil)
		f.store.On("CreateMessage", mock.Anything, domain.ChatID("chat-1"), mock.Anything, mock.Anything).
			Return(func(_ context.Context, chat domain.ChatID, sender domain.UserID, content string) domain.Message {
				return domain.Message{
					ID:       domain.MessageID(fmt.Sprintf("m-%d", seq.Add(1))),
					ChatID:   chat,
					SenderID: sender,
					Content:  content,
					Status:   domain.StatusSent,
				}
			}, nil)

		const perMember = 20

		var wg sync.WaitGroup
		for _, member := range members {
			wg.Add(1)
			go func() {
				defer wg.Done()

				for i := 0; i < perMember; i++ {
					raw := fmt.Sprintf(`{"type":"message","chatId":"chat-1","content":"%s-%d"}`, member, i)
					_ = f.service.Handle(ctx, member, channels[member], []byte(raw))
				}
			}()
		}
		wg.Wait()

		var reference []domain.MessageID
		for _, member := range members {
			var order []domain.MessageID
			for _, frame := range channels[member].receivedOfType(t, domain.FrameMessage) {
				order = append(order, frame.MessageID)
			}

			require.Len(t, order, perMember*len(members))
			if reference == nil {
				reference = order
				continue
			}

			require.Equal(t, reference, order, "member %s saw a different order", member)
		}
	})
}

func TestChatService_Close(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newChatServiceFixture(t)

	a := f.connect(ctx, "A")
	b := f.connect(ctx, "B")

	require.NoError(t, f.service.Close(ctx))

	for _, ch := range []*fakeChannel{a, b} {
		frames := ch.received(t)
		require.Len(t, frames, 1)
		require.Equal(t, domain.FrameClosing, frames[0].Type)
		require.True(t, ch.isClosed())
	}
}

func TestChatService_Disconnect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newChatServiceFixture(t)

	old := f.connect(ctx, "A")
	fresh := f.connect(ctx, "A")
	require.True(t, old.isClosed())

	f.service.Disconnect(ctx, "A", old)

	ch, ok := f.registry.Lookup("A")
	require.True(t, ok)
	require.Equal(t, fresh.ID(), ch.ID())

	f.service.Disconnect(ctx, "A", fresh)
	_, ok = f.registry.Lookup("A")
	require.False(t, ok)
	require.True(t, fresh.isClosed())
}

func TestChatService_CreateChat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("it should include the creator once", func(t *testing.T) {
		f := newChatServiceFixture(t)

		f.store.On("CreateChat", mock.Anything, []domain.UserID{"A", "B"}).
			Return(domain.Chat{ID: "chat-1", Participants: []domain.UserID{"A", "B"}}, nil).
			Once()

		chat, err := f.service.CreateChat(ctx, "A", []domain.UserID{"B", "A", ""})
		require.NoError(t, err)
		require.Equal(t, domain.ChatID("chat-1"), chat.ID)
	})

	t.Run("it should refuse a chat with the creator alone", func(t *testing.T) {
		f := newChatServiceFixture(t)

		_, err := f.service.CreateChat(ctx, "A", []domain.UserID{"A"})
		require.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestChatService_History(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("it should return the history to members", func(t *testing.T) {
		f := newChatServiceFixture(t)

		messages := []domain.Message{{ID: "m-1", ChatID: "chat-1"}, {ID: "m-2", ChatID: "chat-1"}}
		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()
		f.store.On("GetChatMessages", mock.Anything, domain.ChatID("chat-1")).Return(messages, nil).Once()

		got, err := f.service.History(ctx, "B", "chat-1")
		require.NoError(t, err)
		require.Equal(t, messages, got)
	})

	t.Run("it should deny the history to non members", func(t *testing.T) {
		f := newChatServiceFixture(t)

		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()

		_, err := f.service.History(ctx, "C", "chat-1")
		require.ErrorIs(t, err, domain.ErrAccessDenied)
	})
}

func TestChatService_UpdateStatusByMessage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sent := domain.Message{ID: "m-1", ChatID: "chat-1", SenderID: "A", Content: "hi", Status: domain.StatusSent}

	t.Run("it should resolve the chat from the message and notify members", func(t *testing.T) {
		f := newChatServiceFixture(t)
		a := f.connect(ctx, "A")

		read := sent
		read.Status = domain.StatusRead

		f.store.On("GetMessage", mock.Anything, domain.MessageID("m-1")).Return(sent, nil).Twice()
		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()
		f.store.On("SetMessageStatus", mock.Anything, domain.MessageID("m-1"), domain.StatusRead).Return(read, nil).Once()

		updated, err := f.service.UpdateStatus(ctx, "B", "", "m-1", "read")
		require.NoError(t, err)
		require.Equal(t, domain.StatusRead, updated.Status)

		statuses := a.receivedOfType(t, domain.FrameStatus)
		require.Len(t, statuses, 1)
		require.Equal(t, domain.UserID("B"), statuses[0].SenderID)
	})

	t.Run("it should deny unknown messages", func(t *testing.T) {
		f := newChatServiceFixture(t)

		f.store.On("GetMessage", mock.Anything, domain.MessageID("m-9")).Return(domain.Message{}, domain.ErrNotFound).Once()

		_, err := f.service.UpdateStatus(ctx, "B", "", "m-9", "READ")
		require.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("it should deny non members", func(t *testing.T) {
		f := newChatServiceFixture(t)

		f.store.On("GetMessage", mock.Anything, domain.MessageID("m-1")).Return(sent, nil).Once()
		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"A", "B"}, nil).Once()

		_, err := f.service.UpdateStatus(ctx, "C", "", "m-1", "READ")
		require.ErrorIs(t, err, domain.ErrAccessDenied)
		f.store.AssertNotCalled(t, "SetMessageStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestChatService_Chats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("it should summarize every chat of the user", func(t *testing.T) {
		f := newChatServiceFixture(t)

		f.store.On("GetUserChats", mock.Anything, domain.UserID("A")).Return([]domain.ChatID{"chat-1", "chat-2", "chat-3"}, nil).Once()
		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-1")).Return([]domain.UserID{"B", "A"}, nil).Once()
		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-2")).Return([]domain.UserID{"A", "B", "C"}, nil).Once()
		f.store.On("GetChatParticipants", mock.Anything, domain.ChatID("chat-3")).Return(nil, domain.ErrNotFound).Once()
		f.store.On("GetChatMessages", mock.Anything, domain.ChatID("chat-1")).
			Return([]domain.Message{{ID: "m-1", Timestamp: now}, {ID: "m-2", Timestamp: now.Add(time.Minute)}}, nil).
			Once()
		f.store.On("GetChatMessages", mock.Anything, domain.ChatID("chat-2")).Return([]domain.Message{}, nil).Once()

		chats, err := f.service.Chats(ctx, "A")
		require.NoError(t, err)
		require.Len(t, chats, 2)

		require.Equal(t, "A, B", chats[0].Name)
		require.NotNil(t, chats[0].LastMessageAt)
		require.True(t, now.Add(time.Minute).Equal(*chats[0].LastMessageAt))

		require.Equal(t, "Group Chat", chats[1].Name)
		require.Nil(t, chats[1].LastMessageAt)
	})

	t.Run("it should report store failures as persistence failures", func(t *testing.T) {
		f := newChatServiceFixture(t)

		f.store.On("GetUserChats", mock.Anything, domain.UserID("A")).Return(nil, fmt.Errorf("boom")).Once()

		_, err := f.service.Chats(ctx, "A")
		require.ErrorIs(t, err, domain.ErrPersistenceFailure)
	})
}
