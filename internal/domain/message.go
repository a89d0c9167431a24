package domain

import (
	"slices"
	"strings"
	"time"
)

type UserID string

type ChatID string

type MessageID string

type Chat struct {
	ID           ChatID    `json:"id"`
	Participants []UserID  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ChatSummary is how a chat is listed to one of its participants.
type ChatSummary struct {
	ID            ChatID     `json:"id"`
	Name          string     `json:"name"`
	Participants  []UserID   `json:"participants"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
}

// ChatName names a one-to-one chat after both participants; larger chats are
// group chats.
func ChatName(participants []UserID) string {
	if len(participants) != 2 {
		return "Group Chat"
	}

	names := []string{string(participants[0]), string(participants[1])}
	slices.Sort(names)

	return strings.Join(names, ", ")
}

// Message is the persisted form of a chat message. Values handed out by the
// store are copies; status changes go through Store.SetMessageStatus.
type Message struct {
	ID        MessageID `json:"id"`
	ChatID    ChatID    `json:"chatId"`
	SenderID  UserID    `json:"senderId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
}
