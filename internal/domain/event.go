package domain

import (
	"time"

	"github.com/samber/lo"
)

// Event is something the router fans out. Lane names the ordering domain the
// event belongs to: events sharing a lane reach every recipient in publish order.
type Event interface {
	Lane() string
	Frame() Frame
}

func ChatLane(id ChatID) string {
	return "chat:" + string(id)
}

func UserLane(id UserID) string {
	return "user:" + string(id)
}

type MessageEvent struct {
	Message Message
}

func (e MessageEvent) Lane() string {
	return ChatLane(e.Message.ChatID)
}

func (e MessageEvent) Frame() Frame {
	return Frame{
		Type:      FrameMessage,
		ChatID:    e.Message.ChatID,
		MessageID: e.Message.ID,
		SenderID:  e.Message.SenderID,
		Content:   e.Message.Content,
		Status:    e.Message.Status,
		Timestamp: lo.ToPtr(e.Message.Timestamp),
	}
}

type StatusEvent struct {
	MessageID MessageID
	ChatID    ChatID
	Status    Status
	ActorID   UserID
	Timestamp time.Time
}

func (e StatusEvent) Lane() string {
	return ChatLane(e.ChatID)
}

func (e StatusEvent) Frame() Frame {
	return Frame{
		Type:      FrameStatus,
		ChatID:    e.ChatID,
		MessageID: e.MessageID,
		SenderID:  e.ActorID,
		Status:    e.Status,
		Timestamp: lo.ToPtr(e.Timestamp),
	}
}

type PresenceEvent struct {
	UserID    UserID
	Online    bool
	Timestamp time.Time
}

func (e PresenceEvent) Lane() string {
	return UserLane(e.UserID)
}

func (e PresenceEvent) Frame() Frame {
	return Frame{
		Type:      FramePresence,
		UserID:    e.UserID,
		Online:    lo.ToPtr(e.Online),
		Timestamp: lo.ToPtr(e.Timestamp),
	}
}
