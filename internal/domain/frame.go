package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

type FrameType string

const (
	FrameMessage  FrameType = "message"
	FrameStatus   FrameType = "status"
	FramePresence FrameType = "presence"
	FrameAck      FrameType = "ack"
	FrameNotice   FrameType = "notice"
	FrameErr      FrameType = "error"
	FrameClosing  FrameType = "closing"
)

type FrameError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable,omitempty"`
}

// Frame is the JSON unit exchanged over a live channel in both directions.
// Validation tags only apply to inbound frames.
type Frame struct {
	Type      FrameType   `json:"type" validate:"required,oneof=message status presence"`
	RequestID string      `json:"requestId,omitempty" validate:"max=128"`
	ChatID    ChatID      `json:"chatId,omitempty" validate:"required_unless=Type presence,max=128"`
	MessageID MessageID   `json:"messageId,omitempty" validate:"required_if=Type status,max=128"`
	SenderID  UserID      `json:"senderId,omitempty" validate:"max=128"`
	UserID    UserID      `json:"userId,omitempty"`
	Content   string      `json:"content,omitempty" validate:"required_if=Type message"`
	Status    Status      `json:"status,omitempty" validate:"required_if=Type status"`
	Online    *bool       `json:"online,omitempty"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
	Error     *FrameError `json:"error,omitempty"`
}

// timestampLayouts are the ISO-8601 forms accepted on inbound frames. Values
// without an offset are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// UnmarshalJSON decodes a frame, reading the client timestamp leniently.
func (f *Frame) UnmarshalJSON(b []byte) error {
	type frame Frame

	var raw struct {
		frame
		Timestamp *string `json:"timestamp,omitempty"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*f = Frame(raw.frame)

	if raw.Timestamp == nil || *raw.Timestamp == "" {
		return nil
	}

	ts, err := ParseTimestamp(*raw.Timestamp)
	if err != nil {
		return err
	}

	f.Timestamp = &ts
	return nil
}

func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

type FrameDecoder struct {
	validate         *validator.Validate
	maxContentLength int
}

func NewFrameDecoder(maxContentLength int) *FrameDecoder {
	return &FrameDecoder{
		validate:         validator.New(),
		maxContentLength: maxContentLength,
	}
}

// Decode parses an inbound frame. On failure the partially decoded frame is
// still returned so the caller can reference its request id.
func (d *FrameDecoder) Decode(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("%w: json.Unmarshal: %w", ErrMalformedFrame, err)
	}

	if err := d.validate.Struct(f); err != nil {
		return f, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	if f.Type == FrameMessage {
		if err := d.CheckContent(f.Content); err != nil {
			return f, err
		}
	}

	return f, nil
}

// CheckContent rejects blank content and content longer than the configured
// number of characters.
func (d *FrameDecoder) CheckContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty content", ErrMalformedFrame)
	}

	if d.maxContentLength > 0 && utf8.RuneCountInString(content) > d.maxContentLength {
		return fmt.Errorf("%w: content longer than %d characters", ErrMalformedFrame, d.maxContentLength)
	}

	return nil
}

func EncodeFrame(f Frame) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return b, nil
}
