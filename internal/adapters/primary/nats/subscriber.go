package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/arthurdotwork/livechat/internal/infrastructure/nats"
)

type Receiver interface {
	Receive(ctx context.Context, envelope domain.Envelope) (domain.DeliveryReport, error)
}

type Subscriber struct {
	conn     *nats.Conn
	receiver Receiver
	buffer   int
}

func NewSubscriber(conn *nats.Conn, receiver Receiver) *Subscriber {
	return &Subscriber{conn: conn, receiver: receiver, buffer: 256}
}

// Subscribe delivers envelopes published on subject until ctx is done.
// Messages are handled one at a time so lane order is kept.
func (s *Subscriber) Subscribe(ctx context.Context, subject string) error {
	msgs := make(chan *nats.Msg, s.buffer)

	sub, err := s.conn.ChanSubscribe(subject, msgs)
	if err != nil {
		return fmt.Errorf("conn.ChanSubscribe: %w", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-msgs:
			var envelope domain.Envelope
			if err := json.Unmarshal(msg.Data, &envelope); err != nil {
				slog.ErrorContext(ctx, "dropping undecodable envelope", "subject", subject, "error", err)
				continue
			}

			if _, err := s.receiver.Receive(ctx, envelope); err != nil {
				if ctx.Err() != nil {
					return nil
				}

				return fmt.Errorf("receiver.Receive: %w", err)
			}
		}
	}
}
