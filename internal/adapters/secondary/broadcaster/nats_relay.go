package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/arthurdotwork/livechat/internal/infrastructure/nats"
)

// NatsRelay publishes envelopes on a core NATS subject.
type NatsRelay struct {
	conn    *nats.Conn
	subject string
}

func NewNatsRelay(conn *nats.Conn, subject string) *NatsRelay {
	return &NatsRelay{conn: conn, subject: subject}
}

func (b *NatsRelay) Relay(ctx context.Context, envelope domain.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := b.conn.Publish(b.subject, payload); err != nil {
		return fmt.Errorf("conn.Publish: %w", err)
	}

	return nil
}
