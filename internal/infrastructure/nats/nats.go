package nats

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

type Conn = nats.Conn

type Msg = nats.Msg

// Connect dials url and keeps reconnecting for as long as the process runs.
func Connect(url, name string) (*Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats.Connect: %w", err)
	}

	return conn, nil
}
