package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

type DeliveryReport struct {
	Delivered   []UserID
	Offline     []UserID
	Unreachable []UserID
}

// Envelope carries an already encoded frame to the other nodes of a cluster
// together with its resolved recipients.
type Envelope struct {
	Node       string          `json:"node"`
	Lane       string          `json:"lane"`
	Recipients []UserID        `json:"recipients"`
	Frame      json.RawMessage `json:"frame"`
}

type lane struct {
	sem  chan struct{}
	refs int
}

// Router fans events out to the online members of an audience. Publishes on
// the same lane are serialized in arrival order; distinct lanes run
// concurrently. Offline members are skipped and nothing is queued for them.
//
// Ordering holds per node only. Relayed envelopes share the lane of their
// origin but are not ordered against publishes made on the receiving node, so
// a status persisted here may reach local members before the relayed message
// it refers to.
type Router struct {
	registry     *Registry
	relay        Relay
	node         string
	echoToSender bool

	mu    sync.Mutex
	lanes map[string]*lane
}

type RouterOption func(*Router)

// WithEchoToSender makes message events reach their sender's own channel.
func WithEchoToSender(echo bool) RouterOption {
	return func(r *Router) {
		r.echoToSender = echo
	}
}

func WithRelay(node string, relay Relay) RouterOption {
	return func(r *Router) {
		r.node = node
		r.relay = relay
	}
}

func NewRouter(registry *Registry, opts ...RouterOption) *Router {
	r := &Router{
		registry: registry,
		lanes:    make(map[string]*lane),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Sequence runs step while holding the lane and publishes the event it
// returns before releasing it, so publication order on a lane matches the
// order in which steps completed. A nil event publishes nothing.
func (r *Router) Sequence(
	ctx context.Context,
	key string,
	step func(ctx context.Context) (Event, []UserID, error),
) (DeliveryReport, error) {
	l, err := r.acquire(ctx, key)
	if err != nil {
		return DeliveryReport{}, fmt.Errorf("router.acquire: %w", err)
	}
	defer r.release(key, l)

	event, audience, err := step(ctx)
	if err != nil {
		return DeliveryReport{}, err
	}

	if event == nil {
		return DeliveryReport{}, nil
	}

	return r.publish(ctx, key, event, audience)
}

func (r *Router) Publish(ctx context.Context, event Event, audience []UserID) (DeliveryReport, error) {
	return r.Sequence(ctx, event.Lane(), func(context.Context) (Event, []UserID, error) {
		return event, audience, nil
	})
}

// Receive delivers an envelope relayed by another node to the local channels.
// Envelopes emitted by this node are ignored.
func (r *Router) Receive(ctx context.Context, envelope Envelope) (DeliveryReport, error) {
	if envelope.Node != "" && envelope.Node == r.node {
		return DeliveryReport{}, nil
	}

	l, err := r.acquire(ctx, envelope.Lane)
	if err != nil {
		return DeliveryReport{}, fmt.Errorf("router.acquire: %w", err)
	}
	defer r.release(envelope.Lane, l)

	return r.deliver(ctx, envelope.Frame, envelope.Recipients), nil
}

// Lanes returns the number of lanes currently held or awaited.
func (r *Router) Lanes() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.lanes)
}

func (r *Router) publish(ctx context.Context, key string, event Event, audience []UserID) (DeliveryReport, error) {
	payload, err := EncodeFrame(event.Frame())
	if err != nil {
		return DeliveryReport{}, fmt.Errorf("EncodeFrame: %w", err)
	}

	recipients := r.recipients(event, audience)
	report := r.deliver(ctx, payload, recipients)

	if r.relay != nil {
		envelope := Envelope{Node: r.node, Lane: key, Recipients: recipients, Frame: payload}
		if err := r.relay.Relay(context.WithoutCancel(ctx), envelope); err != nil {
			slog.ErrorContext(ctx, "error relaying event", "lane", key, "error", err)
		}
	}

	return report, nil
}

func (r *Router) recipients(event Event, audience []UserID) []UserID {
	recipients := lo.Uniq(audience)

	switch e := event.(type) {
	case MessageEvent:
		if !r.echoToSender {
			recipients = lo.Without(recipients, e.Message.SenderID)
		}
	case PresenceEvent:
		recipients = lo.Without(recipients, e.UserID)
	}

	return recipients
}

func (r *Router) deliver(ctx context.Context, payload []byte, recipients []UserID) DeliveryReport {
	var report DeliveryReport

	online := r.registry.Snapshot(recipients)
	for _, user := range recipients {
		ch, ok := online[user]
		if !ok {
			report.Offline = append(report.Offline, user)
			continue
		}

		if err := ch.Send(payload); err != nil {
			slog.DebugContext(ctx, "dropping stale channel",
				"user_id", user,
				"channel_id", ch.ID(),
				"error", fmt.Errorf("%w: %w", ErrRecipientUnreachable, err))

			report.Unreachable = append(report.Unreachable, user)

			if r.registry.Unregister(ctx, user, ch) {
				if err := ch.Close(); err != nil {
					slog.ErrorContext(ctx, "error closing channel", "user_id", user, "channel_id", ch.ID(), "error", err)
				}
			}

			continue
		}

		report.Delivered = append(report.Delivered, user)
	}

	return report
}

func (r *Router) acquire(ctx context.Context, key string) (*lane, error) {
	r.mu.Lock()
	l, ok := r.lanes[key]
	if !ok {
		l = &lane{sem: make(chan struct{}, 1)}
		r.lanes[key] = l
	}
	l.refs++
	r.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return l, nil
	case <-ctx.Done():
		r.unref(key, l)
		return nil, ctx.Err()
	}
}

func (r *Router) release(key string, l *lane) {
	<-l.sem
	r.unref(key, l)
}

func (r *Router) unref(key string, l *lane) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(r.lanes, key)
	}
}
