package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	domain "approvalflow-backend/internal/domain/notify"
)

// Publisher emits approval workflow events to NATS for the external
// notification service. Subject convention: notifications.approval.<event_type>.
//
// Publish failures are logged and swallowed; a notification outage must
// never fail the approval operation that produced the event.
type Publisher struct {
	nc  *nats.Conn
	log zerolog.Logger
}

// Open connects to NATS. An empty URL returns (nil, nil); the caller falls
// back to the no-op publisher.
func Open(url string, log zerolog.Logger) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectHandler(func(*nats.Conn) {
			log.Info().Msg("notify: nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{nc: nc, log: log}, nil
}

func (p *Publisher) Publish(ctx context.Context, ev domain.Event) {
	if p == nil || p.nc == nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", ev.Type).Msg("notify: failed to marshal event")
		return
	}

	subject := "notifications.approval." + ev.Type
	if err := p.nc.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("request_id", ev.RequestID).
			Msg("notify: failed to publish event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("request_id", ev.RequestID).
		Str("user_id", ev.UserID).
		Msg("notify: event published")
}

func (p *Publisher) Close() {
	if p != nil && p.nc != nil {
		p.nc.Drain()
	}
}
