// Package events publishes domain events for downstream consumers
// (analytics, recommendation). Publishing is best effort.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/iconidentify/newsreel/internal/domain"
)

// Publisher emits domain events.
type Publisher interface {
	PublishVideoViewed(ctx context.Context, ev domain.ViewEvent) error
	Close() error
}

// Envelope wraps every published payload.
type Envelope struct {
	Type       domain.EventType `json:"type"`
	Version    string           `json:"version"`
	OccurredAt time.Time        `json:"occurredAt"`
	Payload    any              `json:"payload"`
}

const envelopeVersion = "1.0.0"

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) PublishVideoViewed(context.Context, domain.ViewEvent) error { return nil }

func (Noop) Close() error { return nil }

// jetStream is the publishing half of nats.JetStreamContext.
type jetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSPublisher publishes to a JetStream stream.
type NATSPublisher struct {
	nc      *nats.Conn
	js      jetStream
	subject string
	logger  *slog.Logger
}

// NATSConfig names the connection and stream to publish on.
type NATSConfig struct {
	URL     string
	Stream  string
	Subject string
}

// NewNATSPublisher connects to NATS and ensures the stream exists.
func NewNATSPublisher(cfg NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("newsreel"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	if _, err := js.StreamInfo(cfg.Stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      cfg.Stream,
			Subjects:  []string{cfg.Subject},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Discard:   nats.DiscardOld,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("add stream %s: %w", cfg.Stream, err)
		}
	}

	logger.Info("publishing events to nats", "stream", cfg.Stream, "subject", cfg.Subject)
	return &NATSPublisher{nc: nc, js: js, subject: cfg.Subject, logger: logger}, nil
}

// PublishVideoViewed implements Publisher. The event ID doubles as the
// JetStream message ID so redelivered publishes are deduplicated.
func (p *NATSPublisher) PublishVideoViewed(ctx context.Context, ev domain.ViewEvent) error {
	data, err := json.Marshal(Envelope{
		Type:       ev.Type,
		Version:    envelopeVersion,
		OccurredAt: ev.OccurredAt,
		Payload:    ev,
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if _, err := p.js.Publish(p.subject, data, nats.Context(ctx), nats.MsgId(ev.ID.String())); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close drains pending publishes and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
