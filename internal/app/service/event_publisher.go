package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/ShortURL/internal/app/model"
)

// EventPublisher delivers link lifecycle events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event model.LinkEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.LinkEvent) error { return nil }

// JetStreamPublisher publishes link events to NATS JetStream
type JetStreamPublisher struct {
	js nats.JetStreamContext
}

// NewJetStreamPublisher creates a publisher on the given JetStream context.
func NewJetStreamPublisher(js nats.JetStreamContext) *JetStreamPublisher {
	return &JetStreamPublisher{js: js}
}

// Publish publishes the event as JSON on links.<type>.
func (p *JetStreamPublisher) Publish(ctx context.Context, event model.LinkEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal link event: %w", err)
	}

	if _, err := p.js.Publish(event.Subject(), data, nats.Context(ctx), nats.MsgId(event.ID)); err != nil {
		return fmt.Errorf("publish link event: %w", err)
	}
	return nil
}

// EnsureLinkStream creates the LINKS stream if it does not exist yet.
func EnsureLinkStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(model.LinkStreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("lookup stream: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     model.LinkStreamName,
		Subjects: []string{model.LinkStreamSubjects},
		MaxBytes: model.LinkStreamMaxBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}
