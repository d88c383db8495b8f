// Package nats carries domain events between the storage daemon and its
// maintenance tooling over JetStream.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/thetahealth/mirobody-sub003/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	eventStream   = "EVENTS"
	subjectPrefix = "events."
	eventMaxAge   = 24 * time.Hour
)

// Publisher sends domain events to the bus.
type Publisher struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewPublisher(url string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The stream is an observability tail, not a work queue: every consumer
	// keeps its own cursor and events age out after a day.
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      eventStream,
		Subjects:  []string{subjectPrefix + ">"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    eventMaxAge,
	})
	if err != nil {
		// The daemon must come up even while NATS is still starting.
		log.Printf("Warn: Failed to ensure stream %q: %v", eventStream, err)
	}

	return &Publisher{nc: nc, js: js}, nil
}

// Publish sends one event. The subject is derived from the event type, so
// consumers can filter by type without reading payloads.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(events.Wrap(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}

	subject := subjectPrefix + event.EventType()
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
