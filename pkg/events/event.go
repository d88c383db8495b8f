// Package events defines the domain events the storage daemon emits and the
// envelope they travel in on the bus.
package events

import "time"

// Event type codes. The NATS subject for a code is "events." + the code.
const (
	TypeFilesIngested       = "FILES_INGESTED"
	TypeCacheSweepCompleted = "CACHE_SWEEP_COMPLETED"
)

// Event is one domain occurrence bound for the event bus.
type Event interface {
	// EventType returns the type code, e.g. "FILES_INGESTED".
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation publishers construct inline.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Envelope is the JSON wire form. The type code rides inside the payload as
// well as in the subject, so consumers rebuild events without subject parsing.
type Envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func Wrap(e Event) Envelope {
	return Envelope{
		Type:       e.EventType(),
		Data:       e.Payload(),
		OccurredAt: e.Timestamp(),
	}
}

func (env Envelope) Event() BaseEvent {
	return BaseEvent{
		Type:       env.Type,
		Data:       env.Data,
		OccurredAt: env.OccurredAt,
	}
}
