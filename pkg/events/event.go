package events

import (
	"strings"
	"time"
)

const (
	// StreamName is the JetStream stream holding onboarding events.
	StreamName    = "ONBOARDING"
	SubjectPrefix = "onboarding"

	TypeTaxonomyReconciled = "TAXONOMY_RECONCILED"
	TypeDeploymentFailed   = "DEPLOYMENT_FAILED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TAXONOMY_RECONCILED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

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

// Envelope is the wire form of an event.
type Envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

func NewEnvelope(e Event) Envelope {
	return Envelope{Type: e.EventType(), OccurredAt: e.Timestamp(), Data: e.Payload()}
}

func (env Envelope) Event() BaseEvent {
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}
}

// Subject maps an event type to its NATS subject, e.g.
// "TAXONOMY_RECONCILED" -> "onboarding.taxonomy_reconciled".
func Subject(eventType string) string {
	return SubjectPrefix + "." + strings.ToLower(eventType)
}
