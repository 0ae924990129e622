package events

import "time"

// Event codes published on the review bus.
const (
	TypeReviewAssessed        = "REVIEW_ASSESSED"
	TypeConversationCompleted = "CONVERSATION_COMPLETED"
	TypeConversationAborted   = "CONVERSATION_ABORTED"
	TypeDocumentsSynced       = "DOCUMENTS_SYNCED"
	TypeAgentsPurged          = "AGENTS_PURGED"
)

// Event defines the contract for all review events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "REVIEW_ASSESSED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the concrete event used across the backend.
type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// New builds an event stamped with the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
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
