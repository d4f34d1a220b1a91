package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/idgen"
)

// Event represents a domain event that has occurred in the system.
// Events are immutable facts about state changes. They are produced by
// aggregate behaviors and returned to the caller after a successful write.
type Event struct {
	// ID is a lexically sortable unique identifier (ULID).
	ID string

	// Kind names what happened, e.g. "Hidden" or "Created".
	Kind string

	// AggregateType is the type name of the aggregate, e.g. "Language".
	AggregateType string

	AggregateID uuid.UUID

	// SiteID is the tenant the aggregate belongs to. uuid.Nil for global aggregates.
	SiteID uuid.UUID

	// Version is the aggregate version this event produced.
	Version int64

	Timestamp time.Time

	// Data holds the event payload. Values must be JSON compatible.
	Data map[string]any
}

// Type returns the fully qualified event type, e.g. "Language.Hidden".
func (e Event) Type() string {
	return e.AggregateType + "." + e.Kind
}

// EventLog is the ordered, append-only record of events produced by an
// aggregate since it was loaded or created.
type EventLog struct {
	events []Event
}

// Record appends an event to the log.
func (l *EventLog) Record(e Event) {
	l.events = append(l.events, e)
}

// Events returns a snapshot of the recorded events in order.
func (l *EventLog) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Drain returns the recorded events and clears the log.
func (l *EventLog) Drain() []Event {
	out := l.events
	l.events = nil
	if out == nil {
		return []Event{}
	}
	return out
}

// Len returns the number of recorded events.
func (l *EventLog) Len() int {
	return len(l.events)
}

func newEvent(aggregateType string, siteID, aggregateID uuid.UUID, kind string, version int64, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{
		ID:            idgen.New(),
		Kind:          kind,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		SiteID:        siteID,
		Version:       version,
		Timestamp:     Now(),
		Data:          data,
	}
}
