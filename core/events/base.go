package events

import "time"

// Kind names an event type, namespaced by the part of the session that
// emits it.
type Kind string

// Event is implemented by every session event. Handlers switch on Kind or
// type-assert to the concrete event for its payload.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the fields shared by all events and is embedded by each
// concrete event type.
type Base struct {
	kind      Kind
	timestamp time.Time
}

// NewBase stamps the event with the current time.
func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
