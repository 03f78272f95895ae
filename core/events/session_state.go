package events

const (
	// KindStateChanged identifies a session state transition.
	KindStateChanged Kind = "session.state_changed"
	// KindSessionEnded identifies session shutdown.
	KindSessionEnded Kind = "session.ended"
)

// StateChanged marks a transition between session states.
type StateChanged struct {
	Base
	From string
	To   string
}

// NewStateChanged creates a state transition event.
func NewStateChanged(from, to string) StateChanged {
	return StateChanged{Base: NewBase(KindStateChanged), From: from, To: to}
}

// SessionEnded marks session shutdown.
type SessionEnded struct{ Base }

// NewSessionEnded creates a session ended event.
func NewSessionEnded() SessionEnded {
	return SessionEnded{Base: NewBase(KindSessionEnded)}
}
