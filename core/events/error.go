package events

const (
	// KindError identifies a recoverable pipeline failure.
	KindError Kind = "session.error"
)

// Error carries a recoverable failure from a pipeline stage. The session
// resumes listening after emitting one of these.
type Error struct {
	Base
	Stage string
	Err   error
}

func (e Error) String() string {
	if e.Err == nil {
		return e.Stage
	}
	return e.Stage + ": " + e.Err.Error()
}

// NewError creates an error event for the given pipeline stage.
func NewError(stage string, err error) Error {
	return Error{Base: NewBase(KindError), Stage: stage, Err: err}
}
