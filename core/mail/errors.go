package mail

import "fmt"

// Error is a failed mail-provider call. StatusCode is zero when the request
// never reached the provider.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mail %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("mail %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
