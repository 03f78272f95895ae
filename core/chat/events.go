package chat

// Message is one prior conversation turn sent with a request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Event is one record received on the response stream. Exactly one terminal
// event (Done or Failure) ends a well-formed stream.
type Event interface {
	isEvent()
}

// Delta carries an incremental piece of the assistant's reply.
type Delta struct {
	Text string
}

// Done terminates the stream and carries the complete reply text, which is
// authoritative over the concatenated deltas.
type Done struct {
	Reply string
}

// Failure terminates the stream with a server-reported error.
type Failure struct {
	Message string
}

func (Delta) isEvent()   {}
func (Done) isEvent()    {}
func (Failure) isEvent() {}
