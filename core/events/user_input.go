package events

const (
	// KindUserSpeechStarted identifies the start of detected user speech.
	KindUserSpeechStarted Kind = "user_input.speech_started"
	// KindUserSpeechEnded identifies the end of detected user speech.
	KindUserSpeechEnded Kind = "user_input.speech_ended"
	// KindUserTranscript identifies the finalized transcript of an utterance.
	KindUserTranscript Kind = "user_input.transcript"
)

// UserSpeechStarted marks the start of a detected utterance.
type UserSpeechStarted struct{ Base }

// NewUserSpeechStarted creates a user speech started event.
func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}

// UserSpeechEnded marks the end of a detected utterance.
type UserSpeechEnded struct{ Base }

// NewUserSpeechEnded creates a user speech ended event.
func NewUserSpeechEnded() UserSpeechEnded {
	return UserSpeechEnded{Base: NewBase(KindUserSpeechEnded)}
}

// UserTranscript carries the finalized transcript of an utterance.
type UserTranscript struct {
	Base
	Transcript string
}

func (t UserTranscript) String() string { return t.Transcript }

// NewUserTranscript creates a finalized transcript event.
func NewUserTranscript(transcript string) UserTranscript {
	return UserTranscript{Base: NewBase(KindUserTranscript), Transcript: transcript}
}
