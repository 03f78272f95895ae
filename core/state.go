package session

// AppState is the externally visible state of the voice session.
type AppState string

const (
	// StateIdle means the session is not running.
	StateIdle AppState = "idle"
	// StateListening means the microphone is open and the session is waiting
	// for speech to exceed the silence threshold.
	StateListening AppState = "listening"
	// StateRecording means an utterance is being accumulated.
	StateRecording AppState = "recording"
	// StateProcessing means the utterance is being transcribed and the
	// assistant's reply is being generated.
	StateProcessing AppState = "processing"
	// StateSpeaking means synthesized speech is playing. The only state in
	// which barge-in is armed.
	StateSpeaking AppState = "speaking"
)
