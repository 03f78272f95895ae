package session

import "fmt"

// CaptureError means the audio input could not be started or read. It is
// fatal to session startup.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string { return fmt.Sprintf("capture: %v", e.Err) }
func (e *CaptureError) Unwrap() error { return e.Err }

// TranscriptionError means an utterance could not be transcribed. The
// session absorbs it and resumes listening.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string { return fmt.Sprintf("transcription: %v", e.Err) }
func (e *TranscriptionError) Unwrap() error { return e.Err }

// ChatStreamError means the assistant stream failed or ended without a
// terminal record. The session absorbs it and resumes listening.
type ChatStreamError struct {
	Err error
}

func (e *ChatStreamError) Error() string { return fmt.Sprintf("chat stream: %v", e.Err) }
func (e *ChatStreamError) Unwrap() error { return e.Err }

// SynthesisError means one sentence could not be synthesized. Only that
// sentence is skipped; the rest of the reply still plays.
type SynthesisError struct {
	Sentence string
	Err      error
}

func (e *SynthesisError) Error() string { return fmt.Sprintf("synthesis: %v", e.Err) }
func (e *SynthesisError) Unwrap() error { return e.Err }

// PlaybackError means a synthesized clip could not be played. The affected
// segment is treated as ended.
type PlaybackError struct {
	Err error
}

func (e *PlaybackError) Error() string { return fmt.Sprintf("playback: %v", e.Err) }
func (e *PlaybackError) Unwrap() error { return e.Err }
