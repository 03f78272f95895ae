package events

import (
	"errors"
	"testing"
)

func TestEventKinds(t *testing.T) {
	cases := []struct {
		event Event
		kind  Kind
	}{
		{NewStateChanged("idle", "listening"), KindStateChanged},
		{NewSessionEnded(), KindSessionEnded},
		{NewUserSpeechStarted(), KindUserSpeechStarted},
		{NewUserSpeechEnded(), KindUserSpeechEnded},
		{NewUserTranscript("hello"), KindUserTranscript},
		{NewAssistantResponseSegment("Hi"), KindAssistantResponseSegment},
		{NewAssistantResponseFinal("Hi there."), KindAssistantResponseFinal},
		{NewAssistantPlaybackStarted(), KindAssistantPlaybackStarted},
		{NewAssistantSentenceStarted(0, "Hi there."), KindAssistantSentenceStarted},
		{NewAssistantSentenceEnded(0), KindAssistantSentenceEnded},
		{NewAssistantPlaybackEnded(), KindAssistantPlaybackEnded},
		{NewAssistantInterrupted(), KindAssistantInterrupted},
		{NewError("transcription", errors.New("boom")), KindError},
	}

	for _, c := range cases {
		if c.event.Kind() != c.kind {
			t.Fatalf("expected kind %q, got %q", c.kind, c.event.Kind())
		}
		if c.event.Timestamp().IsZero() {
			t.Fatalf("expected non-zero timestamp for %q", c.kind)
		}
	}
}

func TestErrorString(t *testing.T) {
	event := NewError("synthesis", errors.New("connection reset"))
	if got := event.String(); got != "synthesis: connection reset" {
		t.Fatalf("unexpected error string: %q", got)
	}

	event = NewError("playback", nil)
	if got := event.String(); got != "playback" {
		t.Fatalf("unexpected error string: %q", got)
	}
}
