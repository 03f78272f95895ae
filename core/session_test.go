package session

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/voxmail-ai/voxmail-core/core/audio"
	"github.com/voxmail-ai/voxmail-core/core/chat"
	"github.com/voxmail-ai/voxmail-core/core/events"
	"github.com/voxmail-ai/voxmail-core/core/speechtotext"
	"github.com/voxmail-ai/voxmail-core/core/texttospeech"
)

// fakeAudioClient completes playback marks immediately.
type fakeAudioClient struct {
	mu   sync.Mutex
	sent [][]byte
}

func (c *fakeAudioClient) StartCapture(context.Context, func(audio []byte)) error { return nil }
func (c *fakeAudioClient) StopCapture() error                                     { return nil }
func (c *fakeAudioClient) StartPlayback(context.Context) error                    { return nil }
func (c *fakeAudioClient) StopPlayback() error                                    { return nil }
func (c *fakeAudioClient) ClearBuffer()                                           {}
func (c *fakeAudioClient) AwaitMark() error                                       { return nil }
func (c *fakeAudioClient) Close()                                                 {}

func (c *fakeAudioClient) SendAudio(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, payload)
	return nil
}

func (c *fakeAudioClient) Mark(mark string, callback func(string)) error {
	callback(mark)
	return nil
}

func (c *fakeAudioClient) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

// gatedAudioClient never completes playback marks, keeping playback blocked
// until something releases the player. It signals once the first mark lands.
type gatedAudioClient struct {
	fakeAudioClient
	marked chan struct{}
}

func (c *gatedAudioClient) Mark(mark string, callback func(string)) error {
	select {
	case c.marked <- struct{}{}:
	default:
	}
	return nil
}

type fakeTranscriber struct {
	transcript string
	err        error
}

func (t fakeTranscriber) Transcribe(context.Context, []byte, ...speechtotext.TranscriptionOption) (string, error) {
	return t.transcript, t.err
}

type fakeSynthesizer struct{}

func (fakeSynthesizer) Synthesize(_ context.Context, text string, _ ...texttospeech.TextToSpeechOption) ([]byte, error) {
	return []byte(text), nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]events.Kind, 0, len(r.events))
	for _, event := range r.events {
		kinds = append(kinds, event.Kind())
	}
	return kinds
}

func ndjsonServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, line := range lines {
			w.Write([]byte(line + "\n"))
		}
	}))
}

func newTestSession(t *testing.T, transcriber Transcriber, serviceURL string, recorder *eventRecorder) *Session {
	t.Helper()

	s, err := New(
		WithAudioClient(&fakeAudioClient{}),
		WithTranscriber(transcriber),
		WithSynthesizer(fakeSynthesizer{}),
		WithChatClient(chat.NewClient(serviceURL)),
		WithEventHandler(recorder.record),
	)
	if err != nil {
		t.Fatalf("unexpected error building session: %v", err)
	}
	return s
}

func TestExchangeEndToEnd(t *testing.T) {
	server := ndjsonServer(t,
		`{"delta":"I found three emails. "}`,
		`{"delta":"They are from Alice."}`,
		`{"done":true,"reply":"I found three emails. They are from Alice."}`,
	)
	defer server.Close()

	recorder := &eventRecorder{}
	s := newTestSession(t, fakeTranscriber{transcript: "search emails from alice"}, server.URL, recorder)

	s.runExchange(context.Background(), []byte("utterance"))

	history := s.history.Snapshot()
	expected := []chat.Message{
		{Role: chat.RoleUser, Content: "search emails from alice"},
		{Role: chat.RoleAssistant, Content: "I found three emails. They are from Alice."},
	}
	if !slices.Equal(history, expected) {
		t.Fatalf("expected history %+v, got %+v", expected, history)
	}

	var sentences []string
	recorder.mu.Lock()
	for _, event := range recorder.events {
		if started, ok := event.(events.AssistantSentenceStarted); ok {
			sentences = append(sentences, started.Sentence)
		}
	}
	recorder.mu.Unlock()
	if expected := []string{"I found three emails.", "They are from Alice."}; !slices.Equal(sentences, expected) {
		t.Fatalf("expected spoken sentences %q, got %q", expected, sentences)
	}

	kinds := recorder.kinds()
	if !slices.Contains(kinds, events.KindUserTranscript) {
		t.Errorf("expected a transcript event, got %v", kinds)
	}
	if !slices.Contains(kinds, events.KindAssistantPlaybackEnded) {
		t.Errorf("expected a playback-ended event, got %v", kinds)
	}
}

func TestExchangeTranscriptionFailureEmitsError(t *testing.T) {
	server := ndjsonServer(t, `{"done":true,"reply":"never used"}`)
	defer server.Close()

	recorder := &eventRecorder{}
	s := newTestSession(t, fakeTranscriber{err: errors.New("backend down")}, server.URL, recorder)

	s.runExchange(context.Background(), []byte("utterance"))

	if len(s.history.Snapshot()) != 0 {
		t.Fatalf("expected no history after a failed transcription")
	}

	errored := false
	recorder.mu.Lock()
	for _, event := range recorder.events {
		errEvent, ok := event.(events.Error)
		if !ok {
			continue
		}
		errored = true
		var transcriptionErr *TranscriptionError
		if !errors.As(errEvent.Err, &transcriptionErr) {
			t.Errorf("expected a transcription error, got %v", errEvent.Err)
		}
	}
	recorder.mu.Unlock()
	if !errored {
		t.Fatalf("expected an error event")
	}
}

func TestExchangeChatFailureKeepsUserTurn(t *testing.T) {
	server := ndjsonServer(t,
		`{"delta":"partial"}`,
		`{"error":"model overloaded"}`,
	)
	defer server.Close()

	recorder := &eventRecorder{}
	s := newTestSession(t, fakeTranscriber{transcript: "hello"}, server.URL, recorder)

	s.runExchange(context.Background(), []byte("utterance"))

	history := s.history.Snapshot()
	if len(history) != 1 || history[0].Role != chat.RoleUser {
		t.Fatalf("expected only the user turn in history, got %+v", history)
	}
	if kinds := recorder.kinds(); !slices.Contains(kinds, events.KindError) {
		t.Fatalf("expected an error event, got %v", kinds)
	}
}

func TestExchangeEmptyTranscriptIsSilentlySkipped(t *testing.T) {
	server := ndjsonServer(t, `{"done":true,"reply":"never used"}`)
	defer server.Close()

	recorder := &eventRecorder{}
	s := newTestSession(t, fakeTranscriber{transcript: "   "}, server.URL, recorder)

	s.runExchange(context.Background(), []byte("utterance"))

	if len(s.history.Snapshot()) != 0 {
		t.Fatalf("expected no history for an empty transcript")
	}
	if kinds := recorder.kinds(); slices.Contains(kinds, events.KindError) {
		t.Fatalf("expected no error event for an empty transcript, got %v", kinds)
	}
}

func TestExchangeBargeInStopsPlaybackAndDropsAssistantTurn(t *testing.T) {
	server := ndjsonServer(t,
		`{"delta":"First sentence. "}`,
		`{"delta":"Second sentence."}`,
		`{"done":true,"reply":"First sentence. Second sentence."}`,
	)
	defer server.Close()

	recorder := &eventRecorder{}
	client := &gatedAudioClient{marked: make(chan struct{}, 1)}
	s, err := New(
		WithAudioClient(client),
		WithTranscriber(fakeTranscriber{transcript: "read my latest email"}),
		WithSynthesizer(fakeSynthesizer{}),
		WithChatClient(chat.NewClient(server.URL)),
		WithEventHandler(recorder.record),
	)
	if err != nil {
		t.Fatalf("unexpected error building session: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.runExchange(context.Background(), []byte("utterance"))
		close(done)
	}()

	// Wait for the first sentence to reach the output, then talk over it.
	select {
	case <-client.marked:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected playback to start")
	}
	s.monitor.Observe(chunkOf(math.MaxInt16, 160))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the exchange to end after the barge-in")
	}

	history := s.history.Snapshot()
	if len(history) != 1 || history[0].Role != chat.RoleUser {
		t.Fatalf("expected the interrupted reply to stay out of history, got %+v", history)
	}
	kinds := recorder.kinds()
	if !slices.Contains(kinds, events.KindAssistantInterrupted) {
		t.Fatalf("expected an interrupted event, got %v", kinds)
	}
	if slices.Contains(kinds, events.KindAssistantPlaybackEnded) {
		t.Fatalf("expected no playback-ended event after a barge-in, got %v", kinds)
	}
}

func TestNewRequiresClients(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("expected an error when no clients are configured")
	}
}

func TestStopIsSafeBeforeRun(t *testing.T) {
	recorder := &eventRecorder{}
	s := newTestSession(t, fakeTranscriber{}, "http://127.0.0.1:0", recorder)

	s.Stop()
	s.Stop()
}
