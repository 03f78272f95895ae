package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/voxmail-ai/voxmail-core/core/events"
	"github.com/voxmail-ai/voxmail-core/core/texttospeech"
)

// Session drives one voice conversation: it listens for utterances,
// transcribes them, streams the assistant's reply, and speaks it sentence by
// sentence until stopped.
type Session struct {
	audio       AudioClient
	transcriber Transcriber
	synthesizer texttospeech.SpeechSynthesizer
	chat        ChatStreamer

	vadConfig              VADConfig
	maxConcurrentSynthesis int
	eventHandler           func(event events.Event)

	monitor *levelMonitor
	capture *capture
	player  *speechPlayer
	history *conversation

	running atomic.Bool

	mu     sync.Mutex
	state  AppState
	cancel context.CancelFunc
	token  *exchangeToken
}

func New(opts ...SessionOption) (*Session, error) {
	s := &Session{
		vadConfig: VADConfig{}.withDefaults(),
		state:     StateIdle,
		history:   &conversation{},
	}
	for _, opt := range opts {
		opt(s)
	}

	errs := []error{}
	if s.audio == nil {
		errs = append(errs, errors.New("an audio client is required"))
	}
	if s.transcriber == nil {
		errs = append(errs, errors.New("a transcriber is required"))
	}
	if s.synthesizer == nil {
		errs = append(errs, errors.New("a speech synthesizer is required"))
	}
	if s.chat == nil {
		errs = append(errs, errors.New("a chat client is required"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	s.monitor = newLevelMonitor()
	s.capture = newCapture(s.monitor, s.vadConfig, captureCallbacks{
		OnSpeechStarted: func() { s.emit(events.NewUserSpeechStarted()) },
		OnSpeechEnded:   func() { s.emit(events.NewUserSpeechEnded()) },
	})
	s.player = newSpeechPlayer(s.audio)

	return s, nil
}

// Run blocks until the context is cancelled or Stop is called, looping over
// listen, transcribe, respond and speak. Exchange-level failures are reported
// as events and the session resumes listening.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("session is already running")
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "voice session")
	defer span.End()

	if err := s.audio.StartPlayback(ctx); err != nil {
		return &CaptureError{Err: err}
	}
	defer s.audio.StopPlayback()
	if err := s.audio.StartCapture(ctx, s.capture.OnAudio); err != nil {
		return &CaptureError{Err: err}
	}
	defer s.audio.StopCapture()

	for {
		s.setState(StateListening)
		utterance, err := s.capture.Record(ctx, func() { s.setState(StateRecording) })
		if err != nil {
			break
		}
		if len(utterance) == 0 {
			continue
		}
		s.runExchange(ctx, utterance)
	}

	s.setState(StateIdle)
	s.emit(events.NewSessionEnded())
	return nil
}

// Stop ends the session: the current exchange is invalidated, pending audio
// is dropped, and Run returns. Safe to call repeatedly and before Run.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	token := s.token
	s.mu.Unlock()

	if token != nil {
		token.Invalidate()
	}
	if s.player != nil {
		s.player.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

func (s *Session) State() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns the finalized conversation turns so far.
func (s *Session) History() []string {
	turns := s.history.Snapshot()
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, turn.Role+": "+turn.Content)
	}
	return lines
}

func (s *Session) setState(state AppState) {
	s.mu.Lock()
	from := s.state
	if from == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()

	s.emit(events.NewStateChanged(string(from), string(state)))
}

func (s *Session) setToken(token *exchangeToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *Session) emit(event events.Event) {
	if s.eventHandler == nil {
		return
	}
	s.eventHandler(event)
}
