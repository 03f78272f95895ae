package session

import (
	"context"

	"github.com/voxmail-ai/voxmail-core/core/audio"
	"github.com/voxmail-ai/voxmail-core/core/chat"
	"github.com/voxmail-ai/voxmail-core/core/events"
	"github.com/voxmail-ai/voxmail-core/core/speechtotext"
	"github.com/voxmail-ai/voxmail-core/core/texttospeech"
)

// AudioClient is the full-duplex audio device the session runs on. Both
// directions stay open for the whole session; interruption detection depends
// on capture continuing while playback is active.
type AudioClient interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error

	StartPlayback(ctx context.Context) error
	StopPlayback() error
	SendAudio(audio []byte) error
	ClearBuffer()
	Mark(mark string, callback func(string)) error
	AwaitMark() error

	EncodingInfo() audio.EncodingInfo
	Close()
}

// AudioOutput is the playback half of AudioClient, all the speech player
// needs.
type AudioOutput interface {
	SendAudio(audio []byte) error
	ClearBuffer()
	Mark(mark string, callback func(string)) error
}

// Transcriber converts one captured utterance into text.
type Transcriber interface {
	Transcribe(ctx context.Context, utterance []byte, opts ...speechtotext.TranscriptionOption) (string, error)
}

// ChatStreamer opens a streamed assistant reply for one user message.
type ChatStreamer interface {
	Stream(ctx context.Context, message string, history []chat.Message) *chat.Stream
}

type SessionOption func(*Session)

func WithAudioClient(client AudioClient) SessionOption {
	return func(s *Session) {
		s.audio = client
	}
}

func WithTranscriber(transcriber Transcriber) SessionOption {
	return func(s *Session) {
		s.transcriber = transcriber
	}
}

func WithSynthesizer(synthesizer texttospeech.SpeechSynthesizer) SessionOption {
	return func(s *Session) {
		s.synthesizer = synthesizer
	}
}

func WithChatClient(client ChatStreamer) SessionOption {
	return func(s *Session) {
		s.chat = client
	}
}

// WithEventHandler registers the sink for session events. The handler is
// called from session goroutines and must not block.
func WithEventHandler(handler func(event events.Event)) SessionOption {
	return func(s *Session) {
		s.eventHandler = handler
	}
}

func WithVADConfig(config VADConfig) SessionOption {
	return func(s *Session) {
		s.vadConfig = config.withDefaults()
	}
}

// WithMaxConcurrentSynthesis caps how many sentences are synthesized at
// once while earlier ones are still playing.
func WithMaxConcurrentSynthesis(limit int) SessionOption {
	return func(s *Session) {
		s.maxConcurrentSynthesis = limit
	}
}
