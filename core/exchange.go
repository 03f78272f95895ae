package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/voxmail-ai/voxmail-core/core/chat"
	"github.com/voxmail-ai/voxmail-core/core/events"
	"github.com/voxmail-ai/voxmail-core/core/speechtotext"
	"github.com/voxmail-ai/voxmail-core/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
)

// runExchange carries one utterance through transcription, the assistant
// stream and speech playback. Failures are reported as events; the caller
// resumes listening regardless of the outcome.
func (s *Session) runExchange(ctx context.Context, utterance []byte) {
	ctx, span := tracer.Start(ctx, "exchange")
	defer span.End()

	token := newExchangeToken(ctx)
	s.setToken(token)
	defer token.Invalidate()
	span.SetAttributes(attribute.String("exchange.id", token.ID()))

	s.setState(StateProcessing)

	transcript, err := s.transcriber.Transcribe(token.Context(), utterance,
		speechtotext.WithEncodingInfo(s.audio.EncodingInfo()),
	)
	if err != nil {
		transcriptionErr := &TranscriptionError{Err: err}
		span.RecordError(transcriptionErr)
		if token.Valid() {
			s.emit(events.NewError("transcription", transcriptionErr))
		}
		return
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		span.AddEvent("empty transcript")
		return
	}
	s.emit(events.NewUserTranscript(transcript))

	history := s.history.Snapshot()
	s.history.AppendUser(transcript)

	// Barge-in is armed from the first played sentence until playback ends.
	watchCtx, stopWatching := context.WithCancel(token.Context())
	defer stopWatching()
	detector := newInterruptDetector(s.monitor, s.vadConfig, func() {
		token.Invalidate()
		s.player.Stop()
		s.emit(events.NewAssistantInterrupted())
	})

	speakingOnce := sync.Once{}
	segmenter := newSentenceSegmenter()
	pipeline := newSpeechPipeline(
		s.synthesizeSentence,
		s.player,
		token,
		s.maxConcurrentSynthesis,
		pipelineCallbacks{
			OnSentenceStarted: func(index int, sentence string) {
				speakingOnce.Do(func() {
					s.setState(StateSpeaking)
					s.emit(events.NewAssistantPlaybackStarted())
					go detector.Watch(watchCtx)
				})
				s.emit(events.NewAssistantSentenceStarted(index, sentence))
			},
			OnSentenceEnded: func(index int) {
				s.emit(events.NewAssistantSentenceEnded(index))
			},
			OnSynthesisError: func(sentence string, err error) {
				synthesisErr := &SynthesisError{Sentence: sentence, Err: err}
				span.RecordError(synthesisErr)
				s.emit(events.NewError("synthesis", synthesisErr))
			},
			OnPlaybackError: func(err error) {
				span.RecordError(err)
				s.emit(events.NewError("playback", err))
			},
		},
	)

	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		pipeline.Speak(token.Context(), segmenter.Sentences)
	}()

	reply, chatErr := s.consumeStream(token, transcript, history, segmenter)
	if chatErr != nil {
		segmenter.Abandon()
	} else {
		segmenter.Flush()
	}
	<-pipelineDone
	stopWatching()

	if chatErr != nil {
		span.RecordError(chatErr)
		if token.Valid() {
			s.emit(events.NewError("chat", chatErr))
		}
		return
	}
	if !token.Valid() {
		span.AddEvent("exchange interrupted")
		return
	}

	s.history.AppendAssistant(reply)
	s.emit(events.NewAssistantResponseFinal(reply))
	s.emit(events.NewAssistantPlaybackEnded())
}

// consumeStream feeds reply deltas into the segmenter and returns the final
// reply text. An invalidated token stops consumption without an error.
func (s *Session) consumeStream(
	token *exchangeToken,
	message string,
	history []chat.Message,
	segmenter *sentenceSegmenter,
) (string, error) {
	stream := s.chat.Stream(token.Context(), message, history)

	deltas := strings.Builder{}
	for event, err := range stream.Events(token.Context()) {
		if err != nil {
			return "", &ChatStreamError{Err: err}
		}
		if !token.Valid() {
			return deltas.String(), nil
		}

		switch event := event.(type) {
		case chat.Delta:
			deltas.WriteString(event.Text)
			s.emit(events.NewAssistantResponseSegment(event.Text))
			segmenter.AddDelta(event.Text)

		case chat.Done:
			return event.Reply, nil

		case chat.Failure:
			return "", &ChatStreamError{Err: errors.New(event.Message)}
		}
	}

	return deltas.String(), nil
}

func (s *Session) synthesizeSentence(ctx context.Context, sentence string) ([]byte, error) {
	return s.synthesizer.Synthesize(ctx, sentence,
		texttospeech.WithEncodingInfo(s.audio.EncodingInfo()),
	)
}
