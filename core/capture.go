package session

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// capture accumulates utterances from the shared input stream. The audio
// device runs for the whole session; capture only toggles whether incoming
// chunks are buffered, so the level monitor keeps seeing audio while the
// assistant speaks.
type capture struct {
	monitor  *levelMonitor
	detector *voiceDetector

	callbacks captureCallbacks

	mu        sync.Mutex
	buffering bool
	utterance []byte
}

type captureCallbacks struct {
	OnSpeechStarted func()
	OnSpeechEnded   func()
}

func (c *captureCallbacks) defaults() *captureCallbacks {
	c.OnSpeechStarted = func() {}
	c.OnSpeechEnded = func() {}
	return c
}

func (c *captureCallbacks) with(callbacks captureCallbacks) *captureCallbacks {
	if callbacks.OnSpeechStarted != nil {
		c.OnSpeechStarted = callbacks.OnSpeechStarted
	}
	if callbacks.OnSpeechEnded != nil {
		c.OnSpeechEnded = callbacks.OnSpeechEnded
	}
	return c
}

func newCapture(monitor *levelMonitor, config VADConfig, callbacks captureCallbacks) *capture {
	return &capture{
		monitor:   monitor,
		detector:  newVoiceDetector(config),
		callbacks: *(new(captureCallbacks).defaults().with(callbacks)),
	}
}

// OnAudio is the audio-device callback. It must not block.
func (c *capture) OnAudio(chunk []byte) {
	c.monitor.Observe(chunk)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buffering {
		c.utterance = append(c.utterance, chunk...)
	}
}

// Record blocks until one complete utterance has been captured and returns
// its raw audio. Too-short voice bursts are discarded and listening resumes
// without returning. Returns ctx.Err once the context is cancelled.
func (c *capture) Record(ctx context.Context, onRecordingStarted func()) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "record utterance")
	defer span.End()

	c.detector.Reset()
	c.setBuffering(false)

	ticker := time.NewTicker(levelPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.setBuffering(false)
			return nil, ctx.Err()
		case <-ticker.C:
		}

		switch c.detector.Observe(c.monitor.Level(), time.Now()) {
		case vadActionStart:
			c.setBuffering(true)
			c.callbacks.OnSpeechStarted()
			if onRecordingStarted != nil {
				onRecordingStarted()
			}
			span.AddEvent("speech started")

		case vadActionDiscard:
			c.setBuffering(false)
			c.callbacks.OnSpeechEnded()
			span.AddEvent("utterance discarded")

		case vadActionFinalize:
			utterance := c.takeUtterance()
			c.callbacks.OnSpeechEnded()
			span.SetAttributes(attribute.Int("utterance.bytes", len(utterance)))
			return utterance, nil
		}
	}
}

func (c *capture) setBuffering(buffering bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffering = buffering
	if !buffering {
		c.utterance = nil
	}
}

func (c *capture) takeUtterance() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	utterance := c.utterance
	c.utterance = nil
	c.buffering = false
	return utterance
}
