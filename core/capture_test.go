package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRecordCapturesUtteranceBetweenSilences(t *testing.T) {
	monitor := newLevelMonitor()
	c := newCapture(monitor, VADConfig{
		MinUtteranceDuration: 40 * time.Millisecond,
		SilenceDuration:      80 * time.Millisecond,
	}, captureCallbacks{})

	stop := make(chan struct{})
	go func() {
		deadline := time.Now().Add(150 * time.Millisecond)
		for time.Now().Before(deadline) {
			c.OnAudio(chunkOf(8000, 160))
			time.Sleep(10 * time.Millisecond)
		}
		for {
			select {
			case <-stop:
				return
			default:
				c.OnAudio(chunkOf(0, 160))
				time.Sleep(10 * time.Millisecond)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recordingStarted := false
	utterance, err := c.Record(ctx, func() { recordingStarted = true })
	close(stop)
	if err != nil {
		t.Fatalf("unexpected record error: %v", err)
	}
	if !recordingStarted {
		t.Errorf("expected the recording-started callback to fire")
	}
	if len(utterance) == 0 {
		t.Fatalf("expected a non-empty utterance")
	}
}

func TestRecordDiscardsShortBursts(t *testing.T) {
	monitor := newLevelMonitor()
	ended := make(chan struct{}, 1)
	c := newCapture(monitor, VADConfig{
		MinUtteranceDuration: 200 * time.Millisecond,
		SilenceDuration:      40 * time.Millisecond,
	}, captureCallbacks{OnSpeechEnded: func() {
		select {
		case ended <- struct{}{}:
		default:
		}
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := make(chan error, 1)
	go func() {
		utterance, err := c.Record(ctx, nil)
		if len(utterance) != 0 {
			t.Errorf("expected no utterance from a discarded burst, got %d bytes", len(utterance))
		}
		result <- err
	}()

	monitor.Observe(chunkOf(8000, 160))
	time.Sleep(2 * levelPollInterval)
	monitor.Observe(chunkOf(0, 160))

	select {
	case <-ended:
	case <-time.After(time.Second):
		t.Fatalf("expected the short burst to be discarded")
	}

	cancel()
	select {
	case err := <-result:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected a cancellation error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected Record to return after cancellation")
	}
}
