package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// speechPlayer plays one clip at a time on the shared audio output. Playback
// completion is observed through an output mark placed after the clip.
type speechPlayer struct {
	out AudioOutput

	mu      sync.Mutex
	release func()
}

func newSpeechPlayer(out AudioOutput) *speechPlayer {
	return &speechPlayer{out: out}
}

// Play blocks until the clip has finished playing, the context is cancelled,
// or Stop is called. Stopping counts as completion, not as an error.
func (p *speechPlayer) Play(ctx context.Context, clip []byte) error {
	done := make(chan struct{})
	finishOnce := sync.Once{}
	finish := func() {
		finishOnce.Do(func() { close(done) })
	}

	// Stop has to release the waiter itself: clearing the output buffer
	// drops pending marks without firing their callbacks.
	p.mu.Lock()
	p.release = finish
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.release = nil
		p.mu.Unlock()
	}()

	if err := p.out.SendAudio(clip); err != nil {
		return &PlaybackError{Err: err}
	}
	if err := p.out.Mark(uuid.NewString(), func(string) { finish() }); err != nil {
		return &PlaybackError{Err: err}
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.out.ClearBuffer()
		return ctx.Err()
	}
}

// Stop drops any buffered audio and releases a blocked Play. Safe to call
// at any time, repeatedly, with or without active playback.
func (p *speechPlayer) Stop() {
	p.mu.Lock()
	release := p.release
	p.mu.Unlock()

	p.out.ClearBuffer()
	if release != nil {
		release()
	}
}
