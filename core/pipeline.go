package session

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrentSynthesis = 3

// speechPipeline synthesizes sentences concurrently and plays the clips back
// strictly in sentence order. Sentences that fail to synthesize are skipped
// without stalling the ones behind them.
type speechPipeline struct {
	synthesize func(ctx context.Context, sentence string) ([]byte, error)
	player     *speechPlayer
	token      *exchangeToken

	maxConcurrentSynthesis int
	callbacks              pipelineCallbacks
}

type pipelineCallbacks struct {
	OnSentenceStarted func(index int, sentence string)
	OnSentenceEnded   func(index int)
	OnSynthesisError  func(sentence string, err error)
	OnPlaybackError   func(err error)
}

func (c *pipelineCallbacks) defaults() *pipelineCallbacks {
	c.OnSentenceStarted = func(int, string) {}
	c.OnSentenceEnded = func(int) {}
	c.OnSynthesisError = func(string, error) {}
	c.OnPlaybackError = func(error) {}
	return c
}

func (c *pipelineCallbacks) with(callbacks pipelineCallbacks) *pipelineCallbacks {
	if callbacks.OnSentenceStarted != nil {
		c.OnSentenceStarted = callbacks.OnSentenceStarted
	}
	if callbacks.OnSentenceEnded != nil {
		c.OnSentenceEnded = callbacks.OnSentenceEnded
	}
	if callbacks.OnSynthesisError != nil {
		c.OnSynthesisError = callbacks.OnSynthesisError
	}
	if callbacks.OnPlaybackError != nil {
		c.OnPlaybackError = callbacks.OnPlaybackError
	}
	return c
}

func newSpeechPipeline(
	synthesize func(ctx context.Context, sentence string) ([]byte, error),
	player *speechPlayer,
	token *exchangeToken,
	maxConcurrentSynthesis int,
	callbacks pipelineCallbacks,
) *speechPipeline {
	if maxConcurrentSynthesis <= 0 {
		maxConcurrentSynthesis = defaultMaxConcurrentSynthesis
	}
	return &speechPipeline{
		synthesize:             synthesize,
		player:                 player,
		token:                  token,
		maxConcurrentSynthesis: maxConcurrentSynthesis,
		callbacks:              *(new(pipelineCallbacks).defaults().with(callbacks)),
	}
}

// speechJob holds one sentence through synthesis and playback. ready closes
// once clip and err are settled.
type speechJob struct {
	index    int
	sentence string

	ready chan struct{}
	clip  []byte
	err   error
}

// Speak consumes sentences until the source is exhausted or the exchange
// token is invalidated, and returns once all accepted playback has finished.
func (p *speechPipeline) Speak(ctx context.Context, sentences func(yield func(string) bool)) {
	ctx, span := tracer.Start(ctx, "speak response")
	defer span.End()

	jobs := make(chan *speechJob, p.maxConcurrentSynthesis)
	playbackDone := make(chan struct{})
	go func() {
		defer close(playbackDone)
		for job := range jobs {
			<-job.ready
			p.playJob(job)
		}
	}()

	synthesis := errgroup.Group{}
	synthesis.SetLimit(p.maxConcurrentSynthesis)

	spoken := 0
	for sentence := range sentences {
		if !p.token.Valid() {
			break
		}

		job := &speechJob{
			index:    spoken,
			sentence: sentence,
			ready:    make(chan struct{}),
		}
		spoken++

		jobs <- job
		synthesis.Go(func() error {
			defer close(job.ready)
			if !p.token.Valid() {
				job.err = context.Canceled
				return nil
			}
			job.clip, job.err = p.synthesize(ctx, job.sentence)
			return nil
		})
	}

	close(jobs)
	_ = synthesis.Wait()
	<-playbackDone
	span.SetAttributes(attribute.Int("response.sentences", spoken))
}

func (p *speechPipeline) playJob(job *speechJob) {
	if !p.token.Valid() {
		return
	}
	if job.err != nil {
		if !errors.Is(job.err, context.Canceled) {
			p.callbacks.OnSynthesisError(job.sentence, job.err)
		}
		return
	}
	if len(job.clip) == 0 {
		return
	}

	p.callbacks.OnSentenceStarted(job.index, job.sentence)
	if err := p.player.Play(p.token.Context(), job.clip); err != nil {
		if !errors.Is(err, context.Canceled) {
			p.callbacks.OnPlaybackError(err)
		}
	}
	if p.token.Valid() {
		p.callbacks.OnSentenceEnded(job.index)
	}
}
