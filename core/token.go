package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// exchangeToken gates the asynchronous continuations of one exchange. Every
// continuation checks Valid before any observable effect; invalidation makes
// already-running work inert rather than aborting it.
type exchangeToken struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	valid bool
}

func newExchangeToken(ctx context.Context) *exchangeToken {
	ctx, cancel := context.WithCancel(ctx)
	return &exchangeToken{
		id:     uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
		valid:  true,
	}
}

func (t *exchangeToken) ID() string { return t.id }

// Context is cancelled when the token is invalidated. It is a best-effort
// abort hint for in-flight network calls; correctness comes from Valid
// checks, not from the cancellation reaching anything.
func (t *exchangeToken) Context() context.Context { return t.ctx }

func (t *exchangeToken) Valid() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.valid
}

// Invalidate is idempotent.
func (t *exchangeToken) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		return
	}
	t.valid = false
	t.cancel()
}
