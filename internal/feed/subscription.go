package feed

import (
	"context"
	"sync"
)

// handle is the shared Subscription implementation: cancelling it stops the
// delivery goroutine, which closes the snapshot channel on its way out.
type handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

func newHandle(cancel context.CancelFunc) *handle {
	return &handle{cancel: cancel, done: make(chan struct{})}
}

func (h *handle) Cancel() {
	h.once.Do(h.cancel)
	<-h.done
}

func (h *handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *handle) fail(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

func (h *handle) finish() {
	close(h.done)
}
