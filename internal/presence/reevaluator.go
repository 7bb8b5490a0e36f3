package presence

import (
	"context"
	"time"
)

// Reevaluator fires a callback on a fixed interval so liveness is recomputed
// even when no heartbeat arrives. It is the explicit, cancellable form of the
// staleness tick: Stop (or context cancellation) halts it deterministically.
type Reevaluator struct {
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewReevaluator creates a stopped re-evaluation timer.
func NewReevaluator(interval time.Duration) *Reevaluator {
	return &Reevaluator{interval: interval}
}

// Start begins ticking until Stop is called or ctx is cancelled. Calling Start
// on a running Reevaluator is a no-op.
func (r *Reevaluator) Start(ctx context.Context, onTick func()) {
	if r.done != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				onTick()
			}
		}
	}()
}

// Stop halts the timer and waits for the tick goroutine to exit.
func (r *Reevaluator) Stop() {
	if r.done == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
}
