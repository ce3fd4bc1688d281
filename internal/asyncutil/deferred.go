// Package asyncutil provides small asynchronous helpers: a cancellable
// delayed-resolution value and an order-preserving concurrent regexp replace.
package asyncutil

import (
	"context"
	"sync"
	"time"
)

// Deferred is a single-assignment value that consumers can wait on. It may be
// settled from outside with Resolve or Reject; the first settlement wins and
// later ones are ignored.
type Deferred[T any] struct {
	mu      sync.Mutex
	done    chan struct{}
	settled bool
	val     T
	err     error
	timer   *time.Timer
}

// NewDeferred creates an unsettled Deferred.
func NewDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{done: make(chan struct{})}
}

// DeferTimeout returns a Deferred that resolves to def after d unless settled
// earlier. Settling early stops the timer, so the delay never fires.
func DeferTimeout[T any](d time.Duration, def T) *Deferred[T] {
	p := NewDeferred[T]()
	p.mu.Lock()
	p.timer = time.AfterFunc(d, func() {
		p.Resolve(def)
	})
	p.mu.Unlock()
	return p
}

// Resolve settles the value with v. It reports whether this call won the
// settlement.
func (p *Deferred[T]) Resolve(v T) bool {
	return p.settle(v, nil)
}

// Reject settles the value with err. It reports whether this call won the
// settlement.
func (p *Deferred[T]) Reject(err error) bool {
	var zero T
	return p.settle(zero, err)
}

func (p *Deferred[T]) settle(v T, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.settled {
		return false
	}
	p.settled = true
	p.val = v
	p.err = err
	if p.timer != nil {
		p.timer.Stop()
	}
	close(p.done)
	return true
}

// Done returns a channel closed once the value is settled.
func (p *Deferred[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the value settles or ctx is done, whichever comes first.
func (p *Deferred[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
