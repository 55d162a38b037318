// Package promise provides a deferred-result handle: a value that settles
// exactly once into either a fulfilled value or a rejection reason.
//
// A Promise is the library's equivalent of a JavaScript promise for the
// purposes of async test completion: test bodies return one, the completion
// gate awaits its settlement, and matcher sugar wraps one in another.
// Settlement is first-writer-wins; once settled, later Resolve or Reject
// calls are no-ops and report false.
package promise

import (
	"context"
	"errors"
	"sync"
)

// ErrNilReason is substituted when a promise is rejected with a nil error,
// so that a rejected promise never looks fulfilled to Await callers.
var ErrNilReason = errors.New("promise rejected with nil reason")

// Promise is a deferred-result handle for a value of type T.
// The zero value is not usable; create promises with New, Resolved,
// Rejected, or Go.
type Promise[T any] struct {
	done chan struct{}

	mu    sync.Mutex
	value T
	err   error
}

// New creates a pending promise.
func New[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Resolved creates a promise already fulfilled with value.
func Resolved[T any](value T) *Promise[T] {
	p := New[T]()
	p.Resolve(value)
	return p
}

// Rejected creates a promise already rejected with reason.
func Rejected[T any](reason error) *Promise[T] {
	p := New[T]()
	p.Reject(reason)
	return p
}

// Resolve fulfills the promise with value. It reports whether this call
// settled the promise; a promise that is already settled is unchanged.
func (p *Promise[T]) Resolve(value T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.settledLocked() {
		return false
	}
	p.value = value
	close(p.done)
	return true
}

// Reject rejects the promise with reason. A nil reason is recorded as
// ErrNilReason. It reports whether this call settled the promise.
func (p *Promise[T]) Reject(reason error) bool {
	if reason == nil {
		reason = ErrNilReason
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.settledLocked() {
		return false
	}
	p.err = reason
	close(p.done)
	return true
}

func (p *Promise[T]) settledLocked() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Settled reports whether the promise has settled (fulfilled or rejected).
func (p *Promise[T]) Settled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settledLocked()
}

// Done returns a channel that is closed when the promise settles.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Await blocks until the promise settles or ctx is done. On fulfillment it
// returns the value; on rejection it returns the rejection reason; if ctx
// ends first it returns ctx's error. Await does not consume the settlement:
// any number of callers may await the same promise.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}

// Go runs fn in a new goroutine and settles the returned promise with its
// result: a nil error fulfills, a non-nil error rejects. This is the
// async-function equivalent; awaiting the returned promise is the await.
func Go[T any](fn func() (T, error)) *Promise[T] {
	p := New[T]()
	go func() {
		value, err := fn()
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(value)
	}()
	return p
}

// Then returns a promise that settles after p does: on fulfillment it
// applies fn to the value and settles with fn's result; on rejection the
// rejection propagates unchanged and fn is not called.
func Then[T, U any](p *Promise[T], fn func(T) (U, error)) *Promise[U] {
	return Go(func() (U, error) {
		value, err := p.Await(context.Background())
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(value)
	})
}

// Catch returns a promise that settles after p does: on rejection it applies
// fn to the reason and settles with fn's result, consuming the rejection; on
// fulfillment the value propagates unchanged and fn is not called.
func Catch[T any](p *Promise[T], fn func(error) (T, error)) *Promise[T] {
	return Go(func() (T, error) {
		value, err := p.Await(context.Background())
		if err != nil {
			return fn(err)
		}
		return value, nil
	})
}
