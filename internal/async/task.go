// Package async provides Task, a single-settlement handle on work running in
// its own goroutine.
package async

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Task is the pending result of one asynchronous call. It settles exactly
// once, either with a value or with an error, and never changes afterwards.
type Task[T any] struct {
	id   ulid.ULID
	done chan struct{}
	val  T
	err  error
}

// Go runs fn in a new goroutine and returns its Task immediately.
// ctx is handed to fn unchanged; cancelling it is up to fn to observe.
// A panic in fn settles the task with an error instead of crashing the process.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	t := &Task[T]{
		id:   ulid.Make(),
		done: make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				t.val, t.err = zero, fmt.Errorf("async task %s panicked: %v", t.id, r)
			}
		}()
		t.val, t.err = fn(ctx)
	}()

	return t
}

// ID identifies the task in logs.
func (t *Task[T]) ID() ulid.ULID { return t.id }

// Done is closed once the task has settled.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Settled reports whether the task has settled without blocking.
func (t *Task[T]) Settled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Await blocks until the task settles or ctx ends. When ctx ends first it
// returns ctx.Err(); the task itself keeps running and can be awaited again.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks until the task settles.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.val, t.err
}
