// internal/orchestrator/fork.go
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
)

// StageResult is the outcome of one concurrently run stage. Exactly one of Value or Err is meaningful.
type StageResult[T any] struct {
	Value T
	Err   error
}

func (r StageResult[T]) OK() bool { return r.Err == nil }

// PanicError is the failure recorded for a stage that panicked.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("stage panicked: %v", e.Value)
}

// Branch is a stage running in its own goroutine.
type Branch[T any] struct {
	done chan StageResult[T]
}

// Fork starts fn immediately and returns a handle to await its result.
func Fork[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Branch[T] {
	b := &Branch[T]{done: make(chan StageResult[T], 1)}
	go func() {
		var res StageResult[T]
		defer func() {
			if r := recover(); r != nil {
				res = StageResult[T]{Err: &PanicError{Value: r, Stack: debug.Stack()}}
			}
			b.done <- res
		}()
		v, err := fn(ctx)
		res = StageResult[T]{Value: v, Err: err}
	}()
	return b
}

// Await blocks until the branch finishes. It must be called at most once.
func (b *Branch[T]) Await() StageResult[T] {
	return <-b.done
}
