// Package testutil provides deterministic collaborators for loader and
// orchestrator tests: resolvers with scripted failure sequences and a
// manually fired visibility trigger.
package testutil

import (
	"context"
	"fmt"
	"sync"
)

// FlakyResolver fails a fixed number of calls, then succeeds with a
// fixed value. It counts invocations so tests can assert exactly how
// many resolver calls a dedup or retry sequence produced.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FlakyResolver[T any] struct {
	mu       sync.Mutex
	failures int
	calls    int
	value    T
	err      error
}

// NewFlakyResolver creates a resolver that fails the first failures
// calls with err, then returns value. A nil err selects a generic
// failure message.
func NewFlakyResolver[T any](failures int, err error, value T) *FlakyResolver[T] {
	if err == nil {
		err = fmt.Errorf("scripted resolver failure")
	}
	return &FlakyResolver[T]{failures: failures, value: value, err: err}
}

// Resolve implements the loader resolver contract.
func (r *FlakyResolver[T]) Resolve(_ context.Context, _ string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if r.calls <= r.failures {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// Calls returns the number of Resolve invocations so far.
func (r *FlakyResolver[T]) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// BlockingResolver parks every Resolve call until Release is called,
// then settles all of them with the same outcome. Used to hold a load
// in flight while tests issue concurrent calls.
type BlockingResolver[T any] struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	value   T
	err     error
}

// NewBlockingResolver creates a resolver that blocks until released.
func NewBlockingResolver[T any](value T, err error) *BlockingResolver[T] {
	return &BlockingResolver[T]{release: make(chan struct{}), value: value, err: err}
}

// Resolve implements the loader resolver contract. Blocks until Release
// or context cancellation.
func (r *BlockingResolver[T]) Resolve(ctx context.Context, _ string) (T, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	select {
	case <-r.release:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Release settles all parked and future Resolve calls.
func (r *BlockingResolver[T]) Release() {
	close(r.release)
}

// Calls returns the number of Resolve invocations so far.
func (r *BlockingResolver[T]) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
