package cache

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/lodeworks/lode/internal/resource"
)

// ResolveFunc produces the value for a resource id. It is supplied by the
// embedding application; the cache makes no assumption about how the value
// is produced, only that the call may block and may fail.
type ResolveFunc[T any] func(ctx context.Context) (T, error)

// Entry is a point-in-time snapshot of one resource's cache state.
type Entry[T any] struct {
	ID     string
	State  resource.LoadState
	Result T
	Err    error
}

// Cache is a keyed cache of load outcomes with in-flight deduplication.
//
// Thread-safety: all methods are safe for concurrent use. Deduplication
// is delegated to a singleflight group; the state map records the
// idle/loading/loaded/error lifecycle for Status queries.
//
// A settled outcome (loaded or error) stays cached until Forget or Clear
// removes it. Settling an entry that was removed while its resolve was
// in flight is a no-op: the result is discarded, never resurrected.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	group   singleflight.Group
}

type entry[T any] struct {
	state  resource.LoadState
	result T
	err    error
}

// New creates an empty cache.
func New[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[string]*entry[T])}
}

// Get returns a snapshot of the entry for id, if one exists.
func (c *Cache[T]) Get(id string) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return Entry[T]{}, false
	}
	return Entry[T]{ID: id, State: e.state, Result: e.result, Err: e.err}, true
}

// Status returns the load state for id. Unknown ids report StateIdle.
func (c *Cache[T]) Status(id string) resource.LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		return e.state
	}
	return resource.StateIdle
}

// Do returns the cached outcome for id, or resolves it once.
//
// Concurrent callers for an unresolved id join the same in-flight resolve
// and all receive its outcome; the resolver executes exactly once per
// loading cycle. Once settled, the outcome (value or error) is returned
// from cache without re-invoking the resolver, until Forget or Clear.
//
// The resolve runs with the context of the caller that won the flight;
// callers that joined an existing flight share it.
func (c *Cache[T]) Do(ctx context.Context, id string, resolve ResolveFunc[T]) (T, error) {
	// The settled fast path lives inside the flight function. Checking it
	// outside the group would race with the group forgetting a completed
	// key, which could re-invoke the resolver for a caller that observed
	// the loading state just before settlement.
	v, err, _ := c.group.Do(id, func() (any, error) {
		c.mu.Lock()
		if e, ok := c.entries[id]; ok {
			switch e.state {
			case resource.StateLoaded:
				result := e.result
				c.mu.Unlock()
				return result, nil
			case resource.StateError:
				settled := e.err
				c.mu.Unlock()
				return nil, settled
			}
		}
		marker := &entry[T]{state: resource.StateLoading}
		c.entries[id] = marker
		c.mu.Unlock()

		result, err := resolve(ctx)
		c.settle(id, marker, result, err)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Refresh resolves id afresh, replacing any settled outcome. Used by
// retry paths: a failed attempt must not stay pinned as a cached error
// while the orchestrator is still working on the id.
//
// Callers drive Refresh sequentially per id (the retry loop waits for
// each attempt to settle before dispatching the next).
func (c *Cache[T]) Refresh(ctx context.Context, id string, resolve ResolveFunc[T]) (T, error) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
	c.group.Forget(id)

	return c.Do(ctx, id, resolve)
}

// Forget removes the entry for id, so the next Do resolves afresh.
// An in-flight resolve for id keeps running; its settlement is discarded.
func (c *Cache[T]) Forget(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
	c.group.Forget(id)
}

// Loaded returns the ids of all successfully loaded entries, sorted.
func (c *Cache[T]) Loaded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.entries))
	for id, e := range c.entries {
		if e.state == resource.StateLoaded {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Clear removes all entries. In-flight resolves keep running; their
// settlements are discarded.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	for id := range c.entries {
		c.group.Forget(id)
		delete(c.entries, id)
	}
	c.mu.Unlock()
}

// settle transitions the marker entry to loaded or error. If the entry
// was removed (or replaced by a Refresh) while the resolve was in
// flight, the outcome is dropped.
func (c *Cache[T]) settle(id string, marker *entry[T], result T, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[id] != marker {
		return
	}
	if err != nil {
		marker.state = resource.StateError
		marker.err = err
		return
	}
	marker.state = resource.StateLoaded
	marker.result = result
}
