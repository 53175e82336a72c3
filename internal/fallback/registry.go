package fallback

import "sync"

// registry is a keyed map of substitute values for one resource kind.
// Entries are added and removed explicitly; absence means no fallback.
type registry[T any] struct {
	mu     sync.RWMutex
	values map[string]T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{values: make(map[string]T)}
}

// set upserts the substitute for id. Later calls overwrite.
func (r *registry[T]) set(id string, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[id] = value
}

// get returns the substitute for id, if registered.
func (r *registry[T]) get(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[id]
	return v, ok
}

// remove deletes the substitute for id, if present.
func (r *registry[T]) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, id)
}

// has reports whether id has a registered substitute.
func (r *registry[T]) has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.values[id]
	return ok
}
