package loader

import (
	"context"
	"log/slog"

	"github.com/lodeworks/lode/internal/cache"
	"github.com/lodeworks/lode/internal/resource"
)

// Resolver produces the value for a resource id. Supplied by the
// embedding application (for example a dynamic-import wrapper); the
// loaders assume only that the call may block and may fail.
type Resolver[T any] func(ctx context.Context, id string) (T, error)

// Chunk loads named code units through an injected resolver, backed by
// a deduplicating cache.
//
// Thread-safety: all methods are safe for concurrent use.
type Chunk[T any] struct {
	resolve Resolver[T]
	cache   *cache.Cache[T]
	logger  *slog.Logger
}

// ChunkOption configures a Chunk loader.
type ChunkOption[T any] func(*Chunk[T])

// WithChunkLogger sets the loader's logger. Defaults to slog.Default().
func WithChunkLogger[T any](logger *slog.Logger) ChunkOption[T] {
	return func(l *Chunk[T]) {
		l.logger = logger
	}
}

// NewChunk creates a chunk loader around the given resolver.
func NewChunk[T any](resolve Resolver[T], opts ...ChunkOption[T]) *Chunk[T] {
	l := &Chunk[T]{
		resolve: resolve,
		cache:   cache.New[T](),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves the chunk with the given id.
//
// Concurrent calls for the same uncached id share one resolver
// invocation. Once settled, the outcome is served from cache. Resolver
// errors are returned to the caller unmodified; a nil resolver yields
// an unknown-resource error.
func (l *Chunk[T]) Load(ctx context.Context, id string) (T, error) {
	id = resource.NormalizeID(id)
	if l.resolve == nil {
		var zero T
		return zero, resource.NewUnknownResource(resource.KindChunk, id)
	}

	return l.cache.Do(ctx, id, func(ctx context.Context) (T, error) {
		l.logger.Debug("loading chunk", "id", id)
		return l.resolve(ctx, id)
	})
}

// Reload resolves the chunk afresh, bypassing any settled cache entry.
// Retry paths use this so a failed attempt is not pinned as a cached
// error while the orchestrator still has attempts left.
func (l *Chunk[T]) Reload(ctx context.Context, id string) (T, error) {
	id = resource.NormalizeID(id)
	if l.resolve == nil {
		var zero T
		return zero, resource.NewUnknownResource(resource.KindChunk, id)
	}

	return l.cache.Refresh(ctx, id, func(ctx context.Context) (T, error) {
		l.logger.Debug("reloading chunk", "id", id)
		return l.resolve(ctx, id)
	})
}

// Preload warms the cache for id. Best effort: failures are logged and
// never propagated. A later Load for the same id resolves from cache.
func (l *Chunk[T]) Preload(ctx context.Context, id string) {
	if _, err := l.Load(ctx, id); err != nil {
		l.logger.Warn("chunk preload failed",
			"id", resource.NormalizeID(id),
			"error", err,
		)
	}
}

// Status returns the load state for id. Unknown ids report idle.
func (l *Chunk[T]) Status(id string) resource.LoadState {
	return l.cache.Status(resource.NormalizeID(id))
}

// Loaded returns the ids of all successfully loaded chunks, sorted.
func (l *Chunk[T]) Loaded() []string {
	return l.cache.Loaded()
}

// Clear empties the cache. In-flight resolves run to completion and
// their results are discarded.
func (l *Chunk[T]) Clear() {
	l.cache.Clear()
}
