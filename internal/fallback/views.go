package fallback

import (
	"context"

	"github.com/lodeworks/lode/internal/loader"
	"github.com/lodeworks/lode/internal/resource"
)

// ChunkView exposes the chunk loader's surface while routing loads
// through the orchestrator's retry/fallback algorithm. Call sites built
// against a raw loader can switch to a resilient one transparently.
type ChunkView[T any] struct {
	o *Orchestrator[T]
}

// ChunkView returns the resilient view over the orchestrator's chunk loader.
func (o *Orchestrator[T]) ChunkView() *ChunkView[T] {
	return &ChunkView[T]{o: o}
}

// Load loads the chunk with retry and fallback applied.
func (v *ChunkView[T]) Load(ctx context.Context, id string) (T, error) {
	return v.o.LoadChunk(ctx, id)
}

// Preload warms the cache. Best effort: failures (after retry and
// fallback had their chance) are logged by the orchestrator and dropped.
func (v *ChunkView[T]) Preload(ctx context.Context, id string) {
	_, _ = v.o.LoadChunk(ctx, id)
}

// Status returns the load state for id.
func (v *ChunkView[T]) Status(id string) resource.LoadState {
	return v.o.chunks.Status(id)
}

// Loaded returns the ids of all successfully loaded chunks, sorted.
func (v *ChunkView[T]) Loaded() []string {
	return v.o.chunks.Loaded()
}

// Clear empties the chunk cache.
func (v *ChunkView[T]) Clear() {
	v.o.chunks.Clear()
}

// ComponentView exposes the component loader's surface while routing
// loads through the orchestrator's retry/fallback algorithm.
type ComponentView[T any] struct {
	o *Orchestrator[T]
}

// ComponentView returns the resilient view over the orchestrator's
// component loader.
func (o *Orchestrator[T]) ComponentView() *ComponentView[T] {
	return &ComponentView[T]{o: o}
}

// Register declares a component on the underlying loader.
func (v *ComponentView[T]) Register(id string, resolve loader.Resolver[T], opts loader.RegisterOptions) {
	v.o.components.Register(id, resolve, opts)
}

// Observe binds a handle to the underlying loader's visibility trigger.
func (v *ComponentView[T]) Observe(id string, handle any) {
	v.o.components.Observe(id, handle)
}

// Load loads the component with retry and fallback applied.
func (v *ComponentView[T]) Load(ctx context.Context, id string) (T, error) {
	return v.o.LoadComponent(ctx, id)
}

// Unregister removes the component's registration and cache state.
func (v *ComponentView[T]) Unregister(id string) {
	v.o.components.Unregister(id)
}

// Status returns the load state for id.
func (v *ComponentView[T]) Status(id string) resource.LoadState {
	return v.o.components.Status(id)
}

// Loaded returns the ids of all successfully loaded components, sorted.
func (v *ComponentView[T]) Loaded() []string {
	return v.o.components.Loaded()
}

// Clear empties the component cache.
func (v *ComponentView[T]) Clear() {
	v.o.components.Clear()
}
