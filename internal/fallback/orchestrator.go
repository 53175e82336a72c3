package fallback

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lodeworks/lode/internal/history"
	"github.com/lodeworks/lode/internal/loader"
	"github.com/lodeworks/lode/internal/resource"
)

// Orchestrator composes a chunk loader and a component loader with
// fallback registries, a retry policy, and an event recorder.
//
// Load algorithm, per resource: attempt the loader; on success return
// the value. On failure, substitute a registered fallback immediately
// (no retry) if the kind's enable flag is on; otherwise retry with
// exponential backoff until the attempt budget is exhausted, then
// surface the last loader error unmodified. Unknown resources are a
// programming error: they propagate immediately, unretried and
// unsubstituted.
//
// Thread-safety: all methods are safe for concurrent use. Per resource
// id, attempts are sequential; a retry is dispatched only after the
// prior attempt settled.
type Orchestrator[T any] struct {
	chunks     *loader.Chunk[T]
	components *loader.Component[T]

	chunkFallbacks     *registry[T]
	componentFallbacks *registry[T]

	log      *history.Log
	recorder history.Recorder

	logger  *slog.Logger
	discard *slog.Logger

	mu  sync.RWMutex // guards cfg
	cfg Config
}

// Option configures an Orchestrator.
type Option[T any] func(*Orchestrator[T])

// WithConfig replaces the default configuration.
func WithConfig[T any](cfg Config) Option[T] {
	return func(o *Orchestrator[T]) {
		o.cfg = cfg
	}
}

// WithLogger sets the orchestrator's logger. Defaults to slog.Default().
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(o *Orchestrator[T]) {
		o.logger = logger
	}
}

// WithRecorder mirrors events into an additional recorder (for example
// a history.Store) besides the built-in in-memory log.
func WithRecorder[T any](r history.Recorder) Option[T] {
	return func(o *Orchestrator[T]) {
		o.recorder = history.NewTee(o.log, r)
	}
}

// WithHistoryCapacity bounds the built-in in-memory event log.
func WithHistoryCapacity[T any](capacity int) Option[T] {
	return func(o *Orchestrator[T]) {
		o.log = history.NewLog(capacity)
		o.recorder = o.log
	}
}

// New creates an orchestrator over the given loaders. Both loaders must
// be owned by exactly one orchestrator.
func New[T any](chunks *loader.Chunk[T], components *loader.Component[T], opts ...Option[T]) *Orchestrator[T] {
	o := &Orchestrator[T]{
		chunks:             chunks,
		components:         components,
		chunkFallbacks:     newRegistry[T](),
		componentFallbacks: newRegistry[T](),
		log:                history.NewLog(0),
		logger:             slog.Default(),
		discard:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:                DefaultConfig(),
	}
	o.recorder = o.log
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RegisterChunkFallback upserts the substitute value returned when the
// chunk with the given id fails to load. Idempotent; later calls
// overwrite.
func (o *Orchestrator[T]) RegisterChunkFallback(id string, value T) {
	o.chunkFallbacks.set(resource.NormalizeID(id), value)
}

// RemoveChunkFallback deletes the chunk fallback for id, if present.
func (o *Orchestrator[T]) RemoveChunkFallback(id string) {
	o.chunkFallbacks.remove(resource.NormalizeID(id))
}

// RegisterComponentFallback upserts the substitute value returned when
// the component with the given id fails to load.
func (o *Orchestrator[T]) RegisterComponentFallback(id string, value T) {
	o.componentFallbacks.set(resource.NormalizeID(id), value)
}

// RemoveComponentFallback deletes the component fallback for id, if present.
func (o *Orchestrator[T]) RemoveComponentFallback(id string) {
	o.componentFallbacks.remove(resource.NormalizeID(id))
}

// HasFallback reports whether a fallback would actually be used for the
// given resource: a registry entry must exist and the kind's enable
// flag must be on.
func (o *Orchestrator[T]) HasFallback(kind resource.Kind, id string) bool {
	id = resource.NormalizeID(id)
	cfg := o.config()

	switch kind {
	case resource.KindChunk:
		return cfg.EnableChunkFallback && o.chunkFallbacks.has(id)
	case resource.KindComponent:
		return cfg.EnableComponentFallback && o.componentFallbacks.has(id)
	default:
		return false
	}
}

// LoadChunk loads a chunk through the retry/fallback algorithm.
func (o *Orchestrator[T]) LoadChunk(ctx context.Context, id string) (T, error) {
	return o.load(ctx, resource.KindChunk, id)
}

// LoadComponent loads a component through the retry/fallback algorithm.
func (o *Orchestrator[T]) LoadComponent(ctx context.Context, id string) (T, error) {
	return o.load(ctx, resource.KindComponent, id)
}

// UpdateConfig merges a partial update into the active config. Loads
// already in flight keep the config they captured at dispatch.
func (o *Orchestrator[T]) UpdateConfig(patch ConfigPatch) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg = o.cfg.merged(patch)
}

// Config returns the active configuration.
func (o *Orchestrator[T]) Config() Config {
	return o.config()
}

// Stats folds the in-memory event log into its aggregate view.
func (o *Orchestrator[T]) Stats() history.Stats {
	return o.log.Stats()
}

// Recent returns up to limit events from the in-memory log, most
// recent first.
func (o *Orchestrator[T]) Recent(limit int) []history.Event {
	return o.log.Recent(limit)
}

// ClearHistory empties the in-memory event log. A mirrored persistent
// store, if any, is untouched; clear it through the CLI or the store
// API.
func (o *Orchestrator[T]) ClearHistory() {
	o.log.Clear()
}

// Chunks exposes the underlying chunk loader for query operations.
func (o *Orchestrator[T]) Chunks() *loader.Chunk[T] {
	return o.chunks
}

// Components exposes the underlying component loader.
func (o *Orchestrator[T]) Components() *loader.Component[T] {
	return o.components
}

// load runs the retry/fallback state machine for one resource.
func (o *Orchestrator[T]) load(ctx context.Context, kind resource.Kind, id string) (T, error) {
	id = resource.NormalizeID(id)
	cfg := o.config()
	log := o.loggerFor(cfg)
	delays := newBackOff(cfg)

	var zero T
	attempt := 1
	for {
		value, err := o.attempt(ctx, kind, id, attempt)
		if err == nil {
			if attempt > 1 {
				o.recorder.Record(history.NewEvent(kind, id, history.OutcomeRetriedThenSucceeded, attempt))
				log.Info("load recovered after retry", "kind", kind, "id", id, "attempts", attempt)
			}
			return value, nil
		}

		if resource.IsUnknownResource(err) {
			log.Error("unknown resource", "kind", kind, "id", id, "error", err)
			return zero, err
		}

		if value, ok := o.fallbackFor(cfg, kind, id); ok {
			o.recorder.Record(history.NewEvent(kind, id, history.OutcomeFallbackUsed, attempt))
			log.Warn("fallback substituted", "kind", kind, "id", id, "error", err)
			return value, nil
		}

		if attempt > cfg.MaxRetryAttempts {
			o.recorder.Record(history.NewEvent(kind, id, history.OutcomeRetriedThenFailed, attempt))
			log.Error("load failed, retries exhausted",
				"kind", kind,
				"id", id,
				"attempts", attempt,
				"error", err,
			)
			return zero, err
		}

		wait := delays.NextBackOff()
		if wait < 0 {
			wait = 0
		}
		log.Warn("load failed, retrying",
			"kind", kind,
			"id", id,
			"attempt", attempt,
			"backoff", wait,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
		attempt++
	}
}

// attempt dispatches one loader call. The first attempt goes through
// the cache; retries bypass it so a failed attempt is not served back
// as a cached error.
func (o *Orchestrator[T]) attempt(ctx context.Context, kind resource.Kind, id string, attempt int) (T, error) {
	switch {
	case kind == resource.KindChunk && attempt == 1:
		return o.chunks.Load(ctx, id)
	case kind == resource.KindChunk:
		return o.chunks.Reload(ctx, id)
	case attempt == 1:
		return o.components.Load(ctx, id)
	default:
		return o.components.Reload(ctx, id)
	}
}

// fallbackFor returns the substitute for the resource if one is
// registered and the kind's enable flag is on.
func (o *Orchestrator[T]) fallbackFor(cfg Config, kind resource.Kind, id string) (T, bool) {
	switch kind {
	case resource.KindChunk:
		if !cfg.EnableChunkFallback {
			var zero T
			return zero, false
		}
		return o.chunkFallbacks.get(id)
	case resource.KindComponent:
		if !cfg.EnableComponentFallback {
			var zero T
			return zero, false
		}
		return o.componentFallbacks.get(id)
	default:
		var zero T
		return zero, false
	}
}

func (o *Orchestrator[T]) config() Config {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cfg
}

func (o *Orchestrator[T]) loggerFor(cfg Config) *slog.Logger {
	if cfg.EnableLogging {
		return o.logger
	}
	return o.discard
}

// newBackOff builds the delay sequence for one load: RetryDelay before
// the first retry, doubling each retry after that, no jitter. The
// attempt budget, not elapsed time or an interval cap, bounds the loop.
func newBackOff(cfg Config) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.RetryDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
