package loader

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lodeworks/lode/internal/cache"
	"github.com/lodeworks/lode/internal/resource"
)

// RegisterOptions control how a registered component activates.
type RegisterOptions struct {
	// Immediate skips visibility gating: the component loads eagerly at
	// registration time instead of waiting for its handle to become
	// visible.
	Immediate bool

	// Threshold is the visibility sensitivity passed through to the
	// trigger adapter (for intersection-style triggers, the fraction of
	// the handle that must be visible). Zero means the adapter default.
	Threshold float64
}

// registration is the per-id bookkeeping for a registered component.
type registration[T any] struct {
	resolve Resolver[T]
	opts    RegisterOptions
	cancel  func() // disposes the active trigger binding, if any
}

// Component loads named deferred rendering units, optionally gated by a
// visibility trigger. Each loader owns its own dedup cache, independent
// of any chunk loader's.
//
// Thread-safety: all methods are safe for concurrent use.
type Component[T any] struct {
	mu      sync.Mutex
	regs    map[string]*registration[T]
	cache   *cache.Cache[T]
	trigger Trigger
	logger  *slog.Logger
}

// ComponentOption configures a Component loader.
type ComponentOption[T any] func(*Component[T])

// WithTrigger sets the visibility trigger adapter. Defaults to
// NopTrigger, which never fires.
func WithTrigger[T any](t Trigger) ComponentOption[T] {
	return func(l *Component[T]) {
		l.trigger = t
	}
}

// WithComponentLogger sets the loader's logger. Defaults to slog.Default().
func WithComponentLogger[T any](logger *slog.Logger) ComponentOption[T] {
	return func(l *Component[T]) {
		l.logger = logger
	}
}

// NewComponent creates a component loader.
func NewComponent[T any](opts ...ComponentOption[T]) *Component[T] {
	l := &Component[T]{
		regs:    make(map[string]*registration[T]),
		cache:   cache.New[T](),
		trigger: NopTrigger{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register declares a component and its resolver. Registering an id
// twice replaces the prior registration and disposes any existing
// trigger binding.
//
// With opts.Immediate the component loads eagerly in the background;
// the eventual Load for the same id joins or reuses that resolve.
func (l *Component[T]) Register(id string, resolve Resolver[T], opts RegisterOptions) {
	id = resource.NormalizeID(id)

	l.mu.Lock()
	if prior, ok := l.regs[id]; ok && prior.cancel != nil {
		prior.cancel()
	}
	l.regs[id] = &registration[T]{resolve: resolve, opts: opts}
	l.mu.Unlock()

	l.logger.Debug("component registered",
		"id", id,
		"immediate", opts.Immediate,
		"threshold", opts.Threshold,
	)

	if opts.Immediate {
		go func() {
			if _, err := l.Load(context.Background(), id); err != nil {
				l.logger.Warn("immediate component load failed", "id", id, "error", err)
			}
		}()
	}
}

// Observe binds an opaque handle to the visibility trigger. When the
// trigger fires, the component loads automatically, exactly once per
// binding. Observing an unregistered id logs a warning and does
// nothing, so render trees survive registration races.
func (l *Component[T]) Observe(id string, handle any) {
	id = resource.NormalizeID(id)

	l.mu.Lock()
	reg, ok := l.regs[id]
	if !ok {
		l.mu.Unlock()
		l.logger.Warn("observe on unregistered component", "id", id)
		return
	}
	if reg.cancel != nil {
		reg.cancel()
		reg.cancel = nil
	}
	l.mu.Unlock()

	var once sync.Once
	cancel, err := l.trigger.Observe(handle, reg.opts.Threshold, func() {
		once.Do(func() {
			l.logger.Debug("component became visible", "id", id)
			go func() {
				if _, err := l.Load(context.Background(), id); err != nil {
					l.logger.Warn("visibility-triggered load failed", "id", id, "error", err)
				}
			}()
		})
	})
	if err != nil {
		l.logger.Warn("trigger binding failed", "id", id, "error", err)
		return
	}

	l.mu.Lock()
	// The registration may have been replaced or removed while the
	// binding was being set up; dispose the stale binding in that case.
	if current, ok := l.regs[id]; ok && current == reg {
		current.cancel = cancel
	} else {
		cancel()
	}
	l.mu.Unlock()
}

// Load resolves the component with the given id, with the same dedup
// and caching contract as chunk loads. Unregistered ids fail with an
// unknown-resource error.
func (l *Component[T]) Load(ctx context.Context, id string) (T, error) {
	id = resource.NormalizeID(id)
	resolve, err := l.resolverFor(id)
	if err != nil {
		var zero T
		return zero, err
	}

	return l.cache.Do(ctx, id, func(ctx context.Context) (T, error) {
		l.logger.Debug("loading component", "id", id)
		return resolve(ctx, id)
	})
}

// Reload resolves the component afresh, bypassing any settled cache
// entry. Used by retry paths.
func (l *Component[T]) Reload(ctx context.Context, id string) (T, error) {
	id = resource.NormalizeID(id)
	resolve, err := l.resolverFor(id)
	if err != nil {
		var zero T
		return zero, err
	}

	return l.cache.Refresh(ctx, id, func(ctx context.Context) (T, error) {
		l.logger.Debug("reloading component", "id", id)
		return resolve(ctx, id)
	})
}

// Unregister disposes the trigger binding and removes registration and
// cache state for id. An in-flight resolve already dispatched keeps
// running; its result is discarded.
func (l *Component[T]) Unregister(id string) {
	id = resource.NormalizeID(id)

	l.mu.Lock()
	if reg, ok := l.regs[id]; ok {
		if reg.cancel != nil {
			reg.cancel()
		}
		delete(l.regs, id)
	}
	l.mu.Unlock()

	l.cache.Forget(id)
}

// Registered reports whether id has an active registration.
func (l *Component[T]) Registered(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.regs[resource.NormalizeID(id)]
	return ok
}

// Status returns the load state for id. Unknown ids report idle.
func (l *Component[T]) Status(id string) resource.LoadState {
	return l.cache.Status(resource.NormalizeID(id))
}

// Loaded returns the ids of all successfully loaded components, sorted.
func (l *Component[T]) Loaded() []string {
	return l.cache.Loaded()
}

// Clear empties the cache. Registrations and trigger bindings survive;
// in-flight resolves run to completion and their results are discarded.
func (l *Component[T]) Clear() {
	l.cache.Clear()
}

func (l *Component[T]) resolverFor(id string) (Resolver[T], error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	reg, ok := l.regs[id]
	if !ok || reg.resolve == nil {
		return nil, resource.NewUnknownResource(resource.KindComponent, id)
	}
	return reg.resolve, nil
}
