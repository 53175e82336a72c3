package testutil

import "sync"

// binding is one active observation held by ManualTrigger.
type binding struct {
	handle    any
	threshold float64
	onVisible func()
	cancelled bool
}

// ManualTrigger is a visibility trigger fired explicitly from tests.
// It records every Observe call, exposes cancellation bookkeeping, and
// fires callbacks synchronously from Fire.
//
// Thread-safety: safe for concurrent use via internal mutex.
type ManualTrigger struct {
	mu       sync.Mutex
	bindings []*binding
}

// NewManualTrigger creates an empty trigger.
func NewManualTrigger() *ManualTrigger {
	return &ManualTrigger{}
}

// Observe implements the loader trigger contract.
func (t *ManualTrigger) Observe(handle any, threshold float64, onVisible func()) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := &binding{handle: handle, threshold: threshold, onVisible: onVisible}
	t.bindings = append(t.bindings, b)

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		b.cancelled = true
	}, nil
}

// Fire invokes the callbacks of all active (non-cancelled) bindings for
// the given handle, simulating the handle becoming visible.
func (t *ManualTrigger) Fire(handle any) {
	t.mu.Lock()
	var fire []func()
	for _, b := range t.bindings {
		if b.handle == handle && !b.cancelled {
			fire = append(fire, b.onVisible)
		}
	}
	t.mu.Unlock()

	for _, fn := range fire {
		fn()
	}
}

// Observed returns the number of Observe calls seen.
func (t *ManualTrigger) Observed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.bindings)
}

// Cancelled returns the number of bindings whose cancel was called.
func (t *ManualTrigger) Cancelled() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, b := range t.bindings {
		if b.cancelled {
			n++
		}
	}
	return n
}

// LastThreshold returns the threshold of the most recent binding, or -1
// if nothing was observed.
func (t *ManualTrigger) LastThreshold() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.bindings) == 0 {
		return -1
	}
	return t.bindings[len(t.bindings)-1].threshold
}
