package loader

// Trigger is the visibility capability supplied by a platform adapter:
// a browser intersection observer, a native scroll listener, or a no-op
// for headless contexts. The handle is opaque to this package.
//
// Observe binds onVisible to the handle and returns a cancel function
// that disposes the binding. Threshold is the adapter-specific
// sensitivity (for intersection-style adapters, the visible fraction
// that fires the callback); zero requests the adapter default.
// Implementations must tolerate cancel being called more than once.
type Trigger interface {
	Observe(handle any, threshold float64, onVisible func()) (cancel func(), err error)
}

// NopTrigger is a Trigger that never fires. It is the default for
// server-rendered or headless embeddings, where components load either
// immediately or via explicit Load calls.
type NopTrigger struct{}

// Observe implements Trigger. The callback is never invoked.
func (NopTrigger) Observe(_ any, _ float64, _ func()) (func(), error) {
	return func() {}, nil
}
