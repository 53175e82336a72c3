package resource

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind distinguishes the two loadable resource namespaces. Chunk and
// component ids live in independent namespaces; the same id may exist
// in both without colliding.
type Kind string

const (
	// KindChunk identifies a named, independently loadable code unit.
	KindChunk Kind = "chunk"

	// KindComponent identifies a named deferred rendering unit,
	// optionally gated by a visibility trigger.
	KindComponent Kind = "component"
)

// Valid reports whether k is one of the known resource kinds.
func (k Kind) Valid() bool {
	return k == KindChunk || k == KindComponent
}

// LoadState is the lifecycle state of a cache entry.
//
// Transitions: idle → loading on dispatch, loading → loaded or error on
// resolver settlement. An entry is never loaded and error at the same
// time. Unknown ids report StateIdle.
type LoadState int

const (
	// StateIdle means no load has been dispatched (or the entry was cleared).
	StateIdle LoadState = iota
	// StateLoading means a resolver call is in flight.
	StateLoading
	// StateLoaded means the resolver settled successfully and the result is cached.
	StateLoaded
	// StateError means the resolver settled with an error, which is cached.
	StateError
)

// String returns the lowercase state name used in logs and CLI output.
func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// NormalizeID canonicalizes a resource id: trims surrounding whitespace
// and applies Unicode NFC so visually identical ids from manifests and
// call sites key the same cache entry.
func NormalizeID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}
