// Package cache provides the keyed load-state cache that backs the chunk
// and component loaders. It hides two concerns behind one API: state
// bookkeeping (idle → loading → loaded/error per resource id) and
// deduplication of concurrent loads, so that any burst of callers for the
// same id triggers exactly one resolver invocation and shares its result.
package cache
