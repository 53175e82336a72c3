// Package history records fallback and retry events and derives
// statistics from them. Two recorders ship: Log, a bounded in-memory
// append-only log folded into Stats on demand, and Store, a SQLite-backed
// log with the same read surface for offline inspection via the CLI.
// Tee mirrors events into several recorders at once.
//
// Events are immutable once recorded. One event exists for every failure
// path (fallback substitution, retries that eventually succeeded, retries
// that exhausted the budget) and none for a clean first-attempt load.
package history
