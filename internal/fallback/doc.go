// Package fallback implements the resilience algorithm that sits on top
// of the raw loaders: on a failed load it substitutes a pre-registered
// fallback value if one exists, otherwise retries the loader with
// exponential backoff up to a configured attempt budget, and only then
// surfaces the original error. Every failure path is recorded as a
// history event.
//
// An Orchestrator is constructed explicitly and handed to call sites;
// there is no package-level instance. One orchestrator should own a
// given loader pair so cache and registry state stay consistent.
package fallback
