// Package loader implements the two raw loaders of the dynamic-loading
// layer: Chunk for named code units and Component for deferred rendering
// units with optional visibility gating. Both resolve through injected
// resolver functions and share the dedup/caching contract of
// internal/cache. Loaders surface resolver failures to the caller
// unmodified; retry and fallback substitution are the orchestrator's job
// (internal/fallback), not the loader's.
package loader
