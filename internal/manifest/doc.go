// Package manifest loads declarative loader manifests: YAML documents
// naming the chunks and components an embedding serves, their fallback
// values, and the retry policy. Manifests are validated against an
// embedded CUE schema before decoding, so malformed declarations fail
// with positioned errors instead of surfacing later as loader misses.
package manifest
