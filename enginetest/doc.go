// Package enginetest is an in-process reference engine implementing the
// complete foreign call table. Tests install it with Install and exercise
// the binding layer against real engine semantics: shared-handle
// dictionaries, the lenient conversion graph, operator evaluation with
// numeric promotion, and per-service handle allocators that recycle freed
// indices.
//
// Every capability bumps a named counter, so tests can assert not just
// results but the number of boundary crossings (the native get-or-add
// versus polyfill distinction, converter cache hits, and so on).
//
// This is a test fixture, not an engine. It implements the documented
// boundary behavior and nothing more.
package enginetest
