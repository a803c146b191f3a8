// Package ffi defines the foreign boundary between the bindings and the
// Kestrel engine: the call table of engine capabilities, the wire-level
// scalar types that cross it (type tags, operators, resource IDs), and the
// descriptor structs whose ownership is transferred manually across the
// boundary.
//
// The engine supplies a populated CallTable exactly once at initialization,
// either from a shared library (see libload.go), from a WASM engine build
// (package enginewasm), or from the in-process reference engine used by
// tests (package enginetest). Every other package in this module reaches the
// engine exclusively through Table().
//
// All calls are synchronous: they block the calling goroutine for the
// duration of the engine call and return synchronously. There is no
// cancellation concept at this layer.
package ffi
