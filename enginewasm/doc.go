// Package enginewasm runs the Kestrel engine's WebAssembly build in-process
// and binds its exports into an ffi.CallTable.
//
// The engine ships the same C symbol surface in two forms, a shared library
// loaded with ffi.LoadLibrary and a wasm module loaded here. The wasm form
// is used where dlopen is unavailable or where the engine must be sandboxed
// next to untrusted content. Handles and slot tokens cross the boundary as
// i64 values; strings and packed buffers are staged through guest memory
// with the module's exported allocator.
package enginewasm
