// Package kestrel is the root of the Kestrel engine Go binding.
//
// The binding talks to the engine through a single function table and keeps
// all engine state on the engine side. Go code holds opaque tokens: variant
// slot pointers, resource handles and object instance IDs.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	kestrel-go/          Root package, overview only
//	├── ffi/             Call table, wire types and the shared-library loader
//	├── variant/         Variants, dictionaries, arrays, callables, iteration
//	├── resource/        Owned resource-handle wrappers (release-once)
//	├── render/          Rendering server and device bindings
//	├── physics/         Physics server bindings
//	├── errors/          Structured error taxonomy for binding failures
//	├── enginetest/      In-process reference engine for tests and tooling
//	└── enginewasm/      wazero-backed loader for the engine's wasm build
//
// # Quick Start
//
// Load an engine and work with values:
//
//	if err := ffi.LoadLibrary("libkestrel.so"); err != nil {
//		log.Fatal(err)
//	}
//	d := variant.DictOf("name", "player", "score", int64(12))
//	defer d.Close()
//	score := variant.AtAs[int64](d, "score")
//
// Tests install the reference engine instead:
//
//	func TestThing(t *testing.T) {
//		enginetest.Install(t)
//		...
//	}
package kestrel
