package enginetest

import (
	"sync"
	"testing"

	"github.com/kestrel-engine/kestrel-go/ffi"
)

// Engine holds all reference-engine state: the variant slot table, the
// object and callable registries, and one allocator per service. A zero
// Engine is not usable; construct with New.
type Engine struct {
	mu sync.Mutex

	slots     []slot
	freeSlots []uint64

	counters map[string]int

	nativeGetOrAdd bool

	objects    map[ffi.ObjectID]*object
	nextObject uint64

	callables    map[uint64]ffi.HostFunc
	nextCallable uint64

	render  renderState
	physics physicsState

	devices    map[ffi.DeviceID]*device
	nextDevice uint64

	table *ffi.CallTable
}

type slot struct {
	v    value
	live bool
}

type object struct {
	class string
	alive bool
}

// Option configures a new engine.
type Option func(*Engine)

// WithNativeGetOrAdd controls whether the engine exposes the native
// dictionary get-or-add capability. Engines predating API 1.3 do not;
// the binding then falls back to a check-then-insert pair.
func WithNativeGetOrAdd(on bool) Option {
	return func(e *Engine) { e.nativeGetOrAdd = on }
}

// New builds an engine. The call table is assembled once and is stable
// for the engine's lifetime.
func New(opts ...Option) *Engine {
	e := &Engine{
		slots:          make([]slot, 1), // slot 0 is the null pointer
		counters:       map[string]int{},
		nativeGetOrAdd: true,
		objects:        map[ffi.ObjectID]*object{},
		nextObject:     1,
		callables:      map[uint64]ffi.HostFunc{},
		nextCallable:   1,
		devices:        map[ffi.DeviceID]*device{},
		nextDevice:     1,
	}
	e.render.alloc = allocator{server: serverRender, next: 1}
	e.physics.alloc = allocator{server: serverPhysics, next: 1}
	e.render.lights = map[ffi.Rid]ffi.Color{}
	e.render.parents = map[ffi.Rid]ffi.Rid{}
	e.render.shaders = map[ffi.Rid]ffi.Rid{}
	e.render.viewports = map[ffi.Rid][2]int32{}
	e.render.surfaces = map[ffi.Rid]int32{}
	e.physics.bodySpace = map[ffi.Rid]ffi.Rid{}
	e.physics.bodyShapes = map[ffi.Rid][]ffi.Rid{}
	e.physics.areaSpace = map[ffi.Rid]ffi.Rid{}
	for _, o := range opts {
		o(e)
	}
	e.table = e.buildTable()
	return e
}

// Install builds an engine and installs its call table process-wide.
func Install(tb testing.TB, opts ...Option) *Engine {
	tb.Helper()
	e := New(opts...)
	ffi.Load(e.Table())
	return e
}

// Table returns the engine's call table.
func (e *Engine) Table() *ffi.CallTable { return e.table }

// Calls returns how many times the named capability was invoked.
func (e *Engine) Calls(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counters[name]
}

// ResetCalls clears all capability counters.
func (e *Engine) ResetCalls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counters = map[string]int{}
}

// LiveSlots returns the number of live variant slots, for leak checks.
func (e *Engine) LiveSlots() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, s := range e.slots {
		if s.live {
			n++
		}
	}
	return n
}

// count bumps a capability counter. Callers hold mu.
func (e *Engine) count(name string) {
	e.counters[name]++
}

// alloc stores v in a slot, reusing freed indices first. Callers hold mu.
func (e *Engine) alloc(v value) ffi.VariantPtr {
	if n := len(e.freeSlots); n > 0 {
		idx := e.freeSlots[n-1]
		e.freeSlots = e.freeSlots[:n-1]
		e.slots[idx] = slot{v: v, live: true}
		return ffi.VariantPtr(idx)
	}
	e.slots = append(e.slots, slot{v: v, live: true})
	return ffi.VariantPtr(len(e.slots) - 1)
}

// read returns the value in a slot. The null pointer and dead slots read
// as nil; a binding bug upstream must not crash the engine. Callers hold
// mu.
func (e *Engine) read(p ffi.VariantPtr) value {
	idx := uint64(p)
	if idx == 0 || idx >= uint64(len(e.slots)) || !e.slots[idx].live {
		return value{}
	}
	return e.slots[idx].v
}

// release frees a slot. Callers hold mu.
func (e *Engine) release(p ffi.VariantPtr) {
	idx := uint64(p)
	if idx == 0 || idx >= uint64(len(e.slots)) || !e.slots[idx].live {
		return
	}
	e.slots[idx] = slot{}
	e.freeSlots = append(e.freeSlots, idx)
}
