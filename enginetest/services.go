package enginetest

import (
	"github.com/kestrel-engine/kestrel-go/ffi"
)

// Server indices baked into issued Rids.
const (
	serverRender  uint32 = 1
	serverPhysics uint32 = 2
	serverDevice  uint32 = 3
)

// allocator issues Rids with sequential local indices and recycles freed
// ones last-in first-out, the way the engine's own handle tables behave.
// Reuse of a freed index is deliberately observable so release paths can
// be asserted in tests.
type allocator struct {
	server uint32
	next   uint32
	free   []uint32
	live   map[uint32]string
}

func (a *allocator) create(kind string) ffi.Rid {
	if a.live == nil {
		a.live = map[uint32]string{}
	}
	var local uint32
	if n := len(a.free); n > 0 {
		local = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		local = a.next
		a.next++
	}
	a.live[local] = kind
	return ffi.NewRid(a.server, local)
}

// release returns false for Rids this allocator never issued or already
// freed; the engine ignores those.
func (a *allocator) release(r ffi.Rid) bool {
	if r.ServerIndex() != a.server {
		return false
	}
	local := r.LocalIndex()
	if _, ok := a.live[local]; !ok {
		return false
	}
	delete(a.live, local)
	a.free = append(a.free, local)
	return true
}

func (a *allocator) count() int { return len(a.live) }

type renderState struct {
	alloc     allocator
	lights    map[ffi.Rid]ffi.Color
	parents   map[ffi.Rid]ffi.Rid
	shaders   map[ffi.Rid]ffi.Rid
	viewports map[ffi.Rid][2]int32
	surfaces  map[ffi.Rid]int32
}

type physicsState struct {
	alloc      allocator
	bodySpace  map[ffi.Rid]ffi.Rid
	bodyShapes map[ffi.Rid][]ffi.Rid
	areaSpace  map[ffi.Rid]ffi.Rid
}

// device is one rendering-device connection. Each device has its own
// allocator, so a Rid is only meaningful to the device that issued it.
type device struct {
	alloc   allocator
	buffers map[ffi.Rid][]byte
}

// RenderLive returns the number of live rendering resources.
func (e *Engine) RenderLive() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.render.alloc.count()
}

// PhysicsLive returns the number of live physics resources.
func (e *Engine) PhysicsLive() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.physics.alloc.count()
}

// RenderKind returns the resource kind a live rendering Rid was created
// as, or "" if it is not live.
func (e *Engine) RenderKind(r ffi.Rid) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r.ServerIndex() != serverRender {
		return ""
	}
	return e.render.alloc.live[r.LocalIndex()]
}

// PhysicsKind returns the resource kind a live physics Rid was created
// as, or "" if it is not live.
func (e *Engine) PhysicsKind(r ffi.Rid) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r.ServerIndex() != serverPhysics {
		return ""
	}
	return e.physics.alloc.live[r.LocalIndex()]
}

// LightColor returns the last color set on a light.
func (e *Engine) LightColor(r ffi.Rid) ffi.Color {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.render.lights[r]
}

// CanvasItemParent returns the parent set on a canvas item.
func (e *Engine) CanvasItemParent(r ffi.Rid) ffi.Rid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.render.parents[r]
}

// MaterialShader returns the shader bound to a material.
func (e *Engine) MaterialShader(r ffi.Rid) ffi.Rid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.render.shaders[r]
}

// ViewportSize returns the size set on a viewport.
func (e *Engine) ViewportSize(r ffi.Rid) (w, h int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.render.viewports[r]
	return s[0], s[1]
}

// AreaSpace returns the space an area was assigned to.
func (e *Engine) AreaSpace(r ffi.Rid) ffi.Rid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.physics.areaSpace[r]
}

// BodySpace returns the space a body was assigned to.
func (e *Engine) BodySpace(r ffi.Rid) ffi.Rid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.physics.bodySpace[r]
}

// BodyShapes returns the shapes attached to a body.
func (e *Engine) BodyShapes(r ffi.Rid) []ffi.Rid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ffi.Rid(nil), e.physics.bodyShapes[r]...)
}

// DeviceLive returns the number of live resources on one device.
func (e *Engine) DeviceLive(id ffi.DeviceID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d := e.devices[id]; d != nil {
		return d.alloc.count()
	}
	return 0
}

// KillObject marks an object dead without going through Free, for
// dead-reference conversion tests.
func (e *Engine) KillObject(id ffi.ObjectID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o := e.objects[id]; o != nil {
		o.alive = false
	}
}
