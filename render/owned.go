package render

import (
	"github.com/kestrel-engine/kestrel-go/ffi"
	"github.com/kestrel-engine/kestrel-go/resource"
)

// Owned wrappers for singleton-owned rendering resources. Each binds the
// freshly created handle to Singleton().FreeRid, so dropping the wrapper
// through Close releases the resource exactly once. The per-kind mutators
// forward (handle, args) to the server; they are convenience, not part of
// the ownership contract.

// OwnedMesh owns one mesh resource.
type OwnedMesh struct {
	resource.Owned
}

// NewOwnedMesh creates a mesh and takes ownership of its handle.
func NewOwnedMesh() *OwnedMesh {
	s := Singleton()
	return &OwnedMesh{Owned: resource.NewOwned(s.CreateMesh(), s.FreeRid)}
}

// AddSurface appends a surface to the owned mesh.
func (m *OwnedMesh) AddSurface(primitive int32, arrays ffi.VariantPtr) {
	Singleton().MeshAddSurface(m.Rid(), primitive, arrays)
}

// SurfaceCount returns the number of surfaces on the owned mesh.
func (m *OwnedMesh) SurfaceCount() int32 {
	return Singleton().MeshSurfaceCount(m.Rid())
}

// OwnedTexture owns one 2D texture resource.
type OwnedTexture struct {
	resource.Owned
}

// NewOwnedTexture2D creates a 2D texture and takes ownership of its
// handle.
func NewOwnedTexture2D() *OwnedTexture {
	s := Singleton()
	return &OwnedTexture{Owned: resource.NewOwned(s.CreateTexture2D(), s.FreeRid)}
}

// OwnedCanvas owns one canvas resource.
type OwnedCanvas struct {
	resource.Owned
}

// NewOwnedCanvas creates a canvas and takes ownership of its handle.
func NewOwnedCanvas() *OwnedCanvas {
	s := Singleton()
	return &OwnedCanvas{Owned: resource.NewOwned(s.CreateCanvas(), s.FreeRid)}
}

// OwnedCanvasItem owns one canvas item resource.
type OwnedCanvasItem struct {
	resource.Owned
}

// NewOwnedCanvasItem creates a canvas item and takes ownership of its
// handle.
func NewOwnedCanvasItem() *OwnedCanvasItem {
	s := Singleton()
	return &OwnedCanvasItem{Owned: resource.NewOwned(s.CreateCanvasItem(), s.FreeRid)}
}

// SetParent reparents the owned canvas item.
func (c *OwnedCanvasItem) SetParent(parent ffi.Rid) {
	Singleton().CanvasItemSetParent(c.Rid(), parent)
}

// OwnedLight owns one light resource of any kind.
type OwnedLight struct {
	resource.Owned
	kind LightKind
}

// NewOwnedLight creates a light of the given kind and takes ownership of
// its handle.
func NewOwnedLight(kind LightKind) *OwnedLight {
	s := Singleton()
	return &OwnedLight{
		Owned: resource.NewOwned(s.CreateLight(kind), s.FreeRid),
		kind:  kind,
	}
}

// Kind returns the light kind chosen at creation.
func (l *OwnedLight) Kind() LightKind { return l.kind }

// SetColor sets the owned light's color.
func (l *OwnedLight) SetColor(c ffi.Color) {
	Singleton().LightSetColor(l.Rid(), c)
}

// OwnedShader owns one shader resource.
type OwnedShader struct {
	resource.Owned
}

// NewOwnedShader creates a shader and takes ownership of its handle.
func NewOwnedShader() *OwnedShader {
	s := Singleton()
	return &OwnedShader{Owned: resource.NewOwned(s.CreateShader(), s.FreeRid)}
}

// OwnedMaterial owns one material resource.
type OwnedMaterial struct {
	resource.Owned
}

// NewOwnedMaterial creates a material and takes ownership of its handle.
func NewOwnedMaterial() *OwnedMaterial {
	s := Singleton()
	return &OwnedMaterial{Owned: resource.NewOwned(s.CreateMaterial(), s.FreeRid)}
}

// SetShader binds a shader to the owned material.
func (m *OwnedMaterial) SetShader(shader ffi.Rid) {
	Singleton().MaterialSetShader(m.Rid(), shader)
}

// OwnedViewport owns one viewport resource.
type OwnedViewport struct {
	resource.Owned
}

// NewOwnedViewport creates a viewport and takes ownership of its handle.
func NewOwnedViewport() *OwnedViewport {
	s := Singleton()
	return &OwnedViewport{Owned: resource.NewOwned(s.CreateViewport(), s.FreeRid)}
}

// SetSize resizes the owned viewport.
func (v *OwnedViewport) SetSize(w, h int32) {
	Singleton().ViewportSetSize(v.Rid(), w, h)
}

// OwnedSky owns one sky resource.
type OwnedSky struct {
	resource.Owned
}

// NewOwnedSky creates a sky and takes ownership of its handle.
func NewOwnedSky() *OwnedSky {
	s := Singleton()
	return &OwnedSky{Owned: resource.NewOwned(s.CreateSky(), s.FreeRid)}
}
