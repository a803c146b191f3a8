// Package render binds the rendering server and the rendering-device
// service. The server is a process-wide singleton; devices are
// instance-scoped connections, of which several may exist at once.
package render

import (
	"github.com/kestrel-engine/kestrel-go/ffi"
)

// Server is the rendering server binding. All resources it creates are
// released through FreeRid on the same singleton.
type Server struct {
	t *ffi.RenderingTable
}

// Singleton returns the process-wide rendering server.
func Singleton() *Server {
	return &Server{t: &ffi.Table().Rendering}
}

// LightKind selects which create capability a light goes through.
type LightKind int

const (
	LightDirectional LightKind = iota
	LightOmni
	LightSpot
)

func (k LightKind) String() string {
	switch k {
	case LightDirectional:
		return "directional"
	case LightOmni:
		return "omni"
	case LightSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// CreateMesh allocates a mesh resource and returns its raw handle. Prefer
// NewOwnedMesh unless the caller manages the release itself.
func (s *Server) CreateMesh() ffi.Rid { return s.t.MeshCreate() }

// CreateTexture2D allocates a 2D texture resource.
func (s *Server) CreateTexture2D() ffi.Rid { return s.t.TextureCreate2D() }

// CreateCanvas allocates a canvas resource.
func (s *Server) CreateCanvas() ffi.Rid { return s.t.CanvasCreate() }

// CreateCanvasItem allocates a canvas item resource.
func (s *Server) CreateCanvasItem() ffi.Rid { return s.t.CanvasItemCreate() }

// CreateShader allocates a shader resource.
func (s *Server) CreateShader() ffi.Rid { return s.t.ShaderCreate() }

// CreateMaterial allocates a material resource.
func (s *Server) CreateMaterial() ffi.Rid { return s.t.MaterialCreate() }

// CreateViewport allocates a viewport resource.
func (s *Server) CreateViewport() ffi.Rid { return s.t.ViewportCreate() }

// CreateSky allocates a sky resource.
func (s *Server) CreateSky() ffi.Rid { return s.t.SkyCreate() }

// CreateLight allocates a light, dispatching on kind to the matching
// create capability.
func (s *Server) CreateLight(kind LightKind) ffi.Rid {
	switch kind {
	case LightOmni:
		return s.t.LightOmniCreate()
	case LightSpot:
		return s.t.LightSpotCreate()
	default:
		return s.t.LightDirectionalCreate()
	}
}

// FreeRid releases any rendering resource.
func (s *Server) FreeRid(r ffi.Rid) { s.t.FreeRid(r) }

// CanvasItemSetParent reparents a canvas item.
func (s *Server) CanvasItemSetParent(item, parent ffi.Rid) {
	s.t.CanvasItemSetParent(item, parent)
}

// LightSetColor sets a light's color.
func (s *Server) LightSetColor(light ffi.Rid, c ffi.Color) {
	s.t.LightSetColor(light, c)
}

// MaterialSetShader binds a shader to a material.
func (s *Server) MaterialSetShader(material, shader ffi.Rid) {
	s.t.MaterialSetShader(material, shader)
}

// ViewportSetSize resizes a viewport.
func (s *Server) ViewportSetSize(viewport ffi.Rid, w, h int32) {
	s.t.ViewportSetSize(viewport, w, h)
}

// MeshAddSurface appends a surface built from a variant array bundle.
func (s *Server) MeshAddSurface(mesh ffi.Rid, primitive int32, arrays ffi.VariantPtr) {
	s.t.MeshAddSurface(mesh, primitive, arrays)
}

// MeshSurfaceCount returns the number of surfaces on a mesh.
func (s *Server) MeshSurfaceCount(mesh ffi.Rid) int32 {
	return s.t.MeshSurfaceCount(mesh)
}
