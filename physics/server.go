// Package physics binds the physics server, a process-wide singleton.
package physics

import (
	"github.com/kestrel-engine/kestrel-go/ffi"
)

// Server is the physics server binding.
type Server struct {
	t *ffi.PhysicsTable
}

// Singleton returns the process-wide physics server.
func Singleton() *Server {
	return &Server{t: &ffi.Table().Physics}
}

// ShapeKind selects which create capability a collision shape goes
// through.
type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeCapsule
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeCapsule:
		return "capsule"
	default:
		return "unknown"
	}
}

// CreateSpace allocates a simulation space.
func (s *Server) CreateSpace() ffi.Rid { return s.t.SpaceCreate() }

// CreateArea allocates an area.
func (s *Server) CreateArea() ffi.Rid { return s.t.AreaCreate() }

// CreateBody allocates a rigid body.
func (s *Server) CreateBody() ffi.Rid { return s.t.BodyCreate() }

// CreateJoint allocates a joint.
func (s *Server) CreateJoint() ffi.Rid { return s.t.JointCreate() }

// CreateShape allocates a collision shape, dispatching on kind.
func (s *Server) CreateShape(kind ShapeKind) ffi.Rid {
	switch kind {
	case ShapeSphere:
		return s.t.ShapeSphereCreate()
	case ShapeCapsule:
		return s.t.ShapeCapsuleCreate()
	default:
		return s.t.ShapeBoxCreate()
	}
}

// FreeRid releases any physics resource.
func (s *Server) FreeRid(r ffi.Rid) { s.t.FreeRid(r) }

// BodySetSpace assigns a body to a space.
func (s *Server) BodySetSpace(body, space ffi.Rid) {
	s.t.BodySetSpace(body, space)
}

// BodyAddShape attaches a shape to a body.
func (s *Server) BodyAddShape(body, shape ffi.Rid) {
	s.t.BodyAddShape(body, shape)
}

// AreaSetSpace assigns an area to a space.
func (s *Server) AreaSetSpace(area, space ffi.Rid) {
	s.t.AreaSetSpace(area, space)
}
