package physics

import (
	"github.com/kestrel-engine/kestrel-go/ffi"
	"github.com/kestrel-engine/kestrel-go/resource"
)

// Owned wrappers for singleton-owned physics resources.

// OwnedSpace owns one simulation space.
type OwnedSpace struct {
	resource.Owned
}

// NewOwnedSpace creates a space and takes ownership of its handle.
func NewOwnedSpace() *OwnedSpace {
	s := Singleton()
	return &OwnedSpace{Owned: resource.NewOwned(s.CreateSpace(), s.FreeRid)}
}

// OwnedArea owns one area.
type OwnedArea struct {
	resource.Owned
}

// NewOwnedArea creates an area and takes ownership of its handle.
func NewOwnedArea() *OwnedArea {
	s := Singleton()
	return &OwnedArea{Owned: resource.NewOwned(s.CreateArea(), s.FreeRid)}
}

// SetSpace assigns the owned area to a space.
func (a *OwnedArea) SetSpace(space ffi.Rid) {
	Singleton().AreaSetSpace(a.Rid(), space)
}

// OwnedBody owns one rigid body.
type OwnedBody struct {
	resource.Owned
}

// NewOwnedBody creates a body and takes ownership of its handle.
func NewOwnedBody() *OwnedBody {
	s := Singleton()
	return &OwnedBody{Owned: resource.NewOwned(s.CreateBody(), s.FreeRid)}
}

// SetSpace assigns the owned body to a space.
func (b *OwnedBody) SetSpace(space ffi.Rid) {
	Singleton().BodySetSpace(b.Rid(), space)
}

// AddShape attaches a shape to the owned body.
func (b *OwnedBody) AddShape(shape ffi.Rid) {
	Singleton().BodyAddShape(b.Rid(), shape)
}

// OwnedJoint owns one joint.
type OwnedJoint struct {
	resource.Owned
}

// NewOwnedJoint creates a joint and takes ownership of its handle.
func NewOwnedJoint() *OwnedJoint {
	s := Singleton()
	return &OwnedJoint{Owned: resource.NewOwned(s.CreateJoint(), s.FreeRid)}
}

// OwnedShape owns one collision shape of any kind.
type OwnedShape struct {
	resource.Owned
	kind ShapeKind
}

// NewOwnedShape creates a shape of the given kind and takes ownership of
// its handle.
func NewOwnedShape(kind ShapeKind) *OwnedShape {
	s := Singleton()
	return &OwnedShape{
		Owned: resource.NewOwned(s.CreateShape(kind), s.FreeRid),
		kind:  kind,
	}
}

// Kind returns the shape kind chosen at creation.
func (s *OwnedShape) Kind() ShapeKind { return s.kind }
