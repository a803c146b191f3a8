package variant

import (
	"fmt"

	"github.com/kestrel-engine/kestrel-go/errors"
	"github.com/kestrel-engine/kestrel-go/ffi"
)

// Object references an engine object instance by ID. The zero Object is
// the nil reference. Objects are engine-owned; this type never frees on
// its own, Free is explicit.
type Object struct {
	id    ffi.ObjectID
	class string
}

// NewObject instantiates an engine object of the given class.
func NewObject(class string) Object {
	id := ffi.Table().Object.New(class)
	return Object{id: id, class: class}
}

// ID returns the instance ID, zero for the nil reference.
func (o Object) ID() ffi.ObjectID { return o.id }

// Class returns the class name recorded at construction or extraction.
func (o Object) Class() string { return o.class }

// IsNil reports whether this is the nil reference.
func (o Object) IsNil() bool { return o.id == 0 }

// IsAlive asks the engine registry whether the instance still exists.
func (o Object) IsAlive() bool {
	if o.id == 0 {
		return false
	}
	return ffi.Table().Object.IsAlive(o.id)
}

// As checks that the instance is alive and of the wanted class, returning
// a typed error otherwise.
func (o Object) As(class string) (Object, error) {
	if o.id == 0 {
		return Object{}, &errors.Error{
			Phase:  errors.PhaseConvert,
			Kind:   errors.KindNullObject,
			Class:  class,
			Detail: "nil object reference",
		}
	}
	actual, alive := ffi.Table().Object.ClassOf(o.id)
	if !alive {
		return Object{}, errors.DeadObject(uint64(o.id))
	}
	if actual != class {
		return Object{}, errors.WrongClass(class, actual)
	}
	return Object{id: o.id, class: actual}, nil
}

// Free destroys the engine instance. Further use of the reference yields
// DeadObject errors.
func (o Object) Free() {
	if o.id != 0 {
		ffi.Table().Object.Free(o.id)
	}
}

func (o Object) String() string {
	if o.id == 0 {
		return "<null object>"
	}
	return fmt.Sprintf("%s#%d", o.class, uint64(o.id))
}
