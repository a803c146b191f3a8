package ffi

import (
	"sync"
)

// ConvertFunc constructs a new variant of a fixed destination type from an
// arbitrary source variant, applying the engine's conversion rules.
type ConvertFunc func(VariantPtr) VariantPtr

// HostFunc is a host-side function invokable by the engine through a
// callable. Arguments and result are engine-owned variant slots; the host
// must not retain the argument pointers beyond the call.
type HostFunc func(args []VariantPtr) VariantPtr

// VariantTable groups the variant lifecycle and access capabilities.
type VariantTable struct {
	NewNil     func() VariantPtr
	NewCopy    func(v VariantPtr) VariantPtr
	Destroy    func(v VariantPtr)
	GetType    func(v VariantPtr) TypeTag
	Stringify  func(v VariantPtr) string
	Hash       func(v VariantPtr) uint32
	Booleanize func(v VariantPtr) bool

	// Evaluate applies op to (a, b). valid is false when the operator is
	// not defined for the operand types; result is then the null pointer.
	Evaluate func(op Operator, a, b VariantPtr) (result VariantPtr, valid bool)

	// Call dispatches a method by name on the variant. Container methods
	// without dedicated capabilities (merge, duplicate, keys, reserve, ...)
	// are all reached through here.
	Call func(self VariantPtr, method string, args []VariantPtr) (VariantPtr, CallError)

	// GetKeyed returns the value for key, or (0, false) if the variant type
	// does not support keyed access or the key is absent.
	GetKeyed func(self, key VariantPtr) (VariantPtr, bool)

	// SetKeyed upserts key to value. Returns false when the operation is
	// rejected, e.g. on a read-only container.
	SetKeyed func(self, key, value VariantPtr) bool

	// Constructors and extractors for the primitive wire types. Extractors
	// must only be called when the slot holds the matching tag.
	FromBool         func(bool) VariantPtr
	ToBool           func(VariantPtr) bool
	FromInt          func(int64) VariantPtr
	ToInt            func(VariantPtr) int64
	FromFloat        func(float64) VariantPtr
	ToFloat          func(VariantPtr) float64
	FromString       func(string) VariantPtr
	ToString         func(VariantPtr) string
	FromStringName   func(string) VariantPtr
	FromNodePath     func(string) VariantPtr
	FromColor        func(Color) VariantPtr
	ToColor          func(VariantPtr) Color
	FromRid          func(Rid) VariantPtr
	ToRid            func(VariantPtr) Rid
	FromObject       func(ObjectID) VariantPtr
	ToObject         func(VariantPtr) ObjectID
	FromPackedBytes  func([]byte) VariantPtr
	ToPackedBytes    func(VariantPtr) []byte
	FromPackedInts   func([]int64) VariantPtr
	ToPackedInts     func(VariantPtr) []int64
	FromPackedFloats func([]float64) VariantPtr
	ToPackedFloats   func(VariantPtr) []float64

	// NewDictionary and NewArray construct empty containers.
	NewDictionary func() VariantPtr
	NewArray      func() VariantPtr

	// DictGetOrAdd is the native get-or-add capability. Nil on engine
	// versions that predate it; callers must fall back to a two-step
	// polyfill in that case.
	DictGetOrAdd func(dict, key, def VariantPtr) VariantPtr
}

// ConvertTable groups the type-conversion capabilities.
type ConvertTable struct {
	// CanConvertStrict is the engine's conversion predicate. "Strict" is
	// the engine's term; the relation is still fairly permissive.
	CanConvertStrict func(from, to TypeTag) bool

	// ToTypeConstructor returns the from-variant constructor for the given
	// destination type, or nil if none exists. The lookup itself is an
	// engine call; callers cache the result per destination tag.
	ToTypeConstructor func(to TypeTag) ConvertFunc
}

// IterTable is the foreign cursor protocol over keyed containers. Both
// calls distinguish "end of sequence" (hasNext=false, valid=true) from
// "error" (valid=false).
type IterTable struct {
	Init func(container VariantPtr) (cursor VariantPtr, valid, hasNext bool)
	Next func(container, prev VariantPtr) (cursor VariantPtr, valid, hasNext bool)
}

// CallableTable registers and invokes host functions as engine callables.
type CallableTable struct {
	Create func(name string, fn HostFunc) VariantPtr
	Invoke func(callable VariantPtr, args []VariantPtr) VariantPtr
}

// ObjectTable queries the engine object registry.
type ObjectTable struct {
	New     func(class string) ObjectID
	ClassOf func(ObjectID) (string, bool)
	IsAlive func(ObjectID) bool
	Free    func(ObjectID)
}

// RenderingTable is the rendering server's resource lifecycle surface.
// The server is a process-wide singleton; all Rids it issues are released
// through FreeRid.
type RenderingTable struct {
	MeshCreate       func() Rid
	TextureCreate2D  func() Rid
	CanvasCreate     func() Rid
	CanvasItemCreate func() Rid
	ShaderCreate     func() Rid
	MaterialCreate   func() Rid
	ViewportCreate   func() Rid
	SkyCreate        func() Rid

	// Light creation dispatches per kind to distinct capabilities.
	LightDirectionalCreate func() Rid
	LightOmniCreate        func() Rid
	LightSpotCreate        func() Rid

	FreeRid func(Rid)

	CanvasItemSetParent func(item, parent Rid)
	LightSetColor       func(light Rid, color Color)
	MaterialSetShader   func(material, shader Rid)
	ViewportSetSize     func(viewport Rid, width, height int32)
	MeshAddSurface      func(mesh Rid, primitive int32, arrays VariantPtr)
	MeshSurfaceCount    func(mesh Rid) int32
}

// PhysicsTable is the physics server's resource lifecycle surface.
type PhysicsTable struct {
	SpaceCreate func() Rid
	AreaCreate  func() Rid
	BodyCreate  func() Rid
	JointCreate func() Rid

	ShapeBoxCreate     func() Rid
	ShapeSphereCreate  func() Rid
	ShapeCapsuleCreate func() Rid

	FreeRid func(Rid)

	BodySetSpace func(body, space Rid)
	BodyAddShape func(body, shape Rid)
	AreaSetSpace func(area, space Rid)
}

// DeviceTable is the rendering-device surface. Devices are instance-scoped:
// every call names the device connection, and a Rid must be freed through
// the device that issued it.
type DeviceTable struct {
	CreateDevice  func() DeviceID
	DestroyDevice func(DeviceID)

	BufferCreate  func(dev DeviceID, sizeBytes uint32) Rid
	SamplerCreate func(dev DeviceID) Rid
	FreeRid       func(dev DeviceID, rid Rid)

	BufferUpdate  func(dev DeviceID, buffer Rid, offset uint32, data []byte)
	BufferGetData func(dev DeviceID, buffer Rid) []byte
}

// CallTable is the complete set of engine capabilities. It is static for
// the lifetime of the engine once loaded.
type CallTable struct {
	Variant   VariantTable
	Convert   ConvertTable
	Iter      IterTable
	Callable  CallableTable
	Object    ObjectTable
	Rendering RenderingTable
	Physics   PhysicsTable
	Device    DeviceTable
}

var (
	tableMu sync.RWMutex
	table   *CallTable
)

// Load installs the engine call table. It is called exactly once during
// engine initialization in production; the reference engine used by tests
// may install a fresh table per fixture, which resets dependent caches.
func Load(t *CallTable) {
	tableMu.Lock()
	table = t
	tableMu.Unlock()
}

// Loaded reports whether a call table has been installed.
func Loaded() bool {
	tableMu.RLock()
	defer tableMu.RUnlock()
	return table != nil
}

// Table returns the installed call table.
//
// Panics if no engine has been loaded; there is nothing sensible a binding
// can do without one.
func Table() *CallTable {
	tableMu.RLock()
	t := table
	tableMu.RUnlock()
	if t == nil {
		panic("ffi: engine call table not loaded; call ffi.Load first")
	}
	return t
}
