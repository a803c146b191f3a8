package ffi

import "fmt"

// VariantPtr is an opaque reference to a variant storage slot owned by the
// engine. Slot 0 is the null pointer and never refers to a live slot; note
// that a live slot may well hold the nil variant.
type VariantPtr uint64

// TypeTag identifies the runtime type currently held by a variant slot.
type TypeTag uint32

const (
	TagNil TypeTag = iota
	TagBool
	TagInt
	TagFloat
	TagString
	TagStringName
	TagNodePath
	TagColor
	TagRid
	TagObject
	TagCallable
	TagDictionary
	TagArray
	TagPackedByteArray
	TagPackedInt64Array
	TagPackedFloat64Array

	// MaxTypeTag bounds the tag space; used to size lookup caches.
	MaxTypeTag
)

var tagNames = [MaxTypeTag]string{
	TagNil:                "Nil",
	TagBool:               "Bool",
	TagInt:                "Int",
	TagFloat:              "Float",
	TagString:             "String",
	TagStringName:         "StringName",
	TagNodePath:           "NodePath",
	TagColor:              "Color",
	TagRid:                "Rid",
	TagObject:             "Object",
	TagCallable:           "Callable",
	TagDictionary:         "Dictionary",
	TagArray:              "Array",
	TagPackedByteArray:    "PackedByteArray",
	TagPackedInt64Array:   "PackedInt64Array",
	TagPackedFloat64Array: "PackedFloat64Array",
}

func (t TypeTag) String() string {
	if t < MaxTypeTag {
		return tagNames[t]
	}
	return fmt.Sprintf("TypeTag(%d)", uint32(t))
}

// Operator selects a binary (or unary, with an ignored right operand)
// operation for CallTable.Variant.Evaluate.
type Operator uint32

const (
	OpEqual Operator = iota
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpNegate
	OpNot
)

var opNames = [...]string{
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpAdd:          "+",
	OpSubtract:     "-",
	OpMultiply:     "*",
	OpDivide:       "/",
	OpModulo:       "%",
	OpNegate:       "neg",
	OpNot:          "!",
}

func (o Operator) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Operator(%d)", uint32(o))
}

// Rid is an opaque capability token issued by an engine service. The engine
// encodes a server index in the upper 32 bits and a local index in the lower
// 32 bits. A zero Rid is invalid and is never issued for a live resource.
type Rid uint64

// NewRid assembles a Rid from its server and local indices.
func NewRid(server, local uint32) Rid {
	return Rid(uint64(server)<<32 | uint64(local))
}

// IsValid reports whether the Rid could refer to a live resource. The
// engine owns the actual liveness check; this only rules out the zero token.
func (r Rid) IsValid() bool { return r != 0 }

// ServerIndex returns the upper half of the token.
func (r Rid) ServerIndex() uint32 { return uint32(r >> 32) }

// LocalIndex returns the lower half of the token.
func (r Rid) LocalIndex() uint32 { return uint32(r) }

func (r Rid) String() string {
	if !r.IsValid() {
		return "Rid(invalid)"
	}
	return fmt.Sprintf("Rid(%d:%d)", r.ServerIndex(), r.LocalIndex())
}

// ObjectID identifies an engine object instance. Zero is never a valid ID.
type ObjectID uint64

func (id ObjectID) IsValid() bool { return id != 0 }

// DeviceID identifies one connection to an instance-scoped service (a
// rendering device). Unlike the singleton servers, several devices may
// exist at once, and resources must be released through the device that
// issued them.
type DeviceID uint64

func (id DeviceID) IsValid() bool { return id != 0 }

// Color is the engine's RGBA color wire type.
type Color struct {
	R, G, B, A float32
}

func (c Color) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", c.R, c.G, c.B, c.A)
}
