package variant

import (
	"fmt"

	"github.com/kestrel-engine/kestrel-go/errors"
	"github.com/kestrel-engine/kestrel-go/ffi"
)

// GString is the engine's plain string type. StringName and NodePath are
// the two interned string kinds; all three carry distinct runtime tags but
// compare equal across kinds under engine equality.
type GString string

// StringName is the engine's interned-name string kind.
type StringName string

// NodePath is the engine's scene-path string kind.
type NodePath string

// Variant holds one value of any engine-supported type. The zero Variant
// is not usable; construct through NewNil, New, or the From helpers. Each
// Variant exclusively owns its engine storage slot until Close.
type Variant struct {
	ptr ffi.VariantPtr
}

// tbl is shorthand for the installed call table.
func tbl() *ffi.CallTable { return ffi.Table() }

// NewNil returns a variant holding nil.
func NewNil() Variant {
	return Variant{ptr: ffi.Table().Variant.NewNil()}
}

// New converts a host value into a variant. Supported argument types are
// the wire types listed on To, plus untyped-friendly aliases (int, int32,
// float32, string). Panics on anything else; values assembled at runtime
// should go through the typed From helpers instead.
func New(x any) Variant {
	t := ffi.Table()
	switch v := x.(type) {
	case nil:
		return Variant{ptr: t.Variant.NewNil()}
	case Variant:
		return v.Clone()
	case bool:
		return Variant{ptr: t.Variant.FromBool(v)}
	case int:
		return Variant{ptr: t.Variant.FromInt(int64(v))}
	case int8:
		return Variant{ptr: t.Variant.FromInt(int64(v))}
	case int16:
		return Variant{ptr: t.Variant.FromInt(int64(v))}
	case int32:
		return Variant{ptr: t.Variant.FromInt(int64(v))}
	case int64:
		return Variant{ptr: t.Variant.FromInt(v)}
	case uint8:
		return Variant{ptr: t.Variant.FromInt(int64(v))}
	case uint16:
		return Variant{ptr: t.Variant.FromInt(int64(v))}
	case uint32:
		return Variant{ptr: t.Variant.FromInt(int64(v))}
	case float32:
		return Variant{ptr: t.Variant.FromFloat(float64(v))}
	case float64:
		return Variant{ptr: t.Variant.FromFloat(v)}
	case string:
		return Variant{ptr: t.Variant.FromString(v)}
	case GString:
		return Variant{ptr: t.Variant.FromString(string(v))}
	case StringName:
		return Variant{ptr: t.Variant.FromStringName(string(v))}
	case NodePath:
		return Variant{ptr: t.Variant.FromNodePath(string(v))}
	case ffi.Color:
		return Variant{ptr: t.Variant.FromColor(v)}
	case ffi.Rid:
		return Variant{ptr: t.Variant.FromRid(v)}
	case Object:
		return Variant{ptr: t.Variant.FromObject(v.id)}
	case Dictionary:
		return v.v.Clone()
	case VarArray:
		return v.v.Clone()
	case Callable:
		return v.v.Clone()
	case []byte:
		return Variant{ptr: t.Variant.FromPackedBytes(v)}
	case []int64:
		return Variant{ptr: t.Variant.FromPackedInts(v)}
	case []float64:
		return Variant{ptr: t.Variant.FromPackedFloats(v)}
	default:
		panic(fmt.Sprintf("variant: unsupported host type %T", x))
	}
}

// borrow wraps an engine pointer without taking ownership of the slot.
// Callers must not Close the result.
func borrow(p ffi.VariantPtr) Variant {
	return Variant{ptr: p}
}

// own wraps an engine pointer, taking ownership of the slot.
func own(p ffi.VariantPtr) Variant {
	return Variant{ptr: p}
}

// Ptr exposes the raw engine slot pointer for call-table interop.
func (v Variant) Ptr() ffi.VariantPtr { return v.ptr }

// Clone allocates a new slot via the engine's copy constructor. Cheap for
// reference-counted payloads; the engine decides.
func (v Variant) Clone() Variant {
	if v.ptr == 0 {
		return NewNil()
	}
	return Variant{ptr: ffi.Table().Variant.NewCopy(v.ptr)}
}

// Close releases the underlying slot. Safe to call more than once; a
// closed or zero Variant is a no-op.
func (v *Variant) Close() {
	if v.ptr == 0 {
		return
	}
	ffi.Table().Variant.Destroy(v.ptr)
	v.ptr = 0
}

// Type returns the runtime tag currently held.
func (v Variant) Type() ffi.TypeTag {
	if v.ptr == 0 {
		return ffi.TagNil
	}
	return ffi.Table().Variant.GetType(v.ptr)
}

// IsNil reports whether the variant holds nil.
func (v Variant) IsNil() bool { return v.Type() == ffi.TagNil }

// String renders the value through the engine's stringifier.
func (v Variant) String() string {
	if v.ptr == 0 {
		return "<null>"
	}
	return ffi.Table().Variant.Stringify(v.ptr)
}

// Hash returns the engine's hash of the held value.
func (v Variant) Hash() uint32 {
	if v.ptr == 0 {
		return 0
	}
	return ffi.Table().Variant.Hash(v.ptr)
}

// Booleanize applies the engine's truthiness rules (nil, zero, empty
// containers are false).
func (v Variant) Booleanize() bool {
	if v.ptr == 0 {
		return false
	}
	return ffi.Table().Variant.Booleanize(v.ptr)
}

// Evaluate applies a binary operator to (v, other) through the engine.
// ok is false when the operator is not defined for the operand types.
func (v Variant) Evaluate(op ffi.Operator, other Variant) (Variant, bool) {
	r, valid := ffi.Table().Variant.Evaluate(op, v.ptr, other.ptr)
	if !valid {
		return Variant{}, false
	}
	return own(r), true
}

// Equal reports engine-level equality. An undefined EQUAL operator between
// the two held types means not equal, never an error.
func (v Variant) Equal(other Variant) bool {
	r, ok := v.Evaluate(ffi.OpEqual, other)
	if !ok {
		return false
	}
	defer r.Close()
	return r.Booleanize()
}

// Compare orders v against other: -1, 0 or +1. ordered is false when the
// engine defines no ordering between the held types.
func (v Variant) Compare(other Variant) (cmp int, ordered bool) {
	less, ok := v.Evaluate(ffi.OpLess, other)
	if !ok {
		return 0, false
	}
	defer less.Close()
	if less.Booleanize() {
		return -1, true
	}
	greater, ok := v.Evaluate(ffi.OpGreater, other)
	if !ok {
		return 0, false
	}
	defer greater.Close()
	if greater.Booleanize() {
		return 1, true
	}
	return 0, true
}

// TryCall dispatches a method by name on the held value. Container methods
// without dedicated table capabilities go through here.
func (v Variant) TryCall(method string, args ...Variant) (Variant, error) {
	ptrs := make([]ffi.VariantPtr, len(args))
	tags := make([]ffi.TypeTag, len(args))
	for i, a := range args {
		ptrs[i] = a.ptr
		tags[i] = a.Type()
	}
	r, cerr := ffi.Table().Variant.Call(v.ptr, method, ptrs)
	if !cerr.OK() {
		return Variant{}, errors.CallFailed(callKind(cerr.Code), method, cerr.Describe(method, tags))
	}
	return own(r), nil
}

// Call is the panicking counterpart of TryCall, for call sites that have
// already established the method exists.
func (v Variant) Call(method string, args ...Variant) Variant {
	r, err := v.TryCall(method, args...)
	if err != nil {
		panic(err.Error())
	}
	return r
}

func callKind(code ffi.CallErrorCode) errors.Kind {
	switch code {
	case ffi.CallInvalidMethod:
		return errors.KindInvalidMethod
	case ffi.CallInvalidArgument:
		return errors.KindInvalidArgument
	case ffi.CallTooManyArguments:
		return errors.KindTooManyArgs
	case ffi.CallTooFewArguments:
		return errors.KindTooFewArgs
	case ffi.CallInstanceIsNull:
		return errors.KindNullInstance
	case ffi.CallMethodNotConst:
		return errors.KindConstViolation
	default:
		return errors.KindCustom
	}
}
