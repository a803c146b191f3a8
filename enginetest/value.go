package enginetest

import (
	"fmt"
	"hash/fnv"
	"math"
	"slices"
	"strings"

	"github.com/kestrel-engine/kestrel-go/ffi"
)

// value is the engine-side representation of one variant payload. The tag
// selects which field is meaningful. Containers are held by pointer, which
// is what gives dictionary and array handles their shared-reference
// semantics: copying a value copies the pointer, not the data.
type value struct {
	tag ffi.TypeTag

	b      bool
	i      int64
	f      float64
	s      string
	col    ffi.Color
	rid    ffi.Rid
	obj    ffi.ObjectID
	fn     uint64
	dict   *dict
	arr    *array
	bytes  []byte
	ints   []int64
	floats []float64
}

func nilValue() value { return value{} }
func boolValue(b bool) value { return value{tag: ffi.TagBool, b: b} }
func intValue(i int64) value { return value{tag: ffi.TagInt, i: i} }
func floatValue(f float64) value { return value{tag: ffi.TagFloat, f: f} }
func colorValue(c ffi.Color) value { return value{tag: ffi.TagColor, col: c} }
func ridValue(r ffi.Rid) value { return value{tag: ffi.TagRid, rid: r} }
func objectValue(id ffi.ObjectID) value { return value{tag: ffi.TagObject, obj: id} }

func stringValue(tag ffi.TypeTag, s string) value { return value{tag: tag, s: s} }

// copyValue implements the engine's copy constructor. Containers share
// their backing data; packed buffers are value types and copy.
func copyValue(v value) value {
	switch v.tag {
	case ffi.TagPackedByteArray:
		v.bytes = slices.Clone(v.bytes)
	case ffi.TagPackedInt64Array:
		v.ints = slices.Clone(v.ints)
	case ffi.TagPackedFloat64Array:
		v.floats = slices.Clone(v.floats)
	}
	return v
}

func isNumericTag(t ffi.TypeTag) bool {
	return t == ffi.TagBool || t == ffi.TagInt || t == ffi.TagFloat
}

func isStringTag(t ffi.TypeTag) bool {
	return t == ffi.TagString || t == ffi.TagStringName || t == ffi.TagNodePath
}

func isPackedTag(t ffi.TypeTag) bool {
	return t == ffi.TagPackedByteArray || t == ffi.TagPackedInt64Array ||
		t == ffi.TagPackedFloat64Array
}

func (v value) asFloat() float64 {
	switch v.tag {
	case ffi.TagBool:
		if v.b {
			return 1
		}
		return 0
	case ffi.TagInt:
		return float64(v.i)
	case ffi.TagFloat:
		return v.f
	}
	return 0
}

func (v value) asInt() int64 {
	switch v.tag {
	case ffi.TagBool:
		if v.b {
			return 1
		}
		return 0
	case ffi.TagInt:
		return v.i
	case ffi.TagFloat:
		return int64(v.f)
	}
	return 0
}

func (v value) truthy() bool {
	switch v.tag {
	case ffi.TagNil:
		return false
	case ffi.TagBool:
		return v.b
	case ffi.TagInt:
		return v.i != 0
	case ffi.TagFloat:
		return v.f != 0
	case ffi.TagString, ffi.TagStringName, ffi.TagNodePath:
		return v.s != ""
	case ffi.TagObject:
		return v.obj != 0
	case ffi.TagRid:
		return v.rid != 0
	case ffi.TagDictionary:
		return v.dict != nil && len(v.dict.entries) > 0
	case ffi.TagArray:
		return v.arr != nil && len(v.arr.items) > 0
	case ffi.TagPackedByteArray:
		return len(v.bytes) > 0
	case ffi.TagPackedInt64Array:
		return len(v.ints) > 0
	case ffi.TagPackedFloat64Array:
		return len(v.floats) > 0
	}
	return true
}

// valueEqual is the engine's EQUAL operator where it is defined. The
// second result is false when the operand types have no equality
// relation; the binding maps that to "not equal" rather than an error.
func valueEqual(a, b value) (eq, defined bool) {
	switch {
	case a.tag == ffi.TagNil && b.tag == ffi.TagNil:
		return true, true
	case a.tag == ffi.TagBool && b.tag == ffi.TagBool:
		return a.b == b.b, true
	case (a.tag == ffi.TagInt || a.tag == ffi.TagFloat) &&
		(b.tag == ffi.TagInt || b.tag == ffi.TagFloat):
		// Numeric promotion: 1 == 1.0.
		return a.asFloat() == b.asFloat(), true
	case isStringTag(a.tag) && isStringTag(b.tag):
		// The three string kinds compare equal across kinds.
		return a.s == b.s, true
	case a.tag == ffi.TagColor && b.tag == ffi.TagColor:
		return a.col == b.col, true
	case a.tag == ffi.TagRid && b.tag == ffi.TagRid:
		return a.rid == b.rid, true
	case a.tag == ffi.TagObject && b.tag == ffi.TagObject:
		return a.obj == b.obj, true
	case a.tag == ffi.TagCallable && b.tag == ffi.TagCallable:
		return a.fn == b.fn, true
	case a.tag == ffi.TagDictionary && b.tag == ffi.TagDictionary:
		return a.dict == b.dict, true
	case a.tag == ffi.TagArray && b.tag == ffi.TagArray:
		return a.arr == b.arr, true
	case a.tag == ffi.TagPackedByteArray && b.tag == ffi.TagPackedByteArray:
		return slices.Equal(a.bytes, b.bytes), true
	case a.tag == ffi.TagPackedInt64Array && b.tag == ffi.TagPackedInt64Array:
		return slices.Equal(a.ints, b.ints), true
	case a.tag == ffi.TagPackedFloat64Array && b.tag == ffi.TagPackedFloat64Array:
		return slices.Equal(a.floats, b.floats), true
	}
	return false, false
}

// evaluate implements the operator table. ok is false when the operator
// is undefined for the operand types.
func evaluate(op ffi.Operator, a, b value) (value, bool) {
	switch op {
	case ffi.OpEqual:
		eq, defined := valueEqual(a, b)
		if !defined {
			return value{}, false
		}
		return boolValue(eq), true
	case ffi.OpNotEqual:
		eq, defined := valueEqual(a, b)
		if !defined {
			return value{}, false
		}
		return boolValue(!eq), true
	case ffi.OpLess, ffi.OpLessEqual, ffi.OpGreater, ffi.OpGreaterEqual:
		return evaluateOrder(op, a, b)
	case ffi.OpAdd:
		if isStringTag(a.tag) && isStringTag(b.tag) {
			return stringValue(ffi.TagString, a.s+b.s), true
		}
		return evaluateArith(op, a, b)
	case ffi.OpSubtract, ffi.OpMultiply, ffi.OpDivide:
		return evaluateArith(op, a, b)
	case ffi.OpModulo:
		if a.tag == ffi.TagInt && b.tag == ffi.TagInt && b.i != 0 {
			return intValue(a.i % b.i), true
		}
		return value{}, false
	case ffi.OpNegate:
		switch a.tag {
		case ffi.TagInt:
			return intValue(-a.i), true
		case ffi.TagFloat:
			return floatValue(-a.f), true
		}
		return value{}, false
	case ffi.OpNot:
		return boolValue(!a.truthy()), true
	}
	return value{}, false
}

func evaluateOrder(op ffi.Operator, a, b value) (value, bool) {
	var less, eq bool
	switch {
	case (a.tag == ffi.TagInt || a.tag == ffi.TagFloat) &&
		(b.tag == ffi.TagInt || b.tag == ffi.TagFloat):
		af, bf := a.asFloat(), b.asFloat()
		less, eq = af < bf, af == bf
	case isStringTag(a.tag) && isStringTag(b.tag):
		less, eq = a.s < b.s, a.s == b.s
	default:
		return value{}, false
	}
	switch op {
	case ffi.OpLess:
		return boolValue(less), true
	case ffi.OpLessEqual:
		return boolValue(less || eq), true
	case ffi.OpGreater:
		return boolValue(!less && !eq), true
	default:
		return boolValue(!less), true
	}
}

func evaluateArith(op ffi.Operator, a, b value) (value, bool) {
	if a.tag != ffi.TagInt && a.tag != ffi.TagFloat {
		return value{}, false
	}
	if b.tag != ffi.TagInt && b.tag != ffi.TagFloat {
		return value{}, false
	}
	if a.tag == ffi.TagInt && b.tag == ffi.TagInt {
		switch op {
		case ffi.OpAdd:
			return intValue(a.i + b.i), true
		case ffi.OpSubtract:
			return intValue(a.i - b.i), true
		case ffi.OpMultiply:
			return intValue(a.i * b.i), true
		default:
			if b.i == 0 {
				return value{}, false
			}
			return intValue(a.i / b.i), true
		}
	}
	af, bf := a.asFloat(), b.asFloat()
	switch op {
	case ffi.OpAdd:
		return floatValue(af + bf), true
	case ffi.OpSubtract:
		return floatValue(af - bf), true
	case ffi.OpMultiply:
		return floatValue(af * bf), true
	default:
		return floatValue(af / bf), true
	}
}

// canConvertStrict is the engine's conversion predicate. Note it claims
// everything converts to Nil (the destructor conversion); the binding is
// expected to refuse that target on its own.
func canConvertStrict(from, to ffi.TypeTag) bool {
	if from == to || to == ffi.TagNil {
		return true
	}
	switch {
	case isNumericTag(from) && isNumericTag(to):
		return true
	case from == ffi.TagInt && to == ffi.TagColor:
		return true
	case isStringTag(from) && isStringTag(to):
		return true
	case from == ffi.TagString && to == ffi.TagColor:
		return true
	case from == ffi.TagArray && isPackedTag(to):
		return true
	case isPackedTag(from) && to == ffi.TagArray:
		return true
	case from == ffi.TagObject && to == ffi.TagRid:
		return true
	case from == ffi.TagNil && to == ffi.TagObject:
		return true
	}
	return false
}

var namedColors = map[string]ffi.Color{
	"black": {A: 1},
	"white": {R: 1, G: 1, B: 1, A: 1},
	"red":   {R: 1, A: 1},
	"green": {G: 1, A: 1},
	"blue":  {B: 1, A: 1},
}

// convert builds a value of the destination tag from src, assuming the
// predicate already approved the edge.
func convert(to ffi.TypeTag, src value) value {
	if src.tag == to {
		return copyValue(src)
	}
	switch to {
	case ffi.TagBool:
		return boolValue(src.truthy())
	case ffi.TagInt:
		return intValue(src.asInt())
	case ffi.TagFloat:
		return floatValue(src.asFloat())
	case ffi.TagString, ffi.TagStringName, ffi.TagNodePath:
		if isStringTag(src.tag) {
			return stringValue(to, src.s)
		}
	case ffi.TagColor:
		if src.tag == ffi.TagInt {
			// 0xRRGGBBAA, the engine's packed color encoding.
			u := uint32(src.i)
			return colorValue(ffi.Color{
				R: float32(u>>24&0xff) / 255,
				G: float32(u>>16&0xff) / 255,
				B: float32(u>>8&0xff) / 255,
				A: float32(u&0xff) / 255,
			})
		}
		if src.tag == ffi.TagString {
			return colorValue(namedColors[strings.ToLower(src.s)])
		}
	case ffi.TagRid:
		if src.tag == ffi.TagObject {
			return ridValue(ffi.Rid(src.obj))
		}
	case ffi.TagObject:
		if src.tag == ffi.TagNil {
			return objectValue(0)
		}
	case ffi.TagPackedByteArray:
		if src.tag == ffi.TagArray && src.arr != nil {
			out := make([]byte, len(src.arr.items))
			for i, it := range src.arr.items {
				out[i] = byte(it.asInt())
			}
			return value{tag: to, bytes: out}
		}
	case ffi.TagPackedInt64Array:
		if src.tag == ffi.TagArray && src.arr != nil {
			out := make([]int64, len(src.arr.items))
			for i, it := range src.arr.items {
				out[i] = it.asInt()
			}
			return value{tag: to, ints: out}
		}
	case ffi.TagPackedFloat64Array:
		if src.tag == ffi.TagArray && src.arr != nil {
			out := make([]float64, len(src.arr.items))
			for i, it := range src.arr.items {
				out[i] = it.asFloat()
			}
			return value{tag: to, floats: out}
		}
	case ffi.TagArray:
		if isPackedTag(src.tag) {
			a := &array{}
			switch src.tag {
			case ffi.TagPackedByteArray:
				for _, x := range src.bytes {
					a.items = append(a.items, intValue(int64(x)))
				}
			case ffi.TagPackedInt64Array:
				for _, x := range src.ints {
					a.items = append(a.items, intValue(x))
				}
			default:
				for _, x := range src.floats {
					a.items = append(a.items, floatValue(x))
				}
			}
			return value{tag: to, arr: a}
		}
	}
	return nilValue()
}

func (v value) stringify() string {
	switch v.tag {
	case ffi.TagNil:
		return "<null>"
	case ffi.TagBool:
		if v.b {
			return "true"
		}
		return "false"
	case ffi.TagInt:
		return fmt.Sprintf("%d", v.i)
	case ffi.TagFloat:
		if v.f == math.Trunc(v.f) {
			return fmt.Sprintf("%.1f", v.f)
		}
		return fmt.Sprintf("%g", v.f)
	case ffi.TagString, ffi.TagStringName, ffi.TagNodePath:
		return v.s
	case ffi.TagColor:
		return v.col.String()
	case ffi.TagRid:
		return v.rid.String()
	case ffi.TagObject:
		if v.obj == 0 {
			return "<null object>"
		}
		return fmt.Sprintf("<object#%d>", uint64(v.obj))
	case ffi.TagCallable:
		return fmt.Sprintf("<callable#%d>", v.fn)
	case ffi.TagDictionary:
		if v.dict == nil {
			return "{ }"
		}
		var b strings.Builder
		b.WriteString("{ ")
		for i, e := range v.dict.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.key.stringify())
			b.WriteString(": ")
			b.WriteString(e.val.stringify())
		}
		b.WriteString(" }")
		return b.String()
	case ffi.TagArray:
		if v.arr == nil {
			return "[]"
		}
		var b strings.Builder
		b.WriteByte('[')
		for i, it := range v.arr.items {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(it.stringify())
		}
		b.WriteByte(']')
		return b.String()
	case ffi.TagPackedByteArray:
		return fmt.Sprintf("%v", v.bytes)
	case ffi.TagPackedInt64Array:
		return fmt.Sprintf("%v", v.ints)
	case ffi.TagPackedFloat64Array:
		return fmt.Sprintf("%v", v.floats)
	}
	return "<unknown>"
}

func (v value) hash() uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d:%s", uint32(v.tag), v.stringify())
	return h.Sum32()
}
