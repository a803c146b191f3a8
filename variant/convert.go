package variant

import (
	"fmt"
	"math"
	"sync"

	"github.com/kestrel-engine/kestrel-go/errors"
	"github.com/kestrel-engine/kestrel-go/ffi"
)

// To converts the variant to T, panicking unless the held runtime tag
// exactly matches T's wire type. Supported host types: bool, the signed
// and unsigned integer sizes up to int64 (all riding the Int wire type),
// float32/float64, string/GString, StringName, NodePath, ffi.Color,
// ffi.Rid, Object, Callable, Dictionary, VarArray, []byte, []int64,
// []float64, and Variant itself.
func To[T any](v Variant) T {
	x, err := TryTo[T](v)
	if err != nil {
		panic(err.Error())
	}
	return x
}

// TryTo is the non-panicking strict conversion. The held tag must exactly
// match T's wire type; narrower integer targets additionally require the
// value to fit.
func TryTo[T any](v Variant) (T, error) {
	var zero T
	if _, identity := any(zero).(Variant); identity {
		c := v.Clone()
		return any(c).(T), nil
	}
	want := wireTag[T]()
	got := v.Type()
	if got != want {
		return zero, errors.BadType(want.String(), got.String())
	}
	return extract[T](v.ptr)
}

// TryToRelaxed converts following the engine's lenient coercion graph
// (bool/int/float chains, string-kind interchangeability, array to packed,
// object to Rid, nil to a nil Object). The graph is owned by the engine;
// this side only asks its conversion predicate and invokes the matching
// from-variant constructor.
func TryToRelaxed[T any](v Variant) (T, error) {
	var zero T
	if _, identity := any(zero).(Variant); identity {
		c := v.Clone()
		return any(c).(T), nil
	}
	want := wireTag[T]()
	got := v.Type()
	if got == want {
		// Same wire type: the strict path gives the identical result
		// without a conversion round-trip.
		return TryTo[T](v)
	}
	// Nil is never a conversion target, whatever the engine predicate
	// claims for it.
	if want == ffi.TagNil {
		return zero, errors.BadType(want.String(), got.String())
	}
	tab := ffi.Table()
	if !tab.Convert.CanConvertStrict(got, want) {
		return zero, errors.BadType(want.String(), got.String())
	}
	conv := converterFor(tab, want)
	if conv == nil {
		return zero, errors.BadType(want.String(), got.String())
	}
	tmp := own(conv(v.ptr))
	defer tmp.Close()
	return extract[T](tmp.ptr)
}

// wireTag maps T to the runtime tag its wire representation carries.
// Panics for unsupported types; that is a programming error, not input.
func wireTag[T any]() ffi.TypeTag {
	var zero T
	switch any(zero).(type) {
	case bool:
		return ffi.TagBool
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return ffi.TagInt
	case float32, float64:
		return ffi.TagFloat
	case string, GString:
		return ffi.TagString
	case StringName:
		return ffi.TagStringName
	case NodePath:
		return ffi.TagNodePath
	case ffi.Color:
		return ffi.TagColor
	case ffi.Rid:
		return ffi.TagRid
	case Object:
		return ffi.TagObject
	case Callable:
		return ffi.TagCallable
	case Dictionary:
		return ffi.TagDictionary
	case VarArray:
		return ffi.TagArray
	case []byte:
		return ffi.TagPackedByteArray
	case []int64:
		return ffi.TagPackedInt64Array
	case []float64:
		return ffi.TagPackedFloat64Array
	default:
		panic(fmt.Sprintf("variant: no wire type for %T", zero))
	}
}

// extract reads the host value out of a slot whose tag already matches
// T's wire type. Integer narrowing and object liveness are the only
// remaining failure modes.
func extract[T any](p ffi.VariantPtr) (T, error) {
	t := ffi.Table()
	var out T
	switch dst := any(&out).(type) {
	case *bool:
		*dst = t.Variant.ToBool(p)
	case *int64:
		*dst = t.Variant.ToInt(p)
	case *int:
		*dst = int(t.Variant.ToInt(p))
	case *int8:
		x := t.Variant.ToInt(p)
		if x < math.MinInt8 || x > math.MaxInt8 {
			return out, errors.Overflow(x, "int8")
		}
		*dst = int8(x)
	case *int16:
		x := t.Variant.ToInt(p)
		if x < math.MinInt16 || x > math.MaxInt16 {
			return out, errors.Overflow(x, "int16")
		}
		*dst = int16(x)
	case *int32:
		x := t.Variant.ToInt(p)
		if x < math.MinInt32 || x > math.MaxInt32 {
			return out, errors.Overflow(x, "int32")
		}
		*dst = int32(x)
	case *uint8:
		x := t.Variant.ToInt(p)
		if x < 0 || x > math.MaxUint8 {
			return out, errors.Overflow(x, "uint8")
		}
		*dst = uint8(x)
	case *uint16:
		x := t.Variant.ToInt(p)
		if x < 0 || x > math.MaxUint16 {
			return out, errors.Overflow(x, "uint16")
		}
		*dst = uint16(x)
	case *uint32:
		x := t.Variant.ToInt(p)
		if x < 0 || x > math.MaxUint32 {
			return out, errors.Overflow(x, "uint32")
		}
		*dst = uint32(x)
	case *float64:
		*dst = t.Variant.ToFloat(p)
	case *float32:
		*dst = float32(t.Variant.ToFloat(p))
	case *string:
		*dst = t.Variant.ToString(p)
	case *GString:
		*dst = GString(t.Variant.ToString(p))
	case *StringName:
		*dst = StringName(t.Variant.ToString(p))
	case *NodePath:
		*dst = NodePath(t.Variant.ToString(p))
	case *ffi.Color:
		*dst = t.Variant.ToColor(p)
	case *ffi.Rid:
		*dst = t.Variant.ToRid(p)
	case *Object:
		id := t.Variant.ToObject(p)
		if id == 0 {
			*dst = Object{}
			break
		}
		class, alive := t.Object.ClassOf(id)
		if !alive {
			return out, errors.DeadObject(uint64(id))
		}
		*dst = Object{id: id, class: class}
	case *Callable:
		*dst = Callable{v: own(t.Variant.NewCopy(p))}
	case *Dictionary:
		*dst = Dictionary{v: own(t.Variant.NewCopy(p))}
	case *VarArray:
		*dst = VarArray{v: own(t.Variant.NewCopy(p))}
	case *[]byte:
		*dst = t.Variant.ToPackedBytes(p)
	case *[]int64:
		*dst = t.Variant.ToPackedInts(p)
	case *[]float64:
		*dst = t.Variant.ToPackedFloats(p)
	default:
		panic(fmt.Sprintf("variant: no extractor for %T", out))
	}
	return out, nil
}

// Converter lookups are themselves engine calls, so the function pointers
// are cached per destination tag for the life of the installed table.
// Entries are never evicted; the cache only resets when a different table
// is installed, which happens in tests running against fresh reference
// engines.
var convCache struct {
	mu    sync.Mutex
	table *ffi.CallTable
	fns   [ffi.MaxTypeTag]ffi.ConvertFunc
	have  [ffi.MaxTypeTag]bool
}

func converterFor(tab *ffi.CallTable, to ffi.TypeTag) ffi.ConvertFunc {
	convCache.mu.Lock()
	defer convCache.mu.Unlock()
	if convCache.table != tab {
		convCache.table = tab
		convCache.fns = [ffi.MaxTypeTag]ffi.ConvertFunc{}
		convCache.have = [ffi.MaxTypeTag]bool{}
	}
	if !convCache.have[to] {
		convCache.fns[to] = tab.Convert.ToTypeConstructor(to)
		convCache.have[to] = true
	}
	return convCache.fns[to]
}
