//go:build linux || darwin

package ffi

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"
)

// LoadLibrary opens the Kestrel engine shared library, binds its exported
// C symbols into a CallTable, and installs it. The engine remains loaded
// for the lifetime of the process.
//
// The C ABI uses 64-bit slot/handle tokens throughout; out-parameters are
// passed as raw addresses. See the engine's kestrel_extension.h for the
// symbol contract.
func LoadLibrary(path string) error {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("ffi: open engine library %q: %w", path, err)
	}

	t, err := bindLibrary(lib)
	if err != nil {
		return err
	}

	Logger().Info("engine library loaded", zap.String("path", path))
	Load(t)
	return nil
}

type libSyms struct {
	variantNewNil     func() uint64
	variantNewCopy    func(uint64) uint64
	variantDestroy    func(uint64)
	variantGetType    func(uint64) uint32
	variantStringify  func(uint64) string
	variantHash       func(uint64) uint32
	variantBooleanize func(uint64) uint32
	variantEvaluate   func(uint32, uint64, uint64, uintptr) uint64
	variantCall       func(uint64, string, uintptr, uint64, uintptr) uint64
	variantGetKeyed   func(uint64, uint64, uintptr) uint64
	variantSetKeyed   func(uint64, uint64, uint64) uint32

	variantFromBool   func(uint32) uint64
	variantToBool     func(uint64) uint32
	variantFromInt    func(int64) uint64
	variantToInt      func(uint64) int64
	variantFromFloat  func(float64) uint64
	variantToFloat    func(uint64) float64
	variantFromString func(string, uint32) uint64
	variantToString   func(uint64) string
	variantFromRid    func(uint64) uint64
	variantToRid      func(uint64) uint64
	variantFromObject func(uint64) uint64
	variantToObject   func(uint64) uint64
	variantFromColor  func(float32, float32, float32, float32) uint64
	variantToColor    func(uint64, uintptr)

	variantFromPacked func(uint32, uintptr, uint64) uint64
	variantPackedLen  func(uint64) uint64
	variantPackedCopy func(uint64, uintptr)

	dictionaryNew func() uint64
	arrayNew      func() uint64
	dictGetOrAdd  func(uint64, uint64, uint64) uint64

	canConvertStrict func(uint32, uint32) uint32
	convertConstruct func(uint32, uint64) uint64
	convertHas       func(uint32) uint32

	iterInit func(uint64, uintptr, uintptr) uint32
	iterNext func(uint64, uint64, uintptr, uintptr) uint32

	callableCreate func(string, uint64) uint64
	callableInvoke func(uint64, uintptr, uint64) uint64
}

// string kind selectors for kestrel_variant_from_string.
const (
	libStringPlain uint32 = 0
	libStringName  uint32 = 1
	libNodePath    uint32 = 2
)

// element kind selectors for kestrel_variant_from_packed.
const (
	libPackedBytes  uint32 = 0
	libPackedInts   uint32 = 1
	libPackedFloats uint32 = 2
)

var (
	hostFnMu   sync.Mutex
	hostFnNext uint64 = 1
	hostFns           = map[uint64]HostFunc{}
)

func registerHostFn(fn HostFunc) uint64 {
	hostFnMu.Lock()
	defer hostFnMu.Unlock()
	id := hostFnNext
	hostFnNext++
	hostFns[id] = fn
	return id
}

func dispatchHostFn(id uint64, argv uintptr, argc uint64) uint64 {
	hostFnMu.Lock()
	fn := hostFns[id]
	hostFnMu.Unlock()
	if fn == nil {
		return 0
	}
	args := make([]VariantPtr, argc)
	for i := range args {
		args[i] = *(*VariantPtr)(unsafe.Pointer(argv + uintptr(i)*8))
	}
	return uint64(fn(args))
}

func bindLibrary(lib uintptr) (*CallTable, error) {
	var s libSyms
	var bindErr error
	bind := func(fptr any, name string) {
		if bindErr != nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				bindErr = fmt.Errorf("ffi: bind symbol %q: %v", name, r)
			}
		}()
		purego.RegisterLibFunc(fptr, lib, name)
	}

	bind(&s.variantNewNil, "kestrel_variant_new_nil")
	bind(&s.variantNewCopy, "kestrel_variant_new_copy")
	bind(&s.variantDestroy, "kestrel_variant_destroy")
	bind(&s.variantGetType, "kestrel_variant_get_type")
	bind(&s.variantStringify, "kestrel_variant_stringify")
	bind(&s.variantHash, "kestrel_variant_hash")
	bind(&s.variantBooleanize, "kestrel_variant_booleanize")
	bind(&s.variantEvaluate, "kestrel_variant_evaluate")
	bind(&s.variantCall, "kestrel_variant_call")
	bind(&s.variantGetKeyed, "kestrel_variant_get_keyed")
	bind(&s.variantSetKeyed, "kestrel_variant_set_keyed")
	bind(&s.variantFromBool, "kestrel_variant_from_bool")
	bind(&s.variantToBool, "kestrel_variant_to_bool")
	bind(&s.variantFromInt, "kestrel_variant_from_int")
	bind(&s.variantToInt, "kestrel_variant_to_int")
	bind(&s.variantFromFloat, "kestrel_variant_from_float")
	bind(&s.variantToFloat, "kestrel_variant_to_float")
	bind(&s.variantFromString, "kestrel_variant_from_string")
	bind(&s.variantToString, "kestrel_variant_to_string")
	bind(&s.variantFromRid, "kestrel_variant_from_rid")
	bind(&s.variantToRid, "kestrel_variant_to_rid")
	bind(&s.variantFromObject, "kestrel_variant_from_object")
	bind(&s.variantToObject, "kestrel_variant_to_object")
	bind(&s.variantFromColor, "kestrel_variant_from_color")
	bind(&s.variantToColor, "kestrel_variant_to_color")
	bind(&s.variantFromPacked, "kestrel_variant_from_packed")
	bind(&s.variantPackedLen, "kestrel_variant_packed_len")
	bind(&s.variantPackedCopy, "kestrel_variant_packed_copy")
	bind(&s.dictionaryNew, "kestrel_dictionary_new")
	bind(&s.arrayNew, "kestrel_array_new")
	bind(&s.canConvertStrict, "kestrel_variant_can_convert_strict")
	bind(&s.convertConstruct, "kestrel_variant_convert")
	bind(&s.convertHas, "kestrel_variant_has_converter")
	bind(&s.iterInit, "kestrel_variant_iter_init")
	bind(&s.iterNext, "kestrel_variant_iter_next")
	bind(&s.callableCreate, "kestrel_callable_create")
	bind(&s.callableInvoke, "kestrel_callable_invoke")
	if bindErr != nil {
		return nil, bindErr
	}

	// get_or_add appeared in engine API 1.3; older libraries miss it.
	if _, err := purego.Dlsym(lib, "kestrel_dictionary_get_or_add"); err == nil {
		bind(&s.dictGetOrAdd, "kestrel_dictionary_get_or_add")
	}
	if bindErr != nil {
		return nil, bindErr
	}

	cbMu.Lock()
	if hostDispatch == 0 {
		hostDispatch = purego.NewCallback(dispatchHostFn)
		var setDispatch func(uintptr)
		bind(&setDispatch, "kestrel_callable_set_host_dispatch")
		if bindErr == nil {
			setDispatch(hostDispatch)
		}
	}
	cbMu.Unlock()
	if bindErr != nil {
		return nil, bindErr
	}

	return s.table(), nil
}

var (
	cbMu         sync.Mutex
	hostDispatch uintptr
)

func (s *libSyms) table() *CallTable {
	t := &CallTable{}

	t.Variant = VariantTable{
		NewNil:     func() VariantPtr { return VariantPtr(s.variantNewNil()) },
		NewCopy:    func(v VariantPtr) VariantPtr { return VariantPtr(s.variantNewCopy(uint64(v))) },
		Destroy:    func(v VariantPtr) { s.variantDestroy(uint64(v)) },
		GetType:    func(v VariantPtr) TypeTag { return TypeTag(s.variantGetType(uint64(v))) },
		Stringify:  func(v VariantPtr) string { return s.variantStringify(uint64(v)) },
		Hash:       func(v VariantPtr) uint32 { return s.variantHash(uint64(v)) },
		Booleanize: func(v VariantPtr) bool { return s.variantBooleanize(uint64(v)) != 0 },
		Evaluate: func(op Operator, a, b VariantPtr) (VariantPtr, bool) {
			var valid uint32
			r := s.variantEvaluate(uint32(op), uint64(a), uint64(b), uintptr(unsafe.Pointer(&valid)))
			return VariantPtr(r), valid != 0
		},
		Call: func(self VariantPtr, method string, args []VariantPtr) (VariantPtr, CallError) {
			var cerr struct {
				code     uint32
				argument int32
				expected uint32
			}
			var argv uintptr
			if len(args) > 0 {
				argv = uintptr(unsafe.Pointer(&args[0]))
			}
			r := s.variantCall(uint64(self), method, argv, uint64(len(args)), uintptr(unsafe.Pointer(&cerr)))
			return VariantPtr(r), CallError{
				Code:     CallErrorCode(cerr.code),
				Argument: cerr.argument,
				Expected: TypeTag(cerr.expected),
			}
		},
		GetKeyed: func(self, key VariantPtr) (VariantPtr, bool) {
			var found uint32
			r := s.variantGetKeyed(uint64(self), uint64(key), uintptr(unsafe.Pointer(&found)))
			return VariantPtr(r), found != 0
		},
		SetKeyed: func(self, key, value VariantPtr) bool {
			return s.variantSetKeyed(uint64(self), uint64(key), uint64(value)) != 0
		},
		FromBool: func(b bool) VariantPtr {
			var u uint32
			if b {
				u = 1
			}
			return VariantPtr(s.variantFromBool(u))
		},
		ToBool:         func(v VariantPtr) bool { return s.variantToBool(uint64(v)) != 0 },
		FromInt:        func(i int64) VariantPtr { return VariantPtr(s.variantFromInt(i)) },
		ToInt:          func(v VariantPtr) int64 { return s.variantToInt(uint64(v)) },
		FromFloat:      func(f float64) VariantPtr { return VariantPtr(s.variantFromFloat(f)) },
		ToFloat:        func(v VariantPtr) float64 { return s.variantToFloat(uint64(v)) },
		FromString:     func(str string) VariantPtr { return VariantPtr(s.variantFromString(str, libStringPlain)) },
		ToString:       func(v VariantPtr) string { return s.variantToString(uint64(v)) },
		FromStringName: func(str string) VariantPtr { return VariantPtr(s.variantFromString(str, libStringName)) },
		FromNodePath:   func(str string) VariantPtr { return VariantPtr(s.variantFromString(str, libNodePath)) },
		FromRid:        func(r Rid) VariantPtr { return VariantPtr(s.variantFromRid(uint64(r))) },
		ToRid:          func(v VariantPtr) Rid { return Rid(s.variantToRid(uint64(v))) },
		FromObject:     func(id ObjectID) VariantPtr { return VariantPtr(s.variantFromObject(uint64(id))) },
		ToObject:       func(v VariantPtr) ObjectID { return ObjectID(s.variantToObject(uint64(v))) },
		FromColor: func(c Color) VariantPtr {
			return VariantPtr(s.variantFromColor(c.R, c.G, c.B, c.A))
		},
		ToColor: func(v VariantPtr) Color {
			var out [4]float32
			s.variantToColor(uint64(v), uintptr(unsafe.Pointer(&out)))
			return Color{R: out[0], G: out[1], B: out[2], A: out[3]}
		},
		FromPackedBytes: func(b []byte) VariantPtr {
			var p uintptr
			if len(b) > 0 {
				p = uintptr(unsafe.Pointer(&b[0]))
			}
			return VariantPtr(s.variantFromPacked(libPackedBytes, p, uint64(len(b))))
		},
		ToPackedBytes: func(v VariantPtr) []byte {
			n := s.variantPackedLen(uint64(v))
			out := make([]byte, n)
			if n > 0 {
				s.variantPackedCopy(uint64(v), uintptr(unsafe.Pointer(&out[0])))
			}
			return out
		},
		FromPackedInts: func(xs []int64) VariantPtr {
			var p uintptr
			if len(xs) > 0 {
				p = uintptr(unsafe.Pointer(&xs[0]))
			}
			return VariantPtr(s.variantFromPacked(libPackedInts, p, uint64(len(xs))))
		},
		ToPackedInts: func(v VariantPtr) []int64 {
			n := s.variantPackedLen(uint64(v))
			out := make([]int64, n)
			if n > 0 {
				s.variantPackedCopy(uint64(v), uintptr(unsafe.Pointer(&out[0])))
			}
			return out
		},
		FromPackedFloats: func(xs []float64) VariantPtr {
			var p uintptr
			if len(xs) > 0 {
				p = uintptr(unsafe.Pointer(&xs[0]))
			}
			return VariantPtr(s.variantFromPacked(libPackedFloats, p, uint64(len(xs))))
		},
		ToPackedFloats: func(v VariantPtr) []float64 {
			n := s.variantPackedLen(uint64(v))
			out := make([]float64, n)
			if n > 0 {
				s.variantPackedCopy(uint64(v), uintptr(unsafe.Pointer(&out[0])))
			}
			return out
		},
		NewDictionary: func() VariantPtr { return VariantPtr(s.dictionaryNew()) },
		NewArray:      func() VariantPtr { return VariantPtr(s.arrayNew()) },
	}
	if s.dictGetOrAdd != nil {
		t.Variant.DictGetOrAdd = func(dict, key, def VariantPtr) VariantPtr {
			return VariantPtr(s.dictGetOrAdd(uint64(dict), uint64(key), uint64(def)))
		}
	}

	t.Convert = ConvertTable{
		CanConvertStrict: func(from, to TypeTag) bool {
			return s.canConvertStrict(uint32(from), uint32(to)) != 0
		},
		ToTypeConstructor: func(to TypeTag) ConvertFunc {
			if s.convertHas(uint32(to)) == 0 {
				return nil
			}
			return func(v VariantPtr) VariantPtr {
				return VariantPtr(s.convertConstruct(uint32(to), uint64(v)))
			}
		},
	}

	t.Iter = IterTable{
		Init: func(container VariantPtr) (VariantPtr, bool, bool) {
			var cursor uint64
			var valid uint32
			hasNext := s.iterInit(uint64(container),
				uintptr(unsafe.Pointer(&cursor)), uintptr(unsafe.Pointer(&valid)))
			return VariantPtr(cursor), valid != 0, hasNext != 0
		},
		Next: func(container, prev VariantPtr) (VariantPtr, bool, bool) {
			var cursor uint64
			var valid uint32
			hasNext := s.iterNext(uint64(container), uint64(prev),
				uintptr(unsafe.Pointer(&cursor)), uintptr(unsafe.Pointer(&valid)))
			return VariantPtr(cursor), valid != 0, hasNext != 0
		},
	}

	t.Callable = CallableTable{
		Create: func(name string, fn HostFunc) VariantPtr {
			return VariantPtr(s.callableCreate(name, registerHostFn(fn)))
		},
		Invoke: func(callable VariantPtr, args []VariantPtr) VariantPtr {
			var argv uintptr
			if len(args) > 0 {
				argv = uintptr(unsafe.Pointer(&args[0]))
			}
			return VariantPtr(s.callableInvoke(uint64(callable), argv, uint64(len(args))))
		},
	}

	// Service tables (rendering, physics, device) and the object registry
	// are bound lazily by generated per-version glue, which is outside this
	// hand-written core. The reference engine and WASM backend fill them.
	return t
}
