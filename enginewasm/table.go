package enginewasm

import (
	"encoding/binary"
	"math"

	"github.com/kestrel-engine/kestrel-go/ffi"
)

// buildTable adapts the cached exports into an ffi.CallTable. As with the
// shared-library loader, the service tables (rendering, physics, device)
// and the object registry come from generated per-version glue and are not
// part of the hand-written core.
func (e *Engine) buildTable() *ffi.CallTable {
	x := &e.exports
	t := &ffi.CallTable{}

	t.Variant = ffi.VariantTable{
		NewNil: func() ffi.VariantPtr {
			return ffi.VariantPtr(e.invoke(x.newNil)[0])
		},
		NewCopy: func(v ffi.VariantPtr) ffi.VariantPtr {
			return ffi.VariantPtr(e.invoke(x.newCopy, uint64(v))[0])
		},
		Destroy: func(v ffi.VariantPtr) {
			e.invoke(x.destroy, uint64(v))
		},
		GetType: func(v ffi.VariantPtr) ffi.TypeTag {
			return ffi.TypeTag(e.invoke(x.getType, uint64(v))[0])
		},
		Stringify: func(v ffi.VariantPtr) string {
			// stringify(v, out_len u32ptr) -> ptr; engine owns the buffer
			// until we free it.
			lenPtr, release := e.scratch(4)
			defer release()
			ptr := uint32(e.invoke(x.stringify, uint64(v), uint64(lenPtr))[0])
			return e.readEngineString(ptr, e.readU32(lenPtr))
		},
		Hash: func(v ffi.VariantPtr) uint32 {
			return uint32(e.invoke(x.hash, uint64(v))[0])
		},
		Booleanize: func(v ffi.VariantPtr) bool {
			return e.invoke(x.booleanize, uint64(v))[0] != 0
		},
		Evaluate: func(op ffi.Operator, a, b ffi.VariantPtr) (ffi.VariantPtr, bool) {
			validPtr, release := e.scratch(4)
			defer release()
			r := e.invoke(x.evaluate, uint64(op), uint64(a), uint64(b), uint64(validPtr))
			return ffi.VariantPtr(r[0]), e.readU32(validPtr) != 0
		},
		Call: func(self ffi.VariantPtr, method string, args []ffi.VariantPtr) (ffi.VariantPtr, ffi.CallError) {
			mPtr, mRelease := e.stageString(method)
			defer mRelease()
			argv, aRelease := e.stageArgs(args)
			defer aRelease()
			// out CallError: code u32, argument i32, expected u32
			errPtr, eRelease := e.scratch(12)
			defer eRelease()

			r := e.invoke(x.call, uint64(self),
				uint64(mPtr), uint64(len(method)),
				uint64(argv), uint64(len(args)), uint64(errPtr))
			cerr := ffi.CallError{
				Code:     ffi.CallErrorCode(e.readU32(errPtr)),
				Argument: int32(e.readU32(errPtr + 4)),
				Expected: ffi.TypeTag(e.readU32(errPtr + 8)),
			}
			return ffi.VariantPtr(r[0]), cerr
		},
		GetKeyed: func(self, key ffi.VariantPtr) (ffi.VariantPtr, bool) {
			foundPtr, release := e.scratch(4)
			defer release()
			r := e.invoke(x.getKeyed, uint64(self), uint64(key), uint64(foundPtr))
			return ffi.VariantPtr(r[0]), e.readU32(foundPtr) != 0
		},
		SetKeyed: func(self, key, value ffi.VariantPtr) bool {
			return e.invoke(x.setKeyed, uint64(self), uint64(key), uint64(value))[0] != 0
		},

		FromBool: func(b bool) ffi.VariantPtr {
			var u uint64
			if b {
				u = 1
			}
			return ffi.VariantPtr(e.invoke(x.fromBool, u)[0])
		},
		ToBool: func(v ffi.VariantPtr) bool {
			return e.invoke(x.toBool, uint64(v))[0] != 0
		},
		FromInt: func(i int64) ffi.VariantPtr {
			return ffi.VariantPtr(e.invoke(x.fromInt, uint64(i))[0])
		},
		ToInt: func(v ffi.VariantPtr) int64 {
			return int64(e.invoke(x.toInt, uint64(v))[0])
		},
		FromFloat: func(f float64) ffi.VariantPtr {
			return ffi.VariantPtr(e.invoke(x.fromFloat, math.Float64bits(f))[0])
		},
		ToFloat: func(v ffi.VariantPtr) float64 {
			return math.Float64frombits(e.invoke(x.toFloat, uint64(v))[0])
		},
		FromString:     e.stringCtor(kindStringPlain),
		FromStringName: e.stringCtor(kindStringName),
		FromNodePath:   e.stringCtor(kindNodePath),
		ToString: func(v ffi.VariantPtr) string {
			lenPtr, release := e.scratch(4)
			defer release()
			ptr := uint32(e.invoke(x.toString, uint64(v), uint64(lenPtr))[0])
			return e.readEngineString(ptr, e.readU32(lenPtr))
		},
		FromRid: func(r ffi.Rid) ffi.VariantPtr {
			return ffi.VariantPtr(e.invoke(x.fromRid, uint64(r))[0])
		},
		ToRid: func(v ffi.VariantPtr) ffi.Rid {
			return ffi.Rid(e.invoke(x.toRid, uint64(v))[0])
		},
		FromObject: func(id ffi.ObjectID) ffi.VariantPtr {
			return ffi.VariantPtr(e.invoke(x.fromObject, uint64(id))[0])
		},
		ToObject: func(v ffi.VariantPtr) ffi.ObjectID {
			return ffi.ObjectID(e.invoke(x.toObject, uint64(v))[0])
		},
		FromColor: func(c ffi.Color) ffi.VariantPtr {
			raw := make([]byte, 16)
			binary.LittleEndian.PutUint32(raw[0:], math.Float32bits(c.R))
			binary.LittleEndian.PutUint32(raw[4:], math.Float32bits(c.G))
			binary.LittleEndian.PutUint32(raw[8:], math.Float32bits(c.B))
			binary.LittleEndian.PutUint32(raw[12:], math.Float32bits(c.A))
			ptr, release := e.stage(raw)
			defer release()
			return ffi.VariantPtr(e.invoke(x.fromColor, uint64(ptr))[0])
		},
		ToColor: func(v ffi.VariantPtr) ffi.Color {
			ptr, release := e.scratch(16)
			defer release()
			e.invoke(x.toColor, uint64(v), uint64(ptr))
			raw := e.readBytes(ptr, 16)
			return ffi.Color{
				R: math.Float32frombits(binary.LittleEndian.Uint32(raw[0:])),
				G: math.Float32frombits(binary.LittleEndian.Uint32(raw[4:])),
				B: math.Float32frombits(binary.LittleEndian.Uint32(raw[8:])),
				A: math.Float32frombits(binary.LittleEndian.Uint32(raw[12:])),
			}
		},

		FromPackedBytes: func(b []byte) ffi.VariantPtr {
			return e.stagePacked(kindPackedBytes, b, len(b))
		},
		ToPackedBytes: func(v ffi.VariantPtr) []byte {
			raw := e.readPacked(v, 1)
			if raw == nil {
				return []byte{}
			}
			return raw
		},
		FromPackedInts: func(xs []int64) ffi.VariantPtr {
			raw := make([]byte, 8*len(xs))
			for i, n := range xs {
				binary.LittleEndian.PutUint64(raw[i*8:], uint64(n))
			}
			return e.stagePacked(kindPackedInts, raw, len(xs))
		},
		ToPackedInts: func(v ffi.VariantPtr) []int64 {
			raw := e.readPacked(v, 8)
			out := make([]int64, len(raw)/8)
			for i := range out {
				out[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
			}
			return out
		},
		FromPackedFloats: func(xs []float64) ffi.VariantPtr {
			raw := make([]byte, 8*len(xs))
			for i, f := range xs {
				binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(f))
			}
			return e.stagePacked(kindPackedFloats, raw, len(xs))
		},
		ToPackedFloats: func(v ffi.VariantPtr) []float64 {
			raw := e.readPacked(v, 8)
			out := make([]float64, len(raw)/8)
			for i := range out {
				out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
			}
			return out
		},

		NewDictionary: func() ffi.VariantPtr {
			return ffi.VariantPtr(e.invoke(x.dictionaryNew)[0])
		},
		NewArray: func() ffi.VariantPtr {
			return ffi.VariantPtr(e.invoke(x.arrayNew)[0])
		},
	}
	if x.dictGetOrAdd != nil {
		t.Variant.DictGetOrAdd = func(dict, key, def ffi.VariantPtr) ffi.VariantPtr {
			return ffi.VariantPtr(e.invoke(x.dictGetOrAdd, uint64(dict), uint64(key), uint64(def))[0])
		}
	}

	t.Convert = ffi.ConvertTable{
		CanConvertStrict: func(from, to ffi.TypeTag) bool {
			return e.invoke(x.canConvertStrict, uint64(from), uint64(to))[0] != 0
		},
		ToTypeConstructor: func(to ffi.TypeTag) ffi.ConvertFunc {
			if e.invoke(x.hasConverter, uint64(to))[0] == 0 {
				return nil
			}
			return func(v ffi.VariantPtr) ffi.VariantPtr {
				return ffi.VariantPtr(e.invoke(x.convert, uint64(to), uint64(v))[0])
			}
		},
	}

	t.Iter = ffi.IterTable{
		Init: func(container ffi.VariantPtr) (ffi.VariantPtr, bool, bool) {
			// out: cursor u64, valid u32
			outPtr, release := e.scratch(12)
			defer release()
			hasNext := e.invoke(x.iterInit, uint64(container), uint64(outPtr), uint64(outPtr+8))
			return ffi.VariantPtr(e.readU64(outPtr)), e.readU32(outPtr+8) != 0, hasNext[0] != 0
		},
		Next: func(container, prev ffi.VariantPtr) (ffi.VariantPtr, bool, bool) {
			outPtr, release := e.scratch(12)
			defer release()
			hasNext := e.invoke(x.iterNext, uint64(container), uint64(prev), uint64(outPtr), uint64(outPtr+8))
			return ffi.VariantPtr(e.readU64(outPtr)), e.readU32(outPtr+8) != 0, hasNext[0] != 0
		},
	}

	t.Callable = ffi.CallableTable{
		Create: func(name string, fn ffi.HostFunc) ffi.VariantPtr {
			ptr, release := e.stageString(name)
			defer release()
			id := e.registerHostFn(fn)
			return ffi.VariantPtr(e.invoke(x.callableCreate, uint64(ptr), uint64(len(name)), id)[0])
		},
		Invoke: func(callable ffi.VariantPtr, args []ffi.VariantPtr) ffi.VariantPtr {
			argv, release := e.stageArgs(args)
			defer release()
			return ffi.VariantPtr(e.invoke(x.callableInvoke, uint64(callable), uint64(argv), uint64(len(args)))[0])
		},
	}

	return t
}

func (e *Engine) stringCtor(kind uint64) func(string) ffi.VariantPtr {
	x := &e.exports
	return func(s string) ffi.VariantPtr {
		ptr, release := e.stageString(s)
		defer release()
		return ffi.VariantPtr(e.invoke(x.fromString, uint64(ptr), uint64(len(s)), kind)[0])
	}
}

// stageArgs writes slot tokens contiguously to guest memory for vararg
// calls. A zero pointer with zero length is a valid empty list.
func (e *Engine) stageArgs(args []ffi.VariantPtr) (ptr uint32, release func()) {
	if len(args) == 0 {
		return 0, func() {}
	}
	raw := make([]byte, 8*len(args))
	for i, a := range args {
		binary.LittleEndian.PutUint64(raw[i*8:], uint64(a))
	}
	return e.stage(raw)
}
