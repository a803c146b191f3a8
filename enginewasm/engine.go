package enginewasm

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/kestrel-engine/kestrel-go/ffi"
)

// Config holds configuration for engine instantiation.
type Config struct {
	// MemoryLimitPages caps the engine instance's linear memory in 64KB
	// pages. 0 means the wazero default (4GB).
	MemoryLimitPages uint32

	// Name is the instance name registered with the runtime. Empty means
	// "kestrel".
	Name string
}

// Engine is a running wasm build of the Kestrel engine. It owns the wazero
// runtime and the single engine instance inside it.
type Engine struct {
	runtime wazero.Runtime
	mod     api.Module
	exports exports

	hostMu   sync.Mutex
	hostNext uint64
	hostFns  map[uint64]ffi.HostFunc

	table *ffi.CallTable
}

// exports caches the engine's exported functions. Every field is required;
// Load fails if any is missing.
type exports struct {
	alloc api.Function
	free  api.Function

	newNil     api.Function
	newCopy    api.Function
	destroy    api.Function
	getType    api.Function
	stringify  api.Function
	hash       api.Function
	booleanize api.Function
	evaluate   api.Function
	call       api.Function
	getKeyed   api.Function
	setKeyed   api.Function

	fromBool   api.Function
	toBool     api.Function
	fromInt    api.Function
	toInt      api.Function
	fromFloat  api.Function
	toFloat    api.Function
	fromString api.Function
	toString   api.Function
	fromRid    api.Function
	toRid      api.Function
	fromObject api.Function
	toObject   api.Function
	fromColor  api.Function
	toColor    api.Function
	fromPacked api.Function
	packedLen  api.Function
	packedCopy api.Function

	dictionaryNew api.Function
	arrayNew      api.Function
	dictGetOrAdd  api.Function // optional, engine API 1.3+

	canConvertStrict api.Function
	hasConverter     api.Function
	convert          api.Function

	iterInit api.Function
	iterNext api.Function

	callableCreate api.Function
	callableInvoke api.Function
}

// string and packed element kind selectors, shared with the C ABI.
const (
	kindStringPlain uint64 = 0
	kindStringName  uint64 = 1
	kindNodePath    uint64 = 2

	kindPackedBytes  uint64 = 0
	kindPackedInts   uint64 = 1
	kindPackedFloats uint64 = 2
)

// Load compiles and instantiates the engine wasm build and returns the
// running engine. The caller installs the table with ffi.Load when ready,
// usually right away:
//
//	eng, err := enginewasm.Load(ctx, wasmBytes, nil)
//	if err != nil { ... }
//	defer eng.Close(ctx)
//	ffi.Load(eng.Table())
func Load(ctx context.Context, wasmBytes []byte, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	e := &Engine{
		runtime:  runtime,
		hostNext: 1,
		hostFns:  map[uint64]ffi.HostFunc{},
	}

	// The engine imports exactly one host function, the callable dispatch
	// trampoline. Everything else flows engine-to-host through returns.
	_, err := runtime.NewHostModuleBuilder("kestrel_host").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(e.hostDispatch),
			[]api.ValueType{api.ValueTypeI64, api.ValueTypeI32, api.ValueTypeI32},
			[]api.ValueType{api.ValueTypeI64}).
		Export("dispatch").
		Instantiate(ctx)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("enginewasm: instantiate host module: %w", err)
	}

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("enginewasm: compile engine module: %w", err)
	}

	name := "kestrel"
	if cfg != nil && cfg.Name != "" {
		name = cfg.Name
	}
	mod, err := runtime.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName(name).WithStartFunctions("_initialize"))
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("enginewasm: instantiate engine module: %w", err)
	}
	e.mod = mod

	if err := e.bindExports(); err != nil {
		runtime.Close(ctx)
		return nil, err
	}
	if mod.Memory() == nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("enginewasm: engine module exports no linear memory")
	}
	e.table = e.buildTable()

	ffi.Logger().Info("engine wasm module loaded",
		zap.String("name", name),
		zap.Uint32("memory_pages", mod.Memory().Size()/65536))
	return e, nil
}

// Table returns the call table backed by this instance. The table stays
// valid until Close.
func (e *Engine) Table() *ffi.CallTable { return e.table }

// Close tears down the runtime and every instance in it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

func (e *Engine) bindExports() error {
	var missing []string
	need := func(name string) api.Function {
		f := e.mod.ExportedFunction(name)
		if f == nil {
			missing = append(missing, name)
		}
		return f
	}

	x := &e.exports
	x.alloc = need("kestrel_alloc")
	x.free = need("kestrel_free")
	x.newNil = need("kestrel_variant_new_nil")
	x.newCopy = need("kestrel_variant_new_copy")
	x.destroy = need("kestrel_variant_destroy")
	x.getType = need("kestrel_variant_get_type")
	x.stringify = need("kestrel_variant_stringify")
	x.hash = need("kestrel_variant_hash")
	x.booleanize = need("kestrel_variant_booleanize")
	x.evaluate = need("kestrel_variant_evaluate")
	x.call = need("kestrel_variant_call")
	x.getKeyed = need("kestrel_variant_get_keyed")
	x.setKeyed = need("kestrel_variant_set_keyed")
	x.fromBool = need("kestrel_variant_from_bool")
	x.toBool = need("kestrel_variant_to_bool")
	x.fromInt = need("kestrel_variant_from_int")
	x.toInt = need("kestrel_variant_to_int")
	x.fromFloat = need("kestrel_variant_from_float")
	x.toFloat = need("kestrel_variant_to_float")
	x.fromString = need("kestrel_variant_from_string")
	x.toString = need("kestrel_variant_to_string")
	x.fromRid = need("kestrel_variant_from_rid")
	x.toRid = need("kestrel_variant_to_rid")
	x.fromObject = need("kestrel_variant_from_object")
	x.toObject = need("kestrel_variant_to_object")
	x.fromColor = need("kestrel_variant_from_color")
	x.toColor = need("kestrel_variant_to_color")
	x.fromPacked = need("kestrel_variant_from_packed")
	x.packedLen = need("kestrel_variant_packed_len")
	x.packedCopy = need("kestrel_variant_packed_copy")
	x.dictionaryNew = need("kestrel_dictionary_new")
	x.arrayNew = need("kestrel_array_new")
	x.canConvertStrict = need("kestrel_variant_can_convert_strict")
	x.hasConverter = need("kestrel_variant_has_converter")
	x.convert = need("kestrel_variant_convert")
	x.iterInit = need("kestrel_variant_iter_init")
	x.iterNext = need("kestrel_variant_iter_next")
	x.callableCreate = need("kestrel_callable_create")
	x.callableInvoke = need("kestrel_callable_invoke")
	if len(missing) > 0 {
		return fmt.Errorf("enginewasm: engine module missing exports: %v", missing)
	}

	// get_or_add appeared in engine API 1.3; older builds miss it.
	x.dictGetOrAdd = e.mod.ExportedFunction("kestrel_dictionary_get_or_add")
	return nil
}

// hostDispatch is the trampoline the engine calls to invoke a registered
// host callable: dispatch(id i64, argv u32, argc u32) -> i64. Arguments
// are i64 slot tokens laid out contiguously in guest memory.
func (e *Engine) hostDispatch(_ context.Context, mod api.Module, stack []uint64) {
	id := stack[0]
	argv := uint32(stack[1])
	argc := uint32(stack[2])

	e.hostMu.Lock()
	fn := e.hostFns[id]
	e.hostMu.Unlock()
	if fn == nil {
		stack[0] = 0
		return
	}

	args := make([]ffi.VariantPtr, argc)
	for i := range args {
		raw, ok := mod.Memory().ReadUint64Le(argv + uint32(i)*8)
		if !ok {
			ffi.Logger().Error("host dispatch argument read out of range",
				zap.Uint32("argv", argv), zap.Uint32("argc", argc))
			stack[0] = 0
			return
		}
		args[i] = ffi.VariantPtr(raw)
	}
	stack[0] = uint64(fn(args))
}

func (e *Engine) registerHostFn(fn ffi.HostFunc) uint64 {
	e.hostMu.Lock()
	defer e.hostMu.Unlock()
	id := e.hostNext
	e.hostNext++
	e.hostFns[id] = fn
	return id
}

// invoke calls an engine export. A trap in the engine is not recoverable
// by the binding; it becomes a panic carrying the wasm stack trace.
func (e *Engine) invoke(f api.Function, params ...uint64) []uint64 {
	res, err := f.Call(context.Background(), params...)
	if err != nil {
		panic(fmt.Sprintf("enginewasm: engine trap: %v", err))
	}
	return res
}

// stage copies data into guest memory. The returned release function gives
// the buffer back to the engine allocator.
func (e *Engine) stage(data []byte) (ptr uint32, release func()) {
	if len(data) == 0 {
		return 0, func() {}
	}
	res := e.invoke(e.exports.alloc, uint64(len(data)))
	ptr = uint32(res[0])
	if !e.mod.Memory().Write(ptr, data) {
		panic(fmt.Sprintf("enginewasm: allocator returned unwritable region %#x+%d", ptr, len(data)))
	}
	return ptr, func() { e.invoke(e.exports.free, uint64(ptr), uint64(len(data))) }
}

func (e *Engine) stageString(s string) (ptr uint32, release func()) {
	return e.stage([]byte(s))
}

// scratch allocates uninitialized guest memory for out-parameters.
func (e *Engine) scratch(size uint32) (ptr uint32, release func()) {
	res := e.invoke(e.exports.alloc, uint64(size))
	ptr = uint32(res[0])
	return ptr, func() { e.invoke(e.exports.free, uint64(ptr), uint64(size)) }
}

func (e *Engine) readU32(addr uint32) uint32 {
	v, ok := e.mod.Memory().ReadUint32Le(addr)
	if !ok {
		panic(fmt.Sprintf("enginewasm: read out of range at %#x", addr))
	}
	return v
}

func (e *Engine) readU64(addr uint32) uint64 {
	v, ok := e.mod.Memory().ReadUint64Le(addr)
	if !ok {
		panic(fmt.Sprintf("enginewasm: read out of range at %#x", addr))
	}
	return v
}

func (e *Engine) readBytes(addr, size uint32) []byte {
	b, ok := e.mod.Memory().Read(addr, size)
	if !ok {
		panic(fmt.Sprintf("enginewasm: read out of range at %#x+%d", addr, size))
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}

// readEngineString reads a (ptr, len) pair produced by the engine and frees
// the engine-side buffer.
func (e *Engine) readEngineString(ptr, size uint32) string {
	if size == 0 {
		return ""
	}
	s := string(e.readBytes(ptr, size))
	e.invoke(e.exports.free, uint64(ptr), uint64(size))
	return s
}

// stagePacked writes a packed payload to guest memory in little-endian
// element order and constructs the variant from it.
func (e *Engine) stagePacked(kind uint64, raw []byte, count int) ffi.VariantPtr {
	ptr, release := e.stage(raw)
	defer release()
	res := e.invoke(e.exports.fromPacked, kind, uint64(ptr), uint64(count))
	return ffi.VariantPtr(res[0])
}

func (e *Engine) readPacked(v ffi.VariantPtr, elemSize uint32) []byte {
	n := uint32(e.invoke(e.exports.packedLen, uint64(v))[0])
	if n == 0 {
		return nil
	}
	ptr, release := e.scratch(n * elemSize)
	defer release()
	e.invoke(e.exports.packedCopy, uint64(v), uint64(ptr))
	return e.readBytes(ptr, n*elemSize)
}
