package enginetest

import (
	"github.com/kestrel-engine/kestrel-go/ffi"
)

// buildTable assembles the call table over the engine state. Every
// closure locks e.mu for its duration; the one exception is callable
// dispatch, which must release the lock before running the host function
// so the function can re-enter the table.
func (e *Engine) buildTable() *ffi.CallTable {
	t := &ffi.CallTable{}

	t.Variant = ffi.VariantTable{
		NewNil: func() ffi.VariantPtr {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("variant.new_nil")
			return e.alloc(nilValue())
		},
		NewCopy: func(v ffi.VariantPtr) ffi.VariantPtr {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("variant.new_copy")
			return e.alloc(copyValue(e.read(v)))
		},
		Destroy: func(v ffi.VariantPtr) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("variant.destroy")
			e.release(v)
		},
		GetType: func(v ffi.VariantPtr) ffi.TypeTag {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("variant.get_type")
			return e.read(v).tag
		},
		Stringify: func(v ffi.VariantPtr) string {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("variant.stringify")
			return e.read(v).stringify()
		},
		Hash: func(v ffi.VariantPtr) uint32 {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("variant.hash")
			return e.read(v).hash()
		},
		Booleanize: func(v ffi.VariantPtr) bool {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("variant.booleanize")
			return e.read(v).truthy()
		},
		Evaluate: func(op ffi.Operator, a, b ffi.VariantPtr) (ffi.VariantPtr, bool) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("variant.evaluate")
			r, ok := evaluate(op, e.read(a), e.read(b))
			if !ok {
				return 0, false
			}
			return e.alloc(r), true
		},
		Call: func(self ffi.VariantPtr, method string, args []ffi.VariantPtr) (ffi.VariantPtr, ffi.CallError) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("variant.call")
			e.count("variant.call." + method)
			vargs := make([]value, len(args))
			for i, a := range args {
				vargs[i] = e.read(a)
			}
			r, cerr := e.callMethod(e.read(self), method, vargs)
			if !cerr.OK() {
				return 0, cerr
			}
			return e.alloc(r), ffi.CallError{}
		},
		GetKeyed: func(self, key ffi.VariantPtr) (ffi.VariantPtr, bool) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("variant.get_keyed")
			s := e.read(self)
			switch s.tag {
			case ffi.TagDictionary:
				if s.dict == nil {
					return 0, false
				}
				v, ok := s.dict.get(e.read(key))
				if !ok {
					return 0, false
				}
				return e.alloc(copyValue(v)), true
			case ffi.TagArray:
				if s.arr == nil {
					return 0, false
				}
				k := e.read(key)
				if k.tag != ffi.TagInt || k.i < 0 || k.i >= int64(len(s.arr.items)) {
					return 0, false
				}
				return e.alloc(copyValue(s.arr.items[k.i])), true
			}
			return 0, false
		},
		SetKeyed: func(self, key, val ffi.VariantPtr) bool {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("variant.set_keyed")
			s := e.read(self)
			switch s.tag {
			case ffi.TagDictionary:
				if s.dict == nil {
					return false
				}
				return s.dict.set(copyValue(e.read(key)), copyValue(e.read(val)))
			case ffi.TagArray:
				if s.arr == nil || s.arr.readOnly {
					return false
				}
				k := e.read(key)
				if k.tag != ffi.TagInt || k.i < 0 || k.i >= int64(len(s.arr.items)) {
					return false
				}
				s.arr.items[k.i] = copyValue(e.read(val))
				return true
			}
			return false
		},
		FromBool:   fromFn(e, "variant.from_bool", boolValue),
		FromInt:    fromFn(e, "variant.from_int", intValue),
		FromFloat:  fromFn(e, "variant.from_float", floatValue),
		FromColor:  fromFn(e, "variant.from_color", colorValue),
		FromRid:    fromFn(e, "variant.from_rid", ridValue),
		FromObject: fromFn(e, "variant.from_object", objectValue),
		FromString: fromFn(e, "variant.from_string", func(s string) value {
			return stringValue(ffi.TagString, s)
		}),
		FromStringName: fromFn(e, "variant.from_string_name", func(s string) value {
			return stringValue(ffi.TagStringName, s)
		}),
		FromNodePath: fromFn(e, "variant.from_node_path", func(s string) value {
			return stringValue(ffi.TagNodePath, s)
		}),
		FromPackedBytes: fromFn(e, "variant.from_packed_bytes", func(b []byte) value {
			return value{tag: ffi.TagPackedByteArray, bytes: append([]byte(nil), b...)}
		}),
		FromPackedInts: fromFn(e, "variant.from_packed_ints", func(xs []int64) value {
			return value{tag: ffi.TagPackedInt64Array, ints: append([]int64(nil), xs...)}
		}),
		FromPackedFloats: fromFn(e, "variant.from_packed_floats", func(xs []float64) value {
			return value{tag: ffi.TagPackedFloat64Array, floats: append([]float64(nil), xs...)}
		}),
		ToBool:   toFn(e, "variant.to_bool", func(v value) bool { return v.b }),
		ToInt:    toFn(e, "variant.to_int", func(v value) int64 { return v.i }),
		ToFloat:  toFn(e, "variant.to_float", func(v value) float64 { return v.f }),
		ToString: toFn(e, "variant.to_string", func(v value) string { return v.s }),
		ToColor:  toFn(e, "variant.to_color", func(v value) ffi.Color { return v.col }),
		ToRid:    toFn(e, "variant.to_rid", func(v value) ffi.Rid { return v.rid }),
		ToObject: toFn(e, "variant.to_object", func(v value) ffi.ObjectID { return v.obj }),
		ToPackedBytes: toFn(e, "variant.to_packed_bytes", func(v value) []byte {
			return append([]byte(nil), v.bytes...)
		}),
		ToPackedInts: toFn(e, "variant.to_packed_ints", func(v value) []int64 {
			return append([]int64(nil), v.ints...)
		}),
		ToPackedFloats: toFn(e, "variant.to_packed_floats", func(v value) []float64 {
			return append([]float64(nil), v.floats...)
		}),
		NewDictionary: func() ffi.VariantPtr {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("dict.new")
			return e.alloc(value{tag: ffi.TagDictionary, dict: &dict{}})
		},
		NewArray: func() ffi.VariantPtr {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("array.new")
			return e.alloc(value{tag: ffi.TagArray, arr: &array{}})
		},
	}

	if e.nativeGetOrAdd {
		t.Variant.DictGetOrAdd = func(dp, kp, defp ffi.VariantPtr) ffi.VariantPtr {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("dict.get_or_add")
			s := e.read(dp)
			if s.tag != ffi.TagDictionary || s.dict == nil {
				return e.alloc(nilValue())
			}
			k := e.read(kp)
			if v, ok := s.dict.get(k); ok {
				return e.alloc(copyValue(v))
			}
			def := copyValue(e.read(defp))
			s.dict.set(copyValue(k), def)
			return e.alloc(copyValue(def))
		}
	}

	t.Convert = ffi.ConvertTable{
		CanConvertStrict: func(from, to ffi.TypeTag) bool {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("convert.can_convert")
			return canConvertStrict(from, to)
		},
		ToTypeConstructor: func(to ffi.TypeTag) ffi.ConvertFunc {
			e.mu.Lock()
			e.count("convert.lookup")
			e.mu.Unlock()
			if to >= ffi.MaxTypeTag {
				return nil
			}
			return func(v ffi.VariantPtr) ffi.VariantPtr {
				e.mu.Lock()
				defer e.mu.Unlock()
				e.count("convert.construct")
				return e.alloc(convert(to, e.read(v)))
			}
		},
	}

	t.Iter = ffi.IterTable{
		Init: func(container ffi.VariantPtr) (ffi.VariantPtr, bool, bool) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("iter.init")
			k, valid, more := e.iterInit(e.read(container))
			if !valid || !more {
				return 0, valid, more
			}
			return e.alloc(k), true, true
		},
		Next: func(container, prev ffi.VariantPtr) (ffi.VariantPtr, bool, bool) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("iter.next")
			k, valid, more := e.iterNext(e.read(container), e.read(prev))
			if !valid || !more {
				return 0, valid, more
			}
			return e.alloc(k), true, true
		},
	}

	t.Callable = ffi.CallableTable{
		Create: func(name string, fn ffi.HostFunc) ffi.VariantPtr {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("callable.create")
			id := e.nextCallable
			e.nextCallable++
			e.callables[id] = fn
			return e.alloc(value{tag: ffi.TagCallable, fn: id, s: name})
		},
		Invoke: func(callable ffi.VariantPtr, args []ffi.VariantPtr) ffi.VariantPtr {
			e.mu.Lock()
			e.count("callable.invoke")
			c := e.read(callable)
			fn := e.callables[c.fn]
			e.mu.Unlock()
			if c.tag != ffi.TagCallable || fn == nil {
				e.mu.Lock()
				defer e.mu.Unlock()
				return e.alloc(nilValue())
			}
			// Host functions re-enter the table; the lock must be free.
			return fn(args)
		},
	}

	t.Object = ffi.ObjectTable{
		New: func(class string) ffi.ObjectID {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("object.new")
			id := ffi.ObjectID(e.nextObject)
			e.nextObject++
			e.objects[id] = &object{class: class, alive: true}
			return id
		},
		ClassOf: func(id ffi.ObjectID) (string, bool) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("object.class_of")
			if o := e.objects[id]; o != nil && o.alive {
				return o.class, true
			}
			return "", false
		},
		IsAlive: func(id ffi.ObjectID) bool {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("object.is_alive")
			o := e.objects[id]
			return o != nil && o.alive
		},
		Free: func(id ffi.ObjectID) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("object.free")
			if o := e.objects[id]; o != nil {
				o.alive = false
			}
		},
	}

	e.buildRendering(t)
	e.buildPhysics(t)
	e.buildDevice(t)
	return t
}

// fromFn wraps a constructor with counting and slot allocation.
func fromFn[T any](e *Engine, name string, mk func(T) value) func(T) ffi.VariantPtr {
	return func(x T) ffi.VariantPtr {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.count(name)
		return e.alloc(mk(x))
	}
}

// toFn wraps an extractor with counting.
func toFn[T any](e *Engine, name string, get func(value) T) func(ffi.VariantPtr) T {
	return func(p ffi.VariantPtr) T {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.count(name)
		return get(e.read(p))
	}
}

func (e *Engine) buildRendering(t *ffi.CallTable) {
	create := func(kind string) func() ffi.Rid {
		return func() ffi.Rid {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("render.create." + kind)
			return e.render.alloc.create(kind)
		}
	}
	t.Rendering = ffi.RenderingTable{
		MeshCreate:             create("mesh"),
		TextureCreate2D:        create("texture_2d"),
		CanvasCreate:           create("canvas"),
		CanvasItemCreate:       create("canvas_item"),
		ShaderCreate:           create("shader"),
		MaterialCreate:         create("material"),
		ViewportCreate:         create("viewport"),
		SkyCreate:              create("sky"),
		LightDirectionalCreate: create("light_directional"),
		LightOmniCreate:        create("light_omni"),
		LightSpotCreate:        create("light_spot"),
		FreeRid: func(r ffi.Rid) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("render.free_rid")
			if e.render.alloc.release(r) {
				delete(e.render.lights, r)
				delete(e.render.parents, r)
				delete(e.render.shaders, r)
				delete(e.render.viewports, r)
				delete(e.render.surfaces, r)
			}
		},
		CanvasItemSetParent: func(item, parent ffi.Rid) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("render.canvas_item_set_parent")
			e.render.parents[item] = parent
		},
		LightSetColor: func(light ffi.Rid, c ffi.Color) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("render.light_set_color")
			e.render.lights[light] = c
		},
		MaterialSetShader: func(material, shader ffi.Rid) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("render.material_set_shader")
			e.render.shaders[material] = shader
		},
		ViewportSetSize: func(viewport ffi.Rid, w, h int32) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("render.viewport_set_size")
			e.render.viewports[viewport] = [2]int32{w, h}
		},
		MeshAddSurface: func(mesh ffi.Rid, primitive int32, arrays ffi.VariantPtr) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("render.mesh_add_surface")
			e.render.surfaces[mesh]++
		},
		MeshSurfaceCount: func(mesh ffi.Rid) int32 {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("render.mesh_surface_count")
			return e.render.surfaces[mesh]
		},
	}
}

func (e *Engine) buildPhysics(t *ffi.CallTable) {
	create := func(kind string) func() ffi.Rid {
		return func() ffi.Rid {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("physics.create." + kind)
			return e.physics.alloc.create(kind)
		}
	}
	t.Physics = ffi.PhysicsTable{
		SpaceCreate:        create("space"),
		AreaCreate:         create("area"),
		BodyCreate:         create("body"),
		JointCreate:        create("joint"),
		ShapeBoxCreate:     create("shape_box"),
		ShapeSphereCreate:  create("shape_sphere"),
		ShapeCapsuleCreate: create("shape_capsule"),
		FreeRid: func(r ffi.Rid) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("physics.free_rid")
			if e.physics.alloc.release(r) {
				delete(e.physics.bodySpace, r)
				delete(e.physics.bodyShapes, r)
				delete(e.physics.areaSpace, r)
			}
		},
		BodySetSpace: func(body, space ffi.Rid) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("physics.body_set_space")
			e.physics.bodySpace[body] = space
		},
		BodyAddShape: func(body, shape ffi.Rid) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("physics.body_add_shape")
			e.physics.bodyShapes[body] = append(e.physics.bodyShapes[body], shape)
		},
		AreaSetSpace: func(area, space ffi.Rid) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("physics.area_set_space")
			e.physics.areaSpace[area] = space
		},
	}
}

func (e *Engine) buildDevice(t *ffi.CallTable) {
	t.Device = ffi.DeviceTable{
		CreateDevice: func() ffi.DeviceID {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("device.create")
			id := ffi.DeviceID(e.nextDevice)
			e.nextDevice++
			e.devices[id] = &device{
				alloc:   allocator{server: serverDevice, next: 1},
				buffers: map[ffi.Rid][]byte{},
			}
			return id
		},
		DestroyDevice: func(id ffi.DeviceID) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("device.destroy")
			delete(e.devices, id)
		},
		BufferCreate: func(dev ffi.DeviceID, size uint32) ffi.Rid {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("device.buffer_create")
			d := e.devices[dev]
			if d == nil {
				return 0
			}
			r := d.alloc.create("buffer")
			d.buffers[r] = make([]byte, size)
			return r
		},
		SamplerCreate: func(dev ffi.DeviceID) ffi.Rid {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("device.sampler_create")
			d := e.devices[dev]
			if d == nil {
				return 0
			}
			return d.alloc.create("sampler")
		},
		FreeRid: func(dev ffi.DeviceID, r ffi.Rid) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("device.free_rid")
			d := e.devices[dev]
			if d != nil && d.alloc.release(r) {
				delete(d.buffers, r)
			}
		},
		BufferUpdate: func(dev ffi.DeviceID, buffer ffi.Rid, offset uint32, data []byte) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("device.buffer_update")
			d := e.devices[dev]
			if d == nil {
				return
			}
			buf, ok := d.buffers[buffer]
			if !ok || int(offset) >= len(buf) {
				return
			}
			copy(buf[offset:], data)
		},
		BufferGetData: func(dev ffi.DeviceID, buffer ffi.Rid) []byte {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.count("device.buffer_get_data")
			d := e.devices[dev]
			if d == nil {
				return nil
			}
			return append([]byte(nil), d.buffers[buffer]...)
		},
	}
}
