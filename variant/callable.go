package variant

import (
	"github.com/kestrel-engine/kestrel-go/ffi"
)

// Callable wraps an engine callable value. Host functions registered
// through NewCallable can be invoked by the engine (and by the functional
// container helpers); callables received from the engine are invoked
// through Invoke.
type Callable struct {
	v Variant
}

// NewCallable registers fn with the engine under a diagnostic name.
// Argument variants passed to fn are engine-owned borrows; fn must not
// retain or Close them. The returned variant from fn transfers to the
// engine.
func NewCallable(name string, fn func(args []Variant) Variant) Callable {
	host := func(raw []ffi.VariantPtr) ffi.VariantPtr {
		args := make([]Variant, len(raw))
		for i, p := range raw {
			args[i] = borrow(p)
		}
		r := fn(args)
		return r.ptr
	}
	return Callable{v: own(ffi.Table().Callable.Create(name, host))}
}

// Func registers a unary host transform, the common shape for the
// functional container helpers.
func Func(name string, fn func(Variant) Variant) Callable {
	return NewCallable(name, func(args []Variant) Variant {
		if len(args) != 1 {
			return NewNil()
		}
		return fn(args[0])
	})
}

// Func2 registers a binary host transform, the shape Reduce wants.
func Func2(name string, fn func(a, b Variant) Variant) Callable {
	return NewCallable(name, func(args []Variant) Variant {
		if len(args) != 2 {
			return NewNil()
		}
		return fn(args[0], args[1])
	})
}

// Pred registers a unary predicate.
func Pred(name string, fn func(Variant) bool) Callable {
	return NewCallable(name, func(args []Variant) Variant {
		if len(args) != 1 {
			return New(false)
		}
		return New(fn(args[0]))
	})
}

// Invoke calls the callable with the given arguments. Arguments stay
// owned by the caller.
func (c Callable) Invoke(args ...Variant) Variant {
	ptrs := make([]ffi.VariantPtr, len(args))
	for i, a := range args {
		ptrs[i] = a.ptr
	}
	return own(ffi.Table().Callable.Invoke(c.v.ptr, ptrs))
}

// Variant returns a new variant referencing the callable.
func (c Callable) Variant() Variant { return c.v.Clone() }

// Close releases the callable's slot.
func (c *Callable) Close() { c.v.Close() }
