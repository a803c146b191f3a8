package variant

import (
	"github.com/kestrel-engine/kestrel-go/errors"
)

// VarArray is the engine's variant-element sequence container. Like
// Dictionary it has shared-handle semantics: Share returns a reference to
// the same data, Duplicate copies.
type VarArray struct {
	v Variant
}

// NewArray creates an empty array.
func NewArray() VarArray {
	return VarArray{v: own(tbl().Variant.NewArray())}
}

// ArrayOf creates an array holding copies of the given values.
func ArrayOf(items ...Variant) VarArray {
	a := NewArray()
	for _, it := range items {
		a.PushBack(it)
	}
	return a
}

// Share returns a new reference to the same underlying data. Mutations
// through either reference are visible to both.
func (a VarArray) Share() VarArray {
	return VarArray{v: a.v.Clone()}
}

// Duplicate copies the array; deep recurses into nested containers.
func (a VarArray) Duplicate(deep bool) VarArray {
	r := a.v.Call("duplicate", New(deep))
	return VarArray{v: r}
}

// Len returns the number of elements.
func (a VarArray) Len() int {
	r := a.v.Call("size")
	defer r.Close()
	return int(To[int64](r))
}

// IsEmpty reports whether the array has no elements.
func (a VarArray) IsEmpty() bool { return a.Len() == 0 }

// Get returns the element at index, or false when out of range.
func (a VarArray) Get(index int) (Variant, bool) {
	k := New(int64(index))
	defer k.Close()
	p, found := tbl().Variant.GetKeyed(a.v.ptr, k.ptr)
	if !found {
		return Variant{}, false
	}
	return own(p), true
}

// At returns the element at index, panicking when out of range.
func (a VarArray) At(index int) Variant {
	v, ok := a.Get(index)
	if !ok {
		panic(errors.OutOfBounds(index, a.Len()).Error())
	}
	return v
}

// Set replaces the element at index. Panics when out of range.
func (a VarArray) Set(index int, value Variant) {
	k := New(int64(index))
	defer k.Close()
	if !tbl().Variant.SetKeyed(a.v.ptr, k.ptr, value.ptr) {
		panic(errors.OutOfBounds(index, a.Len()).Error())
	}
}

// PushBack appends a copy of value.
func (a VarArray) PushBack(value Variant) {
	r := a.v.Call("push_back", value)
	r.Close()
}

// Contains reports whether any element engine-equals value.
func (a VarArray) Contains(value Variant) bool {
	r := a.v.Call("has", value)
	defer r.Close()
	return r.Booleanize()
}

// Variant returns a new variant referencing the same array data.
func (a VarArray) Variant() Variant { return a.v.Clone() }

func (a VarArray) String() string { return a.v.String() }

// Close releases this reference. The data lives until its last reference
// is gone.
func (a *VarArray) Close() { a.v.Close() }
