package variant

import (
	"fmt"
	"sync/atomic"

	"github.com/kestrel-engine/kestrel-go/ffi"
)

// Mutations the engine rejects (read-only containers) panic while checked
// writes are on, and silently no-op otherwise. This mirrors the engine's
// own debug/release enforcement split; it is a best-effort guard, not a
// hard invariant.
var checkedWrites atomic.Bool

func init() { checkedWrites.Store(true) }

// SetCheckedWrites toggles the rejected-write panic and returns the
// previous setting.
func SetCheckedWrites(on bool) bool {
	return checkedWrites.Swap(on)
}

// Dictionary is the engine's ordered key-to-value container. Keys and
// values are both variants.
//
// Dictionary handles are references: Share returns a second reference to
// the same data, so mutating the share mutates the original. Use
// DuplicateShallow or DuplicateDeep for an independent copy.
type Dictionary struct {
	v Variant
}

// NewDictionary creates an empty dictionary.
func NewDictionary() Dictionary {
	return Dictionary{v: own(tbl().Variant.NewDictionary())}
}

// DictOf creates a dictionary from alternating key, value arguments.
// Panics on an odd argument count.
func DictOf(kv ...any) Dictionary {
	if len(kv)%2 != 0 {
		panic("variant: DictOf requires alternating key, value arguments")
	}
	d := NewDictionary()
	for i := 0; i < len(kv); i += 2 {
		d.Set(kv[i], kv[i+1])
	}
	return d
}

// arg adapts a host value to a variant for the duration of one call.
// Variants pass through as borrows; anything else is converted and the
// returned cleanup releases it.
func arg(x any) (Variant, func()) {
	if v, ok := x.(Variant); ok {
		return v, func() {}
	}
	v := New(x)
	return v, func() { v.Close() }
}

// Share returns a new reference to the same underlying data. This is the
// container's native handle semantic, not a copy: d.Share().Set(k, v) is
// visible through d.
func (d Dictionary) Share() Dictionary {
	return Dictionary{v: d.v.Clone()}
}

// DuplicateShallow copies the top-level entries. Nested containers inside
// remain shared with the original.
func (d Dictionary) DuplicateShallow() Dictionary {
	return Dictionary{v: d.v.Call("duplicate", New(false))}
}

// DuplicateDeep copies entries and recursively duplicates nested
// containers. Object references inside still point at the same instances.
func (d Dictionary) DuplicateDeep() Dictionary {
	return Dictionary{v: d.v.Call("duplicate", New(true))}
}

// Set upserts key to value.
func (d Dictionary) Set(key, value any) {
	k, dk := arg(key)
	defer dk()
	v, dv := arg(value)
	defer dv()
	d.setKeyed(k, v)
}

// Insert upserts key to value and returns the previous value if the key
// existed. The existence check and the write are two engine calls; the
// pair is not atomic under concurrent mutation of the same handle.
func (d Dictionary) Insert(key, value any) (prev Variant, existed bool) {
	k, dk := arg(key)
	defer dk()
	v, dv := arg(value)
	defer dv()
	prev, existed = d.getKeyed(k)
	d.setKeyed(k, v)
	return prev, existed
}

// Get returns the value for key. found distinguishes an absent key from a
// key present with a nil value.
func (d Dictionary) Get(key any) (value Variant, found bool) {
	k, dk := arg(key)
	defer dk()
	return d.getKeyed(k)
}

// GetOrNil returns the value for key, collapsing "absent" and "present
// with nil value" both to nil.
func (d Dictionary) GetOrNil(key any) Variant {
	v, found := d.Get(key)
	if !found {
		return NewNil()
	}
	return v
}

// At returns the value for key, panicking if the key is absent.
func (d Dictionary) At(key any) Variant {
	k, dk := arg(key)
	defer dk()
	v, found := d.getKeyed(k)
	if !found {
		panic(fmt.Sprintf("dictionary: missing key %s", k))
	}
	return v
}

// AtAs returns the value for key converted strictly to T. Panics with the
// key and the expected versus actual type names when the key is absent or
// the held type does not match.
func AtAs[T any](d Dictionary, key any) T {
	k, dk := arg(key)
	defer dk()
	v, found := d.getKeyed(k)
	if !found {
		panic(fmt.Sprintf("dictionary: missing key %s", k))
	}
	defer v.Close()
	x, err := TryTo[T](v)
	if err != nil {
		panic(fmt.Sprintf("dictionary: key %s: %v", k, err))
	}
	return x
}

// GetOrInsert returns the existing value for key, or inserts def and
// returns it. On engines with the native get-or-add capability this is a
// single call; older engines fall back to a check-then-insert pair that
// is not atomic under concurrent mutation of the same handle. The result
// is the same either way.
func (d Dictionary) GetOrInsert(key, def any) Variant {
	k, dk := arg(key)
	defer dk()
	v, dv := arg(def)
	defer dv()
	if native := tbl().Variant.DictGetOrAdd; native != nil {
		return own(native(d.v.ptr, k.ptr, v.ptr))
	}
	if existing, found := d.getKeyed(k); found {
		return existing
	}
	d.setKeyed(k, v)
	return v.Clone()
}

// Remove deletes key, returning the removed value if it existed. A
// read-only container rejects the erase; in checked mode that panics,
// otherwise Remove reports the entry as not removed.
func (d Dictionary) Remove(key any) (prev Variant, existed bool) {
	k, dk := arg(key)
	defer dk()
	prev, existed = d.getKeyed(k)
	if !existed {
		return Variant{}, false
	}
	r := d.v.Call("erase", k)
	erased := r.Booleanize()
	r.Close()
	if !erased {
		prev.Close()
		if checkedWrites.Load() && d.IsReadOnly() {
			panic(fmt.Sprintf("dictionary: removal of key %s rejected (container is read-only)", k))
		}
		return Variant{}, false
	}
	return prev, existed
}

// Clear removes all entries. Same read-only contract as Remove.
func (d Dictionary) Clear() {
	if checkedWrites.Load() && d.IsReadOnly() {
		panic("dictionary: clear rejected (container is read-only)")
	}
	r := d.v.Call("clear")
	r.Close()
}

// ContainsKey reports whether key is present.
func (d Dictionary) ContainsKey(key any) bool {
	_, found := d.Get(key)
	return found
}

// ContainsAllKeys reports whether every given key is present.
func (d Dictionary) ContainsAllKeys(keys ...any) bool {
	for _, k := range keys {
		if !d.ContainsKey(k) {
			return false
		}
	}
	return true
}

// Len returns the number of entries.
func (d Dictionary) Len() int {
	r := d.v.Call("size")
	defer r.Close()
	return int(To[int64](r))
}

// IsEmpty reports whether the dictionary has no entries.
func (d Dictionary) IsEmpty() bool { return d.Len() == 0 }

// Extend merges other's entries into d. With overwrite false, existing
// keys keep their current values on conflict.
func (d Dictionary) Extend(other Dictionary, overwrite bool) {
	r := d.v.Call("merge", other.v, New(overwrite))
	r.Close()
}

// FindKeyByValue returns the first key whose value engine-equals value.
// Linear scan over all entries; avoid on hot paths.
func (d Dictionary) FindKeyByValue(value any) (Variant, bool) {
	v, dv := arg(value)
	defer dv()
	it := d.Iter()
	for {
		k, cur, ok := it.Next()
		if !ok {
			return Variant{}, false
		}
		eq := cur.Equal(v)
		cur.Close()
		if eq {
			return k, true
		}
		k.Close()
	}
}

// Reserve pre-sizes the backing storage for at least n entries. Advisory
// only. The call mutates through a copy-on-write wire value, so the local
// reference is re-bound to the returned container to observe the effect.
func (d *Dictionary) Reserve(n int) {
	r, err := d.v.TryCall("reserve", New(int64(n)))
	if err != nil {
		// Engines without the method treat the hint as a no-op.
		return
	}
	if r.Type() == ffi.TagDictionary {
		old := d.v
		d.v = r
		old.Close()
		return
	}
	r.Close()
}

// IntoReadOnly flags the dictionary against further mutation. Enforcement
// is best-effort, see SetCheckedWrites.
func (d Dictionary) IntoReadOnly() Dictionary {
	r := d.v.Call("make_read_only")
	r.Close()
	return d
}

// IsReadOnly reports whether the read-only flag is set.
func (d Dictionary) IsReadOnly() bool {
	r := d.v.Call("is_read_only")
	defer r.Close()
	return r.Booleanize()
}

// KeysArray returns the keys as a new array, in entry order.
func (d Dictionary) KeysArray() VarArray {
	return VarArray{v: d.v.Call("keys")}
}

// ValuesArray returns the values as a new array, in entry order.
func (d Dictionary) ValuesArray() VarArray {
	return VarArray{v: d.v.Call("values")}
}

// Hash returns the engine's content hash.
func (d Dictionary) Hash() uint32 { return d.v.Hash() }

// Variant returns a new variant referencing the same dictionary data.
func (d Dictionary) Variant() Variant { return d.v.Clone() }

func (d Dictionary) String() string { return d.v.String() }

// Close releases this reference. The data lives until its last reference
// is gone.
func (d *Dictionary) Close() { d.v.Close() }

func (d Dictionary) getKeyed(k Variant) (Variant, bool) {
	p, found := tbl().Variant.GetKeyed(d.v.ptr, k.ptr)
	if !found {
		return Variant{}, false
	}
	return own(p), true
}

func (d Dictionary) setKeyed(k, v Variant) {
	if !tbl().Variant.SetKeyed(d.v.ptr, k.ptr, v.ptr) && checkedWrites.Load() {
		panic(fmt.Sprintf("dictionary: write of key %s rejected (container is read-only)", k))
	}
}
