package enginetest

import (
	"slices"

	"github.com/kestrel-engine/kestrel-go/ffi"
)

// dict is the engine's ordered dictionary storage. Entries keep insertion
// order; key lookup is a linear scan under engine equality, which also
// gives the three string kinds their cross-kind key behavior.
type dict struct {
	entries  []entry
	readOnly bool
}

type entry struct {
	key, val value
}

func (d *dict) find(key value) int {
	for i, e := range d.entries {
		if eq, ok := valueEqual(e.key, key); ok && eq {
			return i
		}
	}
	return -1
}

func (d *dict) get(key value) (value, bool) {
	if i := d.find(key); i >= 0 {
		return d.entries[i].val, true
	}
	return value{}, false
}

// set upserts and reports whether the write was accepted.
func (d *dict) set(key, val value) bool {
	if d.readOnly {
		return false
	}
	if i := d.find(key); i >= 0 {
		d.entries[i].val = val
		return true
	}
	d.entries = append(d.entries, entry{key: key, val: val})
	return true
}

func (d *dict) erase(key value) bool {
	if d.readOnly {
		return false
	}
	if i := d.find(key); i >= 0 {
		d.entries = slices.Delete(d.entries, i, i+1)
		return true
	}
	return false
}

// duplicate copies the entries. Deep recurses into nested containers;
// object references stay shared either way.
func (d *dict) duplicate(deep bool) *dict {
	out := &dict{entries: make([]entry, len(d.entries))}
	for i, e := range d.entries {
		out.entries[i] = entry{
			key: duplicateValue(e.key, deep),
			val: duplicateValue(e.val, deep),
		}
	}
	return out
}

func duplicateValue(v value, deep bool) value {
	if !deep {
		return copyValue(v)
	}
	switch v.tag {
	case ffi.TagDictionary:
		if v.dict != nil {
			return value{tag: ffi.TagDictionary, dict: v.dict.duplicate(true)}
		}
	case ffi.TagArray:
		if v.arr != nil {
			return value{tag: ffi.TagArray, arr: v.arr.duplicate(true)}
		}
	}
	return copyValue(v)
}

// array is the engine's variant sequence storage.
type array struct {
	items    []value
	readOnly bool
}

func (a *array) duplicate(deep bool) *array {
	out := &array{items: make([]value, len(a.items))}
	for i, it := range a.items {
		out.items[i] = duplicateValue(it, deep)
	}
	return out
}

// callMethod is the generic call-by-name dispatch for container methods
// that have no dedicated table capability. Callers hold e.mu.
func (e *Engine) callMethod(self value, method string, args []value) (value, ffi.CallError) {
	badMethod := ffi.CallError{Code: ffi.CallInvalidMethod}
	switch self.tag {
	case ffi.TagDictionary:
		d := self.dict
		if d == nil {
			return value{}, ffi.CallError{Code: ffi.CallInstanceIsNull}
		}
		switch method {
		case "size":
			return intValue(int64(len(d.entries))), ffi.CallError{}
		case "is_empty":
			return boolValue(len(d.entries) == 0), ffi.CallError{}
		case "clear":
			if !d.readOnly {
				d.entries = nil
			}
			return nilValue(), ffi.CallError{}
		case "erase":
			if len(args) != 1 {
				return value{}, arityError(len(args), 1)
			}
			return boolValue(d.erase(args[0])), ffi.CallError{}
		case "duplicate":
			if len(args) != 1 || args[0].tag != ffi.TagBool {
				return value{}, ffi.CallError{
					Code: ffi.CallInvalidArgument, Argument: 0, Expected: ffi.TagBool,
				}
			}
			return value{tag: ffi.TagDictionary, dict: d.duplicate(args[0].b)}, ffi.CallError{}
		case "keys":
			out := &array{items: make([]value, len(d.entries))}
			for i, en := range d.entries {
				out.items[i] = copyValue(en.key)
			}
			return value{tag: ffi.TagArray, arr: out}, ffi.CallError{}
		case "values":
			out := &array{items: make([]value, len(d.entries))}
			for i, en := range d.entries {
				out.items[i] = copyValue(en.val)
			}
			return value{tag: ffi.TagArray, arr: out}, ffi.CallError{}
		case "merge":
			if len(args) != 2 || args[0].tag != ffi.TagDictionary {
				return value{}, ffi.CallError{
					Code: ffi.CallInvalidArgument, Argument: 0, Expected: ffi.TagDictionary,
				}
			}
			overwrite := args[1].truthy()
			if other := args[0].dict; other != nil {
				for _, en := range other.entries {
					if _, exists := d.get(en.key); exists && !overwrite {
						continue
					}
					d.set(copyValue(en.key), copyValue(en.val))
				}
			}
			return nilValue(), ffi.CallError{}
		case "find_key":
			if len(args) != 1 {
				return value{}, arityError(len(args), 1)
			}
			for _, en := range d.entries {
				if eq, ok := valueEqual(en.val, args[0]); ok && eq {
					return copyValue(en.key), ffi.CallError{}
				}
			}
			return nilValue(), ffi.CallError{}
		case "make_read_only":
			d.readOnly = true
			return nilValue(), ffi.CallError{}
		case "is_read_only":
			return boolValue(d.readOnly), ffi.CallError{}
		case "reserve":
			if len(args) != 1 || args[0].tag != ffi.TagInt {
				return value{}, ffi.CallError{
					Code: ffi.CallInvalidArgument, Argument: 0, Expected: ffi.TagInt,
				}
			}
			if n := int(args[0].i); n > len(d.entries) {
				d.entries = slices.Grow(d.entries, n-len(d.entries))
			}
			// The mutation rode a copy-on-write value; hand back the
			// container so the caller can re-bind its reference.
			return value{tag: ffi.TagDictionary, dict: d}, ffi.CallError{}
		case "hash":
			return intValue(int64(self.hash())), ffi.CallError{}
		}
		return value{}, badMethod
	case ffi.TagArray:
		a := self.arr
		if a == nil {
			return value{}, ffi.CallError{Code: ffi.CallInstanceIsNull}
		}
		switch method {
		case "size":
			return intValue(int64(len(a.items))), ffi.CallError{}
		case "is_empty":
			return boolValue(len(a.items) == 0), ffi.CallError{}
		case "push_back":
			if len(args) != 1 {
				return value{}, arityError(len(args), 1)
			}
			if !a.readOnly {
				a.items = append(a.items, copyValue(args[0]))
			}
			return nilValue(), ffi.CallError{}
		case "has":
			if len(args) != 1 {
				return value{}, arityError(len(args), 1)
			}
			for _, it := range a.items {
				if eq, ok := valueEqual(it, args[0]); ok && eq {
					return boolValue(true), ffi.CallError{}
				}
			}
			return boolValue(false), ffi.CallError{}
		case "duplicate":
			if len(args) != 1 || args[0].tag != ffi.TagBool {
				return value{}, ffi.CallError{
					Code: ffi.CallInvalidArgument, Argument: 0, Expected: ffi.TagBool,
				}
			}
			return value{tag: ffi.TagArray, arr: a.duplicate(args[0].b)}, ffi.CallError{}
		}
		return value{}, badMethod
	}
	return value{}, badMethod
}

func arityError(got, want int) ffi.CallError {
	if got > want {
		return ffi.CallError{Code: ffi.CallTooManyArguments}
	}
	return ffi.CallError{Code: ffi.CallTooFewArguments}
}

// iterInit starts the cursor protocol: the first key, or end for an empty
// container. Only keyed containers iterate.
func (e *Engine) iterInit(container value) (value, bool, bool) {
	if container.tag != ffi.TagDictionary || container.dict == nil {
		return value{}, false, false
	}
	if len(container.dict.entries) == 0 {
		return value{}, true, false
	}
	return copyValue(container.dict.entries[0].key), true, true
}

// iterNext resumes after prev. A prev key no longer present ends the
// sequence; mutation during iteration yields an unspecified but safe
// order.
func (e *Engine) iterNext(container, prev value) (value, bool, bool) {
	if container.tag != ffi.TagDictionary || container.dict == nil {
		return value{}, false, false
	}
	i := container.dict.find(prev)
	if i < 0 || i+1 >= len(container.dict.entries) {
		return value{}, true, false
	}
	return copyValue(container.dict.entries[i+1].key), true, true
}
