package variant

// Functional helpers over dictionary values. Predicates and transforms
// are engine callables so scripts and host functions are interchangeable
// here; see Func and Pred for the host-side constructors. All of these
// iterate the receiver through a fresh cursor.

// Filter returns a new dictionary with the entries whose value satisfies
// pred. Keys are preserved.
func (d Dictionary) Filter(pred Callable) Dictionary {
	out := NewDictionary()
	for k, v := range d.Pairs() {
		r := pred.Invoke(v)
		if r.Booleanize() {
			out.Set(k, v)
		}
		r.Close()
		k.Close()
		v.Close()
	}
	return out
}

// MapValues returns a new dictionary with the same keys and each value
// replaced by fn(value).
func (d Dictionary) MapValues(fn Callable) Dictionary {
	out := NewDictionary()
	for k, v := range d.Pairs() {
		r := fn.Invoke(v)
		out.Set(k, r)
		r.Close()
		k.Close()
		v.Close()
	}
	return out
}

// Any reports whether pred holds for at least one value. Stops at the
// first match.
func (d Dictionary) Any(pred Callable) bool {
	for k, v := range d.Pairs() {
		r := pred.Invoke(v)
		hit := r.Booleanize()
		r.Close()
		k.Close()
		v.Close()
		if hit {
			return true
		}
	}
	return false
}

// All reports whether pred holds for every value. Stops at the first
// failure; vacuously true for an empty dictionary.
func (d Dictionary) All(pred Callable) bool {
	for k, v := range d.Pairs() {
		r := pred.Invoke(v)
		miss := !r.Booleanize()
		r.Close()
		k.Close()
		v.Close()
		if miss {
			return false
		}
	}
	return true
}

// Reduce folds the values with fn(accumulator, value), starting from
// init. The caller keeps ownership of init; the result is a fresh
// variant.
func (d Dictionary) Reduce(fn Callable, init Variant) Variant {
	acc := init.Clone()
	for k, v := range d.Pairs() {
		next := fn.Invoke(acc, v)
		acc.Close()
		acc = next
		k.Close()
		v.Close()
	}
	return acc
}
