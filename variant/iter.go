package variant

import (
	"iter"

	"go.uber.org/zap"

	"github.com/kestrel-engine/kestrel-go/ffi"
)

// cursor drives the engine's iterate-by-cursor protocol over one
// container. It tracks whether iteration has started, the last key
// yielded (the engine wants it back to produce the next one) and how many
// elements were consumed, for the saturating size hint.
//
// Cursors are not restartable; a fresh Iter call starts an independent
// sequence. Mutating the container through another reference while a
// cursor is live is safe but yields an unspecified sequence.
type cursor struct {
	d        Dictionary
	last     Variant
	consumed int
	started  bool
	done     bool
}

// nextKey advances the cursor, returning an owned copy of the next key.
// Both protocol outcomes stop iteration: end of sequence and engine
// error. A consumer can do nothing useful with the difference, so the
// error case only leaves a debug log entry.
func (c *cursor) nextKey() (Variant, bool) {
	if c.done {
		return Variant{}, false
	}
	var (
		p           ffi.VariantPtr
		valid, more bool
	)
	if !c.started {
		c.started = true
		p, valid, more = tbl().Iter.Init(c.d.v.ptr)
	} else {
		p, valid, more = tbl().Iter.Next(c.d.v.ptr, c.last.ptr)
	}
	if !valid || !more {
		if !valid {
			ffi.Logger().Debug("container cursor reported an iteration error",
				zap.Int("consumed", c.consumed))
		}
		c.done = true
		c.last.Close()
		return Variant{}, false
	}
	c.last.Close()
	c.last = own(p)
	c.consumed++
	return c.last.Clone(), true
}

// sizeHint estimates remaining elements as current length minus consumed,
// saturating at zero. Stale under concurrent mutation; never exact by
// contract.
func (c *cursor) sizeHint() int {
	if c.done {
		return 0
	}
	if n := c.d.Len() - c.consumed; n > 0 {
		return n
	}
	return 0
}

// Iter yields key/value pairs in entry order.
type Iter struct {
	c cursor
}

// Iter starts a new pair iteration over the dictionary.
func (d Dictionary) Iter() *Iter {
	return &Iter{c: cursor{d: d}}
}

// Next returns the next pair. The returned variants are owned by the
// caller. A key removed between the cursor step and the value lookup
// yields a nil value.
func (it *Iter) Next() (key, value Variant, ok bool) {
	k, ok := it.c.nextKey()
	if !ok {
		return Variant{}, Variant{}, false
	}
	return k, it.c.d.GetOrNil(k), true
}

// SizeHint estimates the remaining pair count. See cursor.sizeHint.
func (it *Iter) SizeHint() int { return it.c.sizeHint() }

// Keys yields keys in entry order.
type Keys struct {
	c cursor
}

// IterKeys starts a new key iteration over the dictionary.
func (d Dictionary) IterKeys() *Keys {
	return &Keys{c: cursor{d: d}}
}

// Next returns the next key, owned by the caller.
func (it *Keys) Next() (Variant, bool) { return it.c.nextKey() }

// SizeHint estimates the remaining key count.
func (it *Keys) SizeHint() int { return it.c.sizeHint() }

// Values yields values in entry order.
type Values struct {
	c cursor
}

// IterValues starts a new value iteration over the dictionary.
func (d Dictionary) IterValues() *Values {
	return &Values{c: cursor{d: d}}
}

// Next returns the next value, owned by the caller.
func (it *Values) Next() (Variant, bool) {
	k, ok := it.c.nextKey()
	if !ok {
		return Variant{}, false
	}
	defer k.Close()
	return it.c.d.GetOrNil(k), true
}

// SizeHint estimates the remaining value count.
func (it *Values) SizeHint() int { return it.c.sizeHint() }

// Pairs adapts the dictionary to a range-over-func sequence. Yielded
// variants are owned by the loop body.
func (d Dictionary) Pairs() iter.Seq2[Variant, Variant] {
	return func(yield func(Variant, Variant) bool) {
		it := d.Iter()
		for {
			k, v, ok := it.Next()
			if !ok {
				return
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

// Drain consumes the dictionary: it yields all pairs and releases this
// reference when the sequence ends.
func (d *Dictionary) Drain() iter.Seq2[Variant, Variant] {
	return func(yield func(Variant, Variant) bool) {
		defer d.Close()
		for k, v := range d.Pairs() {
			if !yield(k, v) {
				return
			}
		}
	}
}

// TypedPairs converts each pair strictly to (K, V) as it is yielded. An
// element whose runtime type does not match panics mid-iteration; use the
// untyped sequence with TryTo when the content is not trusted.
func TypedPairs[K, V any](d Dictionary) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for k, v := range d.Pairs() {
			tk, tv := To[K](k), To[V](v)
			k.Close()
			v.Close()
			if !yield(tk, tv) {
				return
			}
		}
	}
}

// TypedKeys converts each key strictly to K as it is yielded. Panics
// mid-iteration on a type mismatch.
func TypedKeys[K any](d Dictionary) iter.Seq[K] {
	return func(yield func(K) bool) {
		it := d.IterKeys()
		for {
			k, ok := it.Next()
			if !ok {
				return
			}
			tk := To[K](k)
			k.Close()
			if !yield(tk) {
				return
			}
		}
	}
}

// TypedValues converts each value strictly to V as it is yielded. Panics
// mid-iteration on a type mismatch.
func TypedValues[V any](d Dictionary) iter.Seq[V] {
	return func(yield func(V) bool) {
		it := d.IterValues()
		for {
			v, ok := it.Next()
			if !ok {
				return
			}
			tv := To[V](v)
			v.Close()
			if !yield(tv) {
				return
			}
		}
	}
}
