package variant_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kestrel-engine/kestrel-go/enginetest"
	"github.com/kestrel-engine/kestrel-go/variant"
)

func TestShareSeesMutations(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1))
	defer d.Close()

	s := d.Share()
	defer s.Close()
	s.Set("b", int64(2))

	// A share is a second reference to the same data, not a copy.
	v, found := d.Get("b")
	if !found {
		t.Fatal("mutation through the share must be visible in the original")
	}
	defer v.Close()
	if got := variant.To[int64](v); got != 2 {
		t.Fatalf("got %d", got)
	}
}

func TestDuplicateShallowIsIndependent(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1))
	defer d.Close()

	c := d.DuplicateShallow()
	defer c.Close()
	c.Set("b", int64(2))

	if d.ContainsKey("b") {
		t.Fatal("duplicate must not affect the original")
	}
	if !c.ContainsKey("a") {
		t.Fatal("duplicate must carry the original entries")
	}
}

func TestDuplicateDeepVersusShallowNesting(t *testing.T) {
	enginetest.Install(t)

	inner := variant.DictOf("x", int64(1))
	defer inner.Close()
	d := variant.DictOf("nested", inner)
	defer d.Close()

	shallow := d.DuplicateShallow()
	defer shallow.Close()
	deep := d.DuplicateDeep()
	defer deep.Close()

	// Mutate the nested container through the shallow copy: shared.
	sv := shallow.At("nested")
	snested := variant.To[variant.Dictionary](sv)
	sv.Close()
	defer snested.Close()
	snested.Set("x", int64(99))

	iv := d.At("nested")
	orig := variant.To[variant.Dictionary](iv)
	iv.Close()
	defer orig.Close()
	ov := orig.At("x")
	defer ov.Close()
	if got := variant.To[int64](ov); got != 99 {
		t.Fatalf("shallow duplicate must share nested containers, got %d", got)
	}

	// The deep copy's nested container is its own.
	dv := deep.At("nested")
	dnested := variant.To[variant.Dictionary](dv)
	dv.Close()
	defer dnested.Close()
	dxv := dnested.At("x")
	defer dxv.Close()
	if got := variant.To[int64](dxv); got != 1 {
		t.Fatalf("deep duplicate must not share nested containers, got %d", got)
	}
}

func TestGetAtContainsConsistency(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("present", int64(5), "nilval", nil)
	defer d.Close()

	if !d.ContainsKey("present") || !d.ContainsKey("nilval") {
		t.Fatal("both keys must be present")
	}
	if d.ContainsKey("absent") {
		t.Fatal("absent key must not be present")
	}

	// Present with nil value is distinguishable from absent.
	v, found := d.Get("nilval")
	if !found {
		t.Fatal("nil value must still report found")
	}
	if !v.IsNil() {
		t.Fatalf("expected nil value, got %s", v)
	}
	v.Close()

	if _, found := d.Get("absent"); found {
		t.Fatal("absent key must not report found")
	}
	if got := d.GetOrNil("absent"); !got.IsNil() {
		t.Fatalf("get_or_nil must collapse absent to nil, got %s", got)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("At must panic for an absent key")
		}
	}()
	d.At("absent")
}

func TestInsertReturnsPrevious(t *testing.T) {
	enginetest.Install(t)

	d := variant.NewDictionary()
	defer d.Close()

	d.Set("x", int64(1))
	prev, existed := d.Insert("x", int64(2))
	if !existed {
		t.Fatal("insert over an existing key must report the previous value")
	}
	if got := variant.To[int64](prev); got != 1 {
		t.Fatalf("previous value: got %d", got)
	}
	prev.Close()

	cur := d.At("x")
	defer cur.Close()
	if got := variant.To[int64](cur); got != 2 {
		t.Fatalf("current value: got %d", got)
	}

	if _, existed := d.Insert("y", int64(3)); existed {
		t.Fatal("insert of a fresh key must not report a previous value")
	}
}

func TestGetOrInsertIdempotent(t *testing.T) {
	enginetest.Install(t)

	d := variant.NewDictionary()
	defer d.Close()

	first := d.GetOrInsert("y", int64(5))
	defer first.Close()
	if got := variant.To[int64](first); got != 5 {
		t.Fatalf("first call must insert the default, got %d", got)
	}

	second := d.GetOrInsert("y", int64(99))
	defer second.Close()
	if got := variant.To[int64](second); got != 5 {
		t.Fatalf("second call must not overwrite, got %d", got)
	}
}

func TestGetOrInsertNativeVersusPolyfill(t *testing.T) {
	t.Run("native", func(t *testing.T) {
		e := enginetest.Install(t, enginetest.WithNativeGetOrAdd(true))
		d := variant.NewDictionary()
		defer d.Close()

		e.ResetCalls()
		v := d.GetOrInsert("k", int64(1))
		v.Close()
		if got := e.Calls("dict.get_or_add"); got != 1 {
			t.Fatalf("native path must use the dedicated capability, got %d calls", got)
		}
		if got := e.Calls("variant.get_keyed"); got != 0 {
			t.Fatalf("native path must not look up separately, got %d calls", got)
		}
	})
	t.Run("polyfill", func(t *testing.T) {
		e := enginetest.Install(t, enginetest.WithNativeGetOrAdd(false))
		d := variant.NewDictionary()
		defer d.Close()

		e.ResetCalls()
		v := d.GetOrInsert("k", int64(1))
		v.Close()
		if got := e.Calls("dict.get_or_add"); got != 0 {
			t.Fatalf("polyfill path must not see a native capability, got %d calls", got)
		}
		if got := e.Calls("variant.get_keyed"); got != 1 {
			t.Fatalf("polyfill looks up once, got %d calls", got)
		}
		if got := e.Calls("variant.set_keyed"); got != 1 {
			t.Fatalf("polyfill inserts once, got %d calls", got)
		}

		// Same observable result as the native path.
		w := d.GetOrInsert("k", int64(99))
		defer w.Close()
		if got := variant.To[int64](w); got != 1 {
			t.Fatalf("second call must not overwrite, got %d", got)
		}
	})
}

func TestRemove(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1))
	defer d.Close()

	prev, existed := d.Remove("a")
	if !existed {
		t.Fatal("removing an existing key must report the value")
	}
	if got := variant.To[int64](prev); got != 1 {
		t.Fatalf("removed value: got %d", got)
	}
	prev.Close()
	if d.ContainsKey("a") {
		t.Fatal("key must be gone after remove")
	}
	if _, existed := d.Remove("a"); existed {
		t.Fatal("removing a missing key must report absence")
	}
}

func TestExtendRespectsOverwriteFlag(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1), "b", int64(2))
	defer d.Close()
	other := variant.DictOf("b", int64(20), "c", int64(30))
	defer other.Close()

	d.Extend(other, false)
	got := collectInts(t, d)
	want := map[string]int64{"a": 1, "b": 2, "c": 30}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge without overwrite (-want +got):\n%s", diff)
	}

	d.Extend(other, true)
	got = collectInts(t, d)
	want = map[string]int64{"a": 1, "b": 20, "c": 30}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge with overwrite (-want +got):\n%s", diff)
	}
}

func TestFindKeyByValue(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1), "b", int64(2))
	defer d.Close()

	k, found := d.FindKeyByValue(int64(2))
	if !found {
		t.Fatal("value 2 is present")
	}
	if got := variant.To[string](k); got != "b" {
		t.Fatalf("found wrong key: %q", got)
	}
	k.Close()

	if _, found := d.FindKeyByValue(int64(7)); found {
		t.Fatal("value 7 is absent")
	}
}

func TestReadOnlyBestEffort(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1)).IntoReadOnly()
	defer d.Close()
	if !d.IsReadOnly() {
		t.Fatal("read-only flag must stick")
	}

	t.Run("checked writes panic", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("rejected write must panic while checked")
			}
		}()
		d.Set("b", int64(2))
	})

	t.Run("unchecked writes no-op", func(t *testing.T) {
		prev := variant.SetCheckedWrites(false)
		defer variant.SetCheckedWrites(prev)
		d.Set("b", int64(2))
		if d.ContainsKey("b") {
			t.Fatal("rejected write must not take effect")
		}
	})

	t.Run("checked remove panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("rejected removal must panic while checked")
			}
		}()
		d.Remove("a")
	})

	t.Run("unchecked remove reports not removed", func(t *testing.T) {
		prev := variant.SetCheckedWrites(false)
		defer variant.SetCheckedWrites(prev)
		if _, existed := d.Remove("a"); existed {
			t.Fatal("rejected removal must not claim success")
		}
		if !d.ContainsKey("a") {
			t.Fatal("entry must survive the rejected removal")
		}
	})

	t.Run("checked clear panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("rejected clear must panic while checked")
			}
		}()
		d.Clear()
	})

	t.Run("unchecked clear no-ops", func(t *testing.T) {
		prev := variant.SetCheckedWrites(false)
		defer variant.SetCheckedWrites(prev)
		d.Clear()
		if d.Len() != 1 {
			t.Fatalf("rejected clear must keep entries, len=%d", d.Len())
		}
	})
}

func TestReserveRebindsReference(t *testing.T) {
	e := enginetest.Install(t)

	d := variant.DictOf("a", int64(1))
	defer d.Close()

	e.ResetCalls()
	d.Reserve(64)
	if got := e.Calls("variant.call.reserve"); got != 1 {
		t.Fatalf("reserve must go through the generic call path, got %d", got)
	}

	// The re-bound reference still addresses the same data.
	d.Set("b", int64(2))
	if d.Len() != 2 || !d.ContainsKey("a") {
		t.Fatal("reserve must preserve contents and keep the handle usable")
	}
}

func TestKeysAndValuesArrays(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1), "b", int64(2))
	defer d.Close()

	keys := d.KeysArray()
	defer keys.Close()
	vals := d.ValuesArray()
	defer vals.Close()

	if keys.Len() != 2 || vals.Len() != 2 {
		t.Fatalf("lengths: keys %d values %d", keys.Len(), vals.Len())
	}
	k0 := keys.At(0)
	defer k0.Close()
	if got := variant.To[string](k0); got != "a" {
		t.Fatalf("entry order must hold: first key %q", got)
	}
	v1 := vals.At(1)
	defer v1.Close()
	if got := variant.To[int64](v1); got != 2 {
		t.Fatalf("second value: got %d", got)
	}
}

func TestAtAsPanicMessage(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("velocity", "fast")
	defer d.Close()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("strict typed access must panic on a type mismatch")
		}
		msg := r.(string)
		for _, part := range []string{"velocity", "Int", "String"} {
			if !strings.Contains(msg, part) {
				t.Fatalf("panic message missing %q: %s", part, msg)
			}
		}
	}()
	variant.AtAs[int64](d, "velocity")
}

// collectInts drains a string-to-int dictionary into a Go map.
func collectInts(t *testing.T, d variant.Dictionary) map[string]int64 {
	t.Helper()
	out := map[string]int64{}
	for k, v := range variant.TypedPairs[string, int64](d) {
		out[k] = v
	}
	return out
}
