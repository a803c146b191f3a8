package variant_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kestrel-engine/kestrel-go/enginetest"
	"github.com/kestrel-engine/kestrel-go/ffi"
	"github.com/kestrel-engine/kestrel-go/variant"
)

func TestIterYieldsPairsInEntryOrder(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1), "b", int64(2), "c", int64(3))
	defer d.Close()

	var keys []string
	var vals []int64
	it := d.Iter()
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		keys = append(keys, variant.To[string](k))
		vals = append(vals, variant.To[int64](v))
		k.Close()
		v.Close()
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, keys); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{1, 2, 3}, vals); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestIterEmptyDictionary(t *testing.T) {
	enginetest.Install(t)

	d := variant.NewDictionary()
	defer d.Close()

	it := d.Iter()
	if _, _, ok := it.Next(); ok {
		t.Fatal("empty dictionary must yield nothing")
	}
	if it.SizeHint() != 0 {
		t.Fatalf("empty hint: got %d", it.SizeHint())
	}
}

func TestSizeHintSaturatesUnderConcurrentRemoval(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1), "b", int64(2), "c", int64(3), "d", int64(4), "e", int64(5))
	defer d.Close()
	share := d.Share()
	defer share.Close()

	it := d.Iter()
	for i := 0; i < 3; i++ {
		k, v, ok := it.Next()
		if !ok {
			t.Fatalf("expected pair %d", i)
		}
		k.Close()
		v.Close()
	}

	// Shrink the container through the second reference below what the
	// cursor already consumed.
	for _, k := range []string{"a", "b", "c", "d"} {
		if prev, ok := share.Remove(k); ok {
			prev.Close()
		}
	}

	if hint := it.SizeHint(); hint != 0 {
		t.Fatalf("hint must saturate at zero, got %d", hint)
	}
	// Draining the degraded cursor must not panic; the yielded sequence
	// is unspecified from here.
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		k.Close()
		v.Close()
	}
}

func TestCursorsAreIndependent(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1), "b", int64(2))
	defer d.Close()

	first := d.IterKeys()
	k, ok := first.Next()
	if !ok {
		t.Fatal("first cursor must yield")
	}
	k.Close()

	// A fresh cursor starts over; it does not resume the first one.
	second := d.IterKeys()
	k2, ok := second.Next()
	if !ok {
		t.Fatal("second cursor must yield")
	}
	defer k2.Close()
	if got := variant.To[string](k2); got != "a" {
		t.Fatalf("fresh cursor must start at the beginning, got %q", got)
	}
}

func TestValuesIterator(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1), "b", int64(2))
	defer d.Close()

	var got []int64
	it := d.IterValues()
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, variant.To[int64](v))
		v.Close()
	}
	if diff := cmp.Diff([]int64{1, 2}, got); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestTypedIterationPanicsMidway(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1), "b", "two", "c", int64(3))
	defer d.Close()

	var seen int
	defer func() {
		if recover() == nil {
			t.Fatal("typed iteration must panic on the mismatched element")
		}
		if seen != 1 {
			t.Fatalf("expected the leading well-typed element first, saw %d", seen)
		}
	}()
	for range variant.TypedValues[int64](d) {
		seen++
	}
}

func TestDrainReleasesTheReference(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1), "b", int64(2))
	share := d.Share()
	defer share.Close()

	n := 0
	for k, v := range d.Drain() {
		n++
		k.Close()
		v.Close()
	}
	if n != 2 {
		t.Fatalf("drain must yield all pairs, got %d", n)
	}
	// The drained reference is gone; the data survives through the share.
	if share.Len() != 2 {
		t.Fatalf("data must survive the drained reference, len %d", share.Len())
	}
}

func TestPairsRangeFunc(t *testing.T) {
	enginetest.Install(t)

	d := variant.DictOf("a", int64(1), "b", int64(2), "c", int64(3))
	defer d.Close()

	got := map[string]int64{}
	for k, v := range d.Pairs() {
		got[variant.To[string](k)] = variant.To[int64](v)
		k.Close()
		v.Close()
	}
	want := map[string]int64{"a": 1, "b": 2, "c": 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pairs (-want +got):\n%s", diff)
	}
}

func TestCursorErrorStopsIterationAndLogs(t *testing.T) {
	e := enginetest.Install(t)

	d := variant.DictOf("a", int64(1))
	defer d.Close()

	tab := *e.Table()
	tab.Iter.Init = func(ffi.VariantPtr) (ffi.VariantPtr, bool, bool) {
		return 0, false, false
	}
	ffi.Load(&tab)
	defer ffi.Load(e.Table())

	core, logs := observer.New(zap.DebugLevel)
	ffi.SetLogger(zap.New(core))
	defer ffi.SetLogger(nil)

	if _, _, ok := d.Iter().Next(); ok {
		t.Fatal("a failing cursor must end iteration")
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one debug entry for the failing cursor, got %d", logs.Len())
	}
}
