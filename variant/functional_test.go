package variant_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kestrel-engine/kestrel-go/enginetest"
	"github.com/kestrel-engine/kestrel-go/variant"
)

// The scenario throughout: {"a": 1, "b": 2, "c": 3}.
func scenario(t *testing.T) variant.Dictionary {
	t.Helper()
	return variant.DictOf("a", int64(1), "b", int64(2), "c", int64(3))
}

func even(v variant.Variant) bool {
	return variant.To[int64](v)%2 == 0
}

func TestFilter(t *testing.T) {
	enginetest.Install(t)
	d := scenario(t)
	defer d.Close()

	pred := variant.Pred("even", even)
	defer pred.Close()

	out := d.Filter(pred)
	defer out.Close()
	want := map[string]int64{"b": 2}
	if diff := cmp.Diff(want, collectInts(t, out)); diff != "" {
		t.Fatalf("filter (-want +got):\n%s", diff)
	}
	// The source is untouched.
	if d.Len() != 3 {
		t.Fatalf("filter must not mutate the source, len %d", d.Len())
	}
}

func TestMapValues(t *testing.T) {
	enginetest.Install(t)
	d := scenario(t)
	defer d.Close()

	square := variant.Func("square", func(v variant.Variant) variant.Variant {
		x := variant.To[int64](v)
		return variant.New(x * x)
	})
	defer square.Close()

	out := d.MapValues(square)
	defer out.Close()
	want := map[string]int64{"a": 1, "b": 4, "c": 9}
	if diff := cmp.Diff(want, collectInts(t, out)); diff != "" {
		t.Fatalf("map (-want +got):\n%s", diff)
	}
}

func TestReduce(t *testing.T) {
	enginetest.Install(t)
	d := scenario(t)
	defer d.Close()

	sum := variant.Func2("sum", func(acc, v variant.Variant) variant.Variant {
		return variant.New(variant.To[int64](acc) + variant.To[int64](v))
	})
	defer sum.Close()

	init := variant.New(int64(0))
	defer init.Close()
	total := d.Reduce(sum, init)
	defer total.Close()
	if got := variant.To[int64](total); got != 6 {
		t.Fatalf("reduce: got %d", got)
	}
}

func TestAnyAndAll(t *testing.T) {
	enginetest.Install(t)
	d := scenario(t)
	defer d.Close()

	isEven := variant.Pred("even", even)
	defer isEven.Close()
	positive := variant.Pred("positive", func(v variant.Variant) bool {
		return variant.To[int64](v) > 0
	})
	defer positive.Close()
	negative := variant.Pred("negative", func(v variant.Variant) bool {
		return variant.To[int64](v) < 0
	})
	defer negative.Close()

	if !d.Any(isEven) {
		t.Fatal("any(even) must hold for {1, 2, 3}")
	}
	if !d.All(positive) {
		t.Fatal("all(>0) must hold for {1, 2, 3}")
	}
	if d.Any(negative) {
		t.Fatal("any(<0) must not hold")
	}
	if d.All(isEven) {
		t.Fatal("all(even) must not hold")
	}
}

func TestAnyShortCircuits(t *testing.T) {
	enginetest.Install(t)
	d := scenario(t)
	defer d.Close()

	calls := 0
	hit := variant.Pred("first", func(variant.Variant) bool {
		calls++
		return true
	})
	defer hit.Close()

	if !d.Any(hit) {
		t.Fatal("any with a constant-true predicate must hold")
	}
	if calls != 1 {
		t.Fatalf("any must stop at the first match, predicate ran %d times", calls)
	}
}

func TestFunctionalOpsOnEmpty(t *testing.T) {
	enginetest.Install(t)
	d := variant.NewDictionary()
	defer d.Close()

	pred := variant.Pred("even", even)
	defer pred.Close()

	if d.Any(pred) {
		t.Fatal("any over empty is false")
	}
	if !d.All(pred) {
		t.Fatal("all over empty is vacuously true")
	}

	sum := variant.Func2("sum", func(acc, v variant.Variant) variant.Variant {
		return variant.New(variant.To[int64](acc) + variant.To[int64](v))
	})
	defer sum.Close()
	init := variant.New(int64(41))
	defer init.Close()
	total := d.Reduce(sum, init)
	defer total.Close()
	if got := variant.To[int64](total); got != 41 {
		t.Fatalf("reduce over empty must return init, got %d", got)
	}
}
