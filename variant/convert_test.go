package variant_test

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kestrel-engine/kestrel-go/enginetest"
	"github.com/kestrel-engine/kestrel-go/errors"
	"github.com/kestrel-engine/kestrel-go/ffi"
	"github.com/kestrel-engine/kestrel-go/variant"
)

func TestStrictVersusRelaxedDivergence(t *testing.T) {
	enginetest.Install(t)

	v := variant.New(int64(1))
	defer v.Close()

	if _, err := variant.TryTo[bool](v); err == nil {
		t.Fatal("strict int to bool must fail")
	}
	got, err := variant.TryToRelaxed[bool](v)
	if err != nil {
		t.Fatalf("relaxed int to bool: %v", err)
	}
	if got != true {
		t.Fatalf("relaxed 1 to bool: got %v", got)
	}

	// There is no int to string edge in the coercion graph.
	if _, err := variant.TryToRelaxed[variant.GString](v); err == nil {
		t.Fatal("relaxed int to string must fail")
	}
}

func TestRelaxedIdentityForVariantTarget(t *testing.T) {
	enginetest.Install(t)

	v := variant.New("anything")
	defer v.Close()

	c, err := variant.TryToRelaxed[variant.Variant](v)
	if err != nil {
		t.Fatalf("variant target must always succeed: %v", err)
	}
	defer c.Close()
	if !c.Equal(v) {
		t.Fatal("identity conversion must preserve the value")
	}
}

func TestRelaxedStringKinds(t *testing.T) {
	enginetest.Install(t)

	v := variant.New(variant.StringName("interned"))
	defer v.Close()

	if _, err := variant.TryTo[variant.GString](v); err == nil {
		t.Fatal("strict cross-kind string conversion must fail")
	}
	got, err := variant.TryToRelaxed[variant.GString](v)
	if err != nil {
		t.Fatalf("relaxed cross-kind string conversion: %v", err)
	}
	if got != "interned" {
		t.Fatalf("got %q", got)
	}
}

func TestRelaxedNilToObject(t *testing.T) {
	enginetest.Install(t)

	v := variant.NewNil()
	defer v.Close()

	o, err := variant.TryToRelaxed[variant.Object](v)
	if err != nil {
		t.Fatalf("relaxed nil to object: %v", err)
	}
	if !o.IsNil() {
		t.Fatalf("expected the nil reference, got %s", o)
	}
}

func TestRelaxedObjectToRid(t *testing.T) {
	enginetest.Install(t)

	o := variant.NewObject("Resource")
	v := variant.New(o)
	defer v.Close()

	r, err := variant.TryToRelaxed[ffi.Rid](v)
	if err != nil {
		t.Fatalf("relaxed object to rid: %v", err)
	}
	if !r.IsValid() {
		t.Fatal("expected a valid rid")
	}
}

func TestNarrowingOverflow(t *testing.T) {
	enginetest.Install(t)

	v := variant.New(int64(300))
	defer v.Close()

	_, err := variant.TryTo[int8](v)
	if err == nil {
		t.Fatal("300 must not fit int8")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConvert, Kind: errors.KindOverflow}) {
		t.Fatalf("expected overflow error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "int8") || !strings.Contains(err.Error(), "300") {
		t.Fatalf("overflow message must carry target and value: %s", err)
	}

	if got, err := variant.TryTo[int8](variantOf(t, int64(-7))); err != nil || got != -7 {
		t.Fatalf("fitting value must narrow cleanly: (%d, %v)", got, err)
	}
}

func TestBadTypeErrorCarriesBothTags(t *testing.T) {
	enginetest.Install(t)

	v := variant.New("text")
	defer v.Close()

	_, err := variant.TryTo[int64](v)
	if err == nil {
		t.Fatal("expected bad type error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Int") || !strings.Contains(msg, "String") {
		t.Fatalf("message must carry expected and actual tags: %s", msg)
	}
}

func TestConverterLookupIsCached(t *testing.T) {
	e := enginetest.Install(t)

	v := variant.New(int64(1))
	w := variant.New(int64(0))
	defer v.Close()
	defer w.Close()

	e.ResetCalls()
	if _, err := variant.TryToRelaxed[bool](v); err != nil {
		t.Fatal(err)
	}
	if _, err := variant.TryToRelaxed[bool](w); err != nil {
		t.Fatal(err)
	}
	if got := e.Calls("convert.lookup"); got != 1 {
		t.Fatalf("converter lookup must happen once per destination, got %d", got)
	}
	if got := e.Calls("convert.construct"); got != 2 {
		t.Fatalf("construction must run per conversion, got %d", got)
	}
}

func TestConverterCacheResetsAcrossEngines(t *testing.T) {
	e1 := enginetest.Install(t)
	v1 := variant.New(int64(1))
	if _, err := variant.TryToRelaxed[bool](v1); err != nil {
		t.Fatal(err)
	}
	v1.Close()

	// A freshly installed table must not be served converters looked up on
	// the previous one.
	e2 := enginetest.Install(t)
	v2 := variant.New(int64(1))
	defer v2.Close()
	if _, err := variant.TryToRelaxed[bool](v2); err != nil {
		t.Fatal(err)
	}
	if got := e2.Calls("convert.lookup"); got != 1 {
		t.Fatalf("new engine must see its own lookup, got %d", got)
	}
	_ = e1
}

func TestRelaxedIntToColor(t *testing.T) {
	enginetest.Install(t)

	// 0xFF0000FF: opaque red.
	v := variant.New(int64(0xFF0000FF))
	defer v.Close()

	c, err := variant.TryToRelaxed[ffi.Color](v)
	if err != nil {
		t.Fatalf("relaxed int to color: %v", err)
	}
	if c.R != 1 || c.G != 0 || c.B != 0 || c.A != 1 {
		t.Fatalf("got %v", c)
	}
}

func TestRelaxedArrayToPacked(t *testing.T) {
	enginetest.Install(t)

	a := variant.ArrayOf(variantOf(t, int64(1)), variantOf(t, int64(2)), variantOf(t, int64(3)))
	defer a.Close()
	v := a.Variant()
	defer v.Close()

	xs, err := variant.TryToRelaxed[[]int64](v)
	if err != nil {
		t.Fatalf("relaxed array to packed ints: %v", err)
	}
	if len(xs) != 3 || xs[0] != 1 || xs[2] != 3 {
		t.Fatalf("got %v", xs)
	}
}

// variantOf builds a variant the test does not bother closing; fixtures
// are torn down with the engine.
func variantOf(t *testing.T, x any) variant.Variant {
	t.Helper()
	return variant.New(x)
}
