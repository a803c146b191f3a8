package enginetest

import (
	"testing"

	"github.com/kestrel-engine/kestrel-go/ffi"
)

func TestSlotReuseIsLIFO(t *testing.T) {
	e := New()

	a := e.alloc(intValue(1))
	b := e.alloc(intValue(2))
	e.release(a)
	e.release(b)

	c := e.alloc(intValue(3))
	if c != b {
		t.Fatalf("expected most recently freed slot %d, got %d", b, c)
	}
	if e.alloc(intValue(4)) != a {
		t.Fatal("second allocation must reuse the older freed slot")
	}
}

func TestReadOfDeadSlotIsNil(t *testing.T) {
	e := New()

	p := e.alloc(stringValue(ffi.TagString, "gone"))
	e.release(p)
	if v := e.read(p); v.tag != ffi.TagNil {
		t.Fatalf("dead slot must read as nil, got tag %s", v.tag)
	}
}

func TestCountersTrackTableCalls(t *testing.T) {
	e := New()
	tab := e.Table()

	p := tab.Variant.FromInt(7)
	tab.Variant.ToInt(p)
	tab.Variant.ToInt(p)

	if got := e.Calls("variant.from_int"); got != 1 {
		t.Fatalf("from_int: %d", got)
	}
	if got := e.Calls("variant.to_int"); got != 2 {
		t.Fatalf("to_int: %d", got)
	}

	e.ResetCalls()
	if got := e.Calls("variant.to_int"); got != 0 {
		t.Fatalf("after reset: %d", got)
	}
}

func TestValueEqualPromotesNumbers(t *testing.T) {
	if eq, ok := valueEqual(intValue(3), floatValue(3.0)); !ok || !eq {
		t.Fatal("3 must equal 3.0")
	}
	if eq, ok := valueEqual(boolValue(true), intValue(1)); ok && eq {
		t.Fatal("bool must not compare equal to int")
	}
	if _, ok := valueEqual(ridValue(ffi.NewRid(1, 1)), intValue(1)); ok {
		t.Fatal("rid versus int comparison must be undefined")
	}
}

func TestConvertIntToColorUnpacksChannels(t *testing.T) {
	got := convert(ffi.TagColor, intValue(0x80FF40FF))
	want := ffi.Color{R: 0x80 / 255.0, G: 1, B: 0x40 / 255.0, A: 1}
	if got.tag != ffi.TagColor || got.col != want {
		t.Fatalf("convert: got %+v", got.col)
	}
}

func TestKillObjectFlipsLiveness(t *testing.T) {
	e := New()
	tab := e.Table()

	id := tab.Object.New("Node")
	if !tab.Object.IsAlive(id) {
		t.Fatal("fresh object must be alive")
	}
	e.KillObject(id)
	if tab.Object.IsAlive(id) {
		t.Fatal("killed object must not be alive")
	}
	if _, ok := tab.Object.ClassOf(id); ok {
		t.Fatal("class lookup must fail for a dead object")
	}
}
