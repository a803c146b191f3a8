package variant_test

import (
	"strings"
	"testing"

	"github.com/kestrel-engine/kestrel-go/enginetest"
	"github.com/kestrel-engine/kestrel-go/ffi"
	"github.com/kestrel-engine/kestrel-go/variant"
)

func TestRoundTripPrimitives(t *testing.T) {
	enginetest.Install(t)

	t.Run("bool", func(t *testing.T) {
		v := variant.New(true)
		defer v.Close()
		if got := variant.To[bool](v); got != true {
			t.Fatalf("roundtrip: got %v", got)
		}
	})
	t.Run("int", func(t *testing.T) {
		v := variant.New(int64(-42))
		defer v.Close()
		if got := variant.To[int64](v); got != -42 {
			t.Fatalf("roundtrip: got %d", got)
		}
	})
	t.Run("float", func(t *testing.T) {
		v := variant.New(2.5)
		defer v.Close()
		if got := variant.To[float64](v); got != 2.5 {
			t.Fatalf("roundtrip: got %g", got)
		}
	})
	t.Run("string kinds", func(t *testing.T) {
		s := variant.New("plain")
		n := variant.New(variant.StringName("name"))
		p := variant.New(variant.NodePath("root/child"))
		defer s.Close()
		defer n.Close()
		defer p.Close()
		if got := variant.To[string](s); got != "plain" {
			t.Fatalf("string roundtrip: got %q", got)
		}
		if got := variant.To[variant.StringName](n); got != "name" {
			t.Fatalf("string name roundtrip: got %q", got)
		}
		if got := variant.To[variant.NodePath](p); got != "root/child" {
			t.Fatalf("node path roundtrip: got %q", got)
		}
		if s.Type() != ffi.TagString || n.Type() != ffi.TagStringName || p.Type() != ffi.TagNodePath {
			t.Fatalf("string kinds must keep distinct tags: %s %s %s", s.Type(), n.Type(), p.Type())
		}
	})
	t.Run("color", func(t *testing.T) {
		c := ffi.Color{R: 1, G: 0.5, A: 1}
		v := variant.New(c)
		defer v.Close()
		if got := variant.To[ffi.Color](v); got != c {
			t.Fatalf("roundtrip: got %v", got)
		}
	})
	t.Run("rid", func(t *testing.T) {
		r := ffi.NewRid(1, 99)
		v := variant.New(r)
		defer v.Close()
		if got := variant.To[ffi.Rid](v); got != r {
			t.Fatalf("roundtrip: got %s", got)
		}
	})
	t.Run("packed", func(t *testing.T) {
		b := variant.New([]byte{1, 2, 3})
		i := variant.New([]int64{4, 5})
		f := variant.New([]float64{0.5})
		defer b.Close()
		defer i.Close()
		defer f.Close()
		if got := variant.To[[]byte](b); len(got) != 3 || got[2] != 3 {
			t.Fatalf("packed bytes roundtrip: got %v", got)
		}
		if got := variant.To[[]int64](i); len(got) != 2 || got[1] != 5 {
			t.Fatalf("packed ints roundtrip: got %v", got)
		}
		if got := variant.To[[]float64](f); len(got) != 1 || got[0] != 0.5 {
			t.Fatalf("packed floats roundtrip: got %v", got)
		}
	})
}

func TestNilVariant(t *testing.T) {
	enginetest.Install(t)

	v := variant.NewNil()
	defer v.Close()
	if !v.IsNil() {
		t.Fatal("NewNil must hold nil")
	}
	if v.Booleanize() {
		t.Fatal("nil must booleanize to false")
	}
	if _, err := variant.TryTo[int64](v); err == nil {
		t.Fatal("strict conversion from nil must fail")
	}
}

func TestEngineEquality(t *testing.T) {
	enginetest.Install(t)

	t.Run("numeric promotion", func(t *testing.T) {
		a := variant.New(int64(1))
		b := variant.New(1.0)
		defer a.Close()
		defer b.Close()
		if !a.Equal(b) {
			t.Fatal("1 and 1.0 must compare equal")
		}
	})
	t.Run("cross string kinds", func(t *testing.T) {
		a := variant.New(variant.GString("same"))
		b := variant.New(variant.StringName("same"))
		defer a.Close()
		defer b.Close()
		if !a.Equal(b) {
			t.Fatal("string kinds must compare equal across kinds")
		}
	})
	t.Run("undefined operator means not equal", func(t *testing.T) {
		a := variant.New(int64(1))
		b := variant.New("1")
		defer a.Close()
		defer b.Close()
		if a.Equal(b) {
			t.Fatal("int and string have no equality relation")
		}
	})
}

func TestCompare(t *testing.T) {
	enginetest.Install(t)

	a := variant.New(int64(1))
	b := variant.New(2.0)
	s := variant.New("x")
	defer a.Close()
	defer b.Close()
	defer s.Close()

	if cmp, ok := a.Compare(b); !ok || cmp != -1 {
		t.Fatalf("1 < 2.0: got (%d, %v)", cmp, ok)
	}
	if cmp, ok := b.Compare(a); !ok || cmp != 1 {
		t.Fatalf("2.0 > 1: got (%d, %v)", cmp, ok)
	}
	if _, ok := a.Compare(s); ok {
		t.Fatal("int and string must be unordered")
	}
}

func TestEvaluateArithmetic(t *testing.T) {
	enginetest.Install(t)

	a := variant.New(int64(6))
	b := variant.New(int64(4))
	defer a.Close()
	defer b.Close()

	sum, ok := a.Evaluate(ffi.OpAdd, b)
	if !ok {
		t.Fatal("int addition must be defined")
	}
	defer sum.Close()
	if got := variant.To[int64](sum); got != 10 {
		t.Fatalf("6 + 4: got %d", got)
	}

	mod, ok := a.Evaluate(ffi.OpModulo, b)
	if !ok {
		t.Fatal("int modulo must be defined")
	}
	defer mod.Close()
	if got := variant.To[int64](mod); got != 2 {
		t.Fatalf("6 %% 4: got %d", got)
	}
}

func TestCloneIsIndependentSlot(t *testing.T) {
	enginetest.Install(t)

	v := variant.New(int64(7))
	c := v.Clone()
	v.Close()
	// The clone's slot must survive the original.
	if got := variant.To[int64](c); got != 7 {
		t.Fatalf("clone after close: got %d", got)
	}
	c.Close()
}

func TestCallUnknownMethod(t *testing.T) {
	enginetest.Install(t)

	d := variant.NewDictionary()
	defer d.Close()
	v := d.Variant()
	defer v.Close()

	_, err := v.TryCall("no_such_method")
	if err == nil {
		t.Fatal("expected invalid method error")
	}
	if !strings.Contains(err.Error(), "no_such_method") {
		t.Fatalf("error must name the method: %s", err)
	}
}

func TestObjectLifecycle(t *testing.T) {
	e := enginetest.Install(t)

	o := variant.NewObject("Node3D")
	if !o.IsAlive() {
		t.Fatal("fresh object must be alive")
	}
	v := variant.New(o)
	defer v.Close()

	back := variant.To[variant.Object](v)
	if back.ID() != o.ID() || back.Class() != "Node3D" {
		t.Fatalf("object roundtrip: got %s", back)
	}

	if _, err := back.As("Resource"); err == nil {
		t.Fatal("wrong class must be rejected")
	}

	e.KillObject(o.ID())
	if _, err := variant.TryTo[variant.Object](v); err == nil {
		t.Fatal("conversion of a dead object reference must fail")
	}
}
