package resource

import (
	"testing"

	"github.com/kestrel-engine/kestrel-go/ffi"
)

func TestCloseReleasesOnce(t *testing.T) {
	freed := 0
	o := NewOwned(ffi.NewRid(1, 7), func(r ffi.Rid) {
		freed++
		if r != ffi.NewRid(1, 7) {
			t.Errorf("released wrong rid: %s", r)
		}
	})

	if !o.IsValid() {
		t.Fatal("expected armed wrapper to be valid")
	}
	o.Close()
	o.Close()
	if freed != 1 {
		t.Fatalf("expected exactly one release, got %d", freed)
	}
	if o.IsValid() {
		t.Fatal("expected wrapper to be disarmed after close")
	}
}

func TestZeroWrapperCloseIsNoop(t *testing.T) {
	var o Owned
	o.Close() // must not panic or call anything

	o = NewOwned(0, func(ffi.Rid) {
		t.Fatal("release must never fire for an invalid rid")
	})
	o.Close()
}

func TestDetachDisarms(t *testing.T) {
	o := NewOwned(ffi.NewRid(2, 3), func(ffi.Rid) {
		t.Fatal("release must not fire after detach")
	})

	rid := o.Detach()
	if rid != ffi.NewRid(2, 3) {
		t.Fatalf("detach returned wrong rid: %s", rid)
	}
	if o.IsValid() {
		t.Fatal("expected wrapper to be disarmed after detach")
	}
	o.Close()
}

func TestRidAccessorKeepsOwnership(t *testing.T) {
	freed := 0
	o := NewOwned(ffi.NewRid(1, 1), func(ffi.Rid) { freed++ })

	if got := o.Rid(); got != ffi.NewRid(1, 1) {
		t.Fatalf("unexpected rid: %s", got)
	}
	if freed != 0 {
		t.Fatal("accessor must not release")
	}
	o.Close()
	if freed != 1 {
		t.Fatalf("expected one release, got %d", freed)
	}
}
