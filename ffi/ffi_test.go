package ffi

import (
	"strings"
	"testing"
)

func TestRidEncoding(t *testing.T) {
	r := NewRid(2, 41)
	if r.ServerIndex() != 2 || r.LocalIndex() != 41 {
		t.Fatalf("round trip: got %d:%d", r.ServerIndex(), r.LocalIndex())
	}
	if !r.IsValid() {
		t.Fatal("nonzero rid must be valid")
	}
	if got := r.String(); got != "Rid(2:41)" {
		t.Fatalf("String: %q", got)
	}

	var zero Rid
	if zero.IsValid() {
		t.Fatal("zero rid must be invalid")
	}
	if got := zero.String(); got != "Rid(invalid)" {
		t.Fatalf("zero String: %q", got)
	}
}

func TestCallErrorDescribe(t *testing.T) {
	var ok CallError
	if !ok.OK() {
		t.Fatal("zero CallError must be OK")
	}

	e := CallError{Code: CallInvalidArgument, Argument: 1, Expected: TagInt}
	got := e.Describe("insert", []TypeTag{TagString, TagFloat})
	want := `call "insert" failed: invalid argument #1; cannot convert from Float to Int`
	if got != want {
		t.Fatalf("Describe:\n got %q\nwant %q", got, want)
	}

	e = CallError{Code: CallInvalidArgument, Argument: 5, Expected: TagInt}
	if got := e.Describe("insert", nil); !strings.Contains(got, "from ? to Int") {
		t.Fatalf("out of range argument index: %q", got)
	}

	e = CallError{Code: CallTooManyArguments}
	if got := e.Describe("clear", []TypeTag{TagInt, TagInt}); !strings.Contains(got, "(got 2)") {
		t.Fatalf("arity description: %q", got)
	}
}

func TestDescriptorOwnership(t *testing.T) {
	before := LeakedDescriptors()

	tok := IntoOwnedProperty(PropertyInfo{Name: "energy", Type: TagFloat})
	p, found := OwnedProperty(tok)
	if !found || p.Name != "energy" || p.Type != TagFloat {
		t.Fatalf("dereference: %+v found=%v", p, found)
	}
	FreeOwnedProperty(tok)
	if _, found := OwnedProperty(tok); found {
		t.Fatal("freed token must not resolve")
	}

	mtok := IntoOwnedMethod(MethodInfo{Name: "emit"})
	m, found := OwnedMethod(mtok)
	if !found || m.Name != "emit" {
		t.Fatalf("method dereference: %+v found=%v", m, found)
	}
	FreeOwnedMethod(mtok)

	if got := LeakedDescriptors(); got != before {
		t.Fatalf("descriptors leaked: %d outstanding beyond baseline", got-before)
	}
}

func TestDescriptorDoubleFreePanics(t *testing.T) {
	tok := IntoOwnedProperty(PropertyInfo{Name: "mass"})
	FreeOwnedProperty(tok)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("second free must panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "double free") {
			t.Fatalf("panic message: %v", r)
		}
	}()
	FreeOwnedProperty(tok)
}

func TestTablePanicsBeforeLoad(t *testing.T) {
	tableMu.Lock()
	saved := table
	table = nil
	tableMu.Unlock()
	defer Load(saved)

	if Loaded() {
		t.Fatal("Loaded must be false with no table installed")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("Table must panic with no table installed")
		}
	}()
	Table()
}
