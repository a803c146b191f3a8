package enginewasm

import (
	"context"
	"strings"
	"testing"

	"github.com/kestrel-engine/kestrel-go/ffi"
)

func TestLoadRejectsNonWasm(t *testing.T) {
	_, err := Load(context.Background(), []byte("not a wasm module"), nil)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if !strings.Contains(err.Error(), "compile engine module") {
		t.Fatalf("error: %v", err)
	}
}

func TestLoadRejectsEmptyInput(t *testing.T) {
	if _, err := Load(context.Background(), nil, &Config{MemoryLimitPages: 256}); err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestHostFnRegistryIssuesDistinctIDs(t *testing.T) {
	e := &Engine{hostNext: 1, hostFns: map[uint64]ffi.HostFunc{}}

	fn := func(args []ffi.VariantPtr) ffi.VariantPtr { return 0 }
	a := e.registerHostFn(fn)
	b := e.registerHostFn(fn)
	if a == b {
		t.Fatalf("ids must be distinct, both %d", a)
	}
	if e.hostFns[a] == nil || e.hostFns[b] == nil {
		t.Fatal("both functions must be registered")
	}
}
