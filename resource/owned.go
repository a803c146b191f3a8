// Package resource implements the owned-handle protocol: a wrapper that
// ties the lifetime of one service-issued Rid to a local object, releasing
// it exactly once.
//
// A handle's life is create, use, release. Nothing enforces the matching
// release when raw Rids are passed around by hand; Owned does, by binding
// the Rid to the release path of the service that issued it at
// construction time. Singleton services bind their package-level FreeRid;
// instance services (a rendering device) close over the instance.
//
// There is no rebinding: a wrapper is armed once at construction and
// disarmed once, by Close or Detach. Exactly one wrapper may own a given
// Rid; sharing the resource means sharing the raw Rid value, never the
// wrapper.
package resource

import (
	"github.com/kestrel-engine/kestrel-go/ffi"
)

// Owned ties a Rid to its release path. The zero Owned is disarmed and
// safe to Close.
type Owned struct {
	rid  ffi.Rid
	free func(ffi.Rid)
}

// NewOwned arms a wrapper for rid. free is the owning service's release
// capability; it is invoked at most once, and never for an invalid Rid.
func NewOwned(rid ffi.Rid, free func(ffi.Rid)) Owned {
	return Owned{rid: rid, free: free}
}

// Rid returns the wrapped handle. The wrapper stays armed; the returned
// value is for pass-through to APIs that take raw Rids.
func (o Owned) Rid() ffi.Rid { return o.rid }

// IsValid reports whether the wrapper still holds a live handle.
func (o Owned) IsValid() bool { return o.rid.IsValid() }

// Close releases the handle. Idempotent: a second Close, a Close after
// Detach, and a Close of the zero wrapper are all no-ops. The validity
// guard keeps a default handle from ever issuing a release call.
func (o *Owned) Close() {
	if !o.rid.IsValid() {
		return
	}
	rid := o.rid
	o.rid = 0
	if o.free != nil {
		o.free(rid)
	}
	o.free = nil
}

// Detach transfers the handle out of the wrapper without releasing it.
// The wrapper is disarmed; the caller now owns the raw Rid and the
// matching release call.
func (o *Owned) Detach() ffi.Rid {
	rid := o.rid
	o.rid = 0
	o.free = nil
	return rid
}
