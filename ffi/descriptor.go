package ffi

import (
	"fmt"
	"sync"
)

// PropertyInfo describes one reflected property, as exchanged with the
// engine in flat form.
type PropertyInfo struct {
	Name       string
	Type       TypeTag
	ClassName  string
	HintString string
	Usage      uint32
}

// MethodInfo describes one reflected method.
type MethodInfo struct {
	Name      string
	Arguments []PropertyInfo
	Return    PropertyInfo
	Flags     uint32
}

// OwnedDescriptor is a token for a descriptor whose ownership has been
// transferred out of Go, pending reclamation by the matching Free call.
type OwnedDescriptor uintptr

var (
	ownedMu    sync.Mutex
	ownedNext  OwnedDescriptor = 1
	ownedProps                 = map[OwnedDescriptor]*PropertyInfo{}
	ownedMeths                 = map[OwnedDescriptor]*MethodInfo{}
)

// IntoOwnedProperty transfers ownership of the descriptor across the
// boundary. The returned token stays live until FreeOwnedProperty is called
// on it, exactly once. Each IntoOwnedProperty call must be paired with
// exactly one FreeOwnedProperty call, never zero or two.
func IntoOwnedProperty(p PropertyInfo) OwnedDescriptor {
	ownedMu.Lock()
	defer ownedMu.Unlock()
	tok := ownedNext
	ownedNext++
	ownedProps[tok] = &p
	return tok
}

// OwnedProperty dereferences a token created by IntoOwnedProperty.
func OwnedProperty(tok OwnedDescriptor) (*PropertyInfo, bool) {
	ownedMu.Lock()
	defer ownedMu.Unlock()
	p, ok := ownedProps[tok]
	return p, ok
}

// FreeOwnedProperty reclaims a token created by IntoOwnedProperty.
//
// Panics if the token was never issued or was already freed: an unbalanced
// pair is a bug at the boundary, not a recoverable condition.
func FreeOwnedProperty(tok OwnedDescriptor) {
	ownedMu.Lock()
	defer ownedMu.Unlock()
	if _, ok := ownedProps[tok]; !ok {
		panic(fmt.Sprintf("ffi: FreeOwnedProperty(%#x): token not owned (double free?)", uintptr(tok)))
	}
	delete(ownedProps, tok)
}

// IntoOwnedMethod transfers ownership of the descriptor across the
// boundary; same pairing contract as IntoOwnedProperty.
func IntoOwnedMethod(m MethodInfo) OwnedDescriptor {
	ownedMu.Lock()
	defer ownedMu.Unlock()
	tok := ownedNext
	ownedNext++
	ownedMeths[tok] = &m
	return tok
}

// OwnedMethod dereferences a token created by IntoOwnedMethod.
func OwnedMethod(tok OwnedDescriptor) (*MethodInfo, bool) {
	ownedMu.Lock()
	defer ownedMu.Unlock()
	m, ok := ownedMeths[tok]
	return m, ok
}

// FreeOwnedMethod reclaims a token created by IntoOwnedMethod.
func FreeOwnedMethod(tok OwnedDescriptor) {
	ownedMu.Lock()
	defer ownedMu.Unlock()
	if _, ok := ownedMeths[tok]; !ok {
		panic(fmt.Sprintf("ffi: FreeOwnedMethod(%#x): token not owned (double free?)", uintptr(tok)))
	}
	delete(ownedMeths, tok)
}

// LeakedDescriptors reports tokens still outstanding. Test teardown uses it
// to assert the into/free pairing held.
func LeakedDescriptors() int {
	ownedMu.Lock()
	defer ownedMu.Unlock()
	return len(ownedProps) + len(ownedMeths)
}
