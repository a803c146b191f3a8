// Package variant implements the dynamic value model of the Kestrel
// extension API: the Variant tagged union, the Dictionary and VarArray
// containers built on it, Callable host functions, and the iterator
// adapters over the engine's cursor protocol.
//
// A Variant owns exactly one opaque storage slot inside the engine. Clone
// allocates a fresh slot through the engine's copy constructor; Close
// releases the slot. Dictionaries invert that intuition: Share returns a
// new reference to the same underlying data, and the explicit
// DuplicateShallow/DuplicateDeep operations are the actual copies.
//
// Conversion to host types comes in two tiers. To and TryTo require an
// exact runtime tag match; TryToRelaxed follows the engine's lenient
// coercion graph (numeric chains, string-kind interchangeability, and so
// on). See To for the supported host types.
//
// Nothing in this package locks: concurrent mutation of the same container
// handle from several goroutines is the caller's problem. The engine keeps
// it memory-safe but the observable results are unspecified.
package variant
