// Package errors provides structured error types for the Kestrel bindings.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: the offending key or
// property path, expected/actual type tags, class names, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConvert, errors.KindBadType).
//		Path("velocity").
//		Expected("Float").
//		Actual("String").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.BadType(expected, actual)
//	err := errors.DeadObject(id)
//
// All errors implement the standard error interface and support errors.Is/As.
// Conversion failures are returned from Try-prefixed entry points; the
// panicking convenience entry points format the same errors into their panic
// messages.
package errors
