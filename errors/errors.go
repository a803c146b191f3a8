package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConvert    Phase = "convert"    // variant <-> host type conversion
	PhaseCall       Phase = "call"       // dynamic method dispatch
	PhaseCollection Phase = "collection" // container and packed-buffer ops
	PhaseResource   Phase = "resource"   // handle lifecycle
	PhaseLoad       Phase = "load"       // engine/table loading
)

// Kind categorizes the error
type Kind string

const (
	// Conversion kinds.
	KindBadType        Kind = "bad_type"         // variant tag does not match requested type
	KindWrongClass     Kind = "wrong_class"      // object held, but of another class
	KindDeadObject     Kind = "dead_object"      // object held, but no longer alive
	KindNullObject     Kind = "null_object"      // object expected, null reference found
	KindOverflow       Kind = "overflow"         // wire value does not fit narrower host type
	KindInvalidEnum    Kind = "invalid_enum"     // engine enum value out of range
	KindZeroInstanceID Kind = "zero_instance_id" // instance id cannot be 0
	KindBadArrayType   Kind = "bad_array_type"   // element type mismatch in typed array

	// Call kinds, mirroring the engine's call error codes.
	KindInvalidMethod   Kind = "invalid_method"
	KindInvalidArgument Kind = "invalid_argument"
	KindTooManyArgs     Kind = "too_many_arguments"
	KindTooFewArgs      Kind = "too_few_arguments"
	KindNullInstance    Kind = "null_instance"
	KindConstViolation  Kind = "const_violation"

	// Collection kinds.
	KindOutOfBounds Kind = "out_of_bounds"
	KindCapacity    Kind = "capacity"
	KindEncoding    Kind = "encoding"

	// Everything else.
	KindNotLoaded Kind = "not_loaded"
	KindCustom    Kind = "custom"
)

// Error is the structured error type used throughout the bindings
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Expected string
	Actual   string
	Class    string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Expected != "" || e.Actual != "" {
		b.WriteString(": cannot convert from ")
		if e.Actual != "" {
			b.WriteString(e.Actual)
		} else {
			b.WriteString("?")
		}
		b.WriteString(" to ")
		if e.Expected != "" {
			b.WriteString(e.Expected)
		} else {
			b.WriteString("?")
		}
	}

	if e.Class != "" {
		b.WriteString(" (class ")
		b.WriteString(e.Class)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		if e.Expected != "" || e.Actual != "" || e.Class != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Value != nil {
		fmt.Fprintf(&b, ": %v", e.Value)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the key/property path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Expected sets the expected type name
func (b *Builder) Expected(t string) *Builder {
	b.err.Expected = t
	return b
}

// Actual sets the actual type name
func (b *Builder) Actual(t string) *Builder {
	b.err.Actual = t
	return b
}

// Class sets the object class name
func (b *Builder) Class(c string) *Builder {
	b.err.Class = c
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// BadType creates a conversion type-mismatch error
func BadType(expected, actual string) *Error {
	return &Error{
		Phase:    PhaseConvert,
		Kind:     KindBadType,
		Expected: expected,
		Actual:   actual,
	}
}

// WrongClass creates an object class-mismatch error
func WrongClass(expected, actual string) *Error {
	return &Error{
		Phase:    PhaseConvert,
		Kind:     KindWrongClass,
		Class:    expected,
		Detail:   fmt.Sprintf("found %s", actual),
		Expected: expected,
		Actual:   actual,
	}
}

// DeadObject creates an error for a variant holding a freed object
func DeadObject(id uint64) *Error {
	return &Error{
		Phase:  PhaseConvert,
		Kind:   KindDeadObject,
		Detail: fmt.Sprintf("variant holds object %d which is no longer alive", id),
	}
}

// Overflow creates a narrowing-conversion error
func Overflow(value any, targetType string) *Error {
	return &Error{
		Phase:    PhaseConvert,
		Kind:     KindOverflow,
		Expected: targetType,
		Detail:   fmt.Sprintf("`%s` cannot store the given value", targetType),
		Value:    value,
	}
}

// InvalidEnum creates an invalid engine enum value error
func InvalidEnum(value any, enumType string) *Error {
	return &Error{
		Phase:    PhaseConvert,
		Kind:     KindInvalidEnum,
		Expected: enumType,
		Detail:   "invalid engine enum value",
		Value:    value,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(index, length int) *Error {
	return &Error{
		Phase:  PhaseCollection,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// CallFailed wraps an engine-reported call failure
func CallFailed(kind Kind, method, detail string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   kind,
		Path:   []string{method},
		Detail: detail,
	}
}

// NotLoaded creates an error for operations before engine load
func NotLoaded(what string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindNotLoaded,
		Detail: fmt.Sprintf("%s requires a loaded engine call table", what),
	}
}

// Custom creates an error with a user-defined message
func Custom(msg string) *Error {
	return &Error{
		Phase:  PhaseConvert,
		Kind:   KindCustom,
		Detail: msg,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
