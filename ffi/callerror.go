package ffi

import "fmt"

// CallErrorCode is the engine-reported outcome of a dynamic method call.
type CallErrorCode uint32

const (
	CallOK CallErrorCode = iota
	CallInvalidMethod
	CallInvalidArgument
	CallTooManyArguments
	CallTooFewArguments
	CallInstanceIsNull
	CallMethodNotConst
)

func (c CallErrorCode) String() string {
	switch c {
	case CallOK:
		return "ok"
	case CallInvalidMethod:
		return "invalid method"
	case CallInvalidArgument:
		return "invalid argument"
	case CallTooManyArguments:
		return "too many arguments"
	case CallTooFewArguments:
		return "too few arguments"
	case CallInstanceIsNull:
		return "instance is null"
	case CallMethodNotConst:
		return "method not const"
	default:
		return fmt.Sprintf("CallErrorCode(%d)", uint32(c))
	}
}

// CallError is the flat out-parameter struct filled by the engine for
// dynamic calls. A zero value means the call succeeded.
type CallError struct {
	Code     CallErrorCode
	Argument int32   // offending argument index, for CallInvalidArgument
	Expected TypeTag // expected type of that argument
}

// OK reports whether the call succeeded.
func (e CallError) OK() bool { return e.Code == CallOK }

// Describe renders the error with the calling context. Method and argument
// types are included so failures are diagnosable without a debugger.
func (e CallError) Describe(method string, argTypes []TypeTag) string {
	switch e.Code {
	case CallInvalidArgument:
		actual := "?"
		if int(e.Argument) >= 0 && int(e.Argument) < len(argTypes) {
			actual = argTypes[e.Argument].String()
		}
		return fmt.Sprintf(
			"call %q failed: invalid argument #%d; cannot convert from %s to %s",
			method, e.Argument, actual, e.Expected,
		)
	case CallTooManyArguments, CallTooFewArguments:
		return fmt.Sprintf("call %q failed: %s (got %d)", method, e.Code, len(argTypes))
	default:
		return fmt.Sprintf("call %q failed: %s", method, e.Code)
	}
}
