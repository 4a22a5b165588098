package types

import "fmt"

// ErrorCode identifies a kind of evaluation failure.
type ErrorCode string

// Error codes produced by the evaluator core. Namespaced E (evaluation) by
// rough area.
const (
	ErrNegatingNonNumeric ErrorCode = "E1001"

	ErrLeftSideNotNumber  ErrorCode = "E1010"
	ErrRightSideNotNumber ErrorCode = "E1011"
	ErrNumberOutOfRange   ErrorCode = "E1012"

	ErrBinaryOpTypes    ErrorCode = "E1020"
	ErrBinaryOpMismatch ErrorCode = "E1021"

	ErrLeftSideNotInteger  ErrorCode = "E1030"
	ErrRightSideNotInteger ErrorCode = "E1031"
	ErrRangeTooLarge       ErrorCode = "E1032"

	ErrNonStringKey ErrorCode = "E1040"
	ErrMultipleKeys ErrorCode = "E1041"

	ErrInvokedNonFunction        ErrorCode = "E1050"
	ErrInvokedNonFunctionSuggest ErrorCode = "E1051"
	ErrArgumentNotValid          ErrorCode = "E1052"

	ErrNotImplemented   ErrorCode = "E1060" // Sort, wildcard/descendant/parent
	ErrRecursionTooDeep ErrorCode = "E1061"
)

// Error is a structured evaluation failure carrying the source position of
// the node that raised it.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Err      error // wrapped cause, if any
}

// NewError creates a new Error with no wrapped cause.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{Code: code, Message: message, Position: position}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCause attaches a wrapped cause and returns the receiver.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}
