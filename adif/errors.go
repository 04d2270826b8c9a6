package adif

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when the input is exhausted where a field
// specifier or a header marker was expected. RecordIterator treats it as
// the normal end of the stream.
var ErrNoData = errors.New("no data found")

// ErrCannotInferType is reserved for consumers that cannot tell which
// shape to request.
var ErrCannotInferType = errors.New("cannot infer type")

// SyntaxError reports malformed specifier grammar or a protocol violation.
// The decoder only returns the sentinel values below, so callers can match
// them with errors.Is.
type SyntaxError struct {
	msg string
}

func (e *SyntaxError) Error() string {
	return e.msg
}

// Structural errors.
var (
	ErrNoSpecifierStart     = &SyntaxError{"could not find start of data specifier"}
	ErrNoColon              = &SyntaxError{"no colon in data specifier"}
	ErrInvalidTypeSpecifier = &SyntaxError{"invalid type specifier"}
	ErrInvalidLength        = &SyntaxError{"could not parse length from data specifier"}
	ErrValueNotRead         = &SyntaxError{"did not read previous value"}
	ErrMissingEOR           = &SyntaxError{"record is missing end-of-record marker"}
)

// InvalidTypeError is returned when a consumer requests a shape the decoder
// does not support, or requests a value when no payload is pending.
type InvalidTypeError struct {
	Shape string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid type, `%s` requested", e.Shape)
}

// UnexpectedEndError is returned when the input ends inside a specifier or
// a payload.
type UnexpectedEndError struct {
	Context string
}

func (e *UnexpectedEndError) Error() string {
	return fmt.Sprintf("unexpected end of input while %s", e.Context)
}

// ParseError wraps a numeric conversion failure.
type ParseError struct {
	Kind  string // "integer" or "float"
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("issue parsing %s %q: %v", e.Kind, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CustomError carries a message raised by a consumer. Err is set when the
// message came from a value's own UnmarshalText.
type CustomError struct {
	Msg string
	Err error
}

func (e *CustomError) Error() string {
	return e.Msg
}

func (e *CustomError) Unwrap() error {
	return e.Err
}
