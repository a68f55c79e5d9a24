package fixedwidth

import (
	"fmt"

	"github.com/pkg/errors"
)

// Configuration failures. Compile wraps exactly one of these in a
// *ConfigError, so callers can test for them with errors.Is.
var (
	ErrUnknownEncoding = errors.New("unknown encoding")
	ErrInvalidPad      = errors.New("padding value must be a single character")
	ErrInvalidEOL      = errors.New("end of line cannot be encoded")
	ErrInvalidFromLine = errors.New("starting line must be a positive integer")
	ErrInvalidToLine   = errors.New("ending line must be a positive integer")
	ErrLineRange       = errors.New("ending line must be greater or equal to the starting line")
	ErrNoFields        = errors.New("at least one field is required")
	ErrInvalidWidth    = errors.New("field width must be a positive integer")
	ErrInvalidColumn   = errors.New("field column must be a positive integer")
	ErrInvalidAlign    = errors.New("field alignment must be left or right")
	ErrUnknownType     = errors.New("unknown field type")
	ErrMixedKeys       = errors.New("key must be specified by all fields or by none")
	ErrFieldsOverlap   = errors.New("some fields are overlapping")
)

// A ConfigError describes invalid Options passed to Compile.
type ConfigError struct {
	Option string // name of the offending option
	Field  int    // index of the offending field, -1 for layout level options
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Field >= 0 {
		return fmt.Sprintf("fixedwidth: invalid field %d %s: %v", e.Field, e.Option, e.Err)
	}
	return fmt.Sprintf("fixedwidth: invalid %s: %v", e.Option, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Cause implements the github.com/pkg/errors causer interface.
func (e *ConfigError) Cause() error { return e.Err }

func layoutError(option string, err error) error {
	return &ConfigError{Option: option, Field: -1, Err: err}
}

func fieldError(index int, option string, err error) error {
	return &ConfigError{Option: option, Field: index, Err: err}
}

// Kind is a stable, machine readable classification of an *Error.
type Kind string

const (
	UnexpectedLineLength Kind = "UNEXPECTED_LINE_LENGTH"
	ExpectedStringValue  Kind = "EXPECTED_STRING_VALUE"
	FieldValueOverflow   Kind = "FIELD_VALUE_OVERFLOW"
	CastFailed           Kind = "CAST_FAILED"
	RenderFailed         Kind = "RENDER_FAILED"
	DecodeFailed         Kind = "DECODE_FAILED"
)

// An Error describes a failure to parse or stringify a single record.
//
// Line is always set. Column and Width are set for field level failures
// and are zero otherwise. Value holds the raw line (parsing) or the
// offending field value (stringifying).
type Error struct {
	Kind   Kind
	Line   int
	Column int
	Width  int
	Value  interface{}
	Err    error // underlying hook or encoding error, if any
}

func (e *Error) Error() string {
	var s string
	switch e.Kind {
	case UnexpectedLineLength:
		s = fmt.Sprintf("fixedwidth: line %d has an unexpected length", e.Line)
	case ExpectedStringValue:
		s = fmt.Sprintf("fixedwidth: cannot cast to string value on position %d:%d", e.Line, e.Column)
	case FieldValueOverflow:
		s = fmt.Sprintf("fixedwidth: value on position %d:%d overflows its width of %d", e.Line, e.Column, e.Width)
	case CastFailed:
		s = fmt.Sprintf("fixedwidth: cannot cast value on position %d:%d", e.Line, e.Column)
	case RenderFailed:
		s = fmt.Sprintf("fixedwidth: cannot render value on position %d:%d", e.Line, e.Column)
	default:
		s = fmt.Sprintf("fixedwidth: %s on line %d", e.Kind, e.Line)
	}
	if e.Err != nil {
		return s + ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether any error in err's chain is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
