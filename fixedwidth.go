// Package fixedwidth provides parsing and stringifying of fixed-width
// formatted data.
//
// A Layout, compiled from Options, describes where each field sits on a
// line. Parsers consume chunks of input split anywhere, detect the line
// terminator and emit one Record per line. Stringifiers render records back
// into padded, aligned lines. Parse, ParseSeq and ParseChan (and their
// Stringify counterparts) drive them over whole inputs, iterators and
// channels. Marshal and Unmarshal map structs through `fixed` struct tags.
package fixedwidth

// Marshaler is the interface implemented by an object that can
// marshal itself into a fixed-width form.
//
// MarshalFixedWidth is provided the width of its field and should return
// the encoded value of the receiver. A value longer than the width is a
// FieldValueOverflow error. A shorter value is padded by the stringifier.
type Marshaler interface {
	MarshalFixedWidth(width int) (data []byte, err error)
}

// Unmarshaler is the interface implemented by an object that can
// unmarshal a fixed-width representation of itself.
//
// The data passed to UnmarshalFixedWidth by Unmarshal will be the
// length of the field. No leading or trailing padding will be removed.
//
// UnmarshalFixedWidth should be able to decode the form generated
// by MarshalFixedWidth.
type Unmarshaler interface {
	UnmarshalFixedWidth(data []byte) error
}
