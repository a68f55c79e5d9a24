package fixedwidth

import (
	"encoding"
	"io"
	"iter"
	"reflect"
	"strconv"

	"github.com/pkg/errors"
)

// Unmarshal parses fixed width encoded data and stores the result in the
// value pointed to by v. If v is nil or not a pointer, Unmarshal returns an
// InvalidUnmarshalError.
//
// If v points to a struct, the first line is decoded into it and io.EOF is
// returned when data holds no line. If v points to a slice of structs (or of
// pointers to structs), every line is decoded and appended to it. Blank lines
// decode to zero values. See Marshal for the struct tag format.
func Unmarshal(data []byte, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return &InvalidUnmarshalError{reflect.TypeOf(v)}
	}

	target := rv.Elem()
	isSlice := target.Kind() == reflect.Slice
	t := target.Type()
	if isSlice {
		t = t.Elem()
	}
	spec, err := cachedStructSpec(indirectType(t))
	if err != nil {
		return err
	}

	p := spec.decodeLayout.NewParser()
	for rec, err := range concat(p.Write(data), p.End()) {
		if err != nil {
			return err
		}
		nv := reflect.New(t).Elem()
		if err := spec.set(nv, rec); err != nil {
			return err
		}
		if !isSlice {
			target.Set(nv)
			return nil
		}
		target.Set(reflect.Append(target, nv))
	}
	if !isSlice {
		return io.EOF
	}
	return nil
}

// A Decoder reads and decodes fixed width data from an input stream.
type Decoder struct {
	r      io.Reader
	parser *Parser
	next   func() (Record, error, bool)
	stop   func()
	err    error
}

// NewDecoder returns a new decoder that reads from r using the layout.
func NewDecoder(r io.Reader, l *Layout) *Decoder {
	return &Decoder{
		r:      r,
		parser: l.NewParser(),
	}
}

// Decode returns the next record. It returns io.EOF once the input is
// exhausted. After any other error the Decoder keeps returning that error.
func (d *Decoder) Decode() (Record, error) {
	if d.err != nil {
		return Record{}, d.err
	}
	if d.next == nil {
		d.next, d.stop = iter.Pull2(d.records)
	}
	rec, err, ok := d.next()
	switch {
	case !ok:
		d.err = io.EOF
	case err != nil:
		d.err = err
	default:
		return rec, nil
	}
	d.stop()
	return Record{}, d.err
}

// Close releases the Decoder. It does not close the underlying reader.
func (d *Decoder) Close() error {
	if d.stop != nil {
		d.stop()
	}
	if d.err == nil {
		d.err = errors.New("fixedwidth: decoder closed")
	}
	return nil
}

func (d *Decoder) records(yield func(Record, error) bool) {
	buf := make([]byte, 32*1024)
	for {
		n, err := d.r.Read(buf)
		if n > 0 {
			for rec, perr := range d.parser.Write(buf[:n]) {
				if !yield(rec, perr) || perr != nil {
					return
				}
			}
		}
		if err == io.EOF {
			for rec, perr := range d.parser.End() {
				if !yield(rec, perr) || perr != nil {
					return
				}
			}
			return
		}
		if err != nil {
			yield(Record{}, err)
			return
		}
	}
}

// An InvalidUnmarshalError describes an invalid argument passed to Unmarshal.
// (The argument to Unmarshal must be a non-nil pointer.)
type InvalidUnmarshalError struct {
	Type reflect.Type
}

func (e *InvalidUnmarshalError) Error() string {
	if e.Type == nil {
		return "fixedwidth: Unmarshal(nil)"
	}

	if e.Type.Kind() != reflect.Ptr {
		return "fixedwidth: Unmarshal(non-pointer " + e.Type.String() + ")"
	}
	return "fixedwidth: Unmarshal(nil " + e.Type.String() + ")"
}

// An UnmarshalTypeError describes a value that was
// not appropriate for a value of a specific Go type.
type UnmarshalTypeError struct {
	Value  string       // the raw value
	Type   reflect.Type // type of Go value it could not be assigned to
	Struct string       // name of the struct type containing the field
	Field  string       // name of the field holding the Go value
	Line   int
	Cause  error // original error
}

func (e *UnmarshalTypeError) Error() string {
	s := "fixedwidth: cannot unmarshal " + e.Value + " into Go struct field " + e.Struct + "." + e.Field + " of type " + e.Type.String() + " on line " + strconv.Itoa(e.Line)
	if e.Cause != nil {
		return s + ": " + e.Cause.Error()
	}
	return s
}

func (e *UnmarshalTypeError) Unwrap() error { return e.Cause }

// valueSetter stores raw, the untrimmed text of a field, in v. trimmed is
// raw without padding.
type valueSetter func(v reflect.Value, raw, trimmed string) error

var (
	textUnmarshalerType = reflect.TypeOf(new(encoding.TextUnmarshaler)).Elem()
	unmarshalerType     = reflect.TypeOf(new(Unmarshaler)).Elem()
)

func newValueSetter(t reflect.Type) valueSetter {
	if reflect.PointerTo(t).Implements(unmarshalerType) || t.Implements(unmarshalerType) {
		return unmarshalerSetter(t)
	}
	if t.Implements(textUnmarshalerType) {
		return textUnmarshalerSetter(t, false)
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return textUnmarshalerSetter(t, true)
	}

	switch t.Kind() {
	case reflect.Ptr:
		return ptrSetter(t)
	case reflect.Interface:
		return interfaceSetter
	case reflect.String:
		return stringSetter
	case reflect.Bool:
		return boolSetter
	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8:
		return intSetter
	case reflect.Uint, reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8:
		return uintSetter
	case reflect.Float32, reflect.Float64:
		return floatSetter
	}
	return unknownSetter
}

func unknownSetter(v reflect.Value, _, _ string) error {
	return errors.New("fixedwidth: unknown type")
}

func unmarshalerSetter(t reflect.Type) valueSetter {
	return func(v reflect.Value, raw, _ string) error {
		if t.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(t.Elem()))
			}
		} else {
			v = v.Addr()
		}
		return v.Interface().(Unmarshaler).UnmarshalFixedWidth([]byte(raw))
	}
}

func textUnmarshalerSetter(t reflect.Type, shouldAddr bool) valueSetter {
	return func(v reflect.Value, _, trimmed string) error {
		if shouldAddr {
			v = v.Addr()
		}
		// set to zero value if this is nil
		if t.Kind() == reflect.Ptr && v.IsNil() {
			v.Set(reflect.New(t.Elem()))
		}
		return v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(trimmed))
	}
}

func interfaceSetter(v reflect.Value, raw, trimmed string) error {
	if v.IsNil() {
		v.Set(reflect.ValueOf(trimmed))
		return nil
	}
	elem := v.Elem()
	// values held by an interface are not addressable
	nv := reflect.New(elem.Type()).Elem()
	nv.Set(elem)
	if err := newValueSetter(nv.Type())(nv, raw, trimmed); err != nil {
		return err
	}
	v.Set(nv)
	return nil
}

func ptrSetter(t reflect.Type) valueSetter {
	return func(v reflect.Value, raw, trimmed string) error {
		if len(trimmed) <= 0 {
			v.Set(reflect.Zero(v.Type()))
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(t.Elem()))
		}
		return newValueSetter(t.Elem())(v.Elem(), raw, trimmed)
	}
}

func stringSetter(v reflect.Value, _, trimmed string) error {
	v.SetString(trimmed)
	return nil
}

func boolSetter(v reflect.Value, _, trimmed string) error {
	if len(trimmed) < 1 {
		return nil
	}
	b, err := strconv.ParseBool(trimmed)
	if err != nil {
		return err
	}
	v.SetBool(b)
	return nil
}

func intSetter(v reflect.Value, _, trimmed string) error {
	if len(trimmed) < 1 {
		return nil
	}
	i, err := strconv.ParseInt(trimmed, 10, v.Type().Bits())
	if err != nil {
		return err
	}
	v.SetInt(i)
	return nil
}

func uintSetter(v reflect.Value, _, trimmed string) error {
	if len(trimmed) < 1 {
		return nil
	}
	i, err := strconv.ParseUint(trimmed, 10, v.Type().Bits())
	if err != nil {
		return err
	}
	v.SetUint(i)
	return nil
}

func floatSetter(v reflect.Value, _, trimmed string) error {
	if len(trimmed) < 1 {
		return nil
	}
	f, err := strconv.ParseFloat(trimmed, v.Type().Bits())
	if err != nil {
		return err
	}
	v.SetFloat(f)
	return nil
}
