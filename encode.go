package fixedwidth

import (
	"bufio"
	"encoding"
	"fmt"
	"io"
	"reflect"
	"strconv"
)

// Marshal returns the fixed-width encoding of v.
//
// v must be a struct or a slice of structs. If v is a slice, each item
// will be treated as a line. Lines are separated by "\n", without a
// trailing terminator.
//
// Each field in a struct will be encoded and placed at the position
// defined by its struct tag. The tags should be formatted as
// `fixed:"{startPos},{endPos}[,{alignment}[,{pad}]]"`. Positions start
// at 1 and the interval is inclusive. Fields without tags are ignored.
//
// Values are rendered as described in Stringifier.Write, except floats
// which are written with two decimals. A value longer than its interval
// is a FieldValueOverflow error.
func Marshal(v interface{}) ([]byte, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, nil
	}

	t := rv.Type()
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		t = t.Elem()
	}
	spec, err := cachedStructSpec(indirectType(t))
	if err != nil {
		return nil, err
	}

	s := spec.encodeLayout.NewStringifier()
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return s.Write(rv.Interface())
	}
	records := make([]interface{}, rv.Len())
	for i := range records {
		records[i] = rv.Index(i).Interface()
	}
	return s.Write(records...)
}

// MarshalInvalidTypeError describes an invalid type being marshaled.
type MarshalInvalidTypeError struct {
	typeName string
}

func (e *MarshalInvalidTypeError) Error() string {
	return "fixedwidth: cannot marshal unknown Type " + e.typeName
}

// An Encoder writes fixed-width formatted data to an output stream.
type Encoder struct {
	w *bufio.Writer
	s *Stringifier
}

// NewEncoder returns a new encoder that writes to w using the layout.
func NewEncoder(w io.Writer, l *Layout) *Encoder {
	return &Encoder{w: bufio.NewWriter(w), s: l.NewStringifier()}
}

// Encode writes the fixed-width encoding of records to the stream.
// See Stringifier.Write for details about encoding behavior.
func (e *Encoder) Encode(records ...interface{}) error {
	b, err := e.s.Write(records...)
	if err != nil {
		return err
	}
	if _, err = e.w.Write(b); err != nil {
		return err
	}
	return e.w.Flush()
}

// Close writes the end of the output and flushes it. It does not close
// the underlying writer.
func (e *Encoder) Close() error {
	if _, err := e.w.Write(e.s.End()); err != nil {
		return err
	}
	return e.w.Flush()
}

// lookup returns the value r holds for f: by key for keyed layouts and by
// position otherwise. Anything missing is nil. See Stringifier.Write for
// the accepted record types.
func (l *Layout) lookup(r interface{}, f *FieldSpec) interface{} {
	keyed := l.shape == ShapeKeyed
	key := f.Key
	if !keyed {
		key = strconv.Itoa(f.index)
	}

	switch r := r.(type) {
	case nil:
		return nil
	case Record:
		return r.value(l, f)
	case *Record:
		if r == nil {
			return nil
		}
		return r.value(l, f)
	case map[string]interface{}:
		return r[key]
	case map[string]string:
		if v, ok := r[key]; ok {
			return v
		}
		return nil
	case []interface{}:
		if keyed || f.index >= len(r) {
			return nil
		}
		return r[f.index]
	case []string:
		if keyed || f.index >= len(r) {
			return nil
		}
		return r[f.index]
	}

	v := reflect.ValueOf(r)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	var out reflect.Value
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil
		}
		out = v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
	case reflect.Slice, reflect.Array:
		if keyed || f.index >= v.Len() {
			return nil
		}
		out = v.Index(f.index)
	case reflect.Struct:
		if !keyed {
			return nil
		}
		out = v.FieldByName(key)
	}
	if !out.IsValid() || !out.CanInterface() {
		return nil
	}
	return out.Interface()
}

// stringValue coerces v to the text written in a field of the given
// width. ok is false when v has no string form.
func (l *Layout) stringValue(v interface{}, width int) (s string, ok bool, err error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return "", true, nil
	}
	if (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return "", true, nil
	}

	switch v := v.(type) {
	case string:
		return v, true, nil
	case Marshaler:
		b, err := v.MarshalFixedWidth(width)
		return string(b), err == nil, err
	case encoding.TextMarshaler:
		b, err := v.MarshalText()
		return string(b), err == nil, err
	case []byte:
		s, err := decodeBytes(l.enc, v)
		return s, err == nil, err
	case bool:
		if v {
			return "1", true, nil
		}
		return "0", true, nil
	case fmt.Stringer:
		return v.String(), true, nil
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return l.stringValue(rv.Elem().Interface(), width)
	case reflect.String:
		return rv.String(), true, nil
	case reflect.Bool:
		return l.stringValue(rv.Bool(), width)
	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8:
		return strconv.FormatInt(rv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true, nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true, nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true, nil
	}
	return "", false, nil
}

// floatRender writes floats with two decimals, as v1 of this package did.
func floatRender(v interface{}) (interface{}, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', 2, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', 2, 64), nil
	}
	return v, nil
}
