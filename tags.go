package fixedwidth

import (
	"encoding"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// parseTag splits a struct field's fixed tag into its start and end
// positions, its alignment and its pad. If the tag is not valid, ok will be
// false.
//
// Valid alignments are "default", "none", "left" and "right". The pad is a
// single character.
func parseTag(tag string) (startPos, endPos int, align Alignment, pad string, ok bool) {
	parts := strings.Split(tag, ",")
	if len(parts) < 2 || len(parts) > 4 {
		return 0, 0, "", "", false
	}

	var err error
	if startPos, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, "", "", false
	}
	if endPos, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, "", "", false
	}
	if startPos < 1 || startPos > endPos {
		return 0, 0, "", "", false
	}

	align = AlignLeft
	if len(parts) > 2 {
		switch parts[2] {
		case "default", "none", "left":
		case "right":
			align = AlignRight
		default:
			return 0, 0, "", "", false
		}
	}

	if len(parts) > 3 {
		pad = parts[3]
		if utf8.RuneCountInString(pad) != 1 {
			return 0, 0, "", "", false
		}
	}

	return startPos, endPos, align, pad, true
}

type structSpec struct {
	name       string
	fieldSpecs []fieldSpec

	// decodeLayout detects the terminator and keeps values untrimmed for
	// Unmarshaler fields, encodeLayout joins lines with "\n".
	decodeLayout *Layout
	encodeLayout *Layout
}

type fieldSpec struct {
	name   string
	index  int
	pad    rune
	setter valueSetter
	typ    reflect.Type
}

func buildStructSpec(t reflect.Type) (*structSpec, error) {
	if t.Kind() != reflect.Struct {
		return nil, &MarshalInvalidTypeError{typeName: t.String()}
	}

	ss := &structSpec{name: t.Name()}
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		startPos, endPos, align, pad, ok := parseTag(f.Tag.Get("fixed"))
		if !ok {
			continue
		}

		field := Field{
			Column: startPos,
			Width:  endPos - startPos + 1,
			Align:  align,
			Pad:    pad,
			Key:    f.Name,
		}
		if isFloat(f.Type) && !isMarshaler(f.Type) {
			field.Render = floatRender
		}
		fields = append(fields, field)

		spec := fieldSpec{
			name:   f.Name,
			index:  i,
			pad:    ' ',
			setter: newValueSetter(f.Type),
			typ:    f.Type,
		}
		if pad != "" {
			spec.pad, _ = utf8.DecodeRuneInString(pad)
		}
		ss.fieldSpecs = append(ss.fieldSpecs, spec)
	}

	var err error
	ss.decodeLayout, err = Compile(Options{
		Fields:            fields,
		Trim:              "none",
		SkipEmptyLines:    Bool(false),
		AllowShorterLines: Bool(true),
	})
	if err != nil {
		return nil, err
	}
	ss.encodeLayout, err = Compile(Options{
		Fields: fields,
		EOL:    "\n",
		EOF:    Bool(false),
	})
	if err != nil {
		return nil, err
	}
	return ss, nil
}

// set decodes rec into v, allocating v first if it is a nil pointer.
func (ss *structSpec) set(v reflect.Value, rec Record) error {
	if v.Kind() == reflect.Ptr {
		v.Set(reflect.New(v.Type().Elem()))
		v = v.Elem()
	}
	for _, fs := range ss.fieldSpecs {
		value, _ := rec.Get(fs.name)
		raw, _ := value.(string)
		trimmed := Trim(raw, fs.pad, TrimBoth)
		if err := fs.setter(v.Field(fs.index), raw, trimmed); err != nil {
			return &UnmarshalTypeError{
				Value:  trimmed,
				Type:   fs.typ,
				Struct: ss.name,
				Field:  fs.name,
				Line:   rec.Line,
				Cause:  err,
			}
		}
	}
	return nil
}

type cachedSpec struct {
	spec *structSpec
	err  error
}

var fieldSpecCache sync.Map // map[reflect.Type]cachedSpec

// cachedStructSpec is like buildStructSpec but cached to prevent duplicate work.
func cachedStructSpec(t reflect.Type) (*structSpec, error) {
	if f, ok := fieldSpecCache.Load(t); ok {
		c := f.(cachedSpec)
		return c.spec, c.err
	}
	spec, err := buildStructSpec(t)
	f, _ := fieldSpecCache.LoadOrStore(t, cachedSpec{spec, err})
	c := f.(cachedSpec)
	return c.spec, c.err
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

var (
	marshalerType     = reflect.TypeOf(new(Marshaler)).Elem()
	textMarshalerType = reflect.TypeOf(new(encoding.TextMarshaler)).Elem()
)

func isMarshaler(t reflect.Type) bool {
	return t.Implements(marshalerType) || t.Implements(textMarshalerType)
}

func isFloat(t reflect.Type) bool {
	switch indirectType(t).Kind() {
	case reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
