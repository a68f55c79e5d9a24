package fixedwidth

import (
	"math"
	"runtime"
	"sort"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
)

// Options describes a fixed-width layout before it is validated. The zero
// value of every option selects its default.
type Options struct {
	// Encoding names the character encoding of the raw input and output
	// (for example "utf-8", "latin1", "utf-16le"). Defaults to UTF-8.
	Encoding string `yaml:"encoding,omitempty"`

	// Pad is the single character used to fill unused width and trimmed
	// from parsed values. Defaults to a space.
	Pad string `yaml:"pad,omitempty"`

	// EOL separates records. When empty the parser detects it from the
	// first data and the stringifier uses the platform line ending.
	EOL string `yaml:"eol,omitempty"`

	// Bytes selects the buffer mode: columns and widths count encoded
	// bytes instead of characters.
	Bytes bool `yaml:"bytes,omitempty"`

	// FromLine and ToLine bound the 1-based, inclusive range of lines the
	// parser emits. Zero means unbounded.
	FromLine int `yaml:"from,omitempty"`
	ToLine   int `yaml:"to,omitempty"`

	// AllowLongerLines defaults to true, AllowShorterLines to false.
	AllowLongerLines  *bool `yaml:"allowLongerLines,omitempty"`
	AllowShorterLines *bool `yaml:"allowShorterLines,omitempty"`

	// Relax sets both AllowLongerLines and AllowShorterLines when non-nil.
	//
	// Deprecated: use AllowLongerLines and AllowShorterLines.
	Relax *bool `yaml:"relax,omitempty"`

	// SkipEmptyLines drops empty lines while parsing. Defaults to true.
	SkipEmptyLines *bool `yaml:"skipEmptyLines,omitempty"`

	// EOF appends EOL after the last record when stringifying. Defaults to
	// true. When false EOL is only written between records.
	EOF *bool `yaml:"eof,omitempty"`

	// Trim is "left", "right", "false" (or "none"). Anything else trims
	// both ends of parsed values.
	Trim string `yaml:"trim,omitempty"`

	Fields []Field `yaml:"fields"`
}

// Field describes one column slice.
type Field struct {
	// Column is the 1-based start of the field. When zero the field starts
	// right after the previously declared field.
	Column int `yaml:"column,omitempty"`
	// Width is the number of characters (bytes in buffer mode). Required.
	Width int `yaml:"width"`
	// Align is used by the stringifier. Defaults to left.
	Align Alignment `yaml:"align,omitempty"`
	// Pad overrides the layout pad for this field.
	Pad string `yaml:"pad,omitempty"`
	// Key names the record entry of this field. Either every field has a
	// key, and records are keyed, or none has, and records are positional.
	Key string `yaml:"key,omitempty"`
	// Type selects a builtin cast: "string", "int", "float" or "bool".
	// Ignored when Cast is set.
	Type string `yaml:"type,omitempty"`

	Cast   CastFunc   `yaml:"-"`
	Render RenderFunc `yaml:"-"`
}

// FieldContext locates a value being cast.
type FieldContext struct {
	Column int
	Line   int
	Width  int
}

// CastFunc converts a trimmed raw value into the value stored in a Record.
type CastFunc func(value string, ctx FieldContext) (interface{}, error)

// RenderFunc converts a record value before it is coerced to a string.
type RenderFunc func(value interface{}) (interface{}, error)

func identityCast(value string, _ FieldContext) (interface{}, error) { return value, nil }

func identityRender(value interface{}) (interface{}, error) { return value, nil }

// Bool returns a pointer to b, for use with the optional Options flags.
func Bool(b bool) *bool { return &b }

// Shape is the kind of Record a layout produces and consumes.
type Shape int

const (
	// ShapeArray records hold values by field position.
	ShapeArray Shape = iota
	// ShapeKeyed records hold values by field key.
	ShapeKeyed
)

func (s Shape) String() string {
	if s == ShapeKeyed {
		return "keyed"
	}
	return "array"
}

// FieldSpec is a validated Field.
type FieldSpec struct {
	Column int
	Width  int
	Align  Alignment
	Pad    rune
	Key    string

	index   int
	padByte byte
	cast    CastFunc
	render  RenderFunc
}

// Layout is a compiled, immutable set of Options. A Layout may be shared
// by any number of parsers and stringifiers.
type Layout struct {
	enc      encoding.Encoding
	encName  string
	buffer   bool
	pad      rune
	padB     byte
	eol      string
	newlines newlines

	fromLine, toLine int

	allowLonger  bool
	allowShorter bool
	skipEmpty    bool
	eof          bool
	trim         TrimMode

	width  int
	shape  Shape
	fields []FieldSpec

	// keys are the distinct field keys, slots maps a field index to the
	// position of its key.
	keys  []string
	slots []int
}

// newlines holds the terminator candidates used for detection, encoded
// for the layout mode.
type newlines struct {
	crlf, lf, cr []byte
}

// CompileFields compiles a layout made only of fields, using the default
// value of every other option.
func CompileFields(fields ...Field) (*Layout, error) {
	return Compile(Options{Fields: fields})
}

// Compile validates opts and returns the resulting Layout. Every failure
// is reported as a *ConfigError.
func Compile(opts Options) (*Layout, error) {
	l := &Layout{buffer: opts.Bytes}

	var err error
	if l.enc, l.encName, err = lookupEncoding(opts.Encoding); err != nil {
		return nil, layoutError("encoding", errors.Wrap(err, opts.Encoding))
	}

	pad := opts.Pad
	if pad == "" {
		pad = defaultPad
	}
	if l.pad, l.padB, err = l.compilePad(pad); err != nil {
		return nil, layoutError("pad", err)
	}

	l.eol = opts.EOL
	if l.newlines, err = l.compileNewlines(); err != nil {
		return nil, layoutError("eol", err)
	}
	if _, err = encodeString(l.enc, l.outputEOL()); err != nil {
		return nil, layoutError("eol", errors.Wrap(ErrInvalidEOL, err.Error()))
	}

	switch {
	case opts.FromLine < 0:
		return nil, layoutError("from", ErrInvalidFromLine)
	case opts.FromLine == 0:
		l.fromLine = 1
	default:
		l.fromLine = opts.FromLine
	}
	switch {
	case opts.ToLine < 0:
		return nil, layoutError("to", ErrInvalidToLine)
	case opts.ToLine == 0:
		l.toLine = math.MaxInt
	default:
		l.toLine = opts.ToLine
	}
	if l.toLine < l.fromLine {
		return nil, layoutError("to", ErrLineRange)
	}

	l.allowLonger = opts.AllowLongerLines == nil || *opts.AllowLongerLines
	l.allowShorter = opts.AllowShorterLines != nil && *opts.AllowShorterLines
	if opts.Relax != nil {
		l.allowLonger, l.allowShorter = *opts.Relax, *opts.Relax
	}
	l.skipEmpty = opts.SkipEmptyLines == nil || *opts.SkipEmptyLines
	l.eof = opts.EOF == nil || *opts.EOF
	l.trim = trimModeOf(opts.Trim)

	if err = l.compileFields(opts.Fields); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Layout) compileFields(fields []Field) error {
	if len(fields) == 0 {
		return layoutError("fields", ErrNoFields)
	}

	l.fields = make([]FieldSpec, len(fields))
	keys := 0
	column := 1
	for i, f := range fields {
		spec := &l.fields[i]
		spec.index = i

		if f.Width <= 0 {
			return fieldError(i, "width", ErrInvalidWidth)
		}
		spec.Width = f.Width

		switch {
		case f.Column < 0:
			return fieldError(i, "column", ErrInvalidColumn)
		case f.Column == 0:
			spec.Column = column
		default:
			spec.Column = f.Column
		}
		column = spec.Column + spec.Width

		if !f.Align.valid() {
			return fieldError(i, "align", errors.Wrap(ErrInvalidAlign, string(f.Align)))
		}
		spec.Align = AlignLeft
		if f.Align == AlignRight {
			spec.Align = AlignRight
		}

		spec.Pad, spec.padByte = l.pad, l.padB
		if f.Pad != "" {
			var err error
			if spec.Pad, spec.padByte, err = l.compilePad(f.Pad); err != nil {
				return fieldError(i, "pad", err)
			}
		}

		if f.Key != "" {
			keys++
		}
		spec.Key = f.Key

		spec.cast = f.Cast
		if spec.cast == nil {
			cast, ok := builtinCasts[f.Type]
			if !ok {
				return fieldError(i, "type", errors.Wrap(ErrUnknownType, f.Type))
			}
			spec.cast = cast
		}
		spec.render = f.Render
		if spec.render == nil {
			spec.render = identityRender
		}
	}

	if keys > 0 && keys < len(fields) {
		return layoutError("fields", ErrMixedKeys)
	}
	if keys > 0 {
		l.shape = ShapeKeyed
		l.slots = make([]int, len(l.fields))
		seen := make(map[string]int, len(l.fields))
		for i, f := range l.fields {
			slot, ok := seen[f.Key]
			if !ok {
				slot = len(l.keys)
				seen[f.Key] = slot
				l.keys = append(l.keys, f.Key)
			}
			l.slots[i] = slot
		}
	}

	var err error
	if l.width, err = measure(l.fields); err != nil {
		return layoutError("fields", err)
	}
	return nil
}

// measure walks the fields from column 1, each time picking the field with
// the lowest column at or after the cursor and moving the cursor past it.
// Fields never reached overlap a picked one. It returns the total width.
func measure(fields []FieldSpec) (int, error) {
	order := make([]int, len(fields))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fields[order[a]].Column < fields[order[b]].Column
	})

	cursor, count := 1, 0
	for _, i := range order {
		if fields[i].Column < cursor {
			continue
		}
		cursor = fields[i].Column + fields[i].Width
		count++
	}

	if count == 0 {
		return 0, ErrNoFields
	}
	if count < len(fields) {
		return 0, ErrFieldsOverlap
	}
	return cursor - 1, nil
}

// compilePad checks that s is a single character which the layout
// encoding can represent, as a single byte in buffer mode.
func (l *Layout) compilePad(s string) (rune, byte, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, 0, errors.Wrapf(ErrInvalidPad, "%q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	b, err := encodeString(l.enc, s)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrInvalidPad, "%q: %v", s, err)
	}
	if l.buffer && len(b) != 1 {
		return 0, 0, errors.Wrapf(ErrInvalidPad, "%q encodes to %d bytes", s, len(b))
	}
	return r, b[0], nil
}

func (l *Layout) compileNewlines() (newlines, error) {
	var (
		n   newlines
		err error
	)
	if n.crlf, err = l.encodeTerminator("\r\n"); err != nil {
		return n, err
	}
	if n.lf, err = l.encodeTerminator("\n"); err != nil {
		return n, err
	}
	n.cr, err = l.encodeTerminator("\r")
	return n, err
}

// encodeTerminator returns eol as it appears in the scanned data: UTF-8
// text in text mode, encoded bytes in buffer mode.
func (l *Layout) encodeTerminator(eol string) ([]byte, error) {
	if !l.buffer {
		return []byte(eol), nil
	}
	b, err := encodeString(l.enc, eol)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidEOL, err.Error())
	}
	return b, nil
}

// outputEOL is the terminator written by stringifiers.
func (l *Layout) outputEOL() string {
	if l.eol != "" {
		return l.eol
	}
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// Encoding returns the canonical name of the layout encoding.
func (l *Layout) Encoding() string { return l.encName }

// Pad returns the layout level pad.
func (l *Layout) Pad() rune { return l.pad }

// EOL returns the configured terminator, empty when it is detected.
func (l *Layout) EOL() string { return l.eol }

// Width returns the total width of a line.
func (l *Layout) Width() int { return l.width }

// Shape returns the record shape of the layout.
func (l *Layout) Shape() Shape { return l.shape }

// TrimMode returns the trimming applied to parsed values.
func (l *Layout) TrimMode() TrimMode { return l.trim }

// LineRange returns the first and last line emitted by parsers. The last
// line is math.MaxInt when unbounded.
func (l *Layout) LineRange() (from, to int) { return l.fromLine, l.toLine }

// BufferMode reports whether columns count encoded bytes.
func (l *Layout) BufferMode() bool { return l.buffer }

// Fields returns a copy of the compiled fields in declaration order.
func (l *Layout) Fields() []FieldSpec {
	return append([]FieldSpec(nil), l.fields...)
}
