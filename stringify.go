package fixedwidth

// A Stringifier turns records into fixed-width lines.
//
// A Stringifier is not safe for concurrent use.
type Stringifier struct {
	layout *Layout
	eol    []byte
	line   int
}

// NewStringifier compiles opts and returns a Stringifier for the resulting
// layout.
func NewStringifier(opts Options) (*Stringifier, error) {
	l, err := Compile(opts)
	if err != nil {
		return nil, err
	}
	return l.NewStringifier(), nil
}

// NewStringifier returns a Stringifier using the layout.
func (l *Layout) NewStringifier() *Stringifier {
	// The terminator was validated by Compile.
	eol, _ := encodeString(l.enc, l.outputEOL())
	return &Stringifier{layout: l, eol: eol, line: 1}
}

// Line returns the number of the next line to be written. It starts at 1
// and is reset to 1 by End.
func (s *Stringifier) Line() int { return s.line }

// Write renders records, in order, and returns the resulting lines with
// their terminators, encoded with the layout encoding.
//
// A record is a Record (or *Record), a map keyed by strings, a slice or
// array, or a struct. Keyed layouts look values up by key, and structs by
// field name; positional layouts look them up by index, maps by the decimal
// index. Missing values are nil. If any record fails nothing is returned
// and the line counter is left unchanged.
func (s *Stringifier) Write(records ...interface{}) ([]byte, error) {
	l := s.layout
	line := s.line

	var out []byte
	for _, r := range records {
		if !l.eof && line > 1 {
			out = append(out, s.eol...)
		}
		b, err := l.stringifyRecord(r, line)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
		if l.eof {
			out = append(out, s.eol...)
		}
		line++
	}
	s.line = line
	return out, nil
}

// End resets the Stringifier and returns the tail of the output. The tail
// is always empty: with EOF set every record already carries a terminator.
func (s *Stringifier) End() []byte {
	s.line = 1
	return nil
}

// StringifyRecord renders a single record, without terminator, as line n.
// The result is decoded text in both modes.
func (l *Layout) StringifyRecord(r interface{}, n int) (string, error) {
	if l.buffer {
		b, err := l.stringifyBytes(r, n)
		if err != nil {
			return "", err
		}
		return decodeBytes(l.enc, b)
	}
	return l.stringifyText(r, n)
}

// stringifyRecord renders r as encoded bytes.
func (l *Layout) stringifyRecord(r interface{}, n int) ([]byte, error) {
	if l.buffer {
		return l.stringifyBytes(r, n)
	}
	s, err := l.stringifyText(r, n)
	if err != nil {
		return nil, err
	}
	b, err := encodeString(l.enc, s)
	if err != nil {
		return nil, &Error{Kind: RenderFailed, Line: n, Value: s, Err: err}
	}
	return b, nil
}

func (l *Layout) stringifyBytes(r interface{}, n int) ([]byte, error) {
	line := newLineBuilder(l.width, l.padB)
	for i := range l.fields {
		f := &l.fields[i]
		v, err := l.renderBytes(f, l.lookup(r, f), n)
		if err != nil {
			return nil, err
		}
		line.Write(f.Column-1, v)
	}
	return line.data, nil
}

func (l *Layout) stringifyText(r interface{}, n int) (string, error) {
	line := newLineBuilder(l.width, l.pad)
	for i := range l.fields {
		f := &l.fields[i]
		v, err := l.renderText(f, l.lookup(r, f), n)
		if err != nil {
			return "", err
		}
		line.Write(f.Column-1, v)
	}
	return string(line.data), nil
}

// render applies the field hook and coerces the result to a string.
func (l *Layout) render(f *FieldSpec, value interface{}, n int) (string, error) {
	v, err := f.render(value)
	if err != nil {
		return "", &Error{Kind: RenderFailed, Line: n, Column: f.Column, Width: f.Width, Value: value, Err: err}
	}
	s, ok, err := l.stringValue(v, f.Width)
	if err != nil {
		return "", &Error{Kind: RenderFailed, Line: n, Column: f.Column, Width: f.Width, Value: v, Err: err}
	}
	if !ok {
		return "", &Error{Kind: ExpectedStringValue, Line: n, Column: f.Column, Width: f.Width, Value: v}
	}
	return s, nil
}

func (l *Layout) renderText(f *FieldSpec, value interface{}, n int) ([]rune, error) {
	s, err := l.render(f, value, n)
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	if len(runes) > f.Width {
		return nil, &Error{Kind: FieldValueOverflow, Line: n, Column: f.Column, Width: f.Width, Value: s}
	}
	if _, err := encodeString(l.enc, s); err != nil {
		return nil, &Error{Kind: RenderFailed, Line: n, Column: f.Column, Width: f.Width, Value: s, Err: err}
	}
	return pad(runes, f.Width, f.Pad, f.Align == AlignRight), nil
}

func (l *Layout) renderBytes(f *FieldSpec, value interface{}, n int) ([]byte, error) {
	s, err := l.render(f, value, n)
	if err != nil {
		return nil, err
	}
	b, err := encodeString(l.enc, s)
	if err != nil {
		return nil, &Error{Kind: RenderFailed, Line: n, Column: f.Column, Width: f.Width, Value: s, Err: err}
	}
	if len(b) > f.Width {
		return nil, &Error{Kind: FieldValueOverflow, Line: n, Column: f.Column, Width: f.Width, Value: s}
	}
	b = trimBytes(b, f.padByte, l.trim)
	return pad(b, f.Width, f.padByte, f.Align == AlignRight), nil
}
