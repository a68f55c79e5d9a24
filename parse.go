package fixedwidth

import "iter"

// A Parser turns chunks of fixed-width data into records. Chunks may split
// lines, and multi-byte characters, anywhere.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	layout *Layout
	dec    *chunkDecoder // nil in buffer mode
	scan   lineScanner
	eol    string
	line   int
}

// NewParser compiles opts and returns a Parser for the resulting layout.
func NewParser(opts Options) (*Parser, error) {
	l, err := Compile(opts)
	if err != nil {
		return nil, err
	}
	return l.NewParser(), nil
}

// NewParser returns a Parser using the layout.
func (l *Layout) NewParser() *Parser {
	p := &Parser{layout: l}
	if !l.buffer {
		p.dec = newChunkDecoder(l.enc)
	}
	p.reset()
	return p
}

func (p *Parser) reset() {
	p.line = 1
	p.eol = p.layout.eol
	eol, _ := p.layout.encodeTerminator(p.eol)
	p.scan.reset(eol)
	if p.dec != nil {
		p.dec.reset()
	}
}

// Line returns the number of the next line to be parsed. It starts at 1
// and is reset to 1 by End.
func (p *Parser) Line() int { return p.line }

// EOL returns the line terminator in use, empty while it is still unknown.
func (p *Parser) EOL() string { return p.eol }

// Write adds a chunk of raw data, in the layout encoding, and returns the
// records of every line it completes. The chunk is buffered immediately;
// the records are parsed as the returned sequence is consumed, so lines not
// consumed are returned again by the next sequence.
//
// Parsing stops at the first error, which is yielded with an empty Record.
func (p *Parser) Write(chunk []byte) iter.Seq2[Record, error] {
	var err error
	if p.dec != nil {
		p.scan.compact()
		if p.scan.buf, err = p.dec.decode(p.scan.buf, chunk, false); err != nil {
			err = &Error{Kind: DecodeFailed, Line: p.line, Err: err}
		}
	} else {
		p.scan.append(chunk)
	}
	return p.records(err, false)
}

// WriteString is like Write for already decoded text.
func (p *Parser) WriteString(text string) iter.Seq2[Record, error] {
	if p.dec == nil {
		b, err := encodeString(p.layout.enc, text)
		if err != nil {
			return p.records(&Error{Kind: DecodeFailed, Line: p.line, Err: err}, false)
		}
		return p.Write(b)
	}
	p.scan.append([]byte(text))
	return p.records(nil, false)
}

// End flushes the data written so far, parsing the last line even when it
// has no terminator, and resets the Parser once the returned sequence has
// been consumed.
func (p *Parser) End() iter.Seq2[Record, error] {
	var err error
	if p.dec != nil {
		p.scan.compact()
		if p.scan.buf, err = p.dec.decode(p.scan.buf, nil, true); err != nil {
			err = &Error{Kind: DecodeFailed, Line: p.line, Err: err}
		}
	}
	return p.records(err, true)
}

func (p *Parser) records(err error, final bool) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if final {
			defer p.reset()
		}
		if err != nil {
			yield(Record{}, err)
			return
		}

		if len(p.scan.eol) == 0 {
			if eol, b := guessEOL(p.scan.pending(), p.layout.newlines, final); b != nil {
				p.eol = eol
				p.scan.eol = b
			}
		}

		for {
			raw, ok := p.scan.next()
			if !ok {
				break
			}
			if !p.emit(raw, yield) {
				return
			}
		}

		if final {
			if raw := p.scan.take(); len(raw) > 0 {
				p.emit(raw, yield)
			}
		}
	}
}

// emit parses raw as the current line, unless it is filtered out, and
// yields the result. It reports whether parsing should continue.
func (p *Parser) emit(raw []byte, yield func(Record, error) bool) bool {
	n := p.line
	p.line++

	l := p.layout
	if n < l.fromLine || n > l.toLine {
		return true
	}
	if l.skipEmpty && len(raw) == 0 {
		return true
	}

	rec, err := l.parseLine(raw, n)
	return yield(rec, err) && err == nil
}

// ParseLine parses a single logical line, without terminator, numbered n.
func (l *Layout) ParseLine(text string, n int) (Record, error) {
	if l.buffer {
		b, err := encodeString(l.enc, text)
		if err != nil {
			return Record{}, &Error{Kind: DecodeFailed, Line: n, Value: text, Err: err}
		}
		return l.parseLine(b, n)
	}
	return l.parseLine([]byte(text), n)
}

// parseLine parses raw, which is UTF-8 text in text mode and encoded bytes
// in buffer mode.
func (l *Layout) parseLine(raw []byte, n int) (Record, error) {
	var (
		line   rawValue
		length int
	)
	if l.buffer {
		length = len(raw)
	} else {
		line = newRawValue(string(raw), true)
		length = line.len()
	}

	if (length > l.width && !l.allowLonger) || (length < l.width && !l.allowShorter) {
		value := string(raw)
		if l.buffer {
			if s, err := decodeBytes(l.enc, raw); err == nil {
				value = s
			}
		}
		return Record{}, &Error{Kind: UnexpectedLineLength, Line: n, Value: value}
	}

	values := make([]interface{}, len(l.fields))
	for i := range l.fields {
		f := &l.fields[i]
		start, end := f.Column-1, f.Column-1+f.Width

		var value string
		if l.buffer {
			b := trimBytes(clip(raw, start, end), f.padByte, l.trim)
			s, err := decodeBytes(l.enc, b)
			if err != nil {
				return Record{}, &Error{Kind: DecodeFailed, Line: n, Column: f.Column, Width: f.Width, Value: b, Err: err}
			}
			value = s
		} else {
			value = Trim(line.slice(start, end), f.Pad, l.trim)
		}

		v, err := f.cast(value, FieldContext{Column: f.Column, Line: n, Width: f.Width})
		if err != nil {
			return Record{}, &Error{Kind: CastFailed, Line: n, Column: f.Column, Width: f.Width, Value: value, Err: err}
		}
		values[i] = v
	}
	return l.newRecord(n, values), nil
}

// clip returns b[start:end] with both indices clamped to len(b).
func clip(b []byte, start, end int) []byte {
	if start >= len(b) {
		return nil
	}
	if end > len(b) {
		end = len(b)
	}
	return b[start:end]
}
