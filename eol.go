package fixedwidth

import "bytes"

// GuessEOL detects the line terminator used by text. A "\r\n" anywhere
// wins, otherwise the first "\n" or "\r" is used. A lone "\r" at the end
// of text could be the start of a split "\r\n", so it is inconclusive and
// GuessEOL returns "".
func GuessEOL(text string) string {
	eol, _ := guessEOL([]byte(text), textNewlines, false)
	return eol
}

var textNewlines = newlines{
	crlf: []byte("\r\n"),
	lf:   []byte("\n"),
	cr:   []byte("\r"),
}

// guessEOL is GuessEOL over data encoded as described by n. When atEOF is
// set no more data can follow, so a trailing "\r" is conclusive.
func guessEOL(data []byte, n newlines, atEOF bool) (string, []byte) {
	if bytes.Contains(data, n.crlf) {
		return "\r\n", n.crlf
	}
	lf := bytes.Index(data, n.lf)
	cr := bytes.Index(data, n.cr)
	switch {
	case lf >= 0 && (cr < 0 || lf < cr):
		return "\n", n.lf
	case cr >= 0 && (cr+len(n.cr) < len(data) || atEOF):
		return "\r", n.cr
	}
	return "", nil
}

// lineScanner splits an append-only buffer into logical lines. The data
// after the last terminator stays pending, it may be a partial line.
type lineScanner struct {
	buf []byte
	off int
	eol []byte
}

// compact drops consumed data so buf can be appended to.
func (s *lineScanner) compact() {
	if s.off == 0 {
		return
	}
	n := copy(s.buf, s.buf[s.off:])
	s.buf = s.buf[:n]
	s.off = 0
}

func (s *lineScanner) append(b []byte) {
	s.compact()
	s.buf = append(s.buf, b...)
}

// pending returns the data not yet split into lines.
func (s *lineScanner) pending() []byte {
	return s.buf[s.off:]
}

// next returns the next complete line without its terminator. The
// returned slice is only valid until the next call to append.
func (s *lineScanner) next() ([]byte, bool) {
	if len(s.eol) == 0 {
		return nil, false
	}
	rest := s.buf[s.off:]
	i := bytes.Index(rest, s.eol)
	if i < 0 {
		return nil, false
	}
	s.off += i + len(s.eol)
	return rest[:i], true
}

// take returns the pending data and empties the scanner.
func (s *lineScanner) take() []byte {
	rest := s.buf[s.off:]
	s.off = len(s.buf)
	return rest
}

func (s *lineScanner) reset(eol []byte) {
	s.buf = s.buf[:0]
	s.off = 0
	s.eol = eol
}
