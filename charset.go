package fixedwidth

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const defaultEncoding = "utf-8"

// lookupEncoding resolves an encoding name using the WHATWG labels first
// and the IANA registry second.
func lookupEncoding(name string) (encoding.Encoding, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultEncoding
	}
	if enc, err := htmlindex.Get(name); err == nil {
		canonical, _ := htmlindex.Name(enc)
		return enc, canonical, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, "", ErrUnknownEncoding
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = name
	}
	return enc, canonical, nil
}

func isUTF8(enc encoding.Encoding) bool {
	return enc == unicode.UTF8
}

func encodeString(enc encoding.Encoding, s string) ([]byte, error) {
	if isUTF8(enc) {
		return []byte(s), nil
	}
	return enc.NewEncoder().Bytes([]byte(s))
}

func decodeBytes(enc encoding.Encoding, b []byte) (string, error) {
	if isUTF8(enc) {
		return string(b), nil
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// chunkDecoder decodes a stream of chunks into UTF-8. A multi-byte
// sequence split across chunks is held back until the rest arrives.
type chunkDecoder struct {
	t         transform.Transformer
	remainder []byte
	scratch   []byte
}

func newChunkDecoder(enc encoding.Encoding) *chunkDecoder {
	return &chunkDecoder{t: enc.NewDecoder()}
}

// decode appends the UTF-8 form of chunk to dst. When atEOF is set any
// held back bytes are flushed.
func (d *chunkDecoder) decode(dst, chunk []byte, atEOF bool) ([]byte, error) {
	src := chunk
	if len(d.remainder) > 0 {
		src = append(d.remainder, chunk...)
		d.remainder = nil
	}
	if d.scratch == nil {
		d.scratch = make([]byte, 4096)
	}

	for {
		nDst, nSrc, err := d.t.Transform(d.scratch, src, atEOF)
		dst = append(dst, d.scratch[:nDst]...)
		src = src[nSrc:]

		switch err {
		case nil:
			return dst, nil
		case transform.ErrShortDst:
			if nDst == 0 && nSrc == 0 {
				d.scratch = make([]byte, 2*len(d.scratch))
			}
		case transform.ErrShortSrc:
			d.remainder = append([]byte(nil), src...)
			return dst, nil
		default:
			return dst, errors.Wrap(err, "decoding input")
		}
	}
}

func (d *chunkDecoder) reset() {
	d.t.Reset()
	d.remainder = nil
}
