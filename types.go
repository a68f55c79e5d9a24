package fixedwidth

import (
	"errors"
	"strconv"
)

// Float is a float64 that fills its field with as many decimals as fit.
type Float float64

// MarshalFixedWidth implements Marshaler.
func (f Float) MarshalFixedWidth(width int) (data []byte, err error) {
	for p := width; p >= 0; p-- {
		if s := strconv.FormatFloat(float64(f), 'f', p, 64); len(s) <= width {
			return []byte(s), nil
		}
	}
	return nil, errors.New("formatted float with 0 precision longer than field width")
}
