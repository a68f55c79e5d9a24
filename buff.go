package fixedwidth

import "unicode/utf8"

// lineBuilder is a buffer that can be used to efficiently build a line of
// fixed width text. Cells are runes in text mode and bytes in buffer mode.
type lineBuilder[T rune | byte] struct {
	data []T
}

// newLineBuilder makes a new lineBuilder of the given width. The line is
// filled with the provided fill value.
func newLineBuilder[T rune | byte](width int, fill T) *lineBuilder[T] {
	data := make([]T, width)
	if width == 0 {
		return &lineBuilder[T]{data: data}
	}

	// Fill the buffer with the fill character.
	data[0] = fill
	for filled := 1; filled < width; filled *= 2 {
		copy(data[filled:], data[:filled])
	}
	return &lineBuilder[T]{data: data}
}

// Write writes value at the given 0-based start index. Cells past the end
// of the line are dropped.
func (b *lineBuilder[T]) Write(start int, value []T) {
	if start >= len(b.data) {
		return
	}
	copy(b.data[start:], value)
}

// pad returns value padded with fill up to width, on the right when
// alignRight is false and on the left otherwise.
func pad[T rune | byte](value []T, width int, fill T, alignRight bool) []T {
	if len(value) >= width {
		return value
	}
	out := newLineBuilder(width, fill)
	if alignRight {
		out.Write(width-len(value), value)
	} else {
		out.Write(0, value)
	}
	return out.data
}

// rawValue is a line of text that can be sliced by character.
type rawValue struct {
	data string
	// A mapping of codepoint indices into the bytes, so codepointIndices[n]
	// is the starting position for the n-th codepoint in data. It is nil
	// when data is all ASCII or when the line is sliced by byte.
	codepointIndices []int
}

func newRawValue(data string, useCodepointIndices bool) rawValue {
	value := rawValue{data: data}
	if !useCodepointIndices {
		return value
	}

	bytesIdx := findFirstMultiByteChar(data)
	// If we've got multi-byte characters, fill in the rest of codepointIndices.
	if bytesIdx < len(data) {
		codepointIndices := make([]int, bytesIdx, len(data))
		for i := 0; i < bytesIdx; i++ {
			codepointIndices[i] = i
		}
		for bytesIdx < len(data) {
			_, size := utf8.DecodeRuneInString(data[bytesIdx:])
			codepointIndices = append(codepointIndices, bytesIdx)
			bytesIdx += size
		}
		value.codepointIndices = codepointIndices
	}
	return value
}

// len returns the number of characters, or bytes when sliced by byte.
func (v rawValue) len() int {
	if v.codepointIndices == nil {
		return len(v.data)
	}
	return len(v.codepointIndices)
}

func (v rawValue) byteIndex(i int) int {
	if v.codepointIndices == nil {
		return i
	}
	if i >= len(v.codepointIndices) {
		return len(v.data)
	}
	return v.codepointIndices[i]
}

// slice returns the characters in [start, end). Indices past the end of
// the value are clipped, yielding a shorter or empty string.
func (v rawValue) slice(start, end int) string {
	n := v.len()
	if start >= n {
		return ""
	}
	if end > n {
		end = n
	}
	return v.data[v.byteIndex(start):v.byteIndex(end)]
}

// Scans bytes, looking for multi-byte characters, returns either the index of
// the first multi-byte character or the length of the string if there are none.
func findFirstMultiByteChar(data string) int {
	for i := 0; i < len(data); i++ {
		if data[i]&0x80 == 0x80 {
			return i
		}
	}
	return len(data)
}
