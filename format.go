package fixedwidth

import "strings"

// Alignment controls where the stringifier places a value inside its field.
type Alignment string

const (
	AlignLeft  Alignment = "left"
	AlignRight Alignment = "right"
)

func (a Alignment) valid() bool {
	switch a {
	case "", AlignLeft, AlignRight:
		return true
	default:
		return false
	}
}

// TrimMode selects which ends of a parsed value have padding removed.
type TrimMode int

const (
	TrimBoth TrimMode = iota
	TrimNone
	TrimLeft
	TrimRight
)

func (m TrimMode) String() string {
	switch m {
	case TrimNone:
		return "none"
	case TrimLeft:
		return "left"
	case TrimRight:
		return "right"
	default:
		return "both"
	}
}

// trimModeOf normalizes the Trim option. "left" and "right" pass
// through, "false" and "none" disable trimming, anything else trims both.
func trimModeOf(s string) TrimMode {
	switch strings.ToLower(s) {
	case "left":
		return TrimLeft
	case "right":
		return TrimRight
	case "false", "none":
		return TrimNone
	default:
		return TrimBoth
	}
}

const defaultPad = " "

// Trim removes every leading and/or trailing occurrence of pad from s.
func Trim(s string, pad rune, mode TrimMode) string {
	cut := func(r rune) bool { return r == pad }
	switch mode {
	case TrimNone:
		return s
	case TrimLeft:
		return strings.TrimLeftFunc(s, cut)
	case TrimRight:
		return strings.TrimRightFunc(s, cut)
	default:
		return strings.TrimFunc(s, cut)
	}
}

// trimBytes is Trim for the buffer mode, where the pad is a single
// encoded byte.
func trimBytes(b []byte, pad byte, mode TrimMode) []byte {
	if mode == TrimNone {
		return b
	}
	start, end := 0, len(b)
	if mode != TrimRight {
		for start < end && b[start] == pad {
			start++
		}
	}
	if mode != TrimLeft {
		for end > start && b[end-1] == pad {
			end--
		}
	}
	return b[start:end]
}
