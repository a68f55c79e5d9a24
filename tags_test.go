package fixedwidth

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTag(t *testing.T) {
	for _, tt := range []struct {
		name     string
		tag      string
		startPos int
		endPos   int
		align    Alignment
		pad      string
		ok       bool
	}{
		{"Valid Tag", "1,10", 1, 10, AlignLeft, "", true},
		{"Valid Tag Single position", "5,5", 5, 5, AlignLeft, "", true},
		{"Valid Tag w/ Alignment", "1,10,right", 1, 10, AlignRight, "", true},
		{"Valid Tag w/ Left Alignment", "1,10,left", 1, 10, AlignLeft, "", true},
		{"Valid Tag w/ None Alignment", "1,10,none", 1, 10, AlignLeft, "", true},
		{"Valid Tag w/ Padding Character", "1,10,default,0", 1, 10, AlignLeft, "0", true},
		{"Multi-byte Padding Character", "1,10,right,·", 1, 10, AlignRight, "·", true},
		{"Tag Empty", "", 0, 0, "", "", false},
		{"Tag Too short", "0", 0, 0, "", "", false},
		{"Tag Too Long", "2,10,default,_,foo", 0, 0, "", "", false},
		{"StartPos Not Integer", "hello,3", 0, 0, "", "", false},
		{"EndPos Not Integer", "3,hello", 0, 0, "", "", false},
		{"Tag Contains a Space", "4, 11", 0, 0, "", "", false},
		{"Tag Interval Invalid", "14,5", 0, 0, "", "", false},
		{"Tag Both Positions Zero", "0,0", 0, 0, "", "", false},
		{"Unknown Alignment", "1,2,center", 0, 0, "", "", false},
		{"Empty Padding Character", "1,2,default,", 0, 0, "", "", false},
		{"Two Padding Characters", "1,2,default,__", 0, 0, "", "", false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			startPos, endPos, align, pad, ok := parseTag(tt.tag)
			if tt.ok != ok {
				t.Errorf("parseTag() ok want %v, have %v", tt.ok, ok)
			}

			// only check the parts if valid tags are expected
			if tt.ok {
				if tt.startPos != startPos {
					t.Errorf("parseTag() startPos want %v, have %v", tt.startPos, startPos)
				}
				if tt.endPos != endPos {
					t.Errorf("parseTag() endPos want %v, have %v", tt.endPos, endPos)
				}
				if tt.align != align {
					t.Errorf("parseTag() align want %v, have %v", tt.align, align)
				}
				if tt.pad != pad {
					t.Errorf("parseTag() pad want %q, have %q", tt.pad, pad)
				}
			}
		})
	}
}

func TestBuildStructSpec(t *testing.T) {
	type row struct {
		ID     int     `fixed:"1,3,right,0"`
		Name   string  `fixed:"4,10"`
		Score  float64 `fixed:"12,16,right"`
		Score2 Float   `fixed:"17,20"`
		hidden string  `fixed:"21,22"`
		Plain  string
	}

	spec, err := buildStructSpec(reflect.TypeOf(row{}))
	require.NoError(t, err)
	assert.Equal(t, "row", spec.name)
	require.Len(t, spec.fieldSpecs, 4)
	assert.Equal(t, '0', spec.fieldSpecs[0].pad)
	assert.Equal(t, ' ', spec.fieldSpecs[1].pad)

	l := spec.encodeLayout
	assert.Equal(t, 20, l.Width())
	assert.Equal(t, ShapeKeyed, l.Shape())
	assert.Equal(t, "\n", l.EOL())

	fields := l.Fields()
	assert.Equal(t, "Score", fields[2].Key)
	assert.Equal(t, 12, fields[2].Column)
	assert.Equal(t, 5, fields[2].Width)
	assert.Equal(t, AlignRight, fields[2].Align)

	assert.Equal(t, TrimNone, spec.decodeLayout.TrimMode())

	_, err = buildStructSpec(reflect.TypeOf(""))
	var terr *MarshalInvalidTypeError
	assert.ErrorAs(t, err, &terr)
}

func TestCachedStructSpec(t *testing.T) {
	type row struct {
		A string `fixed:"1,2"`
	}
	first, err := cachedStructSpec(reflect.TypeOf(row{}))
	require.NoError(t, err)
	second, err := cachedStructSpec(reflect.TypeOf(row{}))
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = cachedStructSpec(reflect.TypeOf(struct{}{}))
	assert.ErrorIs(t, err, ErrNoFields)
}
