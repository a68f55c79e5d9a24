package fixedwidth

import (
	"bytes"
	"encoding"
	"fmt"
	"io"
	"log"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleUnmarshal() {
	// define the format
	var people []struct {
		ID        int     `fixed:"1,5"`
		FirstName string  `fixed:"6,15"`
		LastName  string  `fixed:"16,25"`
		Grade     float64 `fixed:"26,30"`
	}

	// define some fixed-with data to parse
	data := []byte("" +
		"1    Ian       Lopshire  99.50" + "\n" +
		"2    John      Doe       89.50" + "\n" +
		"3    Jane      Doe       79.50" + "\n")

	err := Unmarshal(data, &people)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%+v\n", people[0])
	fmt.Printf("%+v\n", people[1])
	fmt.Printf("%+v\n", people[2])
	// Output:
	//{ID:1 FirstName:Ian LastName:Lopshire Grade:99.5}
	//{ID:2 FirstName:John LastName:Doe Grade:89.5}
	//{ID:3 FirstName:Jane LastName:Doe Grade:79.5}
}

func ExampleDecoder() {
	layout, err := Compile(Options{
		AllowShorterLines: Bool(true),
		Fields: []Field{
			{Key: "id", Width: 3, Type: "int"},
			{Key: "name", Width: 10},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	d := NewDecoder(strings.NewReader("1  Ian\r\n2  Anna\r\n"), layout)
	defer d.Close()
	for {
		rec, err := d.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(rec.Line, rec.Map())
	}
	// Output:
	// 1 map[id:1 name:Ian]
	// 2 map[id:2 name:Anna]
}

// allTypes contains a field with all current supported types.
type allTypes struct {
	String          string          `fixed:"1,5"`
	Int             int             `fixed:"6,10"`
	Float           float64         `fixed:"11,15"`
	TextUnmarshaler EncodableString `fixed:"16,20"`
}

func TestUnmarshal(t *testing.T) {
	for _, tt := range []struct {
		name      string
		rawValue  []byte
		target    interface{}
		expected  interface{}
		shouldErr bool
	}{
		{
			name:     "Slice Case (no trailing new line)",
			rawValue: []byte("foo  123  1.2  bar" + "\n" + "bar  321  2.1  foo"),
			target:   &[]allTypes{},
			expected: &[]allTypes{
				{"foo", 123, 1.2, EncodableString{"bar", nil}},
				{"bar", 321, 2.1, EncodableString{"foo", nil}},
			},
		},
		{
			name:     "Slice Case (trailing new line)",
			rawValue: []byte("foo  123  1.2  bar" + "\n" + "bar  321  2.1  foo" + "\n"),
			target:   &[]allTypes{},
			expected: &[]allTypes{
				{"foo", 123, 1.2, EncodableString{"bar", nil}},
				{"bar", 321, 2.1, EncodableString{"foo", nil}},
			},
		},
		{
			name:     "Slice Case (CRLF)",
			rawValue: []byte("foo  123  1.2  bar" + "\r\n" + "bar  321  2.1  foo" + "\r\n"),
			target:   &[]allTypes{},
			expected: &[]allTypes{
				{"foo", 123, 1.2, EncodableString{"bar", nil}},
				{"bar", 321, 2.1, EncodableString{"foo", nil}},
			},
		},
		{
			name:     "Slice Case (blank line mid file)",
			rawValue: []byte("foo  123  1.2  bar" + "\n" + "\n" + "bar  321  2.1  foo" + "\n"),
			target:   &[]allTypes{},
			expected: &[]allTypes{
				{"foo", 123, 1.2, EncodableString{"bar", nil}},
				{"", 0, 0, EncodableString{"", nil}},
				{"bar", 321, 2.1, EncodableString{"foo", nil}},
			},
		},
		{
			name:     "Slice of pointers",
			rawValue: []byte("foo  123  1.2  bar"),
			target:   &[]*allTypes{},
			expected: &[]*allTypes{{"foo", 123, 1.2, EncodableString{"bar", nil}}},
		},
		{
			name:     "Basic Struct Case",
			rawValue: []byte("foo  123  1.2  bar"),
			target:   &allTypes{},
			expected: &allTypes{"foo", 123, 1.2, EncodableString{"bar", nil}},
		},
		{
			name:     "Struct Case (first line only)",
			rawValue: []byte("foo  123  1.2  bar" + "\n" + "bar  321  2.1  foo"),
			target:   &allTypes{},
			expected: &allTypes{"foo", 123, 1.2, EncodableString{"bar", nil}},
		},
		{
			name:      "Unmarshal Error",
			rawValue:  []byte("foo  nan  ddd  bar"),
			target:    &allTypes{},
			shouldErr: true,
		},
		{
			name:      "Empty Line",
			rawValue:  []byte(""),
			target:    &allTypes{},
			shouldErr: true,
		},
		{
			name:      "Invalid Target",
			rawValue:  []byte("foo  123  1.2  bar"),
			target:    allTypes{},
			shouldErr: true,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := Unmarshal(tt.rawValue, tt.target)
			if tt.shouldErr != (err != nil) {
				t.Errorf("Unmarshal() err want %v, have %v (%v)", tt.shouldErr, err != nil, err)
			}
			if !tt.shouldErr && !reflect.DeepEqual(tt.target, tt.expected) {
				t.Errorf("Unmarshal() want %+v, have %+v", tt.expected, tt.target)
			}
		})
	}

	t.Run("Field Length 1", func(t *testing.T) {
		var st = struct {
			F1 string `fixed:"1,1"`
		}{}

		err := Unmarshal([]byte("v"), &st)
		require.NoError(t, err)
		assert.Equal(t, "v", st.F1)
	})

	t.Run("Empty Data", func(t *testing.T) {
		var s allTypes
		assert.Equal(t, io.EOF, Unmarshal(nil, &s))

		var ss []allTypes
		assert.NoError(t, Unmarshal(nil, &ss))
		assert.Empty(t, ss)
	})

	t.Run("Pad And Raw Values", func(t *testing.T) {
		var st struct {
			Count int         `fixed:"1,5,right,0"`
			Raw   rawField    `fixed:"6,11"`
			Name  *string     `fixed:"12,15,left,_"`
			Blank *string     `fixed:"16,18"`
			Any   interface{} `fixed:"19,21"`
		}
		require.NoError(t, Unmarshal([]byte("00042  ab  Al__    x  "), &st))
		assert.Equal(t, 42, st.Count)
		assert.Equal(t, "  ab  ", st.Raw.Data)
		assert.Equal(t, stringp("Al"), st.Name)
		assert.Nil(t, st.Blank)
		assert.Equal(t, "x", st.Any)
	})

	t.Run("Multi-byte characters", func(t *testing.T) {
		type S struct {
			A string `fixed:"1,5"`
			B string `fixed:"6,10"`
			C string `fixed:"11,15"`
		}

		for _, tt := range []struct {
			name     string
			raw      []byte
			expected S
		}{
			{"All ASCII characters", []byte("ABCD EFGH IJKL \n"), S{"ABCD", "EFGH", "IJKL"}},
			{"Snowmen", []byte("ABCD ☃☃   EFG  \n"), S{"ABCD", "☃☃", "EFG"}},
			{"Truncated", []byte("☃☃\n"), S{"☃☃", "", ""}},
			{"Latin", []byte("PIÑA DEFGHIJKLM"), S{"PIÑA", "DEFGH", "IJKLM"}},
		} {
			t.Run(tt.name, func(t *testing.T) {
				var s S
				require.NoError(t, Unmarshal(tt.raw, &s))
				assert.Equal(t, tt.expected, s)
			})
		}
	})

	t.Run("Invalid Unmarshal Errors", func(t *testing.T) {
		for _, tt := range []struct {
			name      string
			v         interface{}
			shouldErr bool
		}{
			{"Invalid Unmarshal Nil", nil, true},
			{"Invalid Unmarshal Not Pointer 1", struct{}{}, true},
			{"Invalid Unmarshal Not Pointer 2", []struct{}{}, true},
			{"No Fields Slice", &[]struct{}{}, true},
			{"No Fields Struct", &struct{}{}, true},
			{"Not A Struct", &[]int{}, true},
			{"Valid Unmarshal slice", &[]allTypes{}, false},
		} {
			t.Run(tt.name, func(t *testing.T) {
				err := Unmarshal([]byte{}, tt.v)
				if tt.shouldErr != (err != nil) {
					t.Errorf("Unmarshal() err want %v, have %v (%v)", tt.shouldErr, err != nil, err)
				}
			})
		}
	})
}

type ledger struct {
	Account string `fixed:"1,4"`
	Amount  int    `fixed:"5,8"`
}

func TestUnmarshal_TypeError(t *testing.T) {
	var rows []ledger
	err := Unmarshal([]byte("abcd   1\nefgh  x2\n"), &rows)
	require.Error(t, err)

	var terr *UnmarshalTypeError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "ledger", terr.Struct)
	assert.Equal(t, "Amount", terr.Field)
	assert.Equal(t, "x2", terr.Value)
	assert.Equal(t, 2, terr.Line)
	assert.Equal(t, reflect.TypeOf(0), terr.Type)
	assert.Contains(t, err.Error(), "on line 2")
}

func TestUnmarshal_Overlap(t *testing.T) {
	var rows []struct {
		A string `fixed:"1,4"`
		B string `fixed:"3,6"`
	}
	err := Unmarshal([]byte("abcdef"), &rows)
	assert.ErrorIs(t, err, ErrFieldsOverlap)
}

func TestNewValueSetter(t *testing.T) {
	for _, tt := range []struct {
		name      string
		raw       string
		expected  interface{}
		shouldErr bool
	}{
		{"invalid type", "foo", struct{}{}, true},
		{"invalid slice", "foo", []int{}, true},

		{"textUnmarshaler implementation", "foo", &EncodableString{"foo", nil}, false},
		{"textUnmarshaler implementation if addressed", "foo", EncodableString{"foo", nil}, false},
		{"textUnmarshaler implementation as interface", "foo", encoding.TextUnmarshaler(&EncodableString{"foo", nil}), false},
		{"textUnmarshaler implementation in interface", "foo", interface{}(&EncodableString{"foo", nil}), false},
		{"textUnmarshaler implementation if addressed in interface", "foo", interface{}(EncodableString{"foo", nil}), false},

		{"unmarshaler", "foo", rawField{"foo"}, false},
		{"*unmarshaler", "foo", &rawField{"foo"}, false},

		{"string", "foo", string("foo"), false},
		{"string empty", "", string(""), false},
		{"string interface", "foo", interface{}(string("foo")), false},
		{"string interface empty", "", interface{}(string("")), false},
		{"*string", "foo", stringp("foo"), false},
		{"*string empty", "", (*string)(nil), false},

		{"bool", "true", true, false},
		{"bool 1", "1", true, false},
		{"bool empty", "", false, false},
		{"bool Invalid", "foo", false, true},

		{"int", "1", int(1), false},
		{"int zero", "0", int(0), false},
		{"int empty", "", int(0), false},
		{"*int", "1", intp(1), false},
		{"*int zero", "0", intp(0), false},
		{"*int empty", "", (*int)(nil), false},
		{"int Invalid", "foo", int(0), true},
		{"int8 overflow", "300", int8(0), true},

		{"uint", "7", uint(7), false},
		{"uint negative", "-7", uint(0), true},

		{"float64", "1.23", float64(1.23), false},
		{"*float64", "1.23", float64p(1.23), false},
		{"*float64 zero", "0", float64p(0), false},
		{"*float64 empty", "", (*float64)(nil), false},
		{"float64 Invalid", "foo", float64(0), true},

		{"float32", "1.23", float32(1.23), false},
		{"float32 Invalid", "foo", float32(0), true},

		{"int8", "1", int8(1), false},
		{"int16", "1", int16(1), false},
		{"int32", "1", int32(1), false},
		{"int64", "1", int64(1), false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			// ensure we have an addressable target
			var i = reflect.Indirect(reflect.New(reflect.TypeOf(tt.expected)))

			err := newValueSetter(i.Type())(i, tt.raw, tt.raw)
			if tt.shouldErr != (err != nil) {
				t.Errorf("newValueSetter(%s)() err want %v, have %v (%v)", reflect.TypeOf(tt.expected), tt.shouldErr, err != nil, err)
			}
			if !tt.shouldErr && !reflect.DeepEqual(tt.expected, i.Interface()) {
				t.Errorf("newValueSetter(%s)() want %v, have %v", reflect.TypeOf(tt.expected), tt.expected, i)
			}
		})
	}
}

func TestNewValueSetter_RawAndTrimmed(t *testing.T) {
	var raw rawField
	v := reflect.ValueOf(&raw).Elem()
	require.NoError(t, newValueSetter(v.Type())(v, " x ", "x"))
	assert.Equal(t, " x ", raw.Data)

	var text EncodableString
	v = reflect.ValueOf(&text).Elem()
	require.NoError(t, newValueSetter(v.Type())(v, " x ", "x"))
	assert.Equal(t, "x", text.S)
}

// Verify the behavior of Decoder.Decode at the end of a file. See
// https://github.com/ianlopshire/go-fixedwidth/issues/6 for more details.
func TestDecode_EOF(t *testing.T) {
	layout, err := CompileFields(Field{Width: 1}, Field{Width: 1}, Field{Width: 1})
	require.NoError(t, err)

	d := NewDecoder(bytes.NewReader([]byte("")), layout)
	_, err = d.Decode()
	assert.Equal(t, io.EOF, err)

	d = NewDecoder(bytes.NewReader([]byte("ABC\n")), layout)
	rec, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"A", "B", "C"}, rec.Values)
	_, err = d.Decode()
	assert.Equal(t, io.EOF, err)
	_, err = d.Decode()
	assert.Equal(t, io.EOF, err)
}

func TestDecoder_SmallReads(t *testing.T) {
	layout, err := Compile(Options{
		Encoding: "latin1",
		Fields:   []Field{{Width: 4}, {Width: 2, Type: "int", Align: AlignRight}},
	})
	require.NoError(t, err)

	d := NewDecoder(iotest.OneByteReader(strings.NewReader("caf\xe9 1\r\nna\xefv42\r\n")), layout)
	defer d.Close()

	var got [][]interface{}
	for {
		rec, err := d.Decode()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, rec.Values)
	}
	assert.Equal(t, [][]interface{}{{"café", int64(1)}, {"naïv", int64(42)}}, got)
}

func TestDecoder_StickyError(t *testing.T) {
	layout, err := CompileFields(Field{Width: 3})
	require.NoError(t, err)

	d := NewDecoder(strings.NewReader("abc\nde\nfgh\n"), layout)
	_, err = d.Decode()
	require.NoError(t, err)

	_, err = d.Decode()
	assert.True(t, IsKind(err, UnexpectedLineLength))
	_, again := d.Decode()
	assert.Equal(t, err, again)
}

func TestDecoder_ReadError(t *testing.T) {
	layout, err := CompileFields(Field{Width: 3})
	require.NoError(t, err)

	boom := errors.New("boom")
	d := NewDecoder(io.MultiReader(strings.NewReader("abc\n"), iotest.ErrReader(boom)), layout)
	_, err = d.Decode()
	require.NoError(t, err)
	_, err = d.Decode()
	assert.Equal(t, boom, err)
}

func TestDecoder_Close(t *testing.T) {
	layout, err := CompileFields(Field{Width: 3})
	require.NoError(t, err)

	d := NewDecoder(strings.NewReader("abc\ndef\n"), layout)
	_, err = d.Decode()
	require.NoError(t, err)

	require.NoError(t, d.Close())
	_, err = d.Decode()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}
