package fixedwidth

import "strconv"

// A Record is one parsed line.
//
// For positional layouts Values holds one value per field in declaration
// order and Keys is nil. For keyed layouts Keys lists every distinct key in
// declaration order and Values is aligned with it; when several fields share
// a key the last one wins. Keys is shared by all records of a layout and must
// not be modified.
type Record struct {
	Line   int
	Values []interface{}
	Keys   []string
}

// Len returns the number of values.
func (r Record) Len() int { return len(r.Values) }

// Index returns the i-th value, or nil if i is out of range.
func (r Record) Index(i int) interface{} {
	if i < 0 || i >= len(r.Values) {
		return nil
	}
	return r.Values[i]
}

// Get returns the value stored under key.
func (r Record) Get(key string) (interface{}, bool) {
	for i, k := range r.Keys {
		if k == key {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the record as a map. Positional records are keyed by the
// decimal index of each value.
func (r Record) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Values))
	for i, v := range r.Values {
		if r.Keys != nil {
			m[r.Keys[i]] = v
		} else {
			m[strconv.Itoa(i)] = v
		}
	}
	return m
}

// value returns what a record holds for f, following the layout shape.
func (r Record) value(l *Layout, f *FieldSpec) interface{} {
	if l.shape == ShapeKeyed {
		v, _ := r.Get(f.Key)
		return v
	}
	return r.Index(f.index)
}

func (l *Layout) newRecord(line int, values []interface{}) Record {
	if l.shape != ShapeKeyed {
		return Record{Line: line, Values: values}
	}
	out := make([]interface{}, len(l.keys))
	for i, v := range values {
		out[l.slots[i]] = v
	}
	return Record{Line: line, Values: out, Keys: l.keys}
}
