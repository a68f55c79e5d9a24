package fixedwidth

import "strconv"

// builtinCasts are the casts selectable with Field.Type. Empty values cast
// to nil for every type except string.
var builtinCasts = map[string]CastFunc{
	"":       identityCast,
	"string": identityCast,
	"int":    intCast,
	"float":  floatCast,
	"bool":   boolCast,
}

func intCast(value string, _ FieldContext) (interface{}, error) {
	if len(value) < 1 {
		return nil, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func floatCast(value string, _ FieldContext) (interface{}, error) {
	if len(value) < 1 {
		return nil, nil
	}
	return strconv.ParseFloat(value, 64)
}

func boolCast(value string, _ FieldContext) (interface{}, error) {
	if len(value) < 1 {
		return nil, nil
	}
	return strconv.ParseBool(value)
}
