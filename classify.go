package schema

// Definition is the shape descriptor records are decoded into: a mapping
// with string keys, exactly as an external text parser or a JSON decoder
// would hand to the builder. The classifier inspects the presence and
// type of specific keys — never a discriminator tag — to decide which
// variant a record is.
type Definition map[string]interface{}

// DefinitionKind is the tagged variant a Definition classifies as.
type DefinitionKind int

// The recognized definition variants.
const (
	KindUnknown DefinitionKind = iota
	KindMessage
	KindEnum
	KindService
	KindExtend
	KindMessageField
)

func asString(d Definition, key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func asSlice(d Definition, key string) ([]interface{}, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	s, ok := v.([]interface{})
	return s, ok
}

func asMap(d Definition, key string) (map[string]interface{}, bool) {
	v, ok := d[key]
	if !ok || v == nil {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	return m, ok
}

func asBool(d Definition, key string) bool {
	v, ok := d[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// classify inspects the shape of d and returns its DefinitionKind.
//
//   - Message field iff "rule", "name", "type" are strings AND "id" is present.
//     Checked first: a field record also carries a string "name", which
//     would otherwise fall into the message case below.
//   - Extend iff "ref" is a string.
//   - Enum iff name is a string AND "values" is a non-empty sequence.
//   - Service iff name is a string AND "rpc" is a non-null mapping (and
//     "values" isn't a non-empty sequence).
//   - Message iff name is a string AND neither of the above holds — this
//     includes a "values" key that is absent, nil, or an empty list, which
//     classifies as a fields-less message rather than an unknown shape.
func classify(d Definition) DefinitionKind {
	if _, hasRule := asString(d, "rule"); hasRule {
		_, hasTypeName := asString(d, "type")
		_, hasID := d["id"]
		if _, hasFieldName := asString(d, "name"); hasFieldName && hasTypeName && hasID {
			return KindMessageField
		}
	}

	if _, ok := asString(d, "ref"); ok {
		return KindExtend
	}

	_, hasName := asString(d, "name")
	values := d["values"]
	_, hasRPC := asMap(d, "rpc")
	enumValues := isNonEmptySlice(values)

	if hasName {
		switch {
		case enumValues:
			return KindEnum
		case hasRPC:
			return KindService
		case !enumValues && !hasRPC:
			return KindMessage
		}
	}

	return KindUnknown
}

func isNonEmptySlice(v interface{}) bool {
	s, ok := v.([]interface{})
	return ok && len(s) > 0
}

// IsMessage reports whether d classifies as a message definition.
func IsMessage(d Definition) bool { return classify(d) == KindMessage }

// IsEnum reports whether d classifies as an enum definition.
func IsEnum(d Definition) bool { return classify(d) == KindEnum }

// IsService reports whether d classifies as a service definition.
func IsService(d Definition) bool { return classify(d) == KindService }

// IsExtend reports whether d classifies as an extend block.
func IsExtend(d Definition) bool { return classify(d) == KindExtend }

// IsMessageField reports whether d classifies as a message field.
func IsMessageField(d Definition) bool { return classify(d) == KindMessageField }
