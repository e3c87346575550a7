package schema

import (
	"regexp"
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"
)

// BuiltinType is the resolved tag of a Field's type: either a scalar
// builtin, or one of the three synthetic tags (TypeEnum, TypeMessage, TypeGroup)
// a symbolic reference resolves to.
//
// The scalar values are the descriptorpb.FieldDescriptorProto_Type
// values directly — this package does not invent its own numbering for
// the wire-level builtins, it reuses the one the rest of the protobuf
// Go ecosystem already builds against.
type BuiltinType descriptorpb.FieldDescriptorProto_Type

// TypeUnset is the zero value of BuiltinType: a Field that has not yet
// gone through resolution.
const TypeUnset BuiltinType = 0

// The scalar builtins, named to match the type strings a descriptor
// record uses in its "type" field.
const (
	TypeDouble   BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_DOUBLE)
	TypeFloat    BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_FLOAT)
	TypeInt64    BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_INT64)
	TypeUint64   BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_UINT64)
	TypeInt32    BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_INT32)
	TypeFixed64  BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_FIXED64)
	TypeFixed32  BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_FIXED32)
	TypeBool     BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_BOOL)
	TypeString   BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_STRING)
	TypeGroup    BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_GROUP)
	TypeMessage  BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	TypeBytes    BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_BYTES)
	TypeUint32   BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_UINT32)
	TypeEnum     BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_ENUM)
	TypeSfixed32 BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_SFIXED32)
	TypeSfixed64 BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_SFIXED64)
	TypeSint32   BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_SINT32)
	TypeSint64   BuiltinType = BuiltinType(descriptorpb.FieldDescriptorProto_TYPE_SINT64)
)

// builtinByName maps the lowercase type strings a descriptor record uses
// to their resolved BuiltinType tag. "group" and "message" are present
// here too, even though a record never declares a field's type as the
// literal string "group"/"message" directly (those only ever arise from
// resolving a symbolic reference); the resolution pass looks names up
// here only after isBuiltinTypeName or mapKeyBuiltins has accepted them,
// and sets the synthetic tags directly when it binds a reference.
var builtinByName = map[string]BuiltinType{
	"double":   TypeDouble,
	"float":    TypeFloat,
	"int64":    TypeInt64,
	"uint64":   TypeUint64,
	"int32":    TypeInt32,
	"fixed64":  TypeFixed64,
	"fixed32":  TypeFixed32,
	"bool":     TypeBool,
	"string":   TypeString,
	"group":    TypeGroup,
	"message":  TypeMessage,
	"bytes":    TypeBytes,
	"uint32":   TypeUint32,
	"enum":     TypeEnum,
	"sfixed32": TypeSfixed32,
	"sfixed64": TypeSfixed64,
	"sint32":   TypeSint32,
	"sint64":   TypeSint64,
}

// mapKeyBuiltins is the subset of builtins the protobuf spec allows as a
// map key type: any integral or bool scalar, or string. Floating-point,
// bytes, enum, message and group may never key a map (spec.md invariant 7).
var mapKeyBuiltins = map[string]bool{
	"int32": true, "int64": true, "uint32": true, "uint64": true,
	"sint32": true, "sint64": true, "fixed32": true, "fixed64": true,
	"sfixed32": true, "sfixed64": true, "bool": true, "string": true,
}

// isBuiltinTypeName reports whether s names a builtin scalar (excluding
// the synthetic "group"/"message" tags, which a field's declared type
// string never literally spells out).
func isBuiltinTypeName(s string) bool {
	switch strings.ToLower(s) {
	case "double", "float", "int64", "uint64", "int32", "fixed64", "fixed32",
		"bool", "string", "bytes", "uint32", "sfixed32", "sfixed64", "sint32", "sint64":
		return true
	default:
		return false
	}
}

// lookupBuiltin resolves a declared type string to its BuiltinType tag.
func lookupBuiltin(s string) (BuiltinType, bool) {
	t, ok := builtinByName[strings.ToLower(s)]
	return t, ok
}

// IDMin and IDMax bound every legal field id, matching the teacher's
// own protobuf "max" field-number constant (parser.go's readExtensions).
const (
	IDMin = 1
	IDMax = 536870911 // 2^29 - 1
)

// clampRange clamps [lo, hi] into [IDMin, IDMax].
func clampRange(lo, hi int) (int, int) {
	if lo < IDMin {
		lo = IDMin
	}
	if hi > IDMax {
		hi = IDMax
	}
	return lo, hi
}

// typeRefPattern is the TYPEREF grammar: a dotted identifier, optionally
// prefixed with a leading '.' to mark it fully qualified.
var typeRefPattern = regexp.MustCompile(`^\.?[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// identPattern is the grammar for one bare (undotted) identifier, used to
// validate each segment of a dotted namespace path given to Define.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// isTypeRef reports whether s matches the TYPEREF grammar.
func isTypeRef(s string) bool {
	return typeRefPattern.MatchString(s)
}

// isValidNamespacePath reports whether every dot-separated segment of s is
// a legal bare identifier (Define's grammar check).
func isValidNamespacePath(s string) bool {
	if s == "" {
		return true
	}
	for _, seg := range strings.Split(s, ".") {
		if !identPattern.MatchString(seg) {
			return false
		}
	}
	return true
}

// toCamelCase rewrites an underscore_separated field name into
// camelCase, matching protoc's json_name derivation. Used by extend
// blocks declaring convertFieldsToCamelCase.
func toCamelCase(s string) string {
	var b strings.Builder
	upperNext := false
	for _, r := range s {
		if r == '_' {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteString(strings.ToUpper(string(r)))
			upperNext = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
