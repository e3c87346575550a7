// Package schemaerr defines the typed, matchable error kinds the builder
// can fail with. Every constructor here produces a flat, single-line
// error message in the teacher's own blunt style (no wrapped library
// internals, no stack traces) while still letting callers recover the
// Kind with errors.As.
package schemaerr

import "fmt"

// Kind identifies which of the error conditions in spec.md section 7 a
// returned error represents.
type Kind int

// The error kinds recognized by the builder.
const (
	IllegalNamespace Kind = iota
	DuplicateFieldID
	IllegalOptions
	IllegalOneof
	IllegalExtensionRange
	ExtendedNotDefined
	InvalidDefinition
	UnresolvableType
	IllegalKeyType
	SyntaxMismatch
	ImportMissing
	ImportRootUnknown
)

var kindNames = map[Kind]string{
	IllegalNamespace:      "illegal-namespace",
	DuplicateFieldID:      "duplicate-field-id",
	IllegalOptions:        "illegal-options",
	IllegalOneof:          "illegal-oneof",
	IllegalExtensionRange: "illegal-extension-range",
	ExtendedNotDefined:    "extended-not-defined",
	InvalidDefinition:     "invalid-definition",
	UnresolvableType:      "unresolvable-type",
	IllegalKeyType:        "illegal-key-type",
	SyntaxMismatch:        "syntax-mismatch",
	ImportMissing:         "import-missing",
	ImportRootUnknown:     "import-root-unknown",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown-error-kind"
}

// Error is a builder failure: a Kind plus a rendered message. It is
// returned as a plain error; callers that need the Kind use errors.As.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func new_(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, msg: fmt.Sprintf("%s: %s", k, fmt.Sprintf(format, args...))}
}

// IllegalNamespaceErr reports a Define() path that fails the
// type-reference grammar.
func IllegalNamespaceErr(path string) error {
	return new_(IllegalNamespace, "%q is not a legal namespace path", path)
}

// DuplicateFieldIDErr reports two fields in the same message (or the same
// accumulated set of extend blocks targeting one message) sharing an id.
func DuplicateFieldIDErr(message string, id int) error {
	return new_(DuplicateFieldID, "message %q already has a field with id %d", message, id)
}

// IllegalOptionsErr reports a field options value that isn't a mapping.
func IllegalOptionsErr(field string) error {
	return new_(IllegalOptions, "field %q has non-mapping options", field)
}

// IllegalOneofErr reports a field naming a oneof not declared earlier in
// the same message.
func IllegalOneofErr(field, oneof string) error {
	return new_(IllegalOneof, "field %q names undeclared oneof %q", field, oneof)
}

// IllegalExtensionRangeErr reports an extend field id outside the
// target's declared extension range.
func IllegalExtensionRangeErr(target string, id, lo, hi int) error {
	return new_(IllegalExtensionRange, "extension field id %d on %q is outside declared range [%d, %d]", id, target, lo, hi)
}

// ExtendedNotDefinedErr reports an extend block whose target could not be
// resolved and was not an internal descriptor path.
func ExtendedNotDefinedErr(ref string) error {
	return new_(ExtendedNotDefined, "extended message %q is not defined", ref)
}

// InvalidDefinitionErr reports a descriptor record matching no known
// shape.
func InvalidDefinitionErr() error {
	return new_(InvalidDefinition, "record is not a valid definition")
}

// UnresolvableTypeErr reports a symbolic field or method type that could
// not be located.
func UnresolvableTypeErr(owner, ref string) error {
	return new_(UnresolvableType, "%q: type %q could not be resolved", owner, ref)
}

// IllegalKeyTypeErr reports a map field whose key type is not a builtin.
func IllegalKeyTypeErr(field, keyType string) error {
	return new_(IllegalKeyType, "field %q: map key type %q is not a builtin", field, keyType)
}

// SyntaxMismatchErr reports a proto3 field referencing a proto2 enum.
func SyntaxMismatchErr(field, enum string) error {
	return new_(SyntaxMismatch, "field %q: proto3 message cannot reference proto2 enum %q", field, enum)
}

// ImportMissingErr reports a resource loader miss.
func ImportMissingErr(path string) error {
	return new_(ImportMissing, "import %q could not be fetched", path)
}

// ImportRootUnknownErr reports imports present with no filename context
// to resolve them against.
func ImportRootUnknownErr() error {
	return new_(ImportRootUnknown, "imports present but no filename context is known")
}
