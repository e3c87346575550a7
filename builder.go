package schema

import (
	"fmt"
	"io"
	"strings"

	"github.com/protoschema/builder/schemaerr"
	"github.com/sirupsen/logrus"
)

// Builder ingests descriptor records and, after resolution, produces a
// user-facing reflection tree. It is single-threaded and non-reentrant:
// the insertion pointer (ptr) is mutable shared state, so concurrent
// calls into Create, Import, Define, ResolveAll or Build are undefined.
type Builder struct {
	root *Namespace
	ptr  Node

	resolved  bool
	projected *Namespace

	importedFiles map[string]bool
	importRoot    string
	importRootSet bool

	// extOwner maps the address of an ExtensionField's embedded Field
	// back to its owning ExtensionField, since that address is what
	// Walk sees as a plain *Field once it has been registered as a
	// message's namespace child.
	extOwner map[*Field]*ExtensionField

	log logrus.FieldLogger

	textParser     TextParser
	resourceLoader ResourceLoader

	// camelCaseExtensions is the builder-wide default for
	// convertFieldsToCamelCase; an individual extend block's own
	// options.convertFieldsToCamelCase, when present, overrides it.
	camelCaseExtensions bool
}

// Option configures a Builder at construction time.
type Option func(*Builder)

// WithLogger installs a logger the Builder uses to trace ingestion of
// messages, enums and services (at Debug) and skipped extend blocks
// targeting google.protobuf.* (at Warn). The Builder is silent by
// default.
func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Builder) { b.log = log }
}

// WithTextParser installs the external text-parser collaborator the
// import composer dispatches ".proto" files to. Without one, the import
// composer can only consume JSON descriptor files.
func WithTextParser(p TextParser) Option {
	return func(b *Builder) { b.textParser = p }
}

// WithResourceLoader overrides the default, afero-backed resource loader
// used by the import composer to fetch dependent schema files.
func WithResourceLoader(r ResourceLoader) Option {
	return func(b *Builder) { b.resourceLoader = r }
}

// WithCamelCaseExtensionFields sets the builder-wide default for the
// convertFieldsToCamelCase extend option. An extend block whose own
// options map sets convertFieldsToCamelCase still overrides this default.
func WithCamelCaseExtensionFields(on bool) Option {
	return func(b *Builder) { b.camelCaseExtensions = on }
}

// NewBuilder constructs an empty Builder with its insertion pointer at
// the anonymous root namespace.
func NewBuilder(opts ...Option) *Builder {
	root := newNamespace("", nil)
	b := &Builder{
		root:          root,
		ptr:           root,
		importedFiles: make(map[string]bool),
		extOwner:      make(map[*Field]*ExtensionField),
		log:           silentLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.resourceLoader == nil {
		b.resourceLoader = NewFileResourceLoader(nil)
	}
	return b
}

func silentLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Reset moves the insertion pointer back to the root.
func (b *Builder) Reset() {
	b.ptr = b.root
}

// Define walks dotted, creating any missing namespace segments as
// children of the current pointer and reusing any that already exist,
// then advances the pointer to the final segment.
func (b *Builder) Define(dotted string) error {
	if !isValidNamespacePath(dotted) {
		return schemaerr.IllegalNamespaceErr(dotted)
	}
	if dotted == "" {
		return nil
	}
	ns, ok := asNamespace(b.ptr)
	if !ok {
		return schemaerr.IllegalNamespaceErr(dotted)
	}
	for _, seg := range strings.Split(dotted, ".") {
		child, ok := ns.ChildByName(seg)
		if !ok {
			child = newNamespace(seg, ns)
			ns.add(child)
		}
		childNS, ok := asNamespace(child)
		if !ok {
			return schemaerr.IllegalNamespaceErr(dotted)
		}
		ns = childNS
	}
	b.ptr = ns
	b.invalidate()
	return nil
}

// invalidate clears the resolved flag and any cached build projection,
// as required after any successful mutating call.
func (b *Builder) invalidate() {
	b.resolved = false
	b.projected = nil
}

// Create accepts either a single Definition or an ordered slice of
// Definitions, and ingests them under the current insertion pointer
// using an explicit work stack (see ingest.go).
func (b *Builder) Create(input interface{}) error {
	defs, err := normalizeDefs(input)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		return nil
	}
	if err := b.ingest(defs); err != nil {
		return err
	}
	b.invalidate()
	return nil
}

// normalizeDefs accepts either a Definition, a map[string]interface{}, or
// a slice of either, and returns an ordered []Definition.
func normalizeDefs(input interface{}) ([]Definition, error) {
	switch v := input.(type) {
	case nil:
		return nil, nil
	case Definition:
		return []Definition{v}, nil
	case map[string]interface{}:
		return []Definition{Definition(v)}, nil
	case []Definition:
		return v, nil
	case []map[string]interface{}:
		out := make([]Definition, len(v))
		for i, m := range v {
			out[i] = Definition(m)
		}
		return out, nil
	case []interface{}:
		out := make([]Definition, 0, len(v))
		for _, item := range v {
			d, err := asDefinition(item)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("schema: Create: unsupported input type %T", input)
	}
}

func asDefinition(v interface{}) (Definition, error) {
	switch m := v.(type) {
	case Definition:
		return m, nil
	case map[string]interface{}:
		return Definition(m), nil
	default:
		return nil, fmt.Errorf("schema: expected a definition record, got %T", v)
	}
}
