package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/protoschema/builder/schemaerr"
	"github.com/spf13/afero"
)

// TextParser decodes a ".proto" text-format schema file into the same
// Definition record shape JSON decoding would produce. When one is
// installed, the import composer hands every ".proto" dependency to it;
// without one, a ".proto" dependency is loaded from its ".json" sibling
// instead, and fails with ImportMissingErr when that sibling is absent.
type TextParser interface {
	Parse(r io.Reader) (Definition, error)
}

// ResourceLoader fetches the raw bytes backing an import path. The
// Builder never opens files directly; every import composition goes
// through this seam.
type ResourceLoader interface {
	Load(root, file string) ([]byte, error)
}

// fileResourceLoader is the default, afero-backed ResourceLoader. With a
// nil filesystem it defaults to the OS filesystem, matching the
// teacher's disk-backed default import provider.
type fileResourceLoader struct {
	fs afero.Fs
}

// NewFileResourceLoader returns a ResourceLoader that reads files from fs.
// A nil fs defaults to the real OS filesystem.
func NewFileResourceLoader(fs afero.Fs) ResourceLoader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &fileResourceLoader{fs: fs}
}

func (l *fileResourceLoader) Load(root, file string) ([]byte, error) {
	full := path.Join(root, file)
	b, err := afero.ReadFile(l.fs, full)
	if err != nil {
		return nil, schemaerr.ImportMissingErr(full)
	}
	return b, nil
}

// importTarget names one schema file to load, already canonicalized to a
// (root, file) pair.
type importTarget struct {
	root string
	file string
}

func (t importTarget) key() string { return t.root + "\x00" + t.file }

// Import loads the schema named by filename, merges its package
// declaration and definitions into the tree starting from the root
// namespace, and recursively follows its "imports" entries, skipping any
// file already imported in this Builder's lifetime.
//
// filename is either a single path string, or a (root, file) pair passed
// as two strings. When no import root is established, a single path's
// directory (or "." when it has no separator) becomes the import root;
// otherwise the path is taken relative to the established root. With no
// filename at all, doc is ingested without dedup tracking, and Import
// fails with ImportRootUnknownErr if doc lists any imports.
func (b *Builder) Import(doc Definition, filename ...interface{}) error {
	if len(filename) == 0 {
		if imports, _ := asSlice(doc, "imports"); len(imports) > 0 {
			return schemaerr.ImportRootUnknownErr()
		}
		return b.importSchema(doc, importTarget{})
	}
	target, err := b.resolveImportTarget(filename)
	if err != nil {
		return err
	}
	if b.importedFiles[target.key()] {
		return nil
	}
	return b.importSchema(doc, target)
}

func (b *Builder) resolveImportTarget(filename []interface{}) (importTarget, error) {
	switch len(filename) {
	case 0:
		return importTarget{}, schemaerr.ImportRootUnknownErr()
	case 1:
		name, ok := filename[0].(string)
		if !ok {
			return importTarget{}, schemaerr.ImportRootUnknownErr()
		}
		if !b.importRootSet {
			root, file := splitImportRoot(name)
			b.importRoot = root
			b.importRootSet = true
			return importTarget{root: root, file: file}, nil
		}
		return importTarget{root: b.importRoot, file: name}, nil
	case 2:
		root, rok := filename[0].(string)
		file, fok := filename[1].(string)
		if !rok || !fok {
			return importTarget{}, schemaerr.ImportRootUnknownErr()
		}
		if !b.importRootSet {
			b.importRoot = root
			b.importRootSet = true
		}
		return importTarget{root: root, file: file}, nil
	default:
		return importTarget{}, schemaerr.ImportRootUnknownErr()
	}
}

// splitImportRoot derives a (root, file) pair from a single path using
// the platform path delimiter found in it, falling back to "/".
func splitImportRoot(p string) (string, string) {
	delim := "/"
	if strings.Contains(p, "\\") && !strings.Contains(p, "/") {
		delim = "\\"
	}
	idx := strings.LastIndex(p, delim)
	if idx < 0 {
		return ".", p
	}
	return p[:idx], p[idx+1:]
}

// importSchema walks doc's "imports" entries recursively before touching
// doc itself, then defines doc's package, merges doc's own top-level
// "options" onto that package namespace, and ingests doc's own
// messages/enums/services/extends under the current pointer. Imports
// must load first: an extend block in doc may target a message defined
// in one of doc's dependencies, and extend targets are resolved
// immediately at ingest time, not deferred to ResolveAll.
func (b *Builder) importSchema(doc Definition, target importTarget) error {
	b.importedFiles[target.key()] = true

	imports, _ := asSlice(doc, "imports")
	for i, raw := range imports {
		if err := b.followImport(doc, raw, target, i); err != nil {
			return err
		}
	}

	b.Reset()

	if pkg, ok := asString(doc, "package"); ok && pkg != "" {
		if err := b.Define(pkg); err != nil {
			return err
		}
	}

	if opts, ok := asMap(doc, "options"); ok {
		if ns, ok := asNamespace(b.ptr); ok {
			if ns.Options == nil {
				ns.Options = make(map[string]string, len(opts))
			}
			for k, v := range stringMap(opts) {
				ns.Options[k] = v
			}
		}
	}

	syntax, _ := asString(doc, "syntax")
	stampSyntax(doc, syntax)

	if err := b.ingestOrdered(doc); err != nil {
		return err
	}

	b.Reset()
	b.importRoot = ""
	b.importRootSet = false
	b.invalidate()
	return nil
}

// ingestOrdered ingests messages, then enums, then services, then
// extends, from one package-level document — extends run last so every
// locally declared message exists before any extend block is resolved
// against it.
func (b *Builder) ingestOrdered(doc Definition) error {
	ordered := append([]Definition{}, definitionSlice(doc, "messages")...)
	ordered = append(ordered, definitionSlice(doc, "enums")...)
	ordered = append(ordered, definitionSlice(doc, "services")...)
	if err := b.ingest(ordered); err != nil {
		return err
	}
	extends := definitionSlice(doc, "extends")
	return b.ingest(extends)
}

// followImport resolves one entry of doc's "imports" list: either a
// relative path string naming a sibling file, or a nested inline object
// (given an _import<i> synthetic name) describing an already-decoded
// dependency. google/protobuf/descriptor.proto is well-known and always
// skipped, since its extend targets are resolved without this builder's
// help.
func (b *Builder) followImport(doc Definition, raw interface{}, target importTarget, i int) error {
	switch v := raw.(type) {
	case string:
		if isWellKnownImport(v) {
			return nil
		}
		if b.importedFiles[importTarget{root: target.root, file: v}.key()] {
			return nil
		}
		child, err := b.loadImportFile(target.root, v)
		if err != nil {
			return err
		}
		return b.Import(child, target.root, v)
	case map[string]interface{}:
		name := fmt.Sprintf("_import%d", i)
		child := Definition(v)
		if syn, ok := asString(doc, "syntax"); ok {
			stampSyntax(child, syn)
		}
		return b.Import(child, target.root, name)
	default:
		return schemaerr.ImportMissingErr(fmt.Sprintf("%v", raw))
	}
}

// isWellKnownImport reports whether p names a descriptor.proto path this
// builder treats as already known, never requiring its own file to exist
// on disk.
func isWellKnownImport(p string) bool {
	p = strings.TrimPrefix(p, "./")
	return p == "google/protobuf/descriptor.proto" || strings.HasSuffix(p, "/descriptor.proto") && strings.Contains(p, "google/protobuf")
}

// loadImportFile fetches and decodes one dependency file named rel,
// relative to root. ".proto" files are handed to the installed
// TextParser if any; absent one, the ".json" sibling is loaded and
// decoded instead.
func (b *Builder) loadImportFile(root, rel string) (Definition, error) {
	if strings.HasSuffix(rel, ".proto") && b.textParser != nil {
		raw, err := b.resourceLoader.Load(root, rel)
		if err != nil {
			return nil, err
		}
		return b.textParser.Parse(strings.NewReader(string(raw)))
	}

	candidate := rel
	if strings.HasSuffix(rel, ".proto") {
		candidate = strings.TrimSuffix(rel, ".proto") + ".json"
	}
	raw, err := b.resourceLoader.Load(root, candidate)
	if err != nil {
		return nil, err
	}
	var doc Definition
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("schema: import %q: %w", candidate, err)
	}
	return doc, nil
}

// stampSyntax propagates a package's syntax declaration onto every
// message and enum definition in doc, at every nesting level, so fields
// inherit it at ingestion and the resolution pass's proto3/proto2 enum
// check sees it without the caller repeating "syntax" on every nested
// record. A record that already carries "syntax" keeps it, and its own
// nested records are left as they are.
func stampSyntax(doc Definition, syntax string) {
	if syntax == "" {
		return
	}
	for _, key := range []string{"messages", "enums"} {
		items, ok := asSlice(doc, key)
		if !ok {
			continue
		}
		for _, raw := range items {
			if m, ok := raw.(map[string]interface{}); ok {
				if _, has := m["syntax"]; !has {
					m["syntax"] = syntax
					stampSyntaxNested(m, syntax)
				}
			}
		}
	}
}

func stampSyntaxNested(m map[string]interface{}, syntax string) {
	for _, key := range []string{"messages", "enums"} {
		items, ok := m[key].([]interface{})
		if !ok {
			continue
		}
		for _, raw := range items {
			if nested, ok := raw.(map[string]interface{}); ok {
				if _, has := nested["syntax"]; !has {
					nested["syntax"] = syntax
					stampSyntaxNested(nested, syntax)
				}
			}
		}
	}
}
