package schema

import "strings"

// Build triggers resolution if it has not already run, then returns the
// namespace at path (or the anonymous root when path is omitted). path
// may be given dotted ("a.b.M") or pre-split ("a", "b", "M") — both name
// the same namespace. The returned projection is cached until the next
// mutating call.
func (b *Builder) Build(path ...string) (*Namespace, error) {
	if err := b.ResolveAll(); err != nil {
		return nil, err
	}

	joined := strings.Join(path, ".")
	if joined == "" {
		if b.projected == nil {
			b.projected = b.root
		}
		return b.projected, nil
	}

	n, ok := resolve(b.root, joined, true)
	if !ok {
		return nil, errUnresolvableBuildPath(joined)
	}
	ns, ok := asNamespace(n)
	if !ok {
		return nil, errUnresolvableBuildPath(joined)
	}
	return ns, nil
}

// Lookup resolves path against the tree root without requiring a prior
// Build call, triggering resolution first so symbolic types are already
// bound. excludeNonNamespace filters the match the same way it does
// during ingestion's own internal resolution.
func (b *Builder) Lookup(path string, excludeNonNamespace bool) (Node, bool) {
	if err := b.ResolveAll(); err != nil {
		return nil, false
	}
	return resolve(b.root, path, excludeNonNamespace)
}

func errUnresolvableBuildPath(path string) error {
	return &buildPathError{path: path}
}

type buildPathError struct{ path string }

func (e *buildPathError) Error() string {
	return "schema: build path " + quote(e.path) + " does not name a namespace"
}

func quote(s string) string { return "\"" + s + "\"" }
