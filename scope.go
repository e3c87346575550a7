package schema

import "strings"

// resolve implements the scope resolver (spec.md section 4.2): given a
// namespace-shaped node s and a symbolic name r, return the node r
// refers to.
//
//  1. If r begins with '.', search from the tree root; else search s,
//     then s.Parent(), then up to the root, taking the first hit.
//  2. At each scope, consume dotted segments left-to-right by
//     descending into children by name; any missing segment aborts that
//     scope.
//  3. excludeNonNamespace filters out non-namespace hits when set.
func resolve(s Node, r string, excludeNonNamespace bool) (Node, bool) {
	if r == "" {
		return nil, false
	}

	if strings.HasPrefix(r, ".") {
		root := rootOf(s)
		return descend(root, strings.Split(r[1:], "."), excludeNonNamespace)
	}

	segments := strings.Split(r, ".")
	for scope := s; scope != nil; scope = scope.Parent() {
		if hit, ok := descend(scope, segments, excludeNonNamespace); ok {
			return hit, true
		}
	}
	return nil, false
}

// descend walks segments left-to-right from start, descending into
// children by name at each step.
func descend(start Node, segments []string, excludeNonNamespace bool) (Node, bool) {
	cur := start
	for _, seg := range segments {
		ns, ok := asNamespace(cur)
		if !ok {
			return nil, false
		}
		child, ok := ns.ChildByName(seg)
		if !ok {
			return nil, false
		}
		cur = child
	}
	if cur == start {
		return nil, false
	}
	if excludeNonNamespace {
		if _, ok := asNamespace(cur); !ok {
			return nil, false
		}
	}
	return cur, true
}

// rootOf walks up the parent chain to the anonymous root namespace.
func rootOf(n Node) Node {
	for n.Parent() != nil {
		n = n.Parent()
	}
	return n
}
