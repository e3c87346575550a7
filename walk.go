package schema

// Walk visits n and every descendant reachable through namespace
// children, calling fn at each node in pre-order. fn returning false
// stops descent into that node's children, but sibling traversal
// continues.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	ns, ok := asNamespace(n)
	if !ok {
		return
	}
	for _, child := range ns.Children() {
		Walk(child, fn)
	}
}
