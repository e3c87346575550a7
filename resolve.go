package schema

import "github.com/protoschema/builder/schemaerr"

// ResolveAll runs the depth-first name-resolution pass (spec.md section
// 4.5) over the entire tree: every field's DeclaredType and, for map
// fields, DeclaredKeyType, is bound to either a builtin tag or a
// resolved Message/Enum node, and every RPCMethod's request/response
// names are bound to their Message nodes. Resolution is idempotent:
// repeated calls without an intervening mutation are no-ops.
func (b *Builder) ResolveAll() error {
	if b.resolved {
		return nil
	}

	savedPtr := b.ptr
	defer func() { b.ptr = savedPtr }()

	var failure error
	Walk(b.root, func(n Node) bool {
		if failure != nil {
			return false
		}
		switch v := n.(type) {
		case *Field:
			failure = b.resolveField(v)
		case *RPCMethod:
			failure = b.resolveMethod(v)
		}
		return failure == nil
	})
	if failure != nil {
		return failure
	}

	b.ptr = b.root
	b.resolved = true
	return nil
}

// resolveField binds f.Type (and, for map fields, f.KeyType) from its
// declared type strings. Plain fields resolve symbolic references
// against their own parent scope; extension fields resolve against the
// namespace the extend block textually appeared in.
func (b *Builder) resolveField(f *Field) error {
	if ef, ok := b.extOwner[f]; ok {
		return b.resolveFieldAgainst(f, ef.Site)
	}
	return b.resolveFieldAgainst(f, f.Parent())
}

func (b *Builder) resolveFieldAgainst(f *Field, scope Node) error {
	if f.IsMap {
		if err := b.resolveMapKey(f); err != nil {
			return err
		}
	}

	if isBuiltinTypeName(f.DeclaredType) {
		t, _ := lookupBuiltin(f.DeclaredType)
		f.Type = t
		return nil
	}

	target, ok := resolve(scope, f.DeclaredType, true)
	if !ok {
		return schemaerr.UnresolvableTypeErr(FullName(f), f.DeclaredType)
	}

	switch t := target.(type) {
	case *Message:
		if t.IsGroup() {
			f.Type = TypeGroup
		} else {
			f.Type = TypeMessage
		}
		f.ResolvedType = t
	case *Enum:
		if f.Syntax == "proto3" && t.Syntax == "proto2" {
			return schemaerr.SyntaxMismatchErr(FullName(f), FullName(t))
		}
		f.Type = TypeEnum
		f.ResolvedType = t
	default:
		return schemaerr.UnresolvableTypeErr(FullName(f), f.DeclaredType)
	}
	return nil
}

func (b *Builder) resolveMapKey(f *Field) error {
	key := f.DeclaredKeyType
	if !mapKeyBuiltins[lowerKey(key)] {
		return schemaerr.IllegalKeyTypeErr(FullName(f), key)
	}
	t, _ := lookupBuiltin(key)
	f.KeyType = t
	return nil
}

func lowerKey(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// resolveMethod binds m.ResolvedRequest and m.ResolvedResponse against
// the Service m belongs to.
func (b *Builder) resolveMethod(m *RPCMethod) error {
	scope := m.Parent()

	req, ok := resolve(scope, m.RequestName, true)
	if !ok {
		return schemaerr.UnresolvableTypeErr(FullName(m), m.RequestName)
	}
	reqMsg, ok := req.(*Message)
	if !ok {
		return schemaerr.UnresolvableTypeErr(FullName(m), m.RequestName)
	}
	m.ResolvedRequest = reqMsg

	resp, ok := resolve(scope, m.ResponseName, true)
	if !ok {
		return schemaerr.UnresolvableTypeErr(FullName(m), m.ResponseName)
	}
	respMsg, ok := resp.(*Message)
	if !ok {
		return schemaerr.UnresolvableTypeErr(FullName(m), m.ResponseName)
	}
	m.ResolvedResponse = respMsg

	return nil
}
