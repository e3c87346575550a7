package schema

import (
	"strings"

	"github.com/protoschema/builder/schemaerr"
)

// ingest runs the explicit-stack nested descent over defs, rooted at
// the Builder's current insertion pointer (spec.md section 4.3). Using an
// explicit stack rather than recursion bounds call depth on deeply
// nested message trees.
func (b *Builder) ingest(defs []Definition) error {
	ptr := b.ptr
	stack := [][]Definition{defs}
	depth := 0

	for len(stack) > 0 {
		list := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for len(list) > 0 {
			def := list[0]
			list = list[1:]

			switch classify(def) {
			case KindMessage:
				m, nested, err := b.ingestMessage(ptr, def)
				if err != nil {
					return err
				}
				if len(nested) > 0 {
					stack = append(stack, list)
					list = nested
					ptr = m
					depth++
					continue
				}
			case KindEnum:
				if err := b.ingestEnum(ptr, def); err != nil {
					return err
				}
			case KindService:
				if err := b.ingestService(ptr, def); err != nil {
					return err
				}
			case KindExtend:
				if err := b.ingestExtend(ptr, def); err != nil {
					return err
				}
			default:
				return schemaerr.InvalidDefinitionErr()
			}
		}

		if depth > 0 {
			ptr = ptr.Parent()
			depth--
		}
	}

	b.ptr = ptr
	return nil
}

// ingestMessage creates a Message node under ptr from def, including its
// declared oneofs, fields and extension range, and returns the node plus
// any nested message/enum/service definitions still to be processed.
func (b *Builder) ingestMessage(ptr Node, def Definition) (*Message, []Definition, error) {
	name, _ := asString(def, "name")
	ns, ok := asNamespace(ptr)
	if !ok {
		return nil, nil, schemaerr.IllegalNamespaceErr(name)
	}

	m := &Message{
		Namespace: *newNamespace(name, ptr),
		group:     asBool(def, "group"),
	}
	if syn, ok := asString(def, "syntax"); ok {
		m.Syntax = syn
	}
	if opts, ok := asMap(def, "options"); ok {
		m.Options = stringMap(opts)
	}

	// declared oneofs, created before fields so field.oneof lookups
	// always find an already-declared sibling (invariant 4).
	if oneofs, ok := asMap(def, "oneofs"); ok {
		for _, oname := range orderedKeys(def, "oneofsOrder", oneofs) {
			o := &OneOf{base: base{name: oname}}
			m.addOneOf(o)
		}
	}

	if fields, ok := asSlice(def, "fields"); ok {
		for _, raw := range fields {
			fd, err := asDefinition(raw)
			if err != nil {
				return nil, nil, err
			}
			if err := b.ingestMessageField(m, fd, nil); err != nil {
				return nil, nil, err
			}
		}
	}

	if xr, ok := asMap(def, "extensions"); ok {
		lo, hi := extensionRange(xr)
		lo, hi = clampRange(lo, hi)
		m.HasRange = true
		m.RangeLo, m.RangeHi = lo, hi
	}

	ns.add(m)

	var nested []Definition
	nested = append(nested, definitionSlice(def, "messages")...)
	nested = append(nested, definitionSlice(def, "enums")...)
	nested = append(nested, definitionSlice(def, "services")...)

	b.log.WithField("message", FullName(m)).Debug("ingested message")
	return m, nested, nil
}

// ingestMessageField creates a Field under m from fd, enforcing id
// uniqueness and oneof membership (invariants 1 and 4). When extField is
// non-nil, the created node is stored inside it instead of being
// allocated fresh, supporting extend-block ingestion (ingestExtend).
func (b *Builder) ingestMessageField(m *Message, fd Definition, extField *ExtensionField) error {
	name, _ := asString(fd, "name")
	id, _ := asInt(fd["id"])

	if existing := m.fieldByID(id); existing != nil {
		return schemaerr.DuplicateFieldIDErr(FullName(m), id)
	}

	var f *Field
	if extField != nil {
		f = &extField.Field
	} else {
		f = &Field{}
	}

	f.base = base{name: name}
	f.Rule = fieldRule(fd)
	f.ID = id
	typ, _ := asString(fd, "type")
	f.DeclaredType = typ
	if syn, ok := asString(fd, "syntax"); ok {
		f.Syntax = syn
	} else {
		f.Syntax = m.Syntax
	}
	if opts, rawOK := fd["options"]; rawOK {
		om, ok := opts.(map[string]interface{})
		if !ok {
			return schemaerr.IllegalOptionsErr(name)
		}
		f.Options = stringMap(om)
	}
	if kt, ok := asString(fd, "keyType"); ok {
		f.IsMap = true
		f.DeclaredKeyType = kt
	}

	if oneofName, ok := asString(fd, "oneof"); ok {
		o := m.oneOfByName(oneofName)
		if o == nil {
			return schemaerr.IllegalOneofErr(name, oneofName)
		}
		f.Oneof = o
		o.Fields = append(o.Fields, f)
	}

	m.addField(f)
	return nil
}

func fieldRule(fd Definition) FieldRule {
	s, _ := asString(fd, "rule")
	switch strings.ToLower(s) {
	case "required":
		return Required
	case "repeated":
		return Repeated
	default:
		return Optional
	}
}

// ingestEnum creates an Enum node under ptr from def.
func (b *Builder) ingestEnum(ptr Node, def Definition) error {
	name, _ := asString(def, "name")
	ns, ok := asNamespace(ptr)
	if !ok {
		return schemaerr.IllegalNamespaceErr(name)
	}

	e := &Enum{Namespace: *newNamespace(name, ptr)}
	if syn, ok := asString(def, "syntax"); ok {
		e.Syntax = syn
	}
	if opts, ok := asMap(def, "options"); ok {
		e.Options = stringMap(opts)
	}

	values, _ := asSlice(def, "values")
	for _, raw := range values {
		vd, err := asDefinition(raw)
		if err != nil {
			return err
		}
		vname, _ := asString(vd, "name")
		vid, _ := asInt(vd["id"])
		e.addValue(&EnumValue{base: base{name: vname}, ID: vid})
	}

	ns.add(e)
	b.log.WithField("enum", FullName(e)).Debug("ingested enum")
	return nil
}

// ingestService creates a Service node under ptr from def.
func (b *Builder) ingestService(ptr Node, def Definition) error {
	name, _ := asString(def, "name")
	ns, ok := asNamespace(ptr)
	if !ok {
		return schemaerr.IllegalNamespaceErr(name)
	}

	s := &Service{Namespace: *newNamespace(name, ptr)}
	if opts, ok := asMap(def, "options"); ok {
		s.Options = stringMap(opts)
	}

	rpc, _ := asMap(def, "rpc")
	for _, mname := range orderedKeys(def, "rpcOrder", rpc) {
		raw := rpc[mname]
		md, err := asDefinition(raw)
		if err != nil {
			return err
		}
		reqName, _ := asString(md, "requestType")
		respName, _ := asString(md, "responseType")
		method := &RPCMethod{
			base:           base{name: mname},
			RequestName:    reqName,
			ResponseName:   respName,
			RequestStream:  asBool(md, "requestStream"),
			ResponseStream: asBool(md, "responseStream"),
		}
		if opts, ok := asMap(md, "options"); ok {
			method.Options = stringMap(opts)
		}
		s.addMethod(method)
	}

	ns.add(s)
	b.log.WithField("service", FullName(s)).Debug("ingested service")
	return nil
}

// ingestExtend resolves def.ref (an "extend" block's target) against ptr
// and, for each declared extension field, enforces id uniqueness and
// range membership before attaching it to the target message.
func (b *Builder) ingestExtend(ptr Node, def Definition) error {
	ref, _ := asString(def, "ref")

	target, ok := resolve(ptr, ref, true)
	if !ok {
		if isInternalDescriptorPath(ref) {
			b.log.WithField("ref", ref).Warn("skipped extend of internal descriptor path")
			return nil
		}
		return schemaerr.ExtendedNotDefinedErr(ref)
	}
	targetMsg, ok := target.(*Message)
	if !ok {
		return schemaerr.ExtendedNotDefinedErr(ref)
	}

	ns, ok := asNamespace(ptr)
	if !ok {
		return schemaerr.IllegalNamespaceErr(ref)
	}

	fields, _ := asSlice(def, "fields")
	camel := b.camelCaseExtensions
	if opts, ok := asMap(def, "options"); ok {
		if v, ok := opts["convertFieldsToCamelCase"].(bool); ok {
			camel = v
		}
	}
	for _, raw := range fields {
		fd, err := asDefinition(raw)
		if err != nil {
			return err
		}
		if err := b.ingestExtensionField(ns, targetMsg, fd, camel); err != nil {
			return err
		}
	}
	return nil
}

// ingestExtensionField creates one ExtensionField under targetMsg and its
// sibling Extension node under site (the namespace the extend block
// appeared in), enforcing that the field id falls within targetMsg's
// declared extension range.
func (b *Builder) ingestExtensionField(site *Namespace, targetMsg *Message, fd Definition, camel bool) error {
	sourceName, _ := asString(fd, "name")
	id, _ := asInt(fd["id"])

	if targetMsg.HasRange {
		if id < targetMsg.RangeLo || id > targetMsg.RangeHi {
			return schemaerr.IllegalExtensionRangeErr(FullName(targetMsg), id, targetMsg.RangeLo, targetMsg.RangeHi)
		}
	}

	effectiveName := sourceName
	if camel {
		effectiveName = toCamelCase(sourceName)
	}

	ext := &ExtensionField{SourceName: sourceName}
	fd2 := cloneDefinitionWithName(fd, effectiveName)
	if err := b.ingestMessageField(targetMsg, fd2, ext); err != nil {
		return err
	}
	ext.RuntimeKey = FullName(targetMsg) + "." + effectiveName
	ext.Site = site
	b.extOwner[&ext.Field] = ext

	node := &Extension{base: base{name: sourceName}, Target: targetMsg, Field: ext}
	site.add(node)
	return nil
}

func cloneDefinitionWithName(fd Definition, name string) Definition {
	out := make(Definition, len(fd))
	for k, v := range fd {
		out[k] = v
	}
	out["name"] = name
	return out
}

// isInternalDescriptorPath reports whether ref names (or is nested under)
// the well-known google.protobuf.* namespace, whose extend blocks this
// builder tolerates without being able to resolve them.
func isInternalDescriptorPath(ref string) bool {
	ref = strings.TrimPrefix(ref, ".")
	return ref == "google.protobuf" || strings.HasPrefix(ref, "google.protobuf.")
}

func definitionSlice(def Definition, key string) []Definition {
	raw, ok := asSlice(def, key)
	if !ok {
		return nil
	}
	out := make([]Definition, 0, len(raw))
	for _, item := range raw {
		if d, err := asDefinition(item); err == nil {
			out = append(out, d)
		}
	}
	return out
}

func stringMap(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = toOptionString(v)
	}
	return out
}

func toOptionString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func extensionRange(m map[string]interface{}) (int, int) {
	lo, _ := asInt(m["start"])
	hi, _ := asInt(m["end"])
	if hi == 0 {
		hi = lo
	}
	return lo, hi
}

// orderedKeys returns the keys of m following the explicit ordering list
// stored at orderKey in def, if present, falling back to whatever order
// Go's map iteration gives when no explicit order was supplied. External
// JSON producers that care about declaration order should populate the
// order slice; this keeps the common JSON-decoding path functional even
// when they don't.
func orderedKeys(def Definition, orderKey string, m map[string]interface{}) []string {
	if order, ok := asSlice(def, orderKey); ok {
		out := make([]string, 0, len(order))
		for _, v := range order {
			if s, ok := v.(string); ok {
				if _, present := m[s]; present {
					out = append(out, s)
				}
			}
		}
		return out
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
