package schema

import "strings"

// Node is the capability shared by every member of the reflection tree:
// a name, a parent, and (for namespace-shaped nodes) children.
type Node interface {
	Name() string
	Parent() Node
	setParent(Node)
}

// base carries the {name, parent} pair common to every node kind.
type base struct {
	name   string
	parent Node
}

func (b *base) Name() string       { return b.name }
func (b *base) Parent() Node       { return b.parent }
func (b *base) setParent(p Node)   { b.parent = p }

// FullName returns the dot-joined path from the root to n, omitting the
// anonymous root itself.
func FullName(n Node) string {
	if n == nil {
		return ""
	}
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Parent() == nil {
			// this is the root; it contributes no segment
			break
		}
		parts = append(parts, cur.Name())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// Namespace is an ordered collection of child nodes, plus a mapping of
// string option names to option values. It is the base for Message,
// Enum and Service, and is itself the shape of the anonymous root.
type Namespace struct {
	base
	children    []Node
	childByName map[string]Node
	Options     map[string]string
}

func newNamespace(name string, parent Node) *Namespace {
	return &Namespace{
		base:        base{name: name, parent: parent},
		childByName: make(map[string]Node),
	}
}

// Children returns the ordered list of this namespace's direct children.
func (n *Namespace) Children() []Node { return n.children }

// ChildByName returns the direct child named name, if any.
func (n *Namespace) ChildByName(name string) (Node, bool) {
	c, ok := n.childByName[name]
	return c, ok
}

// add appends child to n's children, indexing it by name. add does not
// check names: a same-named child overwrites the index entry while both
// stay in the ordered slice.
func (n *Namespace) add(child Node) {
	child.setParent(n)
	n.children = append(n.children, child)
	n.childByName[child.Name()] = child
}

// asNamespace exposes n as *Namespace when a Node is namespace-shaped.
func asNamespace(n Node) (*Namespace, bool) {
	switch v := n.(type) {
	case *Namespace:
		return v, true
	case *Message:
		return &v.Namespace, true
	case *Enum:
		return &v.Namespace, true
	case *Service:
		return &v.Namespace, true
	}
	return nil, false
}

// FieldRule is the protobuf field cardinality.
type FieldRule int

// The three field rules recognized by proto2; proto3 uses Optional as its
// implicit default for singular fields.
const (
	Required FieldRule = iota
	Optional
	Repeated
)

func (r FieldRule) String() string {
	switch r {
	case Required:
		return "required"
	case Repeated:
		return "repeated"
	default:
		return "optional"
	}
}

// Message is a Namespace that additionally carries a declared field set,
// an optional extension id range, a group flag, and a syntax tag.
type Message struct {
	Namespace
	Fields      []*Field
	OneOfs      []*OneOf
	HasRange    bool
	RangeLo     int
	RangeHi     int
	group       bool
	Syntax      string
}

// IsGroup reports whether this message descriptor was declared as a proto2
// group rather than an ordinary message.
func (m *Message) IsGroup() bool { return m.group }

func (m *Message) String() string { return FullName(m) }

// fieldByID returns the field in m with the given id, if any.
func (m *Message) fieldByID(id int) *Field {
	for _, f := range m.Fields {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// oneOfByName returns the oneof in m with the given name, if any.
func (m *Message) oneOfByName(name string) *OneOf {
	for _, o := range m.OneOfs {
		if o.Name() == name {
			return o
		}
	}
	return nil
}

// addOneOf appends o both to m.OneOfs and to the namespace's children.
func (m *Message) addOneOf(o *OneOf) {
	m.OneOfs = append(m.OneOfs, o)
	m.Namespace.add(o)
}

// addField appends f both to m.Fields and to the namespace's children, so
// a dotted lookup can reach fields the same way it reaches nested types.
func (m *Message) addField(f *Field) {
	m.Fields = append(m.Fields, f)
	m.Namespace.add(f)
}

// Field is a leaf under a Message (or, for extension fields, conceptually
// under the message named at the extend site).
type Field struct {
	base
	Rule FieldRule
	ID   int

	// DeclaredType is the type string exactly as ingested: either a
	// builtin type name or a (possibly dotted, possibly leading-dot)
	// symbolic reference. It is left untouched by ingestion.
	DeclaredType string

	// Type is absent (TypeUnset) until resolution runs, at which point it
	// holds the builtin tag — either the builtin named by DeclaredType,
	// or Enum/Message/Group once a symbolic DeclaredType is bound.
	Type BuiltinType

	// IsMap is true when this field was declared as a map<K, V> field.
	IsMap bool
	// DeclaredKeyType mirrors DeclaredType but for the map key; only
	// meaningful when IsMap is true.
	DeclaredKeyType string
	KeyType         BuiltinType

	Options map[string]string

	// Oneof is the OneOf this field belongs to, or nil.
	Oneof *OneOf

	Syntax string

	// ResolvedType points at the Message or Enum node DeclaredType named,
	// once resolution has run. Nil for builtin-typed fields.
	ResolvedType Node
}

func (f *Field) String() string { return FullName(f) }

// ExtensionField is a Field declared inside an extend block. Its Name is
// the effective (possibly camelCased) field name; RuntimeKey is the full
// key under which it is addressed at the extend site
// (target-message-fqn + "." + effective name).
type ExtensionField struct {
	Field
	RuntimeKey string
	// SourceName is the name exactly as written at the declaration site,
	// before any convertFieldsToCamelCase rewriting.
	SourceName string
	// Site is the namespace the extend block textually appeared in, used
	// during resolution instead of the field's Parent (which is the
	// extended target message, not the declaration site).
	Site Node
}

// Extension is a thin sibling node placed in the namespace where the
// extend block textually appeared; it back-references the
// ExtensionField it introduced so the original source name survives
// independent of any camelCase rewriting applied to the runtime key.
type Extension struct {
	base
	Target *Message
	Field  *ExtensionField
}

func (e *Extension) String() string { return FullName(e) }

// OneOf is a named, mutually-exclusive grouping of fields within one
// message.
type OneOf struct {
	base
	Fields []*Field
}

func (o *OneOf) String() string { return FullName(o) }

// EnumValue is one constant within an Enum.
type EnumValue struct {
	base
	ID int
}

func (v *EnumValue) String() string { return FullName(v) }

// Enum is a Namespace whose children are its EnumValues, in declaration
// order.
type Enum struct {
	Namespace
	Values []*EnumValue
	Syntax string
}

func (e *Enum) String() string { return FullName(e) }

func (e *Enum) valueByName(name string) (*EnumValue, bool) {
	for _, v := range e.Values {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}

// addValue appends v both to e.Values and to the underlying namespace's
// generic children, so scope lookups can descend into enum constants the
// same way they descend into message fields.
func (e *Enum) addValue(v *EnumValue) {
	e.Values = append(e.Values, v)
	e.Namespace.add(v)
}

// Service is a Namespace of RPCMethod children.
type Service struct {
	Namespace
	Methods []*RPCMethod
}

// addMethod appends m both to s.Methods and to the underlying namespace's
// generic children.
func (s *Service) addMethod(m *RPCMethod) {
	s.Methods = append(s.Methods, m)
	s.Namespace.add(m)
}

func (s *Service) String() string { return FullName(s) }

// RPCMethod is one rpc declaration within a Service.
type RPCMethod struct {
	base
	RequestName     string
	ResponseName    string
	RequestStream   bool
	ResponseStream  bool
	Options         map[string]string
	ResolvedRequest  *Message
	ResolvedResponse *Message
}

func (m *RPCMethod) String() string { return FullName(m) }
