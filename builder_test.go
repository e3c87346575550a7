package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefs() []Definition {
	suit := Definition{
		"name": "Suit",
		"values": []interface{}{
			map[string]interface{}{"name": "SPADES", "id": 0},
			map[string]interface{}{"name": "HEARTS", "id": 1},
		},
	}
	card := Definition{
		"name": "Card",
		"fields": []interface{}{
			map[string]interface{}{"rule": "required", "name": "label", "type": "string", "id": 1},
			map[string]interface{}{"rule": "optional", "name": "suit", "type": "Suit", "id": 2},
		},
		"extensions": map[string]interface{}{"start": 100, "end": 199},
	}
	deck := Definition{
		"name": "Deck",
		"fields": []interface{}{
			map[string]interface{}{"rule": "repeated", "name": "cards", "type": "Card", "id": 1},
		},
	}
	req := Definition{
		"name": "DealRequest",
		"fields": []interface{}{
			map[string]interface{}{"rule": "optional", "name": "count", "type": "int32", "id": 1},
		},
	}
	resp := Definition{
		"name": "DealResponse",
		"fields": []interface{}{
			map[string]interface{}{"rule": "repeated", "name": "dealt", "type": "Card", "id": 1},
		},
	}
	service := Definition{
		"name": "CardService",
		"rpc": map[string]interface{}{
			"Deal": map[string]interface{}{"requestType": "DealRequest", "responseType": "DealResponse"},
		},
	}
	return []Definition{suit, card, deck, req, resp, service}
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder()
	require.NoError(t, b.Define("example"))
	require.NoError(t, b.Create(sampleDefs()))
	return b
}

func TestCreateAndResolveBasicTree(t *testing.T) {
	b := newTestBuilder(t)
	require.NoError(t, b.ResolveAll())

	node, ok := b.Lookup("example.Card", true)
	require.True(t, ok)
	card, ok := node.(*Message)
	require.True(t, ok)
	require.Len(t, card.Fields, 2)

	suitField := card.Fields[1]
	assert.Equal(t, TypeEnum, suitField.Type)
	require.NotNil(t, suitField.ResolvedType)
	assert.Equal(t, "example.Suit", FullName(suitField.ResolvedType))
}

func TestResolveBindsMessageTypeReference(t *testing.T) {
	b := newTestBuilder(t)
	require.NoError(t, b.ResolveAll())

	node, ok := b.Lookup("example.Deck", true)
	require.True(t, ok)
	deck := node.(*Message)
	cardsField := deck.Fields[0]
	assert.Equal(t, TypeMessage, cardsField.Type)
	assert.Equal(t, "example.Card", FullName(cardsField.ResolvedType))
}

func TestResolveBindsRPCMethod(t *testing.T) {
	b := newTestBuilder(t)
	require.NoError(t, b.ResolveAll())

	node, ok := b.Lookup("example.CardService", true)
	require.True(t, ok)
	svc := node.(*Service)
	require.Len(t, svc.Methods, 1)
	method := svc.Methods[0]
	require.NotNil(t, method.ResolvedRequest)
	require.NotNil(t, method.ResolvedResponse)
	assert.Equal(t, "example.DealRequest", FullName(method.ResolvedRequest))
	assert.Equal(t, "example.DealResponse", FullName(method.ResolvedResponse))
}

func TestDuplicateFieldIDFails(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Define("example"))
	bad := Definition{
		"name": "Bad",
		"fields": []interface{}{
			map[string]interface{}{"rule": "optional", "name": "a", "type": "int32", "id": 1},
			map[string]interface{}{"rule": "optional", "name": "b", "type": "int32", "id": 1},
		},
	}
	err := b.Create(bad)
	require.Error(t, err)
}

func TestOneofMembership(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Define("example"))
	def := Definition{
		"name": "Choice",
		"oneofs": map[string]interface{}{
			"which": map[string]interface{}{},
		},
		"fields": []interface{}{
			map[string]interface{}{"rule": "optional", "name": "a", "type": "int32", "id": 1, "oneof": "which"},
			map[string]interface{}{"rule": "optional", "name": "b", "type": "int32", "id": 2, "oneof": "which"},
		},
	}
	require.NoError(t, b.Create(def))

	node, ok := b.Lookup("example.Choice", true)
	require.True(t, ok)
	m := node.(*Message)
	require.Len(t, m.OneOfs, 1)
	assert.Len(t, m.OneOfs[0].Fields, 2)
}

func TestOneofMembershipRejectsUndeclaredName(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Define("example"))
	def := Definition{
		"name": "Choice",
		"fields": []interface{}{
			map[string]interface{}{"rule": "optional", "name": "a", "type": "int32", "id": 1, "oneof": "nope"},
		},
	}
	err := b.Create(def)
	require.Error(t, err)
}

func TestExtendWithinRangeSucceeds(t *testing.T) {
	b := newTestBuilder(t)
	extend := Definition{
		"ref": "Card",
		"fields": []interface{}{
			map[string]interface{}{"rule": "optional", "name": "rarity", "type": "int32", "id": 150},
		},
	}
	require.NoError(t, b.Create(extend))
	require.NoError(t, b.ResolveAll())

	node, ok := b.Lookup("example.Card", true)
	require.True(t, ok)
	card := node.(*Message)
	require.Len(t, card.Fields, 3)
	assert.Equal(t, "rarity", card.Fields[2].Name())
}

func TestExtendOutsideRangeFails(t *testing.T) {
	b := newTestBuilder(t)
	extend := Definition{
		"ref": "Card",
		"fields": []interface{}{
			map[string]interface{}{"rule": "optional", "name": "rarity", "type": "int32", "id": 5},
		},
	}
	err := b.Create(extend)
	require.Error(t, err)
}

func TestExtendTargetMissingFails(t *testing.T) {
	b := newTestBuilder(t)
	extend := Definition{
		"ref": "NoSuchMessage",
		"fields": []interface{}{
			map[string]interface{}{"rule": "optional", "name": "x", "type": "int32", "id": 1},
		},
	}
	err := b.Create(extend)
	require.Error(t, err)
}

func TestMapFieldResolvesKeyType(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Define("example"))
	def := Definition{
		"name": "Tally",
		"fields": []interface{}{
			map[string]interface{}{"rule": "repeated", "name": "counts", "type": "int32", "id": 1, "keyType": "string"},
		},
	}
	require.NoError(t, b.Create(def))
	require.NoError(t, b.ResolveAll())

	node, _ := b.Lookup("example.Tally", true)
	m := node.(*Message)
	assert.Equal(t, TypeString, m.Fields[0].KeyType)
	assert.Equal(t, TypeInt32, m.Fields[0].Type)
}

func TestMapFieldRejectsNonBuiltinKey(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Define("example"))
	def := Definition{
		"name": "Tally",
		"fields": []interface{}{
			map[string]interface{}{"rule": "repeated", "name": "counts", "type": "int32", "id": 1, "keyType": "Card"},
		},
	}
	require.NoError(t, b.Create(def))
	err := b.ResolveAll()
	require.Error(t, err)
}

func TestUnresolvableTypeFails(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Define("example"))
	def := Definition{
		"name": "Broken",
		"fields": []interface{}{
			map[string]interface{}{"rule": "optional", "name": "x", "type": "NoSuchType", "id": 1},
		},
	}
	require.NoError(t, b.Create(def))
	err := b.ResolveAll()
	require.Error(t, err)
}

func TestNestedMessagePointerDiscipline(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Define("example"))
	outer := Definition{
		"name": "Outer",
		"messages": []interface{}{
			map[string]interface{}{
				"name": "Inner",
				"fields": []interface{}{
					map[string]interface{}{"rule": "optional", "name": "x", "type": "int32", "id": 1},
				},
			},
		},
		"fields": []interface{}{
			map[string]interface{}{"rule": "optional", "name": "inner", "type": "Outer.Inner", "id": 1},
		},
	}
	require.NoError(t, b.Create(outer))

	// Define stayed where Create left it: under "example", since Create
	// must leave the insertion pointer exactly where it found it even
	// though it had to descend into Outer to ingest Inner.
	require.NoError(t, b.Define("AnotherTopLevel"))
	node, ok := b.Lookup("example.AnotherTopLevel", true)
	require.True(t, ok)
	assert.Equal(t, "AnotherTopLevel", node.Name())

	inner, ok := b.Lookup("example.Outer.Inner", true)
	require.True(t, ok)
	assert.Equal(t, "Inner", inner.Name())
}

func TestResolveAllIsIdempotent(t *testing.T) {
	b := newTestBuilder(t)
	require.NoError(t, b.ResolveAll())
	require.NoError(t, b.ResolveAll())
}

func TestBuildReturnsNamedNamespace(t *testing.T) {
	b := newTestBuilder(t)
	ns, err := b.Build("example")
	require.NoError(t, err)
	_, ok := ns.ChildByName("Card")
	assert.True(t, ok)
}

func TestMessageOptionsRoundtrip(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Define("example"))
	def := Definition{
		"name":    "Configured",
		"options": map[string]interface{}{"deprecated": true, "java_package": "com.example"},
		"fields":  []interface{}{},
	}
	require.NoError(t, b.Create(def))

	node, ok := b.Lookup("example.Configured", true)
	require.True(t, ok)
	m := node.(*Message)

	want := map[string]string{"deprecated": "true", "java_package": "com.example"}
	if diff := cmp.Diff(want, m.Options); diff != "" {
		t.Errorf("Options mismatch (-want +got):\n%s", diff)
	}
}

func TestProto3FieldRejectsProto2Enum(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Define("example"))

	legacy := Definition{
		"name":   "LegacyStatus",
		"syntax": "proto2",
		"values": []interface{}{
			map[string]interface{}{"name": "OK", "id": 0},
		},
	}
	modern := Definition{
		"name":   "Report",
		"syntax": "proto3",
		"fields": []interface{}{
			map[string]interface{}{"rule": "optional", "name": "status", "type": "LegacyStatus", "id": 1},
		},
	}
	require.NoError(t, b.Create([]Definition{legacy, modern}))

	err := b.ResolveAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax-mismatch")
}

func TestConvertFieldsToCamelCaseRewritesRuntimeKeyOnly(t *testing.T) {
	b := newTestBuilder(t)
	extend := Definition{
		"ref":     "Card",
		"options": map[string]interface{}{"convertFieldsToCamelCase": true},
		"fields": []interface{}{
			map[string]interface{}{"rule": "optional", "name": "holo_foil", "type": "int32", "id": 150},
		},
	}
	require.NoError(t, b.Create(extend))

	node, ok := b.Lookup("example.Card", true)
	require.True(t, ok)
	card := node.(*Message)
	require.Len(t, card.Fields, 3)

	added := card.Fields[2]
	assert.Equal(t, "holoFoil", added.Name())

	site, ok := card.Parent().(*Namespace)
	require.True(t, ok)
	extNode, ok := site.ChildByName("holo_foil")
	require.True(t, ok, "Extension sibling should be reachable by its original source name")
	extension, ok := extNode.(*Extension)
	require.True(t, ok)
	assert.Equal(t, "holo_foil", extension.Field.SourceName)
	assert.Equal(t, "holoFoil", extension.Field.Name())
	assert.Equal(t, "example.Card.holoFoil", extension.Field.RuntimeKey)
}

func TestConvertFieldsToCamelCaseBuilderDefault(t *testing.T) {
	b := NewBuilder(WithCamelCaseExtensionFields(true))
	require.NoError(t, b.Define("example"))
	require.NoError(t, b.Create(sampleDefs()))

	extend := Definition{
		"ref": "Card",
		"fields": []interface{}{
			map[string]interface{}{"rule": "optional", "name": "holo_foil", "type": "int32", "id": 150},
		},
	}
	require.NoError(t, b.Create(extend))

	node, ok := b.Lookup("example.Card", true)
	require.True(t, ok)
	card := node.(*Message)
	assert.Equal(t, "holoFoil", card.Fields[2].Name())
}

func TestBuildDefaultsToRoot(t *testing.T) {
	b := newTestBuilder(t)
	ns, err := b.Build()
	require.NoError(t, err)
	_, ok := ns.ChildByName("example")
	assert.True(t, ok)
}

func TestBuildAcceptsPreSplitPath(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Define("a.b"))
	require.NoError(t, b.Create(Definition{"name": "M", "fields": []interface{}{}}))

	dotted, err := b.Build("a.b.M")
	require.NoError(t, err)

	preSplit, err := b.Build("a", "b", "M")
	require.NoError(t, err)

	assert.Same(t, dotted, preSplit)
}
