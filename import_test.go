package schema

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportFollowsRelativeDependency(t *testing.T) {
	fs := afero.NewMemMapFs()
	dep := `{"package":"b","messages":[{"name":"Bar","fields":[{"rule":"optional","name":"x","type":"int32","id":1}]}]}`
	require.NoError(t, afero.WriteFile(fs, "root/b.json", []byte(dep), 0o644))

	b := NewBuilder(WithResourceLoader(NewFileResourceLoader(fs)))

	parent := Definition{
		"package": "a",
		"syntax":  "proto3",
		"messages": []interface{}{
			map[string]interface{}{
				"name": "Foo",
				"fields": []interface{}{
					map[string]interface{}{"rule": "optional", "name": "bar", "type": "b.Bar", "id": 1},
				},
			},
		},
		"imports": []interface{}{"b.json"},
	}

	require.NoError(t, b.Import(parent, "root/a.json"))
	require.NoError(t, b.ResolveAll())

	node, ok := b.Lookup("a.Foo", true)
	require.True(t, ok)
	foo := node.(*Message)
	require.NotNil(t, foo.Fields[0].ResolvedType)
	require.Equal(t, "b.Bar", FullName(foo.Fields[0].ResolvedType))
}

func TestImportMergesPackageLevelOptionsOntoNamespace(t *testing.T) {
	fs := afero.NewMemMapFs()
	b := NewBuilder(WithResourceLoader(NewFileResourceLoader(fs)))

	parent := Definition{
		"package":  "a",
		"messages": []interface{}{},
		"options":  map[string]interface{}{"go_package": "example.com/a"},
	}
	require.NoError(t, b.Import(parent, "root/a.json"))

	node, ok := b.Lookup("a", true)
	require.True(t, ok)
	ns, ok := node.(*Namespace)
	require.True(t, ok)
	assert.Equal(t, "example.com/a", ns.Options["go_package"])
}

func TestImportResolvesExtendAgainstAnImportedType(t *testing.T) {
	fs := afero.NewMemMapFs()
	dep := `{"package":"b","messages":[{"name":"Bar","fields":[{"rule":"optional","name":"x","type":"int32","id":1}],"extensions":{"start":100,"end":199}}]}`
	require.NoError(t, afero.WriteFile(fs, "root/b.json", []byte(dep), 0o644))

	b := NewBuilder(WithResourceLoader(NewFileResourceLoader(fs)))

	parent := Definition{
		"package":  "a",
		"messages": []interface{}{},
		"imports":  []interface{}{"b.json"},
		"extends": []interface{}{
			map[string]interface{}{
				"ref": "b.Bar",
				"fields": []interface{}{
					map[string]interface{}{"rule": "optional", "name": "extra", "type": "int32", "id": 150},
				},
			},
		},
	}

	// Before the import composer loaded "imports" ahead of the local
	// package's own definitions, this extend would fail with
	// extended-not-defined: Bar only exists once b.json has been
	// ingested.
	require.NoError(t, b.Import(parent, "root/a.json"))

	node, ok := b.Lookup("b.Bar", true)
	require.True(t, ok)
	bar := node.(*Message)
	require.Len(t, bar.Fields, 2)
	assert.Equal(t, "extra", bar.Fields[1].Name())
}

func TestImportSkipsAlreadyImportedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	dep := `{"package":"b","messages":[{"name":"Bar","fields":[]}]}`
	require.NoError(t, afero.WriteFile(fs, "root/b.json", []byte(dep), 0o644))

	b := NewBuilder(WithResourceLoader(NewFileResourceLoader(fs)))

	parent := Definition{
		"package":  "a",
		"messages": []interface{}{},
		"imports":  []interface{}{"b.json", "b.json"},
	}
	require.NoError(t, b.Import(parent, "root/a.json"))

	node, ok := b.Lookup("b.Bar", true)
	require.True(t, ok)
	require.NotNil(t, node)

	pkg, ok := b.Lookup("b", true)
	require.True(t, ok)
	assert.Len(t, pkg.(*Namespace).Children(), 1)
}

func TestImportSkipsWellKnownDescriptor(t *testing.T) {
	fs := afero.NewMemMapFs()
	b := NewBuilder(WithResourceLoader(NewFileResourceLoader(fs)))

	parent := Definition{
		"package":  "a",
		"messages": []interface{}{},
		"imports":  []interface{}{"google/protobuf/descriptor.proto"},
	}
	require.NoError(t, b.Import(parent, "root/a.json"))
}

func TestImportMissingFileFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	b := NewBuilder(WithResourceLoader(NewFileResourceLoader(fs)))

	parent := Definition{
		"package":  "a",
		"messages": []interface{}{},
		"imports":  []interface{}{"missing.json"},
	}
	err := b.Import(parent, "root/a.json")
	require.Error(t, err)
}
