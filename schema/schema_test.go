package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `schema: IFC4
entities:
  - name: IfcRoot
    abstract: true
    attributes:
      - name: GlobalId
        type: IfcGloballyUniqueId
      - name: Name
        type: IfcLabel
  - name: IfcObject
    base: IfcRoot
    abstract: true
    attributes:
      - name: IsDefinedBy
        type: IfcRelDefinesByProperties
        inverse: true
  - name: IfcProduct
    base: IfcObject
  - name: IfcWall
    base: IfcProduct
  - name: IfcWallStandardCase
    base: IfcWall
types:
  - name: IfcLabel
`

func TestParseCatalog(t *testing.T) {
	ix, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)

	assert.Equal(t, "IFC4", ix.Name())
	assert.Equal(t, 6, ix.Len())
	assert.Equal(t, uint64(6), ix.Version())

	d, ok := ix.Definition("IfcLabel")
	require.True(t, ok)
	assert.Equal(t, KindType, d.Kind)

	super, ok := ix.Supertype("IfcWallStandardCase")
	assert.True(t, ok)
	assert.Equal(t, "IfcWall", super)

	_, ok = ix.Supertype("IfcRoot")
	assert.False(t, ok)
	_, ok = ix.Supertype("IfcLabel")
	assert.False(t, ok)

	assert.Equal(t, []string{"IfcWall", "IfcProduct", "IfcObject", "IfcRoot"}, ix.Supertypes("IfcWallStandardCase"))
	assert.True(t, ix.IsSubtypeOf("IfcWall", "IfcRoot"))
	assert.False(t, ix.IsSubtypeOf("IfcRoot", "IfcWall"))
}

func TestIndexAttributeLookup(t *testing.T) {
	ix, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)

	attr, declaredBy, ok := ix.Attribute("IfcWall", "IsDefinedBy")
	require.True(t, ok)
	assert.Equal(t, "IfcObject", declaredBy)
	assert.True(t, attr.Inverse)

	_, _, ok = ix.Attribute("IfcWall", "Missing")
	assert.False(t, ok)
}

func TestIndexVersionAndCycles(t *testing.T) {
	ix := NewIndex("TEST")
	assert.Equal(t, uint64(0), ix.Version())

	ix.Add(&Definition{Name: "A", Base: "B"})
	ix.Add(&Definition{Name: "B", Base: "A"})
	assert.Equal(t, uint64(2), ix.Version())
	assert.Equal(t, []string{"B"}, ix.Supertypes("A"))

	ix.Add(&Definition{Name: "A"})
	assert.Equal(t, uint64(3), ix.Version())
	assert.Equal(t, []string{"A", "B"}, ix.Names())
}

func TestParseInvalidCatalog(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not yaml", data: "schema: [unterminated"},
		{name: "missing schema", data: "entities:\n  - name: IfcRoot\n"},
		{name: "unnamed entity", data: "schema: IFC4\nentities:\n  - base: IfcRoot\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ifc4.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0644))

	ix, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, ix.IsSubtypeOf("IfcWallStandardCase", "IfcProduct"))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
