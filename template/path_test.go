package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// propertySetTemplate builds a template shaped like the property set
// templates of the IFC documentation:
//
//	IsDefinedBy
//	  IfcRelDefinesByProperties
//	    RelatingPropertyDefinition
//	      IfcPropertySet        -> references "Single Value"
//	        Name [PsetName]
//	        SIZEOF(HasProperties) > 0
//	Name
func propertySetTemplate(t *testing.T) (*Template, *Template) {
	t.Helper()

	single := New("Single Value", "IfcPropertySingleValue")
	nameAttr := NewAttributeRule("Name")
	nameAttr.Identification = "PropertyName"
	single.AddRule(nameAttr)
	nominal := NewAttributeRule("NominalValue")
	nominal.AddRule(NewEntityRule("IfcLabel"))
	single.AddRule(nominal)

	pset := New("Property Sets", "IfcObject")
	isDefinedBy := NewAttributeRule("IsDefinedBy")
	rel := NewEntityRule("IfcRelDefinesByProperties")
	relating := NewAttributeRule("RelatingPropertyDefinition")
	set := NewEntityRule("IfcPropertySet")
	setName := NewAttributeRule("Name")
	setName.Identification = "PsetName"
	setName.Condition = true
	set.AddRule(setName)
	set.AddRule(NewConstraintRule("SIZEOF(HasProperties) > 0"))
	relating.AddRule(set)
	rel.AddRule(relating)
	isDefinedBy.AddRule(rel)
	pset.AddRule(isDefinedBy)
	pset.AddRule(NewAttributeRule("Name"))

	_, err := AddReference(set, single)
	require.NoError(t, err)
	return pset, single
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Path
	}{
		{name: "empty", input: "", want: nil},
		{name: "single", input: "Name", want: Path{"Name"}},
		{name: "nested", input: `IsDefinedBy\IfcRelDefinesByProperties`, want: Path{"IsDefinedBy", "IfcRelDefinesByProperties"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePath(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestPathChildDoesNotAlias(t *testing.T) {
	base := Path{"a", "b"}
	x := base.Parent().Child("x")
	y := base.Parent().Child("y")

	assert.Equal(t, Path{"a", "x"}, x)
	assert.Equal(t, Path{"a", "y"}, y)
	assert.Equal(t, Path{"a", "b"}, base)
	assert.True(t, x.Parent().Equal(Path{"a"}))
	assert.Equal(t, "b", base.Last())
	assert.Equal(t, "", Path(nil).Last())
}

func TestResolve(t *testing.T) {
	pset, single := propertySetTemplate(t)

	t.Run("nested rule", func(t *testing.T) {
		r := Resolve(pset, Path{"IsDefinedBy", "IfcRelDefinesByProperties", "RelatingPropertyDefinition", "IfcPropertySet", "Name"})
		require.NotNil(t, r)
		assert.Equal(t, "PsetName", r.Identification)
		assert.Same(t, pset, r.Template())
	})

	t.Run("across reference", func(t *testing.T) {
		p := Path{"IsDefinedBy", "IfcRelDefinesByProperties", "RelatingPropertyDefinition", "IfcPropertySet", "Single Value", "NominalValue", "IfcLabel"}
		r := Resolve(pset, p)
		require.NotNil(t, r)
		assert.Same(t, single, r.Template())
		assert.Equal(t, Path{"NominalValue", "IfcLabel"}, BuildPath(r))
	})

	t.Run("reference segment", func(t *testing.T) {
		p := Path{"IsDefinedBy", "IfcRelDefinesByProperties", "RelatingPropertyDefinition", "IfcPropertySet", "Single Value"}
		assert.Nil(t, Resolve(pset, p))
		holder, ref := ResolveReference(pset, p)
		require.NotNil(t, holder)
		assert.Equal(t, "IfcPropertySet", holder.Name)
		assert.Same(t, single, ref)
		assert.True(t, Exists(pset, p))
	})

	t.Run("unmatched", func(t *testing.T) {
		assert.Nil(t, Resolve(pset, Path{"IsDefinedBy", "Missing"}))
		assert.Nil(t, Resolve(pset, nil))
		holder, ref := ResolveReference(pset, Path{"Name"})
		assert.Nil(t, holder)
		assert.Nil(t, ref)
	})
}

func TestWalkResolvesEveryReachableNode(t *testing.T) {
	pset, _ := propertySetTemplate(t)

	visited := 0
	Walk(pset, func(p Path, s Step) {
		visited++
		if s.Reference != nil {
			holder, ref := ResolveReference(pset, p)
			assert.Same(t, s.Holder, holder, p.String())
			assert.Same(t, s.Reference, ref, p.String())
			return
		}
		assert.Same(t, s.Rule, Resolve(pset, p), p.String())
		if s.Rule.Template() == pset {
			assert.Equal(t, p, BuildPath(s.Rule))
		}
	})
	// 7 owned nodes, 1 reference segment, 3 rules of the referenced template.
	assert.Equal(t, 11, visited)
}

func TestWalkStopsAtCycles(t *testing.T) {
	a := New("A", "IfcWall")
	attr := NewAttributeRule("HasAssociations")
	ent := NewEntityRule("IfcRelAssociates")
	attr.AddRule(ent)
	a.AddRule(attr)
	// Link refuses self references, so build one directly.
	ent.References = append(ent.References, a)

	count := 0
	Walk(a, func(Path, Step) { count++ })
	assert.Equal(t, 3, count)
}
