package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(rules []*Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Name)
	}
	return out
}

func TestPropagateIdentificationToSubtype(t *testing.T) {
	wall := New("Wall Name", "IfcWall")
	name := NewAttributeRule("Name")
	name.Identification = "Value"
	wall.AddRule(name)
	standard := New("Wall Standard Case Name", "IfcWallStandardCase")
	wall.AddTemplate(standard)

	changes, err := Propagate(wall, Path{"Name"})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeCreated, changes[0].Kind)
	assert.Same(t, standard, changes[0].Template)

	copied := Resolve(standard, Path{"Name"})
	require.NotNil(t, copied)
	assert.NotSame(t, name, copied)
	assert.Equal(t, KindAttribute, copied.Kind)
	assert.Equal(t, "Value", copied.Identification)
	assert.Empty(t, copied.Rules)

	ident := "Value2"
	_, err = NewEditor(nil, nil).Update(wall, Path{"Name"}, Fields{Identification: &ident})
	require.NoError(t, err)
	assert.Equal(t, "Value2", Resolve(standard, Path{"Name"}).Identification)
}

func TestPropagateCreatesMissingAncestors(t *testing.T) {
	base := New("Base", "IfcObject")
	attr := NewAttributeRule("IsDefinedBy")
	rel := NewEntityRule("IfcRelDefinesByProperties")
	relating := NewAttributeRule("RelatingPropertyDefinition")
	rel.AddRule(relating)
	attr.AddRule(rel)
	base.AddRule(attr)
	sub := New("Sub", "IfcWall")
	base.AddTemplate(sub)

	p := Path{"IsDefinedBy", "IfcRelDefinesByProperties", "RelatingPropertyDefinition"}
	changes, err := Propagate(base, p)
	require.NoError(t, err)

	assert.Len(t, changes.For(sub), 3)
	node := Resolve(sub, p)
	require.NotNil(t, node)
	assert.Equal(t, Path{"IsDefinedBy", "IfcRelDefinesByProperties"}, BuildPath(node.Parent()))
	assert.Equal(t, KindEntity, node.Parent().Kind)
}

func TestPropagatePreservesChildOnlyContent(t *testing.T) {
	editor := NewEditor(nil, nil)
	base := New("Base", "IfcObject")
	sub := New("Sub", "IfcWall")
	base.AddTemplate(sub)

	_, err := editor.Insert(base, nil, NewAttributeRule("IsDefinedBy"), 0)
	require.NoError(t, err)
	_, err = editor.Insert(base, Path{"IsDefinedBy"}, NewEntityRule("IfcRelDefinesByProperties"), 0)
	require.NoError(t, err)

	relPath := Path{"IsDefinedBy", "IfcRelDefinesByProperties"}
	own := NewAttributeRule("RelatedObjects")
	_, err = editor.Insert(sub, relPath, own, 0)
	require.NoError(t, err)
	assert.Nil(t, Resolve(base, relPath.Child("RelatedObjects")))

	t.Run("update", func(t *testing.T) {
		desc := "relationship to the property set"
		_, err := editor.Update(base, relPath, Fields{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, desc, Resolve(sub, relPath).Description)
		assert.Same(t, own, Resolve(sub, relPath.Child("RelatedObjects")))
	})

	t.Run("insert", func(t *testing.T) {
		_, err := editor.Insert(base, relPath, NewAttributeRule("RelatingPropertyDefinition"), 0)
		require.NoError(t, err)
		rel := Resolve(sub, relPath)
		assert.Equal(t, []string{"RelatedObjects", "RelatingPropertyDefinition"}, names(rel.Rules))
	})

	t.Run("delete", func(t *testing.T) {
		_, err := editor.Delete(base, relPath.Child("RelatingPropertyDefinition"))
		require.NoError(t, err)
		rel := Resolve(sub, relPath)
		assert.Equal(t, []string{"RelatedObjects"}, names(rel.Rules))
		assert.Same(t, own, rel.Rules[0])
	})
}

func TestPropagateReorderKeepsChildOnlySlots(t *testing.T) {
	editor := NewEditor(nil, nil)
	base := New("Base", "IfcObject")
	sub := New("Sub", "IfcWall")
	base.AddTemplate(sub)

	for i, name := range []string{"X", "Y"} {
		_, err := editor.Insert(base, nil, NewAttributeRule(name), i)
		require.NoError(t, err)
	}
	_, err := editor.Insert(sub, nil, NewAttributeRule("Z"), 1)
	require.NoError(t, err)
	require.Equal(t, []string{"X", "Z", "Y"}, names(sub.Rules))

	_, err = editor.Insert(base, nil, NewAttributeRule("W"), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "W", "Y"}, names(base.Rules))
	assert.Equal(t, []string{"X", "W", "Z", "Y"}, names(sub.Rules))

	changes, err := editor.Move(base, Path{"Y"}, -2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "X", "W"}, names(base.Rules))
	assert.Equal(t, []string{"Y", "X", "Z", "W"}, names(sub.Rules))
	assert.Equal(t, ChangeReordered, changes.For(sub)[0].Kind)
}

func TestPropagateDeleteReachesGrandchildren(t *testing.T) {
	editor := NewEditor(nil, nil)
	base := New("Base", "IfcObject")
	mid := New("Mid", "IfcElement")
	leaf := New("Leaf", "IfcWall")
	base.AddTemplate(mid)
	mid.AddTemplate(leaf)

	_, err := editor.Insert(base, nil, NewAttributeRule("Tag"), 0)
	require.NoError(t, err)
	require.NotNil(t, Resolve(leaf, Path{"Tag"}))

	changes, err := editor.Delete(base, Path{"Tag"})
	require.NoError(t, err)
	assert.Nil(t, Resolve(mid, Path{"Tag"}))
	assert.Nil(t, Resolve(leaf, Path{"Tag"}))
	assert.Len(t, changes, 3)
}

func TestPropagateVariantConflictIsAtomic(t *testing.T) {
	editor := NewEditor(nil, nil)
	base := New("Base", "IfcObject")
	first := New("First", "IfcWall")
	second := New("Second", "IfcSlab")
	base.AddTemplate(first)
	base.AddTemplate(second)

	_, err := editor.Insert(base, nil, NewAttributeRule("HasAssignments"), 0)
	require.NoError(t, err)
	_, err = editor.Insert(second, Path{"HasAssignments"}, NewConstraintRule("IfcRelAssignsToGroup"), 0)
	require.NoError(t, err)

	p := Path{"HasAssignments", "IfcRelAssignsToGroup"}
	_, err = editor.Insert(base, Path{"HasAssignments"}, NewEntityRule("IfcRelAssignsToGroup"), 0)

	var perr *PropagationError
	require.True(t, errors.As(err, &perr))
	assert.Same(t, second, perr.Template)
	assert.Equal(t, p, perr.Path)
	assert.Nil(t, Resolve(base, p))
	assert.Nil(t, Resolve(first, p))
	assert.Equal(t, KindConstraint, Resolve(second, p).Kind)
}

func TestPropagateReferences(t *testing.T) {
	base := New("Material", "IfcElement")
	attr := NewAttributeRule("HasAssociations")
	holder := NewEntityRule("IfcRelAssociatesMaterial")
	attr.AddRule(holder)
	base.AddRule(attr)
	sub := New("Wall Material", "IfcWall")
	base.AddTemplate(sub)
	_, err := Propagate(base, Path{"HasAssociations", "IfcRelAssociatesMaterial"})
	require.NoError(t, err)

	layers := New("Material Layer Set", "IfcMaterialLayerSet")
	layers.AddRule(NewAttributeRule("MaterialLayers"))

	changes, err := AddReference(holder, layers)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	subHolder := Resolve(sub, Path{"HasAssociations", "IfcRelAssociatesMaterial"})
	require.NotNil(t, subHolder)
	assert.Equal(t, []*Template{layers}, subHolder.References)

	t.Run("beyond the boundary", func(t *testing.T) {
		p := Path{"HasAssociations", "IfcRelAssociatesMaterial", "Material Layer Set", "MaterialLayers"}
		require.NotNil(t, Resolve(base, p))
		changes, err := Propagate(base, p)
		require.NoError(t, err)
		assert.Empty(t, changes)
	})

	t.Run("remove", func(t *testing.T) {
		changes, err := RemoveReference(holder, layers)
		require.NoError(t, err)
		assert.Len(t, changes, 2)
		assert.Empty(t, holder.References)
		assert.Empty(t, subHolder.References)
	})
}

func TestPropagateNothingForEmptyPath(t *testing.T) {
	base := New("Base", "IfcObject")
	base.AddTemplate(New("Sub", "IfcWall"))
	changes, err := Propagate(base, nil)
	require.NoError(t, err)
	assert.Nil(t, changes)
}

func TestReorderShared(t *testing.T) {
	mk := func(ns ...string) []*Rule {
		out := make([]*Rule, 0, len(ns))
		for _, n := range ns {
			out = append(out, NewAttributeRule(n))
		}
		return out
	}

	tests := []struct {
		name    string
		dst     []string
		src     []string
		want    []string
		changed bool
	}{
		{name: "already ordered", dst: []string{"a", "x", "b"}, src: []string{"a", "b"}, want: []string{"a", "x", "b"}},
		{name: "swap around child slot", dst: []string{"a", "x", "b"}, src: []string{"b", "a"}, want: []string{"b", "x", "a"}, changed: true},
		{name: "single shared", dst: []string{"x", "a"}, src: []string{"a", "b"}, want: []string{"x", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := reorderShared(mk(tt.dst...), mk(tt.src...))
			assert.Equal(t, tt.want, names(got))
			assert.Equal(t, tt.changed, changed)
		})
	}
}
