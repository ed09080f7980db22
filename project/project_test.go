package project

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/mvdkit/concept"
	"github.com/c360studio/mvdkit/template"
)

func TestProjectLookups(t *testing.T) {
	p := New("Project")
	base := template.New("Property Sets", "IfcObject")
	sub := template.New("Property Sets for Walls", "IfcWall")
	base.AddTemplate(sub)
	single := template.New("Single Value", "IfcPropertySingleValue")
	p.AddTemplate(base)
	p.AddTemplate(single)

	assert.Same(t, sub, p.Template(sub.ID))
	assert.Same(t, single, p.TemplateByName("Single Value"))
	assert.Nil(t, p.TemplateByName("Missing"))
	assert.Equal(t, []*template.Template{base, sub, single}, p.AllTemplates())

	v := concept.NewView("Reference View")
	ex := concept.NewExchange("Handover", concept.ApplicabilityExport)
	v.Exchanges = append(v.Exchanges, ex)
	root := concept.NewRoot("IfcWall")
	v.Roots = append(v.Roots, root)
	p.AddView(v)

	assert.Same(t, v, p.View(v.ID))
	assert.Same(t, v, p.ViewByName("Reference View"))
	assert.Same(t, ex, p.Exchange(ex.ID))
	assert.Same(t, root, p.Root(v, "IfcWall"))
	assert.Nil(t, p.Root(v, "IfcSlab"))
	assert.Nil(t, p.Root(nil, "IfcWall"))
}

func TestViewChain(t *testing.T) {
	p := New("Project")
	v1 := concept.NewView("V1")
	v2 := concept.NewView("V2")
	v3 := concept.NewView("V3")
	v2.BaseView = v1.ID.String()
	v3.BaseView = v2.ID.String()
	p.AddView(v1)
	p.AddView(v2)
	p.AddView(v3)

	assert.Equal(t, []*concept.View{v3, v2, v1}, p.ViewChain(v3))
	assert.Equal(t, []*concept.View{v1}, p.ViewChain(v1))

	t.Run("cycle", func(t *testing.T) {
		v1.BaseView = v3.ID.String()
		defer func() { v1.BaseView = "" }()
		assert.Equal(t, []*concept.View{v3, v2, v1}, p.ViewChain(v3))
	})

	t.Run("unknown or malformed base", func(t *testing.T) {
		orphan := concept.NewView("Orphan")
		orphan.BaseView = "not-a-uuid"
		assert.Equal(t, []*concept.View{orphan}, p.ViewChain(orphan))
		orphan.BaseView = concept.NewView("Elsewhere").ID.String()
		assert.Equal(t, []*concept.View{orphan}, p.ViewChain(orphan))
	})
}

func TestViewChainResolvesInheritance(t *testing.T) {
	p := New("Project")
	z := template.New("Column Profile", "IfcColumn")
	p.AddTemplate(z)

	v1 := concept.NewView("V1")
	r1 := concept.NewRoot("IfcColumn")
	require.NoError(t, r1.AddUsage(concept.NewUsage(z)))
	v1.Roots = append(v1.Roots, r1)

	v2 := concept.NewView("V2")
	v2.BaseView = v1.ID.String()
	r2 := concept.NewRoot("IfcColumn")
	v2.Roots = append(v2.Roots, r2)
	p.AddView(v1)
	p.AddView(v2)

	got := concept.Resolve(r2, v2, p, nil)
	require.Len(t, got, 1)
	assert.Equal(t, concept.StateInherited, got[0].State)
	assert.Same(t, v1, got[0].View)
}

func TestDeleteTemplate(t *testing.T) {
	p := New("Project")
	single := template.New("Single Value", "IfcPropertySingleValue")
	nested := template.New("Single Value Text", "IfcPropertySingleValue")
	single.AddTemplate(nested)
	pset := template.New("Property Sets", "IfcObject")
	p.AddTemplate(single)
	p.AddTemplate(pset)

	props := template.NewAttributeRule("HasProperties")
	holder := template.NewEntityRule("IfcPropertySingleValue")
	props.AddRule(holder)
	pset.AddRule(props)
	_, err := template.AddReference(holder, single)
	require.NoError(t, err)
	require.NoError(t, template.Link(holder, nested))

	v := concept.NewView("V")
	root := concept.NewRoot("IfcWall")
	root.ApplicableTemplate = single
	outer := concept.NewUsage(pset)
	outer.Items = []*concept.Item{{Concepts: []*concept.Usage{concept.NewUsage(nested)}}}
	require.NoError(t, root.AddUsage(outer))
	require.NoError(t, root.AddUsage(concept.NewUsage(single)))
	v.Roots = append(v.Roots, root)
	p.AddView(v)

	n, err := p.DeleteTemplate(single)
	require.NoError(t, err)
	// two references, the applicability template, one usage, one nested usage
	assert.Equal(t, 5, n)

	assert.Empty(t, holder.References)
	assert.Nil(t, root.ApplicableTemplate)
	require.Len(t, root.Concepts, 1)
	assert.Same(t, outer, root.Concepts[0])
	assert.Empty(t, outer.Items[0].Concepts)
	assert.Equal(t, []*template.Template{pset}, p.Templates)
	assert.Nil(t, p.Template(nested.ID))

	_, err = p.DeleteTemplate(single)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteSubTemplate(t *testing.T) {
	p := New("Project")
	base := template.New("Base", "IfcObject")
	sub := template.New("Sub", "IfcWall")
	base.AddTemplate(sub)
	p.AddTemplate(base)

	n, err := p.DeleteTemplate(sub)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, base.Templates)
	assert.Equal(t, []*template.Template{base}, p.Templates)
}
