package assertion

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/mvdkit/concept"
	"github.com/c360studio/mvdkit/template"
)

func namingTemplate() *template.Template {
	t := template.New("Wall Naming", "IfcRoot")

	name := template.NewAttributeRule("Name")
	label := template.NewEntityRule("IfcLabel")
	label.Identification = "Type"
	label.Condition = true
	name.AddRule(label)
	t.AddRule(name)

	desc := template.NewAttributeRule("Description")
	text := template.NewEntityRule("IfcText")
	text.Identification = "Text"
	desc.AddRule(text)
	t.AddRule(desc)
	return t
}

func TestBuildWithItems(t *testing.T) {
	root := concept.NewRoot("IfcWall")
	u := concept.NewUsage(namingTemplate())
	u.Items = []*concept.Item{
		{Parameters: "Type=Wall;Text=External"},
		{Parameters: "Text[Value]='Internal'"},
	}

	got := Build(root, u)
	assert.Equal(t, []Rule{
		{Context: "//IfcWall[@Name/IfcLabel/ = Wall]", Asserts: []string{"Description/IfcText/ = 'External'"}},
		{Context: "//IfcWall", Asserts: []string{"Description/IfcText/ = 'Internal'"}},
	}, got)
}

func TestBuildWithoutItems(t *testing.T) {
	root := concept.NewRoot("IfcWall")
	got := Build(root, concept.NewUsage(namingTemplate()))
	assert.Equal(t, []Rule{
		{Context: "//IfcWall", Asserts: []string{"Name/", "Name/IfcLabel/"}},
		{Context: "//IfcWall", Asserts: []string{"Description/", "Description/IfcText/"}},
	}, got)

	assert.Nil(t, Build(root, &concept.Usage{}))
}

func TestBuildAssertsEveryPrefix(t *testing.T) {
	tmpl := template.New("Deep", "IfcObject")
	a := template.NewAttributeRule("A")
	b1 := template.NewEntityRule("B1")
	b2 := template.NewEntityRule("B2")
	c := template.NewAttributeRule("C")
	b1.AddRule(c)
	a.AddRule(b1)
	a.AddRule(b2)
	tmpl.AddRule(a)

	got := Build(concept.NewRoot("IfcWall"), concept.NewUsage(tmpl))
	require.Len(t, got, 1)
	assert.Equal(t, []string{"A/", "A/B1/", "A/B1/C/", "A/B2/"}, got[0].Asserts)
}

func TestBuildView(t *testing.T) {
	v := concept.NewView("Coordination View")
	design := concept.NewExchange("Design Transfer", concept.ApplicabilityExport)
	v.Exchanges = append(v.Exchanges, design)

	naming := namingTemplate()
	other := template.New("Other Checks", "IfcRoot")
	root := concept.NewRoot("IfcWall")
	mandatory := concept.NewUsage(naming)
	mandatory.Documentation = "Walls carry a type name."
	mandatory.SetRequirement(design, concept.ApplicabilityExport, concept.RequirementMandatory)
	optional := concept.NewUsage(other)
	optional.SetRequirement(design, concept.ApplicabilityExport, concept.RequirementOptional)
	require.NoError(t, root.AddUsage(mandatory))
	require.NoError(t, root.AddUsage(optional))
	v.Roots = append(v.Roots, root)

	s := BuildView(v)
	assert.Equal(t, "Coordination View", s.Title)
	require.Len(t, s.Phases, 1)
	assert.Equal(t, Phase{ID: "design-transfer", Actives: []string{"ifcwall-wall-naming"}}, s.Phases[0])
	require.Len(t, s.Patterns, 2)
	assert.Equal(t, "ifcwall-wall-naming", s.Patterns[0].ID)
	assert.Equal(t, "Wall Naming", s.Patterns[0].Name)
	assert.Equal(t, "Walls carry a type name.", s.Patterns[0].Documentation)
	assert.Equal(t, "ifcwall-other-checks", s.Patterns[1].ID)
	assert.Empty(t, s.Patterns[1].Rules)

	var buf bytes.Buffer
	require.NoError(t, WriteSchematron(&buf, s))
	out := buf.String()
	assert.Contains(t, out, `<schema xmlns="`+SchematronNamespace+`">`)
	assert.Contains(t, out, `<phase id="design-transfer">`)
	assert.Contains(t, out, `pattern="ifcwall-wall-naming"`)
	assert.Contains(t, out, `<rule context="//IfcWall">`)
	assert.Contains(t, out, `test="Name/IfcLabel/"`)
}
