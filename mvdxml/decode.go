package mvdxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/mvdkit/concept"
	"github.com/c360studio/mvdkit/project"
	"github.com/c360studio/mvdkit/template"
)

// Decode reads an mvdXML document. Malformed XML and foreign namespaces are
// errors; unresolved or recursive references are reported in the result's
// diagnostics and dropped.
func Decode(r io.Reader, opts ...Option) (res *Result, err error) {
	c := newCodec(opts)
	start := time.Now()
	defer func() {
		c.metrics.RecordDecode(err, time.Since(start))
	}()

	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode mvdXML: %w", err)
	}
	if !slices.Contains(Namespaces, doc.XMLName.Space) {
		return nil, fmt.Errorf("decode mvdXML: %w: %q", ErrNamespace, doc.XMLName.Space)
	}

	d := &decoder{
		codec:     c,
		templates: make(map[uuid.UUID]*template.Template),
		views:     make(map[uuid.UUID]*concept.View),
		exchanges: make(map[uuid.UUID]*concept.Exchange),
	}

	p := project.New("")
	p.Identity = d.identity("mvdXML", "", doc.xmlIdentity)

	templates := doc.Templates.items()
	for i := range templates {
		p.AddTemplate(d.template(&templates[i]))
	}
	d.resolveReferences()

	// Exchanges of every view are registered before any concept, since a
	// requirement may name an exchange of a base view.
	xviews := doc.Views.items()
	views := make([]*concept.View, len(xviews))
	for i := range xviews {
		views[i] = d.view(&xviews[i])
	}
	for i, v := range views {
		d.roots(v, &xviews[i])
		p.AddView(v)
	}

	c.logger.Debug("mvdXML document decoded",
		"namespace", doc.XMLName.Space,
		"templates", len(d.templates),
		"views", len(views),
		"diagnostics", len(d.diags))

	return &Result{Project: p, Diagnostics: d.diags}, nil
}

type decoder struct {
	*codec
	templates map[uuid.UUID]*template.Template
	views     map[uuid.UUID]*concept.View
	exchanges map[uuid.UUID]*concept.Exchange
	fixups    []fixup
	diags     []Diagnostic
}

// fixup is a template reference held by an entity rule, resolved once every
// template is known.
type fixup struct {
	holder  *template.Rule
	ref     string
	context string
}

func (d *decoder) report(diag Diagnostic) {
	d.diags = append(d.diags, diag)
	d.metrics.RecordDiagnostic(diag.Kind.String())
	d.logger.Warn("mvdXML diagnostic",
		"kind", diag.Kind.String(),
		"element", diag.Element,
		"context", diag.Context,
		"value", diag.Value,
		"message", diag.Message)
}

func (d *decoder) identity(element, context string, x xmlIdentity) template.Identity {
	id := template.Identity{
		Name:      x.Name,
		Code:      x.Code,
		Version:   x.Version,
		Status:    x.Status,
		Author:    x.Author,
		Owner:     x.Owner,
		Copyright: x.Copyright,
	}
	parsed, err := uuid.Parse(strings.TrimSpace(x.UUID))
	switch {
	case strings.TrimSpace(x.UUID) == "":
		id.ID = uuid.New()
	case err != nil:
		d.report(Diagnostic{Kind: InvalidUUID, Element: element, Context: context, Value: x.UUID, Message: "assigned a new identifier"})
		id.ID = uuid.New()
	default:
		id.ID = parsed
	}
	return id
}

func (d *decoder) element(element, context string, x xmlElement) template.Identity {
	id := d.identity(element, context, x.xmlIdentity)
	for _, def := range x.Definitions.items() {
		if def.Body != nil {
			id.Documentation = def.Body.Content
		}
		for _, link := range def.Links {
			cat, err := template.ParseCategory(link.Category)
			if err != nil {
				d.report(Diagnostic{Kind: InvalidValue, Element: "Link", Context: id.Name, Value: link.Category, Message: err.Error()})
			}
			id.Localizations = append(id.Localizations, template.Localization{
				Locale:        link.Lang,
				Name:          link.Title,
				Documentation: link.Content,
				Category:      cat,
				URL:           link.Href,
			})
		}
	}
	return id
}

func (d *decoder) knownEntity(element, context, entity string) bool {
	if d.schema == nil || entity == "" {
		return true
	}
	if _, ok := d.schema.Definition(entity); ok {
		return true
	}
	d.report(Diagnostic{Kind: UnknownEntity, Element: element, Context: context, Value: entity,
		Message: "not defined by schema " + d.schema.Name()})
	return false
}

func (d *decoder) template(x *xmlConceptTemplate) *template.Template {
	t := &template.Template{Type: x.ApplicableEntity, Schema: x.ApplicableSchema}
	t.Identity = d.element("ConceptTemplate", x.Name, x.xmlElement)
	if prior, ok := d.templates[t.ID]; ok {
		d.report(Diagnostic{Kind: Duplicate, Element: "ConceptTemplate", Context: t.Name, Value: t.ID.String(),
			Message: "identifier already used by " + prior.Name})
		t.ID = uuid.New()
	}
	d.templates[t.ID] = t
	d.knownEntity("ConceptTemplate", t.Name, t.Type)

	rules := x.Rules.items()
	for i := range rules {
		t.AddRule(d.attributeRule(t.Name, &rules[i]))
	}
	subs := x.SubTemplates.items()
	for i := range subs {
		t.AddTemplate(d.template(&subs[i]))
	}
	return t
}

func (d *decoder) attributeRule(context string, x *xmlAttributeRule) *template.Rule {
	r := template.NewAttributeRule(x.AttributeName)
	r.Identification = x.RuleID
	r.Description = x.Description
	r.Condition = x.Condition
	entities := x.EntityRules.items()
	for i := range entities {
		r.AddRule(d.entityRule(context, &entities[i]))
	}
	for _, c := range x.Constraints.items() {
		r.AddRule(constraint(c))
	}
	return r
}

func (d *decoder) entityRule(context string, x *xmlEntityRule) *template.Rule {
	r := template.NewEntityRule(x.EntityName)
	r.Identification = x.RuleID
	r.Description = x.Description
	r.Condition = x.Condition
	attributes := x.AttributeRules.items()
	for i := range attributes {
		r.AddRule(d.attributeRule(context, &attributes[i]))
	}
	for _, c := range x.Constraints.items() {
		r.AddRule(constraint(c))
	}
	for _, ref := range x.References.items() {
		d.fixups = append(d.fixups, fixup{holder: r, ref: ref.Ref, context: context})
	}
	return r
}

func constraint(x xmlConstraint) *template.Rule {
	r := template.NewConstraintRule(x.Expression)
	r.Description = x.Description
	return r
}

// resolveReferences links the recorded entity rule references in document
// order. The first reference closing a cycle is the one dropped.
func (d *decoder) resolveReferences() {
	for _, f := range d.fixups {
		ref := d.lookupTemplate("EntityRule", f.context, f.ref)
		if ref == nil {
			continue
		}
		if err := template.Link(f.holder, ref); err != nil {
			d.report(Diagnostic{Kind: RecursiveReference, Element: "EntityRule", Context: f.context, Value: f.ref, Message: err.Error()})
		}
	}
	d.fixups = nil
}

func (d *decoder) lookupTemplate(element, context, ref string) *template.Template {
	id, err := uuid.Parse(strings.TrimSpace(ref))
	if err != nil {
		d.report(Diagnostic{Kind: InvalidUUID, Element: element, Context: context, Value: ref, Message: "template reference dropped"})
		return nil
	}
	t, ok := d.templates[id]
	if !ok {
		d.report(Diagnostic{Kind: DanglingReference, Element: element, Context: context, Value: ref, Message: "no template with this identifier"})
		return nil
	}
	return t
}

func (d *decoder) view(x *xmlModelView) *concept.View {
	v := &concept.View{Schema: x.ApplicableSchema, BaseView: strings.TrimSpace(x.BaseView)}
	v.Identity = d.element("ModelView", x.Name, x.xmlElement)
	if prior, ok := d.views[v.ID]; ok {
		d.report(Diagnostic{Kind: Duplicate, Element: "ModelView", Context: v.Name, Value: v.ID.String(),
			Message: "identifier already used by " + prior.Name})
		v.ID = uuid.New()
	}
	d.views[v.ID] = v

	exchanges := x.ExchangeRequirements.items()
	for i := range exchanges {
		xe := &exchanges[i]
		ex := &concept.Exchange{Identity: d.element("ExchangeRequirement", v.Name, xe.xmlElement)}
		ex.Applicability = d.applicability("ExchangeRequirement", v.Name, xe.Applicability)
		if _, ok := d.exchanges[ex.ID]; ok {
			d.report(Diagnostic{Kind: Duplicate, Element: "ExchangeRequirement", Context: v.Name, Value: ex.ID.String()})
			ex.ID = uuid.New()
		}
		d.exchanges[ex.ID] = ex
		v.Exchanges = append(v.Exchanges, ex)
	}
	return v
}

func (d *decoder) applicability(element, context, s string) concept.Applicability {
	a, err := concept.ParseApplicability(s)
	if err != nil {
		d.report(Diagnostic{Kind: InvalidValue, Element: element, Context: context, Value: s, Message: err.Error()})
	}
	return a
}

func (d *decoder) roots(v *concept.View, x *xmlModelView) {
	roots := x.Roots.items()
	for i := range roots {
		xr := &roots[i]
		if !d.knownEntity("ConceptRoot", v.Name, xr.ApplicableRootEntity) {
			continue
		}
		root := &concept.Root{Entity: xr.ApplicableRootEntity}
		root.Identity = d.element("ConceptRoot", v.Name, xr.xmlElement)

		if a := xr.Applicability; a != nil {
			if a.Template != nil {
				root.ApplicableTemplate = d.lookupTemplate("Applicability", v.Name, a.Template.Ref)
			}
			if a.TemplateRules != nil {
				root.ApplicableOperator, root.ApplicableItems = d.templateRules(v.Name, a.TemplateRules)
			}
		}

		concepts := xr.Concepts.items()
		for j := range concepts {
			u := d.concept(v.Name, &concepts[j])
			if u == nil {
				continue
			}
			if err := root.AddUsage(u); err != nil {
				d.report(Diagnostic{Kind: Duplicate, Element: "Concept", Context: v.Name, Value: u.ID.String(), Message: err.Error()})
			}
		}
		v.Roots = append(v.Roots, root)
	}
}

// concept decodes one template usage. It returns nil when the usage's
// template cannot be resolved.
func (d *decoder) concept(context string, x *xmlConcept) *concept.Usage {
	if x.Template == nil {
		d.report(Diagnostic{Kind: DanglingReference, Element: "Concept", Context: context, Value: x.UUID, Message: "concept names no template"})
		return nil
	}
	t := d.lookupTemplate("Concept", context, x.Template.Ref)
	if t == nil {
		return nil
	}

	u := &concept.Usage{Definition: t, Override: x.Override, Suppress: x.Suppress}
	u.Identity = d.element("Concept", context, x.xmlElement)

	for _, xr := range x.Requirements.items() {
		id, err := uuid.Parse(strings.TrimSpace(xr.ExchangeRequirement))
		ex := d.exchanges[id]
		if err != nil || ex == nil {
			d.report(Diagnostic{Kind: DanglingReference, Element: "Requirement", Context: context, Value: xr.ExchangeRequirement,
				Message: "no exchange requirement with this identifier"})
			continue
		}
		req, err := concept.ParseRequirement(xr.Requirement)
		if err != nil {
			d.report(Diagnostic{Kind: InvalidValue, Element: "Requirement", Context: context, Value: xr.Requirement, Message: err.Error()})
			continue
		}
		u.Exchanges = append(u.Exchanges, &concept.ExchangeItem{
			Exchange:      ex,
			Applicability: d.applicability("Requirement", context, xr.Applicability),
			Requirement:   req,
		})
	}

	if x.TemplateRules != nil {
		u.Operator, u.Items = d.templateRules(context, x.TemplateRules)
	}
	return u
}

func (d *decoder) templateRules(context string, x *xmlTemplateRules) (concept.Operator, []*concept.Item) {
	op, err := concept.ParseOperator(x.Operator)
	if err != nil {
		d.report(Diagnostic{Kind: InvalidValue, Element: "TemplateRules", Context: context, Value: x.Operator, Message: err.Error()})
	}
	if x.InnerRules != nil {
		d.report(Diagnostic{Kind: Unsupported, Element: "TemplateRules", Context: context, Message: "nested template rules ignored"})
	}

	items := make([]*concept.Item, 0, len(x.Rules))
	for i := range x.Rules {
		xr := &x.Rules[i]
		item := &concept.Item{RuleID: xr.RuleID, Documentation: xr.Description, Parameters: xr.Parameters}
		refs := xr.References.items()
		for j := range refs {
			if u := d.concept(context, &refs[j]); u != nil {
				item.Concepts = append(item.Concepts, u)
			}
		}
		items = append(items, item)
	}
	return op, items
}
