package mvdxml

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/c360studio/mvdkit/concept"
	"github.com/c360studio/mvdkit/project"
	"github.com/c360studio/mvdkit/template"
)

// Encode writes p as an mvdXML 1.1 document. Usages without a template are
// skipped.
func Encode(w io.Writer, p *project.Project, opts ...Option) error {
	c := newCodec(opts)
	doc := c.document(p)

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("encode mvdXML: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	// XMLName only names the root for decoding.
	start := xml.StartElement{Name: xml.Name{Space: Namespace, Local: "mvdXML"}}
	if err := enc.EncodeElement(doc, start); err != nil {
		return fmt.Errorf("encode mvdXML: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("encode mvdXML: %w", err)
	}

	c.logger.Debug("mvdXML document encoded", "templates", len(doc.Templates.items()), "views", len(doc.Views.items()))
	return nil
}

func (c *codec) document(p *project.Project) *xmlDocument {
	doc := &xmlDocument{xmlIdentity: identity(p.Identity)}
	var (
		templates []xmlConceptTemplate
		views     []xmlModelView
	)
	for _, t := range p.Templates {
		if c.included(t.ID) {
			templates = append(templates, c.template(t))
		}
	}
	for _, v := range p.Views {
		if c.included(v.ID) {
			views = append(views, view(v))
		}
	}
	if len(templates) > 0 {
		doc.Templates = &xmlConceptTemplates{ConceptTemplate: templates}
	}
	if len(views) > 0 {
		doc.Views = &xmlModelViews{ModelView: views}
	}
	return doc
}

func identity(id template.Identity) xmlIdentity {
	return xmlIdentity{
		UUID:      id.ID.String(),
		Name:      id.Name,
		Code:      id.Code,
		Version:   id.Version,
		Status:    id.Status,
		Author:    id.Author,
		Owner:     id.Owner,
		Copyright: id.Copyright,
	}
}

func element(id template.Identity) xmlElement {
	x := xmlElement{xmlIdentity: identity(id)}
	if id.Documentation == "" && len(id.Localizations) == 0 {
		return x
	}

	var def xmlDefinition
	if id.Documentation != "" {
		def.Body = &xmlBody{Content: id.Documentation}
	}
	for _, loc := range id.Localizations {
		def.Links = append(def.Links, xmlLink{
			Lang:     loc.Locale,
			Category: loc.Category.String(),
			Title:    loc.Name,
			Href:     loc.URL,
			Content:  loc.Documentation,
		})
	}
	x.Definitions = &xmlDefinitions{Definition: []xmlDefinition{def}}
	return x
}

func (c *codec) template(t *template.Template) xmlConceptTemplate {
	x := xmlConceptTemplate{
		xmlElement:       element(t.Identity),
		ApplicableSchema: t.Schema,
		ApplicableEntity: t.Type,
	}
	var (
		rules []xmlAttributeRule
		subs  []xmlConceptTemplate
	)
	for _, r := range t.Rules {
		rules = append(rules, attributeRule(r))
	}
	for _, sub := range t.Templates {
		if c.included(sub.ID) {
			subs = append(subs, c.template(sub))
		}
	}
	if len(rules) > 0 {
		x.Rules = &xmlAttributeRules{AttributeRule: rules}
	}
	if len(subs) > 0 {
		x.SubTemplates = &xmlConceptTemplates{ConceptTemplate: subs}
	}
	return x
}

func attributeRule(r *template.Rule) xmlAttributeRule {
	x := xmlAttributeRule{
		RuleID:        r.Identification,
		Description:   r.Description,
		Condition:     r.Condition,
		AttributeName: r.Name,
	}
	var (
		entities    []xmlEntityRule
		constraints []xmlConstraint
	)
	for _, child := range r.Rules {
		switch child.Kind {
		case template.KindEntity:
			entities = append(entities, entityRule(child))
		case template.KindConstraint:
			constraints = append(constraints, xmlConstraint{Expression: child.Expression, Description: child.Description})
		}
	}
	if len(entities) > 0 {
		x.EntityRules = &xmlEntityRules{EntityRule: entities}
	}
	x.Constraints = wrapConstraints(constraints)
	return x
}

func entityRule(r *template.Rule) xmlEntityRule {
	x := xmlEntityRule{
		RuleID:      r.Identification,
		Description: r.Description,
		Condition:   r.Condition,
		EntityName:  r.Name,
	}
	var (
		attributes  []xmlAttributeRule
		constraints []xmlConstraint
		refs        []xmlRef
	)
	for _, child := range r.Rules {
		switch child.Kind {
		case template.KindAttribute:
			attributes = append(attributes, attributeRule(child))
		case template.KindConstraint:
			constraints = append(constraints, xmlConstraint{Expression: child.Expression, Description: child.Description})
		}
	}
	for _, ref := range r.References {
		refs = append(refs, xmlRef{Ref: ref.ID.String()})
	}
	if len(attributes) > 0 {
		x.AttributeRules = &xmlAttributeRules{AttributeRule: attributes}
	}
	x.Constraints = wrapConstraints(constraints)
	if len(refs) > 0 {
		x.References = &xmlReferences{Template: refs}
	}
	return x
}

func wrapConstraints(constraints []xmlConstraint) *xmlConstraints {
	if len(constraints) == 0 {
		return nil
	}
	return &xmlConstraints{Constraint: constraints}
}

func view(v *concept.View) xmlModelView {
	x := xmlModelView{
		xmlElement:       element(v.Identity),
		ApplicableSchema: v.Schema,
		BaseView:         v.BaseView,
	}
	var (
		exchanges []xmlExchangeRequirement
		roots     []xmlConceptRoot
	)
	for _, ex := range v.Exchanges {
		exchanges = append(exchanges, xmlExchangeRequirement{
			xmlElement:    element(ex.Identity),
			Applicability: ex.Applicability.String(),
		})
	}
	for _, r := range v.Roots {
		roots = append(roots, root(r))
	}
	if len(exchanges) > 0 {
		x.ExchangeRequirements = &xmlExchangeRequirements{ExchangeRequirement: exchanges}
	}
	if len(roots) > 0 {
		x.Roots = &xmlConceptRoots{ConceptRoot: roots}
	}
	return x
}

func root(r *concept.Root) xmlConceptRoot {
	x := xmlConceptRoot{
		xmlElement:           element(r.Identity),
		ApplicableRootEntity: r.Entity,
	}
	if r.ApplicableTemplate != nil || len(r.ApplicableItems) > 0 {
		x.Applicability = &xmlApplicability{TemplateRules: templateRules(r.ApplicableOperator, r.ApplicableItems)}
		if r.ApplicableTemplate != nil {
			x.Applicability.Template = &xmlRef{Ref: r.ApplicableTemplate.ID.String()}
		}
	}
	x.Concepts = usages(r.Concepts)
	return x
}

// usages encodes the usages that name a template.
func usages(us []*concept.Usage) *xmlConcepts {
	var concepts []xmlConcept
	for _, u := range us {
		if u.Definition != nil {
			concepts = append(concepts, usage(u))
		}
	}
	if len(concepts) == 0 {
		return nil
	}
	return &xmlConcepts{Concept: concepts}
}

func usage(u *concept.Usage) xmlConcept {
	x := xmlConcept{
		xmlElement: element(u.Identity),
		Override:   u.Override,
		Suppress:   u.Suppress,
		Template:   &xmlRef{Ref: u.Definition.ID.String()},
	}
	var reqs []xmlRequirement
	for _, item := range u.Exchanges {
		if item.Exchange == nil {
			continue
		}
		reqs = append(reqs, xmlRequirement{
			Applicability:       item.Applicability.String(),
			Requirement:         item.Requirement.String(),
			ExchangeRequirement: item.Exchange.ID.String(),
		})
	}
	if len(reqs) > 0 {
		x.Requirements = &xmlRequirements{Requirement: reqs}
	}
	x.TemplateRules = templateRules(u.Operator, u.Items)
	return x
}

// templateRules encodes item parameters. It returns nil when there are no
// items.
func templateRules(op concept.Operator, items []*concept.Item) *xmlTemplateRules {
	if len(items) == 0 {
		return nil
	}
	x := &xmlTemplateRules{Operator: op.String()}
	for _, item := range items {
		x.Rules = append(x.Rules, xmlTemplateRule{
			RuleID:      item.RuleID,
			Description: item.Documentation,
			Parameters:  item.Parameters,
			References:  usages(item.Concepts),
		})
	}
	return x
}
