package mvdxml

import "encoding/xml"

// Namespace is the mvdXML 1.1 namespace written on export.
const Namespace = "http://buildingsmart-tech.org/mvdXML/mvdXML1-1"

// Namespaces lists every namespace accepted on import, newest first.
var Namespaces = []string{
	Namespace,
	"http://buildingsmart-tech.org/mvdXML/mvdXML1-0",
	"http://buildingsmart-tech.org/mvdXML/mvdXML_V1-0",
}

type xmlIdentity struct {
	UUID      string `xml:"uuid,attr"`
	Name      string `xml:"name,attr"`
	Code      string `xml:"code,attr,omitempty"`
	Version   string `xml:"version,attr,omitempty"`
	Status    string `xml:"status,attr,omitempty"`
	Author    string `xml:"author,attr,omitempty"`
	Owner     string `xml:"owner,attr,omitempty"`
	Copyright string `xml:"copyright,attr,omitempty"`
}

type xmlElement struct {
	xmlIdentity
	Definitions *xmlDefinitions `xml:"Definitions,omitempty"`
}

type xmlDefinition struct {
	Body  *xmlBody  `xml:"Body,omitempty"`
	Links []xmlLink `xml:"Link,omitempty"`
}

type xmlBody struct {
	Lang    string `xml:"lang,attr,omitempty"`
	Tags    string `xml:"tags,attr,omitempty"`
	Content string `xml:",cdata"`
}

type xmlLink struct {
	Lang     string `xml:"lang,attr,omitempty"`
	Category string `xml:"category,attr,omitempty"`
	Title    string `xml:"title,attr,omitempty"`
	Href     string `xml:"href,attr,omitempty"`
	Content  string `xml:",chardata"`
}

type xmlDocument struct {
	XMLName xml.Name `xml:"mvdXML"`
	xmlIdentity
	Templates *xmlConceptTemplates `xml:"Templates,omitempty"`
	Views     *xmlModelViews       `xml:"Views,omitempty"`
}

type xmlConceptTemplate struct {
	xmlElement
	ApplicableSchema string               `xml:"applicableSchema,attr,omitempty"`
	ApplicableEntity string               `xml:"applicableEntity,attr,omitempty"`
	Rules            *xmlAttributeRules   `xml:"Rules,omitempty"`
	SubTemplates     *xmlConceptTemplates `xml:"SubTemplates,omitempty"`
}

type xmlAttributeRule struct {
	RuleID        string          `xml:"RuleID,attr,omitempty"`
	Description   string          `xml:"Description,attr,omitempty"`
	Condition     bool            `xml:"Condition,attr,omitempty"`
	AttributeName string          `xml:"AttributeName,attr"`
	EntityRules   *xmlEntityRules `xml:"EntityRules,omitempty"`
	Constraints   *xmlConstraints `xml:"Constraints,omitempty"`
}

type xmlEntityRule struct {
	RuleID         string             `xml:"RuleID,attr,omitempty"`
	Description    string             `xml:"Description,attr,omitempty"`
	Condition      bool               `xml:"Condition,attr,omitempty"`
	EntityName     string             `xml:"EntityName,attr"`
	AttributeRules *xmlAttributeRules `xml:"AttributeRules,omitempty"`
	Constraints    *xmlConstraints    `xml:"Constraints,omitempty"`
	References     *xmlReferences     `xml:"References,omitempty"`
}

type xmlConstraint struct {
	Expression  string `xml:"Expression,attr"`
	Description string `xml:"Description,attr,omitempty"`
}

type xmlRef struct {
	Ref string `xml:"ref,attr"`
}

type xmlModelView struct {
	xmlElement
	ApplicableSchema     string                   `xml:"applicableSchema,attr,omitempty"`
	ExchangeRequirements *xmlExchangeRequirements `xml:"ExchangeRequirements,omitempty"`
	Roots                *xmlConceptRoots         `xml:"Roots,omitempty"`
	BaseView             string                   `xml:"BaseView,omitempty"`
}

type xmlExchangeRequirement struct {
	xmlElement
	Applicability string `xml:"applicability,attr,omitempty"`
}

type xmlConceptRoot struct {
	xmlElement
	ApplicableRootEntity string            `xml:"applicableRootEntity,attr"`
	Applicability        *xmlApplicability `xml:"Applicability,omitempty"`
	Concepts             *xmlConcepts      `xml:"Concepts,omitempty"`
}

type xmlApplicability struct {
	Template      *xmlRef           `xml:"Template,omitempty"`
	TemplateRules *xmlTemplateRules `xml:"TemplateRules,omitempty"`
}

type xmlConcept struct {
	xmlElement
	Override      bool              `xml:"override,attr,omitempty"`
	Suppress      bool              `xml:"suppress,attr,omitempty"`
	Template      *xmlRef           `xml:"Template,omitempty"`
	Requirements  *xmlRequirements  `xml:"Requirements,omitempty"`
	TemplateRules *xmlTemplateRules `xml:"TemplateRules,omitempty"`
}

type xmlRequirement struct {
	Applicability       string `xml:"applicability,attr,omitempty"`
	Requirement         string `xml:"requirement,attr"`
	ExchangeRequirement string `xml:"exchangeRequirement,attr"`
}

type xmlTemplateRules struct {
	Operator   string            `xml:"operator,attr,omitempty"`
	Rules      []xmlTemplateRule `xml:"TemplateRule"`
	InnerRules *xmlTemplateRules `xml:"TemplateRules,omitempty"`
}

type xmlTemplateRule struct {
	RuleID      string       `xml:"RuleID,attr,omitempty"`
	Description string       `xml:"Description,attr,omitempty"`
	Parameters  string       `xml:"Parameters,attr,omitempty"`
	References  *xmlConcepts `xml:"References,omitempty"`
}

// Collection wrappers are pointers so that an empty collection writes no
// element at all. Their items methods are nil safe.

type xmlDefinitions struct {
	Definition []xmlDefinition `xml:"Definition"`
}

func (w *xmlDefinitions) items() []xmlDefinition {
	if w == nil {
		return nil
	}
	return w.Definition
}

type xmlConceptTemplates struct {
	ConceptTemplate []xmlConceptTemplate `xml:"ConceptTemplate"`
}

func (w *xmlConceptTemplates) items() []xmlConceptTemplate {
	if w == nil {
		return nil
	}
	return w.ConceptTemplate
}

type xmlModelViews struct {
	ModelView []xmlModelView `xml:"ModelView"`
}

func (w *xmlModelViews) items() []xmlModelView {
	if w == nil {
		return nil
	}
	return w.ModelView
}

type xmlAttributeRules struct {
	AttributeRule []xmlAttributeRule `xml:"AttributeRule"`
}

func (w *xmlAttributeRules) items() []xmlAttributeRule {
	if w == nil {
		return nil
	}
	return w.AttributeRule
}

type xmlEntityRules struct {
	EntityRule []xmlEntityRule `xml:"EntityRule"`
}

func (w *xmlEntityRules) items() []xmlEntityRule {
	if w == nil {
		return nil
	}
	return w.EntityRule
}

type xmlConstraints struct {
	Constraint []xmlConstraint `xml:"Constraint"`
}

func (w *xmlConstraints) items() []xmlConstraint {
	if w == nil {
		return nil
	}
	return w.Constraint
}

type xmlReferences struct {
	Template []xmlRef `xml:"Template"`
}

func (w *xmlReferences) items() []xmlRef {
	if w == nil {
		return nil
	}
	return w.Template
}

type xmlExchangeRequirements struct {
	ExchangeRequirement []xmlExchangeRequirement `xml:"ExchangeRequirement"`
}

func (w *xmlExchangeRequirements) items() []xmlExchangeRequirement {
	if w == nil {
		return nil
	}
	return w.ExchangeRequirement
}

type xmlConceptRoots struct {
	ConceptRoot []xmlConceptRoot `xml:"ConceptRoot"`
}

func (w *xmlConceptRoots) items() []xmlConceptRoot {
	if w == nil {
		return nil
	}
	return w.ConceptRoot
}

type xmlConcepts struct {
	Concept []xmlConcept `xml:"Concept"`
}

func (w *xmlConcepts) items() []xmlConcept {
	if w == nil {
		return nil
	}
	return w.Concept
}

type xmlRequirements struct {
	Requirement []xmlRequirement `xml:"Requirement"`
}

func (w *xmlRequirements) items() []xmlRequirement {
	if w == nil {
		return nil
	}
	return w.Requirement
}
