package source

import "strings"

// TagElement maps a child element onto a description tag key.
type TagElement struct {
	Element string `yaml:"element" json:"element"`
	Key     string `yaml:"key" json:"key"`
}

// Vocabulary names the elements and attributes of one document dialect. All names are
// XML local names; namespaces are ignored.
type Vocabulary struct {
	Name           string `yaml:"name" json:"name"`
	RecordElement  string `yaml:"record_element" json:"record_element"`
	IdentifierAttr string `yaml:"identifier_attr" json:"identifier_attr"`
	ReferenceAttr  string `yaml:"reference_attr" json:"reference_attr"`

	TitleElements       []string `yaml:"title" json:"title"`
	DescriptionElements []string `yaml:"description" json:"description"`
	CodeElements        []string `yaml:"code" json:"code"`
	ParentElements      []string `yaml:"parent" json:"parent"`
	LabelElements       []string `yaml:"label" json:"label"`

	// LeafLabels are label values that mark a record as an assessable concept.
	LeafLabels []string     `yaml:"leaf_labels" json:"leaf_labels"`
	Tags       []TagElement `yaml:"tags" json:"tags"`
}

// ASN is the Achievement Standards Network RDF dialect used by the Australian
// Curriculum exports.
var ASN = Vocabulary{
	Name:                "asn",
	RecordElement:       "Description",
	IdentifierAttr:      "about",
	ReferenceAttr:       "resource",
	TitleElements:       []string{"title"},
	DescriptionElements: []string{"description"},
	CodeElements:        []string{"statementNotation"},
	ParentElements:      []string{"isChildOf"},
	LabelElements:       []string{"statementLabel"},
	LeafLabels:          []string{"Content description", "Elaboration"},
	Tags: []TagElement{
		{Element: "subject", Key: "subject"},
		{Element: "educationLevel", Key: "level"},
	},
}

// SKOS covers plain SKOS concept schemes.
var SKOS = Vocabulary{
	Name:                "skos",
	RecordElement:       "Concept",
	IdentifierAttr:      "about",
	ReferenceAttr:       "resource",
	TitleElements:       []string{"prefLabel"},
	DescriptionElements: []string{"definition", "scopeNote"},
	CodeElements:        []string{"notation"},
	ParentElements:      []string{"broader"},
}

// Normalize fills defaults and reports whether the vocabulary is usable.
func (v Vocabulary) Normalize() (Vocabulary, bool) {
	v.Name = strings.TrimSpace(v.Name)
	v.RecordElement = strings.TrimSpace(v.RecordElement)
	v.IdentifierAttr = strings.TrimSpace(v.IdentifierAttr)
	v.ReferenceAttr = strings.TrimSpace(v.ReferenceAttr)
	if v.IdentifierAttr == "" {
		v.IdentifierAttr = "about"
	}
	if v.ReferenceAttr == "" {
		v.ReferenceAttr = "resource"
	}
	return v, v.RecordElement != ""
}

type fieldKind int

const (
	fieldNone fieldKind = iota
	fieldTitle
	fieldDescription
	fieldCode
	fieldParent
	fieldLabel
	fieldTag
)

type fieldSpec struct {
	kind fieldKind
	tag  string
}

func (v Vocabulary) fieldIndex() map[string]fieldSpec {
	idx := map[string]fieldSpec{}
	add := func(names []string, spec fieldSpec) {
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			if _, exists := idx[n]; !exists {
				idx[n] = spec
			}
		}
	}
	add(v.TitleElements, fieldSpec{kind: fieldTitle})
	add(v.DescriptionElements, fieldSpec{kind: fieldDescription})
	add(v.CodeElements, fieldSpec{kind: fieldCode})
	add(v.ParentElements, fieldSpec{kind: fieldParent})
	add(v.LabelElements, fieldSpec{kind: fieldLabel})
	for _, t := range v.Tags {
		add([]string{t.Element}, fieldSpec{kind: fieldTag, tag: strings.TrimSpace(t.Key)})
	}
	return idx
}

func (v Vocabulary) isLeafLabel(label string) bool {
	label = strings.TrimSpace(label)
	for _, l := range v.LeafLabels {
		if strings.EqualFold(strings.TrimSpace(l), label) {
			return true
		}
	}
	return false
}
