package source

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
)

// XMLAdapter reads RDF/XML style documents with a configurable vocabulary.
type XMLAdapter struct {
	Vocabulary Vocabulary
}

func NewXMLAdapter(v Vocabulary) *XMLAdapter {
	return &XMLAdapter{Vocabulary: v}
}

type openField struct {
	spec  fieldSpec
	depth int
	ref   string
	text  strings.Builder
}

type openRecord struct {
	slot  int
	depth int
	node  RawNode
	field *openField
}

// Parse streams the document and returns one RawNode per record element, in document
// order of the record start tags.
func (a *XMLAdapter) Parse(r io.Reader) ([]RawNode, error) {
	vocab, ok := a.Vocabulary.Normalize()
	if !ok {
		return nil, pkgerrors.Malformed("vocabulary has no record element", -1, nil)
	}
	fields := vocab.fieldIndex()

	dec := xml.NewDecoder(r)
	dec.Entity = xml.HTMLEntity

	var (
		records []RawNode
		stack   []*openRecord
		depth   int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkgerrors.Malformed("unparsable document", -1, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == vocab.RecordElement {
				about, ok := attrValue(t.Attr, vocab.IdentifierAttr)
				if !ok {
					return nil, pkgerrors.Malformed(
						fmt.Sprintf("<%s> without %q attribute", vocab.RecordElement, vocab.IdentifierAttr),
						len(records), nil,
					)
				}
				id := LastSegment(about)
				// Inline records inside a parent reference still name the parent.
				if len(stack) > 0 {
					if f := stack[len(stack)-1].field; f != nil && f.spec.kind == fieldParent && f.ref == "" {
						f.ref = id
					}
				}
				records = append(records, RawNode{})
				stack = append(stack, &openRecord{
					slot:  len(records) - 1,
					depth: depth,
					node:  RawNode{Identifier: id},
				})
				continue
			}
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if top.field != nil || depth != top.depth+1 {
				continue
			}
			if spec, ok := fields[t.Name.Local]; ok {
				ref, _ := attrValue(t.Attr, vocab.ReferenceAttr)
				top.field = &openField{spec: spec, depth: depth, ref: ref}
			}

		case xml.CharData:
			if len(stack) > 0 {
				if f := stack[len(stack)-1].field; f != nil {
					f.text.Write(t)
				}
			}

		case xml.EndElement:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				switch {
				case top.field != nil && top.field.depth == depth:
					applyField(&top.node, top.field, vocab)
					top.field = nil
				case top.depth == depth:
					records[top.slot] = top.node
					stack = stack[:len(stack)-1]
				}
			}
			depth--
		}
	}

	if len(records) == 0 {
		return nil, pkgerrors.Malformed(fmt.Sprintf("no <%s> records found", vocab.RecordElement), -1, nil)
	}
	return records, nil
}

func applyField(n *RawNode, f *openField, vocab Vocabulary) {
	text := strings.TrimSpace(f.text.String())
	switch f.spec.kind {
	case fieldTitle:
		if n.DisplayName == "" {
			n.DisplayName = text
		}
	case fieldDescription:
		if n.Description == "" {
			n.Description = text
		}
	case fieldCode:
		if n.Code == "" {
			n.Code = text
		}
	case fieldParent:
		ref := f.ref
		if strings.TrimSpace(ref) == "" {
			ref = text
		}
		if id := LastSegment(ref); id != "" {
			n.ParentRefs = append(n.ParentRefs, id)
		}
	case fieldLabel:
		if vocab.isLeafLabel(text) {
			n.IsLeafMarker = true
		}
	case fieldTag:
		val := text
		if val == "" && f.ref != "" {
			val = LastSegment(f.ref)
		}
		if val != "" && f.spec.tag != "" {
			n.Tags = append(n.Tags, Tag{Key: f.spec.tag, Value: val})
		}
	}
}

func attrValue(attrs []xml.Attr, local string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}
