// Package source turns standards-description documents into flat RawNode records.
//
// Documents differ in vocabulary (ASN/RDF statements, SKOS concepts, ...) but share one
// shape: a list of records, each with an identifying URI attribute and named child
// values. A Vocabulary describes that mapping; XMLAdapter applies it.
package source

import (
	"io"
	"strings"
)

// Tag is a free-form attribute (subject, level, ...) used to enrich descriptions.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RawNode is one flat record as found in the source document.
type RawNode struct {
	Identifier   string   `json:"identifier"`
	ParentRefs   []string `json:"parent_refs,omitempty"`
	DisplayName  string   `json:"display_name,omitempty"`
	Code         string   `json:"code,omitempty"`
	Description  string   `json:"description,omitempty"`
	Tags         []Tag    `json:"tags,omitempty"`
	IsLeafMarker bool     `json:"is_leaf_marker,omitempty"`
}

// Adapter parses a raw document into records. Implementations return a
// *errors.MalformedInputError when the document is unusable.
type Adapter interface {
	Parse(r io.Reader) ([]RawNode, error)
}

// LastSegment returns the trailing path or fragment segment of a URI-like reference,
// e.g. "http://asn.jesandco.org/resources/S1234" -> "S1234".
func LastSegment(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimRight(ref, "/#")
	if i := strings.LastIndexAny(ref, "/#"); i >= 0 {
		return strings.TrimSpace(ref[i+1:])
	}
	return ref
}
