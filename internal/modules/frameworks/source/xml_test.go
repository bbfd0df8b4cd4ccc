package source

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
)

const asnDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:dc="http://purl.org/dc/terms/"
         xmlns:asn="http://purl.org/ASN/schema/core/">
  <rdf:Description rdf:about="http://example.org/resources/S100">
    <dc:title>Mathematics</dc:title>
    <dc:description>Mathematics &amp; numeracy</dc:description>
    <dc:subject rdf:resource="http://example.org/subjects/Mathematics"/>
  </rdf:Description>
  <rdf:Description rdf:about="http://example.org/resources/S101">
    <asn:isChildOf rdf:resource="http://example.org/resources/S100"/>
    <asn:statementNotation>ACMNA001</asn:statementNotation>
    <asn:statementLabel>Content description</asn:statementLabel>
    <dc:description>Establish understanding of the language of <b>counting</b></dc:description>
    <dc:description>ignored second description</dc:description>
    <asn:educationLevel>Foundation Year</asn:educationLevel>
  </rdf:Description>
  <rdf:Description rdf:about="http://example.org/resources/S102#">
    <asn:isChildOf rdf:resource="http://example.org/resources/S101"/>
    <asn:isChildOf>http://example.org/resources/S100</asn:isChildOf>
    <asn:statementLabel>Elaboration</asn:statementLabel>
  </rdf:Description>
</rdf:RDF>`

func TestXMLAdapterParsesASN(t *testing.T) {
	recs, err := NewXMLAdapter(ASN).Parse(strings.NewReader(asnDoc))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	root := recs[0]
	assert.Equal(t, "S100", root.Identifier)
	assert.Equal(t, "Mathematics", root.DisplayName)
	assert.Equal(t, "Mathematics & numeracy", root.Description)
	assert.Empty(t, root.ParentRefs)
	assert.Equal(t, []Tag{{Key: "subject", Value: "Mathematics"}}, root.Tags)
	assert.False(t, root.IsLeafMarker)

	cd := recs[1]
	assert.Equal(t, "S101", cd.Identifier)
	assert.Equal(t, []string{"S100"}, cd.ParentRefs)
	assert.Equal(t, "ACMNA001", cd.Code)
	assert.True(t, cd.IsLeafMarker)
	// Character data inside nested markup is kept; the sanitiser strips the tags later.
	assert.Equal(t, "Establish understanding of the language of counting", cd.Description)
	assert.Equal(t, []Tag{{Key: "level", Value: "Foundation Year"}}, cd.Tags)

	el := recs[2]
	assert.Equal(t, "S102", el.Identifier)
	assert.Equal(t, []string{"S101", "S100"}, el.ParentRefs)
	assert.True(t, el.IsLeafMarker)
}

func TestXMLAdapterParsesSKOS(t *testing.T) {
	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:skos="http://www.w3.org/2004/02/skos/core#">
  <skos:Concept rdf:about="http://example.org/scheme#algebra">
    <skos:prefLabel xml:lang="en">Algebra</skos:prefLabel>
    <skos:scopeNote>Symbols and rules</skos:scopeNote>
    <skos:notation>ALG</skos:notation>
  </skos:Concept>
  <skos:Concept rdf:about="http://example.org/scheme#linear">
    <skos:prefLabel>Linear equations</skos:prefLabel>
    <skos:broader>
      <skos:Concept rdf:about="http://example.org/scheme#algebra"/>
    </skos:broader>
  </skos:Concept>
</rdf:RDF>`

	recs, err := NewXMLAdapter(SKOS).Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "algebra", recs[0].Identifier)
	assert.Equal(t, "Algebra", recs[0].DisplayName)
	assert.Equal(t, "Symbols and rules", recs[0].Description)
	assert.Equal(t, "ALG", recs[0].Code)

	assert.Equal(t, "linear", recs[1].Identifier)
	assert.Equal(t, []string{"algebra"}, recs[1].ParentRefs)

	// The inline concept is a record of its own.
	assert.Equal(t, "algebra", recs[2].Identifier)
}

func TestXMLAdapterRejectsRecordWithoutIdentifier(t *testing.T) {
	doc := `<RDF><Description about="a"/><Description><title>x</title></Description></RDF>`
	_, err := NewXMLAdapter(ASN).Parse(strings.NewReader(doc))
	require.Error(t, err)

	var me *pkgerrors.MalformedInputError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 1, me.Index)
	assert.True(t, errors.Is(err, pkgerrors.ErrMalformedInput))
}

func TestXMLAdapterRejectsBrokenDocuments(t *testing.T) {
	cases := map[string]string{
		"unclosed":   `<RDF><Description about="a">`,
		"no records": `<RDF><Other about="a"/></RDF>`,
		"empty":      ``,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewXMLAdapter(ASN).Parse(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, pkgerrors.ErrMalformedInput), err.Error())
		})
	}
}

func TestXMLAdapterRequiresRecordElement(t *testing.T) {
	_, err := NewXMLAdapter(Vocabulary{}).Parse(strings.NewReader(asnDoc))
	assert.True(t, errors.Is(err, pkgerrors.ErrMalformedInput))
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "S1234", LastSegment("http://asn.jesandco.org/resources/S1234"))
	assert.Equal(t, "frag", LastSegment("http://example.org/scheme#frag"))
	assert.Equal(t, "S1", LastSegment(" http://example.org/S1/ "))
	assert.Equal(t, "plain", LastSegment("plain"))
	assert.Equal(t, "", LastSegment("  "))
}
