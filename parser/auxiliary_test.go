package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legisrag/legislation"
	"legisrag/xmlmodel"
)

// buildStatute assembles a minimal Statute document exercising every
// auxiliary record family a walkNode pass should emit (spec §3.1, §4.A.2).
func buildStatute() *xmlmodel.Node {
	identification := elNode("Identification", nil, elNode("ShortTitle", nil, textNode("Criminal Code")))

	section := elNode("Section", nil,
		elNode("Label", nil, textNode("91")),
		elNode("MarginalNote", nil, textNode("Unauthorized possession")),
		elNode("Text", nil,
			textNode("Every person commits an offence who contravenes "),
			elNode("XRefInternal", map[string]string{"ref": "92"}, textNode("section 92")),
			elNode("Footnote", nil, textNode("See also the regulations.")),
		),
	)

	schedule := elNode("Schedule", map[string]string{"id": "I"},
		elNode("Label", nil, textNode("Schedule I")),
	)

	body := elNode("Body", nil,
		elNode("Preamble", nil, textNode("Whereas it is desirable to consolidate and amend the law...")),
		section,
		schedule,
	)

	return elNode("Statute", map[string]string{"id": "C-46"}, identification, body)
}

func TestParseEmitsCrossReferenceAttributedToEnclosingSection(t *testing.T) {
	doc, err := Parse(buildStatute(), LangEN)
	require.NoError(t, err)
	require.Len(t, doc.CrossReferences, 1)

	xref := doc.CrossReferences[0]
	assert.Equal(t, "C-46", xref.SourceDocID)
	assert.Equal(t, "91", xref.SourceSectionLabel)
	assert.Equal(t, legislation.SourceAct, xref.TargetType)
	assert.Equal(t, "92", xref.TargetRef)
}

func TestParseEmitsFootnoteAttributedToEnclosingSection(t *testing.T) {
	doc, err := Parse(buildStatute(), LangEN)
	require.NoError(t, err)
	require.Len(t, doc.Footnotes, 1)
	assert.Equal(t, "91", doc.Footnotes[0].SectionLabel)
	assert.Contains(t, doc.Footnotes[0].Content, "regulations")
}

func TestParseEmitsPreamble(t *testing.T) {
	doc, err := Parse(buildStatute(), LangEN)
	require.NoError(t, err)
	require.Len(t, doc.Preambles, 1)
	assert.Contains(t, doc.Preambles[0].Content, "consolidate")
	assert.Equal(t, 1, doc.Preambles[0].PairingIndex)
}

func TestParseEmitsScheduleRecordDistinctFromSyntheticSections(t *testing.T) {
	doc, err := Parse(buildStatute(), LangEN)
	require.NoError(t, err)
	require.Len(t, doc.Schedules, 1)
	assert.Equal(t, "Schedule I", doc.Schedules[0].Label)
}

func TestParseEmitsMarginalNoteRecordAlongsideSection(t *testing.T) {
	doc, err := Parse(buildStatute(), LangEN)
	require.NoError(t, err)
	require.Len(t, doc.MarginalNotes, 1)
	assert.Equal(t, "91", doc.MarginalNotes[0].SectionLabel)
	assert.Equal(t, "Unauthorized possession", doc.MarginalNotes[0].Content)
}

func TestEmitCrossReferenceDetectsRegulationTarget(t *testing.T) {
	st := &docState{docID: "C-46", lang: LangEN, doc: &legislation.ParsedDocument{}}
	st.currentSectionLabel = "3"
	st.emitCrossReference(elNode("XRefExternal", map[string]string{"type": "regulation", "ref": "SOR-98-282"}))

	require.Len(t, st.doc.CrossReferences, 1)
	xref := st.doc.CrossReferences[0]
	assert.Equal(t, legislation.SourceRegulation, xref.TargetType)
	assert.Equal(t, "SOR-98-282", xref.TargetRef)
	assert.Equal(t, "3", xref.SourceSectionLabel)
}
