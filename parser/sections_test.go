package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"legisrag/legislation"
	"legisrag/xmlmodel"
)

func textNode(s string) *xmlmodel.Node {
	return &xmlmodel.Node{Text: s}
}

func elNode(tag string, attrs map[string]string, children ...*xmlmodel.Node) *xmlmodel.Node {
	return &xmlmodel.Node{Tag: tag, Attrs: attrs, Children: children}
}

// repealedOnlyTextNode simulates <Text><Repealed>[Repealed]</Repealed></Text> with no other
// substantive content (spec §4.A.7 test scenario A).
func repealedOnlyTextNode() *xmlmodel.Node {
	return elNode("Text", nil, elNode("Repealed", nil, textNode("[Repealed]")))
}

// mixedTextNode simulates a section where some subcontent is repealed but
// other substantive text remains (spec §4.A.7 test scenario B).
func mixedTextNode() *xmlmodel.Node {
	return elNode("Text", nil,
		elNode("Repealed", nil, textNode("[Repealed]")),
		textNode("This subsection remains in force."),
	)
}

func TestIsRepealedAllRepealedChildren(t *testing.T) {
	assert.True(t, isRepealed(repealedOnlyTextNode()))
}

func TestIsRepealedMixedSubstantiveAndRepealed(t *testing.T) {
	assert.False(t, isRepealed(mixedTextNode()))
}

func TestIsRepealedNilTextNode(t *testing.T) {
	assert.False(t, isRepealed(nil))
}

func TestIsRepealedNoRepealedMarker(t *testing.T) {
	textOnly := elNode("Text", nil, textNode("Ordinary substantive text."))
	assert.False(t, isRepealed(textOnly))
}

func TestResolveSectionTypeExplicitAmendingAttribute(t *testing.T) {
	n := elNode("Section", map[string]string{"type": "amending"})
	assert.Equal(t, legislation.SectionTypeAmending, resolveSectionType(n, legislation.SectionTypeSection, ""))

	n2 := elNode("Section", map[string]string{"type": "CIF"})
	assert.Equal(t, legislation.SectionTypeAmending, resolveSectionType(n2, legislation.SectionTypeSection, ""))
}

func TestResolveSectionTypeScheduleContext(t *testing.T) {
	n := elNode("Section", nil)
	assert.Equal(t, legislation.SectionTypeAmending, resolveSectionType(n, legislation.SectionTypeSection, "NifProvs"))
	assert.Equal(t, legislation.SectionTypeAmending, resolveSectionType(n, legislation.SectionTypeSection, "Amending"))
}

func TestResolveSectionTypeDefaultsWhenNoSignal(t *testing.T) {
	n := elNode("Section", nil)
	assert.Equal(t, legislation.SectionTypeSection, resolveSectionType(n, legislation.SectionTypeSection, ""))
	assert.Equal(t, legislation.SectionTypeSchedule, resolveSectionType(n, legislation.SectionTypeSchedule, "SomeOtherSchedule"))
}

func TestBuildCanonicalSectionIDWithAndWithoutSchedule(t *testing.T) {
	withoutSchedule := buildCanonicalSectionID("C-46", LangEN, legislation.SectionTypeSection, 3, "", "91")
	assert.Equal(t, "C-46/en/section/3/s91", withoutSchedule)

	withSchedule := buildCanonicalSectionID("C-46", LangEN, legislation.SectionTypeSchedule, 3, "I", "91")
	assert.Equal(t, "C-46/en/schedule/3/sch-I/s91", withSchedule)
}

// TestCanonicalSectionIDUniqueAcrossSchedules checks spec §8 invariant 1:
// sections in different schedules with the same label never collide.
func TestCanonicalSectionIDUniqueAcrossSchedules(t *testing.T) {
	a := buildCanonicalSectionID("C-46", LangEN, legislation.SectionTypeSchedule, 10, "I", "1")
	b := buildCanonicalSectionID("C-46", LangEN, legislation.SectionTypeSchedule, 20, "II", "1")
	assert.NotEqual(t, a, b)
}
