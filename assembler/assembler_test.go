package assembler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legisrag/citation"
	"legisrag/legislation"
	"legisrag/search"
)

func stubCitationOf(r search.Result) citation.Citation {
	return citation.Build(citation.Input{
		SourceType:   r.SourceType,
		ActID:        r.Metadata.ActID,
		SectionLabel: r.Metadata.SectionLabel,
		TitleEn:      "Criminal Code",
		TitleFr:      "Code criminel",
	})
}

func TestAssembleAssignsSequentialCitationIDs(t *testing.T) {
	results := []search.Result{
		{SourceType: legislation.SourceActSection, ResourceKey: "a", Content: "First section text.", Metadata: legislation.ResourceMetadata{ActID: "C-46", SectionLabel: "1"}},
		{SourceType: legislation.SourceActSection, ResourceKey: "b", Content: "Second section text.", Metadata: legislation.ResourceMetadata{ActID: "C-46", SectionLabel: "2"}},
		{SourceType: legislation.SourceActSection, ResourceKey: "c", Content: "Third section text.", Metadata: legislation.ResourceMetadata{ActID: "C-46", SectionLabel: "3"}},
	}

	out := Assemble(results, legislation.LangEN, stubCitationOf)

	require.Len(t, out.Citations, 3)
	for i, c := range out.Citations {
		assert.Equal(t, i+1, c.ID)
		assert.Equal(t, fmt.Sprintf("L%d", i+1), c.PrefixedID)
	}
}

func TestAssembleSkipsDuplicateSnippetsCaseInsensitively(t *testing.T) {
	results := []search.Result{
		{SourceType: legislation.SourceActSection, ResourceKey: "a", Content: "Everyone who commits an offence is guilty.", Metadata: legislation.ResourceMetadata{ActID: "C-46", SectionLabel: "1"}},
		{SourceType: legislation.SourceActSection, ResourceKey: "b", Content: "EVERYONE WHO COMMITS AN OFFENCE IS GUILTY.", Metadata: legislation.ResourceMetadata{ActID: "C-46", SectionLabel: "2"}},
	}

	out := Assemble(results, legislation.LangEN, stubCitationOf)

	assert.Len(t, out.Citations, 1)
}

func TestAssemblePromptHeaderAndSourcesBlockByLanguage(t *testing.T) {
	results := []search.Result{
		{SourceType: legislation.SourceActSection, ResourceKey: "a", Content: "Some text.", Metadata: legislation.ResourceMetadata{ActID: "C-46", SectionLabel: "91"}},
	}

	en := Assemble(results, legislation.LangEN, stubCitationOf)
	assert.True(t, strings.HasPrefix(en.Prompt, "Legislative context:\n"))
	assert.Contains(t, en.Prompt, "[L1] (act_section) Criminal Code, s 91\n")
	assert.Contains(t, en.Prompt, "Sources:\n")

	fr := Assemble(results, legislation.LangFR, stubCitationOf)
	assert.True(t, strings.HasPrefix(fr.Prompt, "Contexte législatif:\n"))
	assert.Contains(t, fr.Prompt, "[L1] (act_section) Code criminel, art 91\n")
}

func TestBuildSnippetExtendsBackToSentenceBoundaryPastLookback(t *testing.T) {
	content := strings.Repeat("A", 300) + ". " + strings.Repeat("B", 300)

	snippet, truncated := buildSnippet(content)

	assert.True(t, truncated)
	assert.NotContains(t, snippet, "B")
	assert.True(t, strings.HasSuffix(snippet, ". "))
}

func TestBuildSnippetRawCutWhenBoundaryBeforeLookback(t *testing.T) {
	content := strings.Repeat("A", 50) + ". " + strings.Repeat("B", 600)

	snippet, truncated := buildSnippet(content)

	assert.True(t, truncated)
	assert.Equal(t, snippetCutoff, len([]rune(snippet)))
	assert.Contains(t, snippet, "B")
}

func TestBuildSnippetNoTruncationForShortContent(t *testing.T) {
	snippet, truncated := buildSnippet("Short content that fits easily.")

	assert.False(t, truncated)
	assert.Equal(t, "Short content that fits easily.", snippet)
}

func TestFlattenWhitespaceCollapsesRuns(t *testing.T) {
	assert.Equal(t, "a b c", flattenWhitespace("a   b\n\t c"))
}
