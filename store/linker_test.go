package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legisrag/legislation"
)

func TestLinkPairsBySourceID(t *testing.T) {
	en := &IndexInput{SourceType: legislation.SourceActSection, SourceID: "C-46/91", Language: legislation.LangEN, ChunkIndex: 0}
	fr := &IndexInput{SourceType: legislation.SourceActSection, SourceID: "C-46/91", Language: legislation.LangFR, ChunkIndex: 0}
	unrelated := &IndexInput{SourceType: legislation.SourceActSection, SourceID: "C-46/92", Language: legislation.LangEN, ChunkIndex: 0}

	LinkPairs([]*IndexInput{en, fr, unrelated})

	require.NotEmpty(t, en.PairedResourceKey)
	assert.Equal(t, fr.ResourceKey, en.PairedResourceKey)
	assert.Equal(t, en.ResourceKey, fr.PairedResourceKey)
	assert.Empty(t, unrelated.PairedResourceKey)
}

func TestLinkPairsTranslatesRegulationID(t *testing.T) {
	en := &IndexInput{SourceType: legislation.SourceRegulation, SourceID: "SOR-98-282", Language: legislation.LangEN, ChunkIndex: 0, IsRegulationID: true}
	fr := &IndexInput{SourceType: legislation.SourceRegulation, SourceID: "DORS-98-282", Language: legislation.LangFR, ChunkIndex: 0, IsRegulationID: true}

	LinkPairs([]*IndexInput{en, fr})

	require.NotEmpty(t, en.PairedResourceKey)
	assert.Equal(t, fr.ResourceKey, en.PairedResourceKey)
	assert.Equal(t, en.ResourceKey, fr.PairedResourceKey)
}

func TestLinkPairsDefinedTermsByNormalizedTerm(t *testing.T) {
	en := &IndexInput{SourceType: legislation.SourceDefinedTerm, SourceID: "C-46:91:peace officer", DocID: "C-46", Language: legislation.LangEN, TermNormalized: "peace officer"}
	fr := &IndexInput{SourceType: legislation.SourceDefinedTerm, SourceID: "C-46:91:agent de la paix", DocID: "C-46", Language: legislation.LangFR, TermNormalized: "peace officer"}
	other := &IndexInput{SourceType: legislation.SourceDefinedTerm, SourceID: "C-46:92:vehicle", DocID: "C-46", Language: legislation.LangFR, TermNormalized: "vehicule"}

	LinkPairs([]*IndexInput{en, fr, other})

	require.NotEmpty(t, en.PairedResourceKey)
	assert.Equal(t, fr.ResourceKey, en.PairedResourceKey)
	assert.Empty(t, other.PairedResourceKey)
}
