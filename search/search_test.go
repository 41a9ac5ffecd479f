package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"legisrag/legislation"
)

func TestDeduplicateKeepsHighestSimilarity(t *testing.T) {
	results := []Result{
		{
			SourceType: legislation.SourceActSection,
			Language:   legislation.LangEN,
			Metadata:   legislation.ResourceMetadata{ActID: "C-46", SectionLabel: "91"},
			ResourceKey: "act_section:C-46:en:0",
			Similarity:  0.42,
		},
		{
			SourceType: legislation.SourceActSection,
			Language:   legislation.LangEN,
			Metadata:   legislation.ResourceMetadata{ActID: "C-46", SectionLabel: "91"},
			ResourceKey: "act_section:C-46:en:0",
			Similarity:  0.88,
		},
		{
			SourceType: legislation.SourceActSection,
			Language:   legislation.LangEN,
			Metadata:   legislation.ResourceMetadata{ActID: "C-46", SectionLabel: "92"},
			ResourceKey: "act_section:C-46:en:1",
			Similarity:  0.5,
		},
	}

	deduped := Deduplicate(results)

	assert.Len(t, deduped, 2)
	for _, r := range deduped {
		if r.Metadata.SectionLabel == "91" {
			assert.Equal(t, 0.88, r.Similarity)
		}
	}
}

func TestDeduplicateDistinguishesByFullKey(t *testing.T) {
	results := []Result{
		{SourceType: legislation.SourceActSection, Language: legislation.LangEN, Metadata: legislation.ResourceMetadata{ActID: "C-46", SectionLabel: "91"}, ResourceKey: "a"},
		{SourceType: legislation.SourceActSection, Language: legislation.LangFR, Metadata: legislation.ResourceMetadata{ActID: "C-46", SectionLabel: "91"}, ResourceKey: "b"},
		{SourceType: legislation.SourceRegulationSection, Language: legislation.LangEN, Metadata: legislation.ResourceMetadata{RegulationID: "SOR-98-282", SectionLabel: "91"}, ResourceKey: "c"},
	}

	deduped := Deduplicate(results)

	assert.Len(t, deduped, 3)
}

func TestCacheKeyStableForEquivalentOptions(t *testing.T) {
	opts := Options{Limit: 10, SimilarityThreshold: 0.3, Language: legislation.LangEN, ActID: "C-46"}
	assert.Equal(t, cacheKey("peace officer", opts), cacheKey("peace officer", opts))
}

func TestCacheKeyDiffersOnQueryOrOptions(t *testing.T) {
	opts := Options{Limit: 10, SimilarityThreshold: 0.3, Language: legislation.LangEN, ActID: "C-46"}
	other := opts
	other.ActID = "C-47"

	assert.NotEqual(t, cacheKey("peace officer", opts), cacheKey("vehicle", opts))
	assert.NotEqual(t, cacheKey("peace officer", opts), cacheKey("peace officer", other))
}
