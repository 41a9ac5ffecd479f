package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"legisrag/legislation"
)

func TestActAndRegulationURLExact(t *testing.T) {
	assert.Equal(t, "https://laws-lois.justice.gc.ca/eng/acts/C-46/page-1.html", ActURL("C-46", legislation.LangEN))
	assert.Equal(t, "https://laws-lois.justice.gc.ca/fra/lois/C-46/page-1.html", ActURL("C-46", legislation.LangFR))
	assert.Equal(t, "https://laws-lois.justice.gc.ca/eng/regulations/SOR-98-282/page-1.html", RegulationURL("SOR-98-282", legislation.LangEN))
	assert.Equal(t, "https://laws-lois.justice.gc.ca/fra/reglements/SOR-98-282/page-1.html", RegulationURL("SOR-98-282", legislation.LangFR))
}

func TestBuildSectionCitationExactURLs(t *testing.T) {
	c := Build(Input{
		SourceType:   legislation.SourceActSection,
		ActID:        "C-46",
		SectionLabel: "91",
		TitleEn:      "Criminal Code",
		TitleFr:      "Code criminel",
	})
	assert.Equal(t, "https://laws-lois.justice.gc.ca/eng/acts/C-46/page-1.html#sec91", c.UrlEn)
	assert.Equal(t, "https://laws-lois.justice.gc.ca/fra/lois/C-46/page-1.html#sec91", c.UrlFr)
	assert.Equal(t, "[Criminal Code, s 91]", c.TextEn)
	assert.Equal(t, "[Code criminel, art 91]", c.TextFr)
}

func TestSectionAnchorStripsPunctuation(t *testing.T) {
	assert.Equal(t, "91", sectionAnchor("91"))
	assert.Equal(t, "91a1", sectionAnchor("91(a)(1)"))
}

func TestBuildDispatchesBySourceType(t *testing.T) {
	tests := []struct {
		name       string
		sourceType legislation.SourceType
	}{
		{"act", legislation.SourceAct},
		{"regulation", legislation.SourceRegulation},
		{"act section", legislation.SourceActSection},
		{"regulation section", legislation.SourceRegulationSection},
		{"defined term", legislation.SourceDefinedTerm},
		{"cross reference", legislation.SourceCrossReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Build(Input{
				SourceType:   tt.sourceType,
				ActID:        "C-46",
				RegulationID: "SOR-98-282",
				SectionLabel: "3",
				TitleEn:      "Title EN",
				TitleFr:      "Title FR",
				Term:         "peace officer",
				TargetType:   legislation.SourceAct,
				TargetRef:    "C-46",
			})
			assert.Equal(t, tt.sourceType, c.SourceType)
			assert.NotEmpty(t, c.UrlEn)
			assert.NotEmpty(t, c.UrlFr)
		})
	}
}

func TestDefinedTermCitationFallsBackToRegulation(t *testing.T) {
	c := Build(Input{
		SourceType:   legislation.SourceDefinedTerm,
		RegulationID: "SOR-98-282",
		SectionLabel: "2",
		TitleEn:      "Some Regulations",
		TitleFr:      "Un règlement",
		Term:         "vehicle",
	})
	assert.Contains(t, c.UrlEn, "/regulations/SOR-98-282/")
	assert.Equal(t, `["vehicle" - Some Regulations, s 2]`, c.TextEn)
}
