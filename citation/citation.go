// Package citation implements the Citation Builder (spec §4.E): one builder
// per source type, dispatched by a single function, producing bilingual
// citation objects with bit-exact public URLs.
package citation

import (
	"fmt"
	"regexp"
	"strings"

	"legisrag/legislation"
)

// Citation is the Citation Builder's output shape (spec §4.E). ID is
// assigned by the assembler (§4.H), not here.
type Citation struct {
	ID         int
	PrefixedID string
	TextEn     string
	TextFr     string
	UrlEn      string
	UrlFr      string
	TitleEn    string
	TitleFr    string
	SourceType legislation.SourceType
}

const baseURL = "https://laws-lois.justice.gc.ca"

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// sectionAnchor strips non-alphanumerics from a section label to build the
// "#sec{label}" anchor (spec §4.E).
func sectionAnchor(label string) string {
	return nonAlphanumeric.ReplaceAllString(label, "")
}

// ActURL builds the bit-exact act URL for a language (spec §4.E).
func ActURL(actID string, lang legislation.Language) string {
	seg := "acts"
	langSeg := "eng"
	if lang == legislation.LangFR {
		seg = "lois"
		langSeg = "fra"
	}
	return fmt.Sprintf("%s/%s/%s/%s/page-1.html", baseURL, langSeg, seg, actID)
}

// RegulationURL builds the bit-exact regulation URL for a language.
func RegulationURL(regulationID string, lang legislation.Language) string {
	seg := "regulations"
	langSeg := "eng"
	if lang == legislation.LangFR {
		seg = "reglements"
		langSeg = "fra"
	}
	return fmt.Sprintf("%s/%s/%s/%s/page-1.html", baseURL, langSeg, seg, regulationID)
}

// SectionURL appends a "#sec{label}" anchor to a document URL.
func SectionURL(docURL, sectionLabel string) string {
	if sectionLabel == "" {
		return docURL
	}
	return fmt.Sprintf("%s#sec%s", docURL, sectionAnchor(sectionLabel))
}

// Input is the metadata the dispatcher needs to build one citation;
// callers populate only the fields relevant to SourceType.
type Input struct {
	SourceType   legislation.SourceType
	ActID        string
	RegulationID string
	SectionLabel string
	TitleEn      string
	TitleFr      string
	Term         string
	MarginalNote string
	// TargetType/TargetRef are used for SourceCrossReference.
	TargetType legislation.SourceType
	TargetRef  string
}

// Build dispatches to the source-type-specific builder (spec §4.E).
func Build(in Input) Citation {
	switch in.SourceType {
	case legislation.SourceAct:
		return buildActCitation(in)
	case legislation.SourceRegulation:
		return buildRegulationCitation(in)
	case legislation.SourceActSection:
		return buildSectionCitation(in, in.ActID, ActURL)
	case legislation.SourceRegulationSection:
		return buildSectionCitation(in, in.RegulationID, RegulationURL)
	case legislation.SourceDefinedTerm:
		return buildDefinedTermCitation(in)
	case legislation.SourceCrossReference:
		return buildCrossReferenceCitation(in)
	default:
		return buildGenericCitation(in)
	}
}

func buildActCitation(in Input) Citation {
	return Citation{
		SourceType: in.SourceType,
		TextEn:     fmt.Sprintf("[%s]", in.TitleEn),
		TextFr:     fmt.Sprintf("[%s]", in.TitleFr),
		UrlEn:      ActURL(in.ActID, legislation.LangEN),
		UrlFr:      ActURL(in.ActID, legislation.LangFR),
		TitleEn:    in.TitleEn,
		TitleFr:    in.TitleFr,
	}
}

func buildRegulationCitation(in Input) Citation {
	return Citation{
		SourceType: in.SourceType,
		TextEn:     fmt.Sprintf("[%s]", in.TitleEn),
		TextFr:     fmt.Sprintf("[%s]", in.TitleFr),
		UrlEn:      RegulationURL(in.RegulationID, legislation.LangEN),
		UrlFr:      RegulationURL(in.RegulationID, legislation.LangFR),
		TitleEn:    in.TitleEn,
		TitleFr:    in.TitleFr,
	}
}

func buildSectionCitation(in Input, docID string, urlFn func(string, legislation.Language) string) Citation {
	urlEn := SectionURL(urlFn(docID, legislation.LangEN), in.SectionLabel)
	urlFr := SectionURL(urlFn(docID, legislation.LangFR), in.SectionLabel)
	return Citation{
		SourceType: in.SourceType,
		TextEn:     fmt.Sprintf("[%s, s %s]", in.TitleEn, in.SectionLabel),
		TextFr:     fmt.Sprintf("[%s, art %s]", in.TitleFr, in.SectionLabel),
		UrlEn:      urlEn,
		UrlFr:      urlFr,
		TitleEn:    in.TitleEn,
		TitleFr:    in.TitleFr,
	}
}

func buildDefinedTermCitation(in Input) Citation {
	docID := in.ActID
	urlFn := ActURL
	if docID == "" {
		docID = in.RegulationID
		urlFn = RegulationURL
	}
	urlEn := SectionURL(urlFn(docID, legislation.LangEN), in.SectionLabel)
	urlFr := SectionURL(urlFn(docID, legislation.LangFR), in.SectionLabel)
	return Citation{
		SourceType: in.SourceType,
		TextEn:     fmt.Sprintf("[%q - %s, s %s]", in.Term, in.TitleEn, in.SectionLabel),
		TextFr:     fmt.Sprintf("[%q - %s, art %s]", in.Term, in.TitleFr, in.SectionLabel),
		UrlEn:      urlEn,
		UrlFr:      urlFr,
		TitleEn:    in.TitleEn,
		TitleFr:    in.TitleFr,
	}
}

func buildCrossReferenceCitation(in Input) Citation {
	var urlEn, urlFr string
	switch in.TargetType {
	case legislation.SourceRegulation:
		urlEn, urlFr = RegulationURL(in.TargetRef, legislation.LangEN), RegulationURL(in.TargetRef, legislation.LangFR)
	default:
		urlEn, urlFr = ActURL(in.TargetRef, legislation.LangEN), ActURL(in.TargetRef, legislation.LangFR)
	}
	return Citation{
		SourceType: in.SourceType,
		TextEn:     fmt.Sprintf("[ref. %s]", in.TargetRef),
		TextFr:     fmt.Sprintf("[réf. %s]", in.TargetRef),
		UrlEn:      urlEn,
		UrlFr:      urlFr,
		TitleEn:    in.TitleEn,
		TitleFr:    in.TitleFr,
	}
}

func buildGenericCitation(in Input) Citation {
	docID := in.ActID
	urlFn := ActURL
	if docID == "" {
		docID = in.RegulationID
		urlFn = RegulationURL
	}
	label := strings.TrimSpace(in.TitleEn)
	return Citation{
		SourceType: in.SourceType,
		TextEn:     fmt.Sprintf("[%s]", label),
		TextFr:     fmt.Sprintf("[%s]", in.TitleFr),
		UrlEn:      SectionURL(urlFn(docID, legislation.LangEN), in.SectionLabel),
		UrlFr:      SectionURL(urlFn(docID, legislation.LangFR), in.SectionLabel),
		TitleEn:    in.TitleEn,
		TitleFr:    in.TitleFr,
	}
}
