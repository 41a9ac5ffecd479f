// Package hydrate implements the Hydrator (spec §4.I): it renders stored
// resources back into Markdown, at document granularity (acts/regulations)
// or single-source granularity, with language fallback and size caps.
package hydrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"

	"legisrag/legislation"
	"legisrag/search"
	"legisrag/store"
)

// Hydrated is one rendered document or source, with an optional note when
// the stored record had to be fetched in the non-preferred language.
type Hydrated struct {
	Markdown string
	HTML     string
	Note     string
}

// Hydrator renders stored legislation back to Markdown (spec §4.I).
type Hydrator struct {
	store                *store.Store
	maxSections          int
	maxMarkdownSize       int
	tocMinSections       int
	tocMaxEntries        int
}

func New(s *store.Store, maxSections, maxMarkdownSize, tocMinSections, tocMaxEntries int) *Hydrator {
	return &Hydrator{
		store:           s,
		maxSections:     maxSections,
		maxMarkdownSize: maxMarkdownSize,
		tocMinSections:  tocMinSections,
		tocMaxEntries:   tocMaxEntries,
	}
}

// docMeta is the minimal metadata the hydrator needs about an act or
// regulation to render its header (fetched via a metadata-only query).
type docMeta struct {
	Title            string
	LongTitle        string
	Status           legislation.Status
	ConsolidationDate string
	EnablingActTitle string
	IsRegulation     bool
	Language         legislation.Language
}

// HydrateDocument implements spec §4.I.1: look up the document in the
// preferred language (falling back to the opposite language on miss), fetch
// up to maxSections sections, format Markdown with title/metadata/TOC, and
// enforce the hard size cap.
func (h *Hydrator) HydrateDocument(ctx context.Context, docID string, isRegulation bool, preferredLang legislation.Language) (*Hydrated, error) {
	sourceType := legislation.SourceAct
	if isRegulation {
		sourceType = legislation.SourceRegulation
	}

	meta, langUsed, err := h.lookupDocMeta(ctx, docID, sourceType, preferredLang)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, nil
	}

	sectionType := legislation.SourceActSection
	if isRegulation {
		sectionType = legislation.SourceRegulationSection
	}

	sections, total, err := h.fetchSections(ctx, docID, sectionType, langUsed)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", meta.Title)
	if meta.LongTitle != "" {
		fmt.Fprintf(&b, "*%s*\n\n", meta.LongTitle)
	}
	if len(sections) < total {
		fmt.Fprintf(&b, "> Showing %d of %d sections.\n\n", len(sections), total)
	}

	fmt.Fprintf(&b, "- Status: %s\n", meta.Status)
	if meta.ConsolidationDate != "" {
		fmt.Fprintf(&b, "- Consolidation date: %s\n", meta.ConsolidationDate)
	}
	if isRegulation && meta.EnablingActTitle != "" {
		fmt.Fprintf(&b, "- Enabling act: %s\n", meta.EnablingActTitle)
	}
	b.WriteString("\n")

	if len(sections) > h.tocMinSections {
		writeTOC(&b, sections, h.tocMaxEntries, langUsed)
	}

	note := ""
	if langUsed != preferredLang {
		note = fmt.Sprintf("Document unavailable in %s; showing %s version instead.", preferredLang, langUsed)
	}

	for _, sec := range sections {
		heading := formatSectionHeading(sec, langUsed)
		if b.Len()+len(heading)+len(sec.Content) > h.maxMarkdownSize {
			b.WriteString("\n> Content truncated: document exceeds maximum size.\n")
			break
		}
		b.WriteString(heading)
		b.WriteString("\n\n")
		b.WriteString(sec.Content)
		b.WriteString("\n\n")
	}

	md := b.String()
	return &Hydrated{
		Markdown: md,
		HTML:     string(markdown.ToHTML([]byte(md), nil, nil)),
		Note:     note,
	}, nil
}

type sectionView struct {
	Label        string
	SectionType  legislation.SectionType
	MarginalNote string
	Content      string
}

func (h *Hydrator) lookupDocMeta(ctx context.Context, docID string, sourceType legislation.SourceType, preferredLang legislation.Language) (*docMeta, legislation.Language, error) {
	for _, lang := range []legislation.Language{preferredLang, oppositeLanguage(preferredLang)} {
		q := store.MetadataQuery{Language: lang, SourceType: sourceType, Limit: 1}
		if sourceType == legislation.SourceAct {
			q.ActID = docID
		} else {
			q.RegulationID = docID
		}
		resources, err := h.store.SearchByMetadata(ctx, q)
		if err != nil {
			return nil, "", err
		}
		if len(resources) == 0 {
			continue
		}
		r := resources[0]
		return &docMeta{
			Title:             r.Metadata.Title,
			LongTitle:         r.Metadata.LongTitle,
			Status:            r.Metadata.Status,
			ConsolidationDate: formatDate(r.Metadata.ConsolidationDate),
			EnablingActTitle:  r.Metadata.EnablingActTitle,
			IsRegulation:      sourceType == legislation.SourceRegulation,
			Language:          lang,
		}, lang, nil
	}
	return nil, "", nil
}

func (h *Hydrator) fetchSections(ctx context.Context, docID string, sectionType legislation.SourceType, lang legislation.Language) ([]sectionView, int, error) {
	q := store.MetadataQuery{Language: lang, SourceType: sectionType, Limit: h.maxSections}
	if sectionType == legislation.SourceActSection {
		q.ActID = docID
	} else {
		q.RegulationID = docID
	}
	resources, err := h.store.SearchByMetadata(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	total, err := h.store.CountByMetadata(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	out := make([]sectionView, 0, len(resources))
	for _, r := range resources {
		out = append(out, sectionView{
			Label:        r.Metadata.SectionLabel,
			SectionType:  r.Metadata.SectionType,
			MarginalNote: r.Metadata.MarginalNote,
			Content:      r.Content,
		})
	}
	return out, total, nil
}

// formatSectionHeading implements spec §4.I.1's sectionType-sensitive
// heading rule.
func formatSectionHeading(sec sectionView, lang legislation.Language) string {
	switch sec.SectionType {
	case legislation.SectionTypeHeading:
		return fmt.Sprintf("## %s — %s", sec.Label, sec.MarginalNote)
	case legislation.SectionTypeSchedule:
		return fmt.Sprintf("## %s\n*%s*", sec.Label, sec.MarginalNote)
	default:
		if lang == legislation.LangFR {
			return fmt.Sprintf("### Article %s — %s", sec.Label, sec.MarginalNote)
		}
		return fmt.Sprintf("### Section %s — %s", sec.Label, sec.MarginalNote)
	}
}

// writeTOC implements the table-of-contents block from spec §4.I.1: only
// emitted when section count exceeds tocMinSections, capped at
// tocMaxEntries, headings rendered as "**{label}** {note}", everything else
// as "- {label} — {note}".
func writeTOC(b *strings.Builder, sections []sectionView, maxEntries int, lang legislation.Language) {
	heading := "Table of contents"
	if lang == legislation.LangFR {
		heading = "Table des matières"
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	n := len(sections)
	if n > maxEntries {
		n = maxEntries
	}
	for _, sec := range sections[:n] {
		if sec.SectionType == legislation.SectionTypeHeading {
			fmt.Fprintf(b, "**%s** %s\n", sec.Label, sec.MarginalNote)
		} else {
			fmt.Fprintf(b, "- %s — %s\n", sec.Label, sec.MarginalNote)
		}
	}
	b.WriteString("\n")
}

func oppositeLanguage(lang legislation.Language) legislation.Language {
	if lang == legislation.LangEN {
		return legislation.LangFR
	}
	return legislation.LangEN
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// HydrateSingleSource implements the generic factory from spec §4.I.2: the
// caller supplies the result and a formatter; HydrateSingleSource takes
// langUsed from the result's own language, calls the formatter, and
// attaches a fixed bilingual-fallback note when langUsed differs from
// preferredLang.
func HydrateSingleSource(r search.Result, preferredLang legislation.Language, format func(search.Result, legislation.Language) string) *Hydrated {
	langUsed := r.Language
	md := format(r, langUsed)
	note := ""
	if langUsed != preferredLang {
		note = fmt.Sprintf("Source stored only in %s; showing that version.", langUsed)
	}
	return &Hydrated{
		Markdown: md,
		HTML:     string(markdown.ToHTML([]byte(md), nil, nil)),
		Note:     note,
	}
}

// HydrateTopSource implements spec §4.I.3: always returns a slice of length
// 0 or 1 (spec §8 invariant 9).
func (h *Hydrator) HydrateTopSource(ctx context.Context, results []search.Result, preferredLang legislation.Language) ([]*Hydrated, error) {
	if len(results) == 0 {
		return nil, nil
	}
	top := results[0]

	if top.SourceType == legislation.SourceDefinedTerm {
		hyd := HydrateSingleSource(top, preferredLang, defaultFormatter)
		return []*Hydrated{hyd}, nil
	}

	for _, r := range results {
		if r.Metadata.ActID != "" {
			hyd, err := h.HydrateDocument(ctx, r.Metadata.ActID, false, preferredLang)
			if err != nil {
				return nil, err
			}
			if hyd != nil {
				return []*Hydrated{hyd}, nil
			}
		}
	}

	for _, r := range results {
		if r.Metadata.RegulationID != "" {
			hyd, err := h.HydrateDocument(ctx, r.Metadata.RegulationID, true, preferredLang)
			if err != nil {
				return nil, err
			}
			if hyd != nil {
				return []*Hydrated{hyd}, nil
			}
		}
	}

	hyd := HydrateSingleSource(top, preferredLang, defaultFormatter)
	return []*Hydrated{hyd}, nil
}

func defaultFormatter(r search.Result, lang legislation.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n%s\n", r.Metadata.Title, r.Content)
	return b.String()
}
