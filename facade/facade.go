// Package facade implements the Retrieval Facade (spec §4.J, §6.2): the
// single entrypoint callers use, composing search, rerank, assembly, and
// hydration.
package facade

import (
	"context"
	"strings"

	"legisrag/assembler"
	"legisrag/citation"
	"legisrag/hydrate"
	"legisrag/legislation"
	"legisrag/rerank"
	"legisrag/search"
	"legisrag/store"
)

// Facade ties every retrieval component together behind the §6.2 API.
type Facade struct {
	search  *search.Engine
	rerank  *rerank.Client
	hydrate *hydrate.Hydrator
	store   *store.Store

	contextSearchLimit int
}

func New(searchEngine *search.Engine, rerankClient *rerank.Client, hydrator *hydrate.Hydrator, st *store.Store, contextSearchLimit int) *Facade {
	if contextSearchLimit <= 0 {
		contextSearchLimit = 50
	}
	return &Facade{
		search:             searchEngine,
		rerank:             rerankClient,
		hydrate:            hydrator,
		store:              st,
		contextSearchLimit: contextSearchLimit,
	}
}

// Context is getContext's output shape (spec §4.J).
type Context struct {
	Language        legislation.Language
	Prompt          string
	Citations       []citation.Citation
	HydratedSources []string
}

// GetContext implements getContext(query, limit) → {language, prompt,
// citations, hydratedSources} (spec §4.J).
func (f *Facade) GetContext(ctx context.Context, query string, limit int) (*Context, error) {
	lang := DetectLanguage(query)

	results, err := f.search.Search(ctx, query, search.Options{Limit: f.contextSearchLimit, Language: lang})
	if err != nil {
		return nil, err
	}

	candidates := make([]rerank.Candidate, len(results))
	for i, r := range results {
		candidates[i] = rerank.Candidate{ID: r.ResourceKey, Content: r.Content, OriginalSimilarity: r.Similarity}
	}
	modelVariant := rerankModelFor(lang)
	reranked := f.rerank.Rerank(ctx, query, candidates, limit, modelVariant)

	byKey := make(map[string]search.Result, len(results))
	for _, r := range results {
		byKey[r.ResourceKey] = r
	}
	merged := make([]search.Result, 0, len(reranked))
	for _, c := range reranked {
		if r, ok := byKey[c.ID]; ok {
			r.Similarity = c.RerankScore
			merged = append(merged, r)
		}
	}

	assembled := assembler.Assemble(merged, lang, citationOf)

	hydrated, err := f.hydrate.HydrateTopSource(ctx, merged, lang)
	if err != nil {
		return nil, err
	}
	hydratedMarkdown := make([]string, 0, len(hydrated))
	for _, h := range hydrated {
		hydratedMarkdown = append(hydratedMarkdown, h.Markdown)
	}

	return &Context{
		Language:        lang,
		Prompt:          assembled.Prompt,
		Citations:       assembled.Citations,
		HydratedSources: hydratedMarkdown,
	}, nil
}

func rerankModelFor(lang legislation.Language) string {
	if lang == legislation.LangFR {
		return "cross-encoder-fr"
	}
	return "cross-encoder-en"
}

// DetectLanguage implements spec §4.J step 1: a heuristic counting
// French-distinctive words and accent characters, defaulting to English.
func DetectLanguage(query string) legislation.Language {
	lower := strings.ToLower(query)
	score := 0
	for _, word := range frenchWords {
		if strings.Contains(lower, word) {
			score++
		}
	}
	for _, r := range lower {
		switch r {
		case 'é', 'è', 'ê', 'à', 'ù', 'ç', 'ô', 'î', 'â', 'ë', 'ï', 'ü':
			score++
		}
	}
	if score >= 2 {
		return legislation.LangFR
	}
	return legislation.LangEN
}

var frenchWords = []string{
	" le ", " la ", " les ", " des ", " une ", " est ", " dans ", " que ",
	" pour ", " avec ", " article ", " règlement ", " loi ",
}

func citationOf(r search.Result) citation.Citation {
	return citation.Build(citation.Input{
		SourceType:   r.SourceType,
		ActID:        r.Metadata.ActID,
		RegulationID: r.Metadata.RegulationID,
		SectionLabel: r.Metadata.SectionLabel,
		TitleEn:      r.Metadata.Title,
		TitleFr:      r.Metadata.Title,
		MarginalNote: r.Metadata.MarginalNote,
		TargetType:   r.Metadata.TargetType,
		TargetRef:    r.Metadata.TargetRef,
	})
}

// SearchLegislation is searchLegislation(query, options) (spec §6.2).
func (f *Facade) SearchLegislation(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	return f.search.Search(ctx, query, opts)
}

func (f *Facade) SearchActs(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	return f.search.SearchActs(ctx, query, opts)
}

func (f *Facade) SearchRegulations(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	return f.search.SearchRegulations(ctx, query, opts)
}

func (f *Facade) SearchDefinedTerms(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	return f.search.SearchDefinedTerms(ctx, query, opts)
}

func (f *Facade) SearchWithDefinitions(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	return f.search.SearchWithDefinitions(ctx, query, opts)
}

func (f *Facade) SearchLegislationBilingual(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	opts.IncludePairedLanguage = true
	return f.search.SearchBilingual(ctx, query, opts)
}

func (f *Facade) SearchByMetadata(ctx context.Context, q store.MetadataQuery) ([]legislation.Resource, error) {
	return f.store.SearchByMetadata(ctx, q)
}

// CountLegislationByMetadata is the supplemented countLegislationByMetadata
// facade method (spec §12).
func (f *Facade) CountLegislationByMetadata(ctx context.Context, q store.MetadataQuery) (int, error) {
	return f.store.CountByMetadata(ctx, q)
}

// ListDistinctMetadataValues is the supplemented listDistinctMetadataValues
// facade method (spec §12).
func (f *Facade) ListDistinctMetadataValues(ctx context.Context, field string, limit int) ([]string, error) {
	return f.store.ListDistinctMetadataValues(ctx, field, limit)
}

func (f *Facade) GetHydratedActMarkdown(ctx context.Context, actID string, lang legislation.Language) (*hydrate.Hydrated, error) {
	return f.hydrate.HydrateDocument(ctx, actID, false, lang)
}

func (f *Facade) GetHydratedRegulationMarkdown(ctx context.Context, regulationID string, lang legislation.Language) (*hydrate.Hydrated, error) {
	return f.hydrate.HydrateDocument(ctx, regulationID, true, lang)
}
