// Package search implements the Hybrid Search Engine (spec §4.F): one base
// search combining vector similarity and keyword rank, plus the composite
// helpers that fan out across source types and the metadata-only path.
package search

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"legisrag/cache"
	"legisrag/citation"
	"legisrag/embedclient"
	"legisrag/legislation"
	"legisrag/store"
)

// Result is one ranked hit from the hybrid search (spec §4.F.1).
type Result struct {
	Content     string
	Metadata    legislation.ResourceMetadata
	Language    legislation.Language
	SourceType  legislation.SourceType
	ResourceKey string
	Similarity  float64
	Citation    citation.Citation
	PairedResourceKey string
	PairedResult      *Result
}

// Options enumerates every filter and ranking knob spec §4.F.1 names.
type Options struct {
	Limit               int
	SimilarityThreshold float64
	Language            legislation.Language
	SourceType          legislation.SourceType
	ActID               string
	RegulationID        string
	ScopeType           legislation.ScopeType
	SectionScope        string
	IncludePairedLanguage bool
}

// Engine ties the embedding client, the store's hybrid query, and a result
// cache together (spec §4.F.3).
type Engine struct {
	store         *store.Store
	embedder      *embedclient.Client
	cache         *cache.TTLCache
	logger        *zap.Logger
	maxLimit      int
	vectorWeight  float64
	keywordWeight float64
}

func New(s *store.Store, embedder *embedclient.Client, ttl time.Duration, maxLimit int, vectorWeight, keywordWeight float64, logger *zap.Logger) (*Engine, error) {
	c, err := cache.New(4096, ttl)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:         s,
		embedder:      embedder,
		cache:         c,
		logger:        logger,
		maxLimit:      maxLimit,
		vectorWeight:  vectorWeight,
		keywordWeight: keywordWeight,
	}, nil
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	}
	if limit > e.maxLimit {
		limit = e.maxLimit
	}
	return limit
}

// Search implements search(query, options) (spec §4.F.1/§4.F.2), including
// the exactly-once language-filter retry (spec §8 invariant 4).
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	opts.Limit = e.clampLimit(opts.Limit)

	key := cacheKey(query, opts)
	if v, ok := e.cache.Get(key); ok {
		return v.([]Result), nil
	}

	results, err := e.searchOnce(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 && opts.Language != "" {
		retryOpts := opts
		retryOpts.Language = ""
		results, err = e.searchOnce(ctx, query, retryOpts)
		if err != nil {
			return nil, err
		}
	}

	e.cache.Set(key, results)
	return results, nil
}

func (e *Engine) searchOnce(ctx context.Context, query string, opts Options) ([]Result, error) {
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := e.store.HybridSearch(ctx, store.HybridQuery{
		QueryText:           query,
		QueryVector:         vec,
		Language:            opts.Language,
		SourceType:          opts.SourceType,
		ActID:               opts.ActID,
		RegulationID:        opts.RegulationID,
		ScopeType:            opts.ScopeType,
		SectionInScope:       opts.SectionScope,
		SimilarityThreshold:  opts.SimilarityThreshold,
		Limit:                opts.Limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(rows))
	for _, r := range rows {
		score := e.vectorWeight*r.VectorSimilarity + e.keywordWeight*r.KeywordScore
		out = append(out, Result{
			Content:           r.Content,
			Metadata:          r.Metadata,
			Language:          r.Language,
			SourceType:        r.SourceType,
			ResourceKey:       r.ResourceKey,
			PairedResourceKey: r.PairedResourceKey,
			Similarity:        score,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// SearchBilingual implements searchBilingual (spec §4.F.4): base search,
// then one batch fetch of paired resources.
func (e *Engine) SearchBilingual(ctx context.Context, query string, opts Options) ([]Result, error) {
	results, err := e.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	if !opts.IncludePairedLanguage {
		return results, nil
	}

	keys := make([]string, 0, len(results))
	for _, r := range results {
		if r.PairedResourceKey != "" {
			keys = append(keys, r.PairedResourceKey)
		}
	}
	paired, err := e.store.FetchByResourceKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch paired resources: %w", err)
	}

	byKey := make(map[string]*legislation.Resource, len(keys))
	for i := range paired {
		byKey[paired[i].ResourceKey] = &paired[i]
	}
	for i := range results {
		if p, ok := byKey[results[i].PairedResourceKey]; ok {
			results[i].PairedResult = &Result{
				Content:     p.Content,
				Metadata:    p.Metadata,
				Language:    p.Language,
				SourceType:  p.SourceType,
				ResourceKey: p.ResourceKey,
			}
		}
	}
	return results, nil
}

var actSourceTypes = []legislation.SourceType{
	legislation.SourceAct, legislation.SourceActSection, legislation.SourceSchedule,
	legislation.SourceDefinedTerm, legislation.SourcePreamble, legislation.SourceTreaty,
	legislation.SourceCrossReference, legislation.SourceTableOfProvisions,
	legislation.SourceSignatureBlock, legislation.SourceRelatedProvisions, legislation.SourceFootnote,
	legislation.SourceMarginalNote,
}

var regulationSourceTypes = []legislation.SourceType{
	legislation.SourceRegulation, legislation.SourceRegulationSection, legislation.SourceSchedule,
	legislation.SourceDefinedTerm, legislation.SourcePreamble, legislation.SourceTreaty,
	legislation.SourceCrossReference, legislation.SourceTableOfProvisions,
	legislation.SourceSignatureBlock, legislation.SourceRelatedProvisions, legislation.SourceFootnote,
	legislation.SourceMarginalNote,
}

// SearchActs issues one base search per act-related source type in
// parallel, merges, deduplicates, sorts, and slices (spec §4.F.6).
func (e *Engine) SearchActs(ctx context.Context, query string, opts Options) ([]Result, error) {
	return e.fanOutSearch(ctx, query, opts, actSourceTypes, 0)
}

// SearchRegulations is the symmetric counterpart over regulation-related
// source types (spec §4.F.6).
func (e *Engine) SearchRegulations(ctx context.Context, query string, opts Options) ([]Result, error) {
	return e.fanOutSearch(ctx, query, opts, regulationSourceTypes, 0)
}

// SearchDefinedTerms restricts the base search to defined_term (spec §4.F.6).
func (e *Engine) SearchDefinedTerms(ctx context.Context, query string, opts Options) ([]Result, error) {
	opts.SourceType = legislation.SourceDefinedTerm
	return e.Search(ctx, query, opts)
}

// SearchWithDefinitions searches defined_term and all sources in parallel,
// additively boosts defined-term similarities by +0.15 (clamped to 1.0),
// merges, deduplicates, sorts, and slices (spec §4.F.6).
func (e *Engine) SearchWithDefinitions(ctx context.Context, query string, opts Options) ([]Result, error) {
	allOpts := opts
	allOpts.SourceType = ""
	termOpts := opts
	termOpts.SourceType = legislation.SourceDefinedTerm

	var all, terms []Result
	var allErr, termsErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); all, allErr = e.Search(ctx, query, allOpts) }()
	go func() { defer wg.Done(); terms, termsErr = e.Search(ctx, query, termOpts) }()
	wg.Wait()
	if allErr != nil {
		return nil, allErr
	}
	if termsErr != nil {
		return nil, termsErr
	}

	for i := range terms {
		terms[i].Similarity += 0.15
		if terms[i].Similarity > 1.0 {
			terms[i].Similarity = 1.0
		}
	}

	merged := Deduplicate(append(all, terms...))
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Similarity > merged[j].Similarity })
	limit := e.clampLimit(opts.Limit)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func (e *Engine) fanOutSearch(ctx context.Context, query string, opts Options, types []legislation.SourceType, _ int) ([]Result, error) {
	var mu sync.Mutex
	var merged []Result
	var firstErr error
	var wg sync.WaitGroup
	wg.Add(len(types))
	for _, st := range types {
		st := st
		go func() {
			defer wg.Done()
			sub := opts
			sub.SourceType = st
			res, err := e.Search(ctx, query, sub)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
				return
			}
			merged = append(merged, res...)
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	deduped := Deduplicate(merged)
	sort.SliceStable(deduped, func(i, j int) bool { return deduped[i].Similarity > deduped[j].Similarity })
	limit := e.clampLimit(opts.Limit)
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped, nil
}

// Deduplicate implements the key + highest-similarity-wins rule shared by
// composite search (spec §4.F.6) and the assembler (spec §4.H.2 step 1):
// key = sourceType + language + every identifying ID, so distinct records
// never collide but repeated chunks of the same record collapse.
func Deduplicate(results []Result) []Result {
	best := make(map[string]int)
	out := make([]Result, 0, len(results))
	for _, r := range results {
		k := dedupeKey(r)
		if idx, ok := best[k]; ok {
			if r.Similarity > out[idx].Similarity {
				out[idx] = r
			}
			continue
		}
		best[k] = len(out)
		out = append(out, r)
	}
	return out
}

func dedupeKey(r Result) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		r.SourceType, r.Language, r.Metadata.ActID, r.Metadata.RegulationID,
		r.Metadata.SectionLabel, r.ResourceKey)
}

// cacheKey composes every option that affects the result set plus a SHA-1 of
// the query text (spec §4.F.3).
func cacheKey(query string, opts Options) string {
	h := sha1.New()
	h.Write([]byte(query))
	parts := []string{
		strconv.Itoa(opts.Limit),
		strconv.FormatFloat(opts.SimilarityThreshold, 'f', -1, 64),
		string(opts.Language),
		string(opts.SourceType),
		opts.ActID,
		opts.RegulationID,
		string(opts.ScopeType),
		opts.SectionScope,
	}
	for _, p := range parts {
		h.Write([]byte("|"))
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
