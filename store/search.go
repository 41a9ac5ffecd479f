package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"legisrag/legislation"
)

func pqStringArray(s []string) pq.StringArray {
	return pq.StringArray(s)
}

// HybridResult is one row from the combined vector + keyword search,
// carrying both component scores so callers can recompute the weighted
// blend (spec §4.F.2) or inspect them individually.
type HybridResult struct {
	ResourceID        string
	ResourceKey       string
	Language          legislation.Language
	SourceType        legislation.SourceType
	Content           string
	Metadata          legislation.ResourceMetadata
	PairedResourceKey string
	VectorSimilarity  float64
	KeywordScore      float64
}

// HybridQuery carries every filter the Search component (spec §4.F) can
// apply alongside the vector and keyword scoring.
type HybridQuery struct {
	QueryText        string
	QueryVector      []float32
	Language         legislation.Language
	SourceType       legislation.SourceType
	ActID            string
	RegulationID     string
	ScopeType        legislation.ScopeType
	SectionInScope   string // matches against scopeSections via the GIN index
	SimilarityThreshold float64
	Limit            int
}

// HybridSearch computes cosine similarity against the embedding column and
// ts_rank_cd against tsv, restricts to rows passing the eligibility clause
// (spec §4.F.2: vectorSim >= threshold OR tsv matches the query), and
// returns up to Limit rows (default 50), ordered by vector similarity, for
// the caller to combine and re-rank (grounded on
// rag_documents.go's SearchRAGDocumentsBM25 query-builder shape).
func (s *Store) HybridSearch(ctx context.Context, q HybridQuery) ([]HybridResult, error) {
	var b strings.Builder
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	vecArg := arg(pgvector.NewVector(q.QueryVector))
	queryArg := arg(q.QueryText)

	b.WriteString(fmt.Sprintf(`
		SELECT r.id, r.resource_key, r.language, r.source_type, e.content, r.metadata, r.paired_resource_key,
		       1 - (e.embedding <=> %s) AS vector_sim,
		       ts_rank_cd(e.tsv, websearch_to_tsquery('english', %s)) AS keyword_score
		FROM embeddings e
		JOIN resources r ON r.id = e.resource_id
		WHERE (1 - (e.embedding <=> %s) >= %s OR e.tsv @@ websearch_to_tsquery('english', %s))`,
		vecArg, queryArg, vecArg, arg(q.SimilarityThreshold), queryArg))

	if q.Language != "" {
		b.WriteString(fmt.Sprintf(" AND r.language = %s", arg(string(q.Language))))
	}
	if q.SourceType != "" {
		b.WriteString(fmt.Sprintf(" AND r.source_type = %s", arg(string(q.SourceType))))
	}
	if q.ActID != "" {
		b.WriteString(fmt.Sprintf(" AND r.metadata ->> 'actId' = %s", arg(q.ActID)))
	}
	if q.RegulationID != "" {
		b.WriteString(fmt.Sprintf(" AND r.metadata ->> 'regulationId' = %s", arg(q.RegulationID)))
	}
	if q.ScopeType != "" {
		b.WriteString(fmt.Sprintf(" AND r.metadata ->> 'scopeType' = %s", arg(string(q.ScopeType))))
	}
	if q.SectionInScope != "" {
		b.WriteString(fmt.Sprintf(" AND r.metadata -> 'scopeSections' @> %s::jsonb", arg(fmt.Sprintf("%q", q.SectionInScope))))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	b.WriteString(fmt.Sprintf(" ORDER BY vector_sim DESC LIMIT %s", arg(limit)))

	rows, err := s.DB.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("execute hybrid search: %w", err)
	}
	defer rows.Close()

	var out []HybridResult
	for rows.Next() {
		var (
			res          HybridResult
			metadataJSON []byte
			paired       sql.NullString
		)
		if err := rows.Scan(&res.ResourceID, &res.ResourceKey, &res.Language, &res.SourceType, &res.Content,
			&metadataJSON, &paired, &res.VectorSimilarity, &res.KeywordScore); err != nil {
			return nil, fmt.Errorf("scan hybrid search row: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &res.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal result metadata: %w", err)
			}
		}
		res.PairedResourceKey = paired.String
		out = append(out, res)
	}
	return out, rows.Err()
}

// MetadataQuery carries the metadata-only filters used by searchByMetadata
// and countLegislationByMetadata (spec §6.2), including the four date-range
// operators from spec §4.F.5.
type MetadataQuery struct {
	Language     legislation.Language
	SourceType   legislation.SourceType
	ActID        string
	RegulationID string
	Status       legislation.Status
	DateField    string // one of the five ResourceMetadata date fields
	DateOp       string // "before", "after", "on", "between"
	DateValue    time.Time
	DateValue2   time.Time // upper bound for "between"
	Limit        int
}

var metadataDateColumns = map[string]string{
	"lastAmendedDate":   "lastAmendedDate",
	"enactedDate":       "enactedDate",
	"inForceDate":       "inForceDate",
	"consolidationDate": "consolidationDate",
	"registrationDate":  "registrationDate",
}

func (q MetadataQuery) buildWhere(argFn func(any) string) (string, error) {
	var b strings.Builder
	b.WriteString("WHERE 1=1")
	if q.Language != "" {
		b.WriteString(fmt.Sprintf(" AND r.language = %s", argFn(string(q.Language))))
	}
	if q.SourceType != "" {
		b.WriteString(fmt.Sprintf(" AND r.source_type = %s", argFn(string(q.SourceType))))
	}
	if q.ActID != "" {
		b.WriteString(fmt.Sprintf(" AND r.metadata ->> 'actId' = %s", argFn(q.ActID)))
	}
	if q.RegulationID != "" {
		b.WriteString(fmt.Sprintf(" AND r.metadata ->> 'regulationId' = %s", argFn(q.RegulationID)))
	}
	if q.Status != "" {
		b.WriteString(fmt.Sprintf(" AND r.metadata ->> 'status' = %s", argFn(string(q.Status))))
	}
	if q.DateField != "" {
		col, ok := metadataDateColumns[q.DateField]
		if !ok {
			return "", fmt.Errorf("unknown date field %q", q.DateField)
		}
		expr := fmt.Sprintf("(r.metadata ->> '%s')::timestamptz", col)
		switch q.DateOp {
		case "before":
			b.WriteString(fmt.Sprintf(" AND %s < %s", expr, argFn(q.DateValue)))
		case "after":
			b.WriteString(fmt.Sprintf(" AND %s > %s", expr, argFn(q.DateValue)))
		case "on":
			b.WriteString(fmt.Sprintf(" AND %s::date = %s::date", expr, argFn(q.DateValue)))
		case "between":
			b.WriteString(fmt.Sprintf(" AND %s BETWEEN %s AND %s", expr, argFn(q.DateValue), argFn(q.DateValue2)))
		default:
			return "", fmt.Errorf("unknown date operator %q", q.DateOp)
		}
	}
	return b.String(), nil
}

// SearchByMetadata returns resources matching only metadata filters, with no
// vector or keyword component (spec §6.2 searchByMetadata).
func (s *Store) SearchByMetadata(ctx context.Context, q MetadataQuery) ([]legislation.Resource, error) {
	args := []any{}
	argFn := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	where, err := q.buildWhere(argFn)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT r.id, r.resource_key, r.language, r.source_type, r.content, r.metadata, r.paired_resource_key, r.created_at, r.updated_at
		FROM resources r %s
		ORDER BY r.updated_at DESC
		LIMIT %s`, where, argFn(limit))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute metadata search: %w", err)
	}
	defer rows.Close()

	var out []legislation.Resource
	for rows.Next() {
		var (
			res          legislation.Resource
			metadataJSON []byte
			paired       sql.NullString
		)
		if err := rows.Scan(&res.ID, &res.ResourceKey, &res.Language, &res.SourceType, &res.Content,
			&metadataJSON, &paired, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan metadata search row: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &res.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal result metadata: %w", err)
			}
		}
		res.PairedResourceKey = paired.String
		out = append(out, res)
	}
	return out, rows.Err()
}

// CountByMetadata implements countLegislationByMetadata (spec §6.2,
// §12 supplemented feature): same filters as SearchByMetadata, but returns
// only a row count.
func (s *Store) CountByMetadata(ctx context.Context, q MetadataQuery) (int, error) {
	args := []any{}
	argFn := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	where, err := q.buildWhere(argFn)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM resources r %s`, where)
	var count int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count by metadata: %w", err)
	}
	return count, nil
}

// FetchByResourceKeys batch-fetches resources by resourceKey, used by
// searchBilingual to attach paired-language results in one query (spec
// §4.F.4) instead of one lookup per result.
func (s *Store) FetchByResourceKeys(ctx context.Context, keys []string) ([]legislation.Resource, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, resource_key, language, source_type, content, metadata, paired_resource_key, created_at, updated_at
		FROM resources WHERE resource_key = ANY($1)`
	rows, err := s.DB.QueryContext(ctx, query, pqStringArray(keys))
	if err != nil {
		return nil, fmt.Errorf("fetch resources by key: %w", err)
	}
	defer rows.Close()

	var out []legislation.Resource
	for rows.Next() {
		var (
			res          legislation.Resource
			metadataJSON []byte
			paired       sql.NullString
		)
		if err := rows.Scan(&res.ID, &res.ResourceKey, &res.Language, &res.SourceType, &res.Content,
			&metadataJSON, &paired, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan resource by key: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &res.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal result metadata: %w", err)
			}
		}
		res.PairedResourceKey = paired.String
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListDistinctMetadataValues implements listDistinctMetadataValues (spec
// §6.2, §12): returns the distinct values present for one metadata field,
// capped at limit, for UI facet population.
func (s *Store) ListDistinctMetadataValues(ctx context.Context, field string, limit int) ([]string, error) {
	col, ok := map[string]string{
		"actId": "actId", "regulationId": "regulationId", "sectionLabel": "sectionLabel",
		"scopeType": "scopeType", "status": "status",
	}[field]
	if !ok {
		return nil, fmt.Errorf("unknown distinct field %q", field)
	}
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT DISTINCT metadata ->> '%s' AS v
		FROM resources
		WHERE metadata ->> '%s' IS NOT NULL
		ORDER BY v
		LIMIT $1`, col, col)
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list distinct metadata values: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct value: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
