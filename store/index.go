package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"legisrag/legislation"
)

// Indexer performs the idempotent upsert half of the Indexer contract
// (spec §4.D): one Resource row plus its Embedding row, keyed by
// resourceKey so re-ingesting the same source document updates rather than
// duplicates it (grounded on database/rag_documents.go's UpsertRAGDocument).
type Indexer struct {
	store *Store
}

func NewIndexer(s *Store) *Indexer {
	return &Indexer{store: s}
}

// Upsert writes one Resource + Embedding pair. If a resource already exists
// under the same resourceKey, its content, metadata, pairedResourceKey, and
// embedding are replaced in place and updatedAt is refreshed; the resource
// id and createdAt are preserved (spec §4.D, §3.4 versioning).
func (ix *Indexer) Upsert(ctx context.Context, resource legislation.Resource, embedding legislation.Embedding) error {
	metadataJSON, err := json.Marshal(resource.Metadata)
	if err != nil {
		return fmt.Errorf("marshal resource metadata: %w", err)
	}

	tx, err := ix.store.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	var resourceID string
	row := tx.QueryRowContext(ctx, `SELECT id FROM resources WHERE resource_key = $1`, resource.ResourceKey)
	switch err := row.Scan(&resourceID); {
	case err == sql.ErrNoRows:
		resourceID = uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO resources (id, resource_key, language, source_type, content, metadata, paired_resource_key, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`,
			resourceID, resource.ResourceKey, string(resource.Language), string(resource.SourceType),
			resource.Content, metadataJSON, nullableString(resource.PairedResourceKey))
		if err != nil {
			return fmt.Errorf("insert resource: %w", err)
		}
	case err != nil:
		return fmt.Errorf("lookup existing resource: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE resources
			SET content = $2, metadata = $3, paired_resource_key = $4, updated_at = NOW()
			WHERE id = $1`,
			resourceID, resource.Content, metadataJSON, nullableString(resource.PairedResourceKey))
		if err != nil {
			return fmt.Errorf("update resource: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE resource_id = $1`, resourceID); err != nil {
			return fmt.Errorf("clear stale embedding: %w", err)
		}
	}

	embeddingID := uuid.NewString()
	vec := pgvector.NewVector(embedding.Vector)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO embeddings (id, resource_id, content, embedding, tsv, embedding_model)
		VALUES ($1, $2, $3, $4, to_tsvector('english', $3), $5)`,
		embeddingID, resourceID, embedding.Content, vec, embedding.EmbeddingModel)
	if err != nil {
		return fmt.Errorf("insert embedding: %w", err)
	}

	return tx.Commit()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
