// Package store implements the Indexer (spec §4.D) and the storage
// interface (spec §6.4): a Postgres-backed Resources/Embeddings schema with
// functional indexes on every filter field, a vector index on the
// embedding column, and an inverted index on tsv.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store wraps a Postgres connection pool, grounded on
// database.PostgresStore's pgx-via-database/sql pattern.
type Store struct {
	DB *sql.DB
}

// Open connects to Postgres via the pgx stdlib driver, matching the
// teacher's database.NewPostgresStore shape.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{DB: db}, nil
}

// EnsureSchema creates the Resources/Embeddings tables and their indexes if
// they do not already exist, using idempotent CREATE ... IF NOT EXISTS
// statements; existing tables are not altered.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS resources (
			id UUID PRIMARY KEY,
			resource_key TEXT NOT NULL UNIQUE,
			language TEXT NOT NULL,
			source_type TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			paired_resource_key TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			id UUID PRIMARY KEY,
			resource_id UUID NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			embedding vector(1024),
			tsv tsvector,
			embedding_model TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	indexStmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_resources_language ON resources(language)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_source_type ON resources(source_type)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_paired_key ON resources(paired_resource_key)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_act_id ON resources((metadata ->> 'actId'))`,
		`CREATE INDEX IF NOT EXISTS idx_resources_regulation_id ON resources((metadata ->> 'regulationId'))`,
		`CREATE INDEX IF NOT EXISTS idx_resources_section_label ON resources((metadata ->> 'sectionLabel'))`,
		`CREATE INDEX IF NOT EXISTS idx_resources_scope_type ON resources((metadata ->> 'scopeType'))`,
		`CREATE INDEX IF NOT EXISTS idx_resources_scope_sections ON resources USING GIN ((metadata -> 'scopeSections'))`,
		`CREATE INDEX IF NOT EXISTS idx_resources_status ON resources((metadata ->> 'status'))`,
		`CREATE INDEX IF NOT EXISTS idx_resources_last_amended_date ON resources(((metadata ->> 'lastAmendedDate')::timestamptz))`,
		`CREATE INDEX IF NOT EXISTS idx_resources_enacted_date ON resources(((metadata ->> 'enactedDate')::timestamptz))`,
		`CREATE INDEX IF NOT EXISTS idx_resources_in_force_date ON resources(((metadata ->> 'inForceDate')::timestamptz))`,
		`CREATE INDEX IF NOT EXISTS idx_resources_consolidation_date ON resources(((metadata ->> 'consolidationDate')::timestamptz))`,
		`CREATE INDEX IF NOT EXISTS idx_resources_registration_date ON resources(((metadata ->> 'registrationDate')::timestamptz))`,
		`CREATE INDEX IF NOT EXISTS idx_embeddings_resource_id ON embeddings(resource_id)`,
		`CREATE INDEX IF NOT EXISTS idx_embeddings_tsv ON embeddings USING GIN (tsv)`,
		`CREATE INDEX IF NOT EXISTS idx_embeddings_vector_hnsw ON embeddings USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range indexStmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute index statement: %w", err)
		}
	}

	return nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}
