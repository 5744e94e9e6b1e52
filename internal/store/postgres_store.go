/**
 * @description
 * This file provides the PostgreSQL implementation of the `Store` interface.
 * Entities are persisted as JSONB documents in a single `documents` table
 * keyed by (collection, id); filters are evaluated with JSONB containment so
 * the adapter needs no knowledge of entity schemas. Counters live in a
 * `counters` table and are incremented with a single upsert statement, which
 * makes AtomicIncrement race-free at the database level.
 *
 * @dependencies
 * - context, encoding/json, errors, fmt: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentSchema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    data       JSONB NOT NULL,
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_data_idx ON documents USING GIN (data jsonb_path_ops);

CREATE TABLE IF NOT EXISTS counters (
    key   TEXT PRIMARY KEY,
    value BIGINT NOT NULL
);
`

// DocumentStore is the Postgres-backed Store implementation.
type DocumentStore struct {
	db *pgxpool.Pool
}

// NewDocumentStore creates the schema if needed and returns the adapter.
func NewDocumentStore(ctx context.Context, db *pgxpool.Pool) (*DocumentStore, error) {
	if _, err := db.Exec(ctx, documentSchema); err != nil {
		return nil, fmt.Errorf("failed to ensure document schema: %w", err)
	}
	return &DocumentStore{db: db}, nil
}

// Get returns all documents in the collection matching the filter.
func (s *DocumentStore) Get(ctx context.Context, collection string, f Filter) ([][]byte, error) {
	query := `SELECT data FROM documents WHERE collection = $1`
	args := []any{collection}

	if len(f) > 0 {
		filterJSON, err := json.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		query += ` AND data @> $2::jsonb`
		args = append(args, filterJSON)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan %s document: %w", collection, err)
		}
		docs = append(docs, data)
	}
	return docs, rows.Err()
}

// Put upserts a document under the given id.
func (s *DocumentStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
        ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`,
		collection, id, doc)
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete atomically removes one matching document and returns it. The
// subquery-limit form makes claim-and-remove a single statement, so two
// concurrent deleters of the same record cannot both succeed.
func (s *DocumentStore) Delete(ctx context.Context, collection string, f Filter) ([]byte, error) {
	filterJSON, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter: %w", err)
	}

	var data []byte
	err = s.db.QueryRow(ctx, `
        DELETE FROM documents
        WHERE ctid IN (
            SELECT ctid FROM documents
            WHERE collection = $1 AND data @> $2::jsonb
            LIMIT 1
        )
        RETURNING data`,
		collection, filterJSON).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete from %s: %w", collection, err)
	}
	return data, nil
}

// AtomicIncrement increments the named counter and returns the new value.
func (s *DocumentStore) AtomicIncrement(ctx context.Context, key string) (int64, error) {
	var value int64
	err := s.db.QueryRow(ctx, `
        INSERT INTO counters (key, value) VALUES ($1, 1)
        ON CONFLICT (key) DO UPDATE SET value = counters.value + 1
        RETURNING value`,
		key).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, err)
	}
	return value, nil
}

// Ping reports whether the database is reachable.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the connection pool.
func (s *DocumentStore) Close() {
	s.db.Close()
}
