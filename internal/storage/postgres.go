package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fiercekittenz/gifbot/internal/domain"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
    area       TEXT PRIMARY KEY,
    doc        JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps one jsonb row per feature area.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and ensures the documents table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, createDocumentsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure documents table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Load reads an area document into v. Returns domain.ErrNoDocument when
// no row exists for the area.
func (s *PostgresStore) Load(ctx context.Context, area string, v any) error {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM documents WHERE area = $1`, area).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNoDocument
		}
		return fmt.Errorf("failed to read %s document: %w", area, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s document: %w", area, err)
	}
	return nil
}

// Save upserts the area row with the full document.
func (s *PostgresStore) Save(ctx context.Context, area string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", area, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (area, doc, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (area) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		area, data)
	if err != nil {
		return fmt.Errorf("failed to write %s document: %w", area, err)
	}
	return nil
}

// Ping verifies database connectivity for readiness checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
