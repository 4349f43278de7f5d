package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/driveagent/driveagent/pkg/models"
)

// PgvectorBackend stores documents in PostgreSQL with the pgvector extension.
// Connection URL comes from PGVECTOR_URL.
type PgvectorBackend struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPgvectorBackend connects, pings and creates the table and index if they
// don't exist.
func NewPgvectorBackend(ctx context.Context, connURL string, dimensions int) (*PgvectorBackend, error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("pgvector connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector ping: %w", err)
	}

	b := &PgvectorBackend{pool: pool, dimensions: dimensions}
	if err := b.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector migrate: %w", err)
	}

	log.Info().Int("dims", dimensions).Msg("pgvector backend initialized")
	return b, nil
}

func (b *PgvectorBackend) migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;

		CREATE TABLE IF NOT EXISTS da_documents (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL DEFAULT '',
			metadata   JSONB NOT NULL DEFAULT '{}',
			vector     vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`, b.dimensions)

	_, err := b.pool.Exec(ctx, ddl)
	return err
}

func (b *PgvectorBackend) Upsert(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO da_documents (id, content, metadata, vector, created_at) VALUES `)

	args := make([]interface{}, 0, len(docs)*5)
	for i, d := range docs {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i*5 + 1
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base, base+1, base+2, base+3, base+4))

		md, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", d.ID, err)
		}
		args = append(args, d.ID, d.Text, md, pgvectorArray(d.Embedding), time.Now())
	}

	sb.WriteString(` ON CONFLICT (id) DO UPDATE SET
		content = EXCLUDED.content,
		metadata = EXCLUDED.metadata,
		vector = EXCLUDED.vector`)

	_, err := b.pool.Exec(ctx, sb.String(), args...)
	return err
}

func (b *PgvectorBackend) Query(ctx context.Context, vector []float32, topK int) ([]models.Match, error) {
	// <=> is pgvector's cosine distance operator; lower is closer.
	rows, err := b.pool.Query(ctx, `
		SELECT id, content, metadata, vector <=> $1 AS distance
		FROM da_documents
		ORDER BY vector <=> $1
		LIMIT $2`,
		pgvectorArray(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("pgvector query: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var (
			doc      models.Document
			mdRaw    []byte
			distance float64
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &mdRaw, &distance); err != nil {
			return nil, fmt.Errorf("pgvector scan: %w", err)
		}
		if err := json.Unmarshal(mdRaw, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for %s: %w", doc.ID, err)
		}
		matches = append(matches, models.Match{Doc: doc, Distance: distance})
	}
	return matches, rows.Err()
}

func (b *PgvectorBackend) All(ctx context.Context) ([]models.Document, error) {
	rows, err := b.pool.Query(ctx, `SELECT id, content, metadata FROM da_documents`)
	if err != nil {
		return nil, fmt.Errorf("pgvector all: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var (
			doc   models.Document
			mdRaw []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &mdRaw); err != nil {
			return nil, fmt.Errorf("pgvector scan: %w", err)
		}
		if err := json.Unmarshal(mdRaw, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (b *PgvectorBackend) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := b.pool.Exec(ctx, `DELETE FROM da_documents WHERE id = ANY($1)`, ids)
	return err
}

func (b *PgvectorBackend) Count(ctx context.Context) (int, error) {
	var count int
	err := b.pool.QueryRow(ctx, `SELECT COUNT(*) FROM da_documents`).Scan(&count)
	return count, err
}

func (b *PgvectorBackend) Reset(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, `TRUNCATE da_documents`)
	return err
}

func (b *PgvectorBackend) HealthCheck(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Close releases the connection pool.
func (b *PgvectorBackend) Close() {
	b.pool.Close()
}

// pgvectorArray converts a vector to pgvector's text format: [1.0,2.0,3.0]
func pgvectorArray(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(fmt.Sprintf("%g", f))
	}
	sb.WriteByte(']')
	return sb.String()
}
