package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/vision-csa/server/internal/agent/model"
	logx "github.com/vision-csa/server/pkg/logger"
)

// kb_articles carries a trigger-maintained tsvector over title and content;
// title terms are weighted above content terms.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS kb_articles (
    id SERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    source VARCHAR(255),
    created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    fts_document_vector TSVECTOR
);
CREATE INDEX IF NOT EXISTS idx_kb_articles_fts ON kb_articles USING GIN(fts_document_vector);
`

const postgresSearchSQL = `
SELECT title, content, COALESCE(source, ''),
       ts_rank_cd(fts_document_vector, plainto_tsquery('pg_catalog.english', $1)) AS relevance
FROM kb_articles
WHERE fts_document_vector @@ plainto_tsquery('pg_catalog.english', $1)
ORDER BY relevance DESC
LIMIT $2`

const postgresInsertSQL = `
INSERT INTO kb_articles (title, content, source, fts_document_vector)
VALUES ($1, $2, $3,
        setweight(to_tsvector('pg_catalog.english', $1), 'A') ||
        setweight(to_tsvector('pg_catalog.english', $2), 'B'))`

// PostgresStore searches articles with PostgreSQL full-text ranking.
type PostgresStore struct {
	db            *sql.DB
	maxCandidates int
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects and ensures the article table exists.
func OpenPostgres(dsn string, maxCandidates int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	if maxCandidates <= 0 {
		maxCandidates = 5
	}
	logx.Info().Int("max_candidates", maxCandidates).Msg("knowledge store: postgres")
	return &PostgresStore{db: db, maxCandidates: maxCandidates}, nil
}

// Search ranks matching articles by ts_rank_cd relevance.
func (s *PostgresStore) Search(ctx context.Context, query string) ([]model.Article, error) {
	rows, err := s.db.QueryContext(ctx, postgresSearchSQL, query, s.maxCandidates)
	if err != nil {
		return nil, fmt.Errorf("postgres search: %w", err)
	}
	defer rows.Close()

	var out []model.Article
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.Title, &a.Content, &a.Source, &a.Relevance); err != nil {
			return nil, fmt.Errorf("postgres scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres rows: %w", err)
	}
	return out, nil
}

// Insert stores one article with its weighted search vector.
func (s *PostgresStore) Insert(ctx context.Context, art model.Article) error {
	if _, err := s.db.ExecContext(ctx, postgresInsertSQL, art.Title, art.Content, art.Source); err != nil {
		return fmt.Errorf("postgres insert: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
