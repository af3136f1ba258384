package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vision-csa/server/internal/agent/model"
	logx "github.com/vision-csa/server/pkg/logger"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kb_articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    source TEXT DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore is the embedded backend for local runs and tests. Matching is
// per-term LIKE with title hits weighted over content hits, which keeps its
// scoring in the same shape as the postgres backend's.
type SQLiteStore struct {
	db            *sql.DB
	maxCandidates int
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database file. ":memory:" works.
func OpenSQLite(path string, maxCandidates int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	if maxCandidates <= 0 {
		maxCandidates = 5
	}
	logx.Info().Str("path", path).Msg("knowledge store: sqlite")
	return &SQLiteStore{db: db, maxCandidates: maxCandidates}, nil
}

const (
	titleTermWeight   = 2.0
	contentTermWeight = 1.0
)

// Search fetches candidate rows matching any query term and scores them by
// how many terms hit, weighted by field.
func (s *SQLiteStore) Search(ctx context.Context, query string) ([]model.Article, error) {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	clauses := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms)*2)
	for _, term := range terms {
		clauses = append(clauses, "(title LIKE ? OR content LIKE ?)")
		pat := "%" + term + "%"
		args = append(args, pat, pat)
	}
	q := "SELECT title, content, source FROM kb_articles WHERE " + strings.Join(clauses, " OR ")

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite search: %w", err)
	}
	defer rows.Close()

	var out []model.Article
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.Title, &a.Content, &a.Source); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		a.Relevance = scoreArticle(a, terms)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite rows: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Relevance > out[j].Relevance })
	if len(out) > s.maxCandidates {
		out = out[:s.maxCandidates]
	}
	return out, nil
}

// Insert stores one article.
func (s *SQLiteStore) Insert(ctx context.Context, art model.Article) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kb_articles (title, content, source) VALUES (?, ?, ?)",
		art.Title, art.Content, art.Source)
	if err != nil {
		return fmt.Errorf("sqlite insert: %w", err)
	}
	return nil
}

// Close closes the database file.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scoreArticle(a model.Article, terms []string) float64 {
	title := strings.ToLower(a.Title)
	content := strings.ToLower(a.Content)
	var score float64
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += titleTermWeight
		}
		if strings.Contains(content, term) {
			score += contentTermWeight
		}
	}
	return score
}

// queryTerms lowercases and splits the query, dropping single-letter noise.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?\"'")
		if len(f) < 2 {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
