// Package store provides the knowledge article backends. A DSN starting with
// postgres:// (or postgresql://) selects PostgreSQL full-text search; any
// other DSN is treated as a SQLite file path.
package store

import (
	"context"
	"strings"

	"github.com/vision-csa/server/internal/agent/model"
)

// Store is the common shape of both backends.
type Store interface {
	model.KnowledgeStore
	Insert(ctx context.Context, art model.Article) error
	Close() error
}

// Open picks the backend from the DSN.
func Open(dsn string, maxCandidates int) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return OpenPostgres(dsn, maxCandidates)
	}
	return OpenSQLite(dsn, maxCandidates)
}
