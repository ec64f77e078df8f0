package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	domrepo "EquityLens/internal/domain/repository"
	applogger "EquityLens/pkg/logger"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS analysis_results (
    id          TEXT PRIMARY KEY,
    symbol      TEXT NOT NULL,
    mode        TEXT NOT NULL,
    industry    TEXT NOT NULL,
    signal      TEXT NOT NULL,
    score       REAL NOT NULL,
    confidence  REAL NOT NULL,
    computed_at DATETIME NOT NULL,
    payload     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_results_symbol ON analysis_results(symbol, computed_at);`

// NewSQLiteArchive opens (creating if needed) a SQLite result archive at path.
// ":memory:" gives a process-local archive.
func NewSQLiteArchive(ctx context.Context, path string, l *applogger.Logger) (domrepo.ResultArchive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// one connection: writes serialize anyway and :memory: is per connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &sqlArchive{db: db, table: "analysis_results", backend: "sqlite", closeDB: true, l: l}, nil
}
