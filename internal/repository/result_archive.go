package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"EquityLens/internal/domain/models"
	domrepo "EquityLens/internal/domain/repository"
	applogger "EquityLens/pkg/logger"
)

// sqlArchive stores results as JSON rows in a database/sql table. The SQL it
// issues is plain enough for both ClickHouse and SQLite; only the DDL differs.
type sqlArchive struct {
	db      *sql.DB
	table   string
	backend string
	closeDB bool
	l       *applogger.Logger
}

var _ domrepo.ResultArchive = (*sqlArchive)(nil)

func (a *sqlArchive) Save(ctx context.Context, r *models.AnalysisResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, symbol, mode, industry, signal, score, confidence, computed_at, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, a.table)
	_, err = a.db.ExecContext(ctx, q,
		r.ID,
		r.Symbol,
		r.Mode.String(),
		r.Industry.String(),
		r.Signal.String(),
		r.Score,
		r.Confidence,
		r.ComputedAt.UTC(),
		string(payload),
	)
	if err != nil {
		a.l.Error(a.backend+" archive insert error",
			applogger.String("symbol", r.Symbol),
			applogger.String("id", r.ID),
			applogger.Error(err),
		)
		return fmt.Errorf("archive result: %w", err)
	}
	return nil
}

// History returns up to limit results for symbol, newest first.
func (a *sqlArchive) History(ctx context.Context, symbol string, limit int) ([]*models.AnalysisResult, error) {
	start := time.Now()
	q := fmt.Sprintf(`SELECT payload FROM %s WHERE symbol = ? ORDER BY computed_at DESC LIMIT ?`, a.table)
	rows, err := a.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		a.l.Error(a.backend+" archive history query error", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]*models.AnalysisResult, 0, limit)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		var r models.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	a.l.Debug(a.backend+" archive history ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (a *sqlArchive) Close() error {
	if a.closeDB {
		return a.db.Close()
	}
	return nil
}
