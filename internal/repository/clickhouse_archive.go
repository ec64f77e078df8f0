package repository

import (
	"context"
	"fmt"

	domrepo "EquityLens/internal/domain/repository"
	pkgch "EquityLens/pkg/clickhouse"
	applogger "EquityLens/pkg/logger"
)

const chArchiveDDL = `
CREATE TABLE IF NOT EXISTS %s (
    id          String,
    symbol      LowCardinality(String),
    mode        LowCardinality(String),
    industry    LowCardinality(String),
    signal      LowCardinality(String),
    score       Float64,
    confidence  Float64,
    computed_at DateTime64(3, 'UTC'),
    payload     String CODEC(ZSTD(3))
) ENGINE = MergeTree
PARTITION BY toYYYYMM(computed_at)
ORDER BY (symbol, computed_at)
TTL toDateTime(computed_at) + INTERVAL 2 YEAR`

// NewClickHouseArchive creates table if missing and archives results into it.
// The pool stays owned by ch.
func NewClickHouseArchive(ctx context.Context, ch *pkgch.Client, table string, l *applogger.Logger) (domrepo.ResultArchive, error) {
	if table == "" {
		table = "analysis_results"
	}
	if err := ch.InitSchema(ctx, []string{fmt.Sprintf(chArchiveDDL, table)}); err != nil {
		return nil, err
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &sqlArchive{db: ch.DB(), table: table, backend: "clickhouse", l: l}, nil
}
