package usecase

import (
	"context"
	"errors"
	"fmt"

	"EquityLens/internal/domain/models"
	domrepo "EquityLens/internal/domain/repository"
)

// ErrArchiveDisabled is returned when no result archive is configured.
var ErrArchiveDisabled = errors.New("result archive disabled")

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// HistoryUseCase reads archived analyses, newest first.
type HistoryUseCase struct {
	archive domrepo.ResultArchive
}

func NewHistoryUseCase(archive domrepo.ResultArchive) *HistoryUseCase {
	return &HistoryUseCase{archive: archive}
}

type GetHistoryParams struct {
	Symbol string
	Limit  int
}

type GetHistoryResult struct {
	Symbol  string                   `json:"symbol"`
	Count   int                      `json:"count"`
	Results []*models.AnalysisResult `json:"results"`
}

func (uc *HistoryUseCase) GetHistory(ctx context.Context, p GetHistoryParams) (*GetHistoryResult, error) {
	if uc == nil || uc.archive == nil {
		return nil, ErrArchiveDisabled
	}
	sym, err := models.NormalizeSymbol(p.Symbol)
	if err != nil {
		return nil, err
	}
	if p.Limit <= 0 {
		p.Limit = defaultHistoryLimit
	}
	if p.Limit > maxHistoryLimit {
		p.Limit = maxHistoryLimit
	}

	results, err := uc.archive.History(ctx, sym, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(results) > p.Limit {
		results = results[:p.Limit]
	}
	return &GetHistoryResult{Symbol: sym, Count: len(results), Results: results}, nil
}
