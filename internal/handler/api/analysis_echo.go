package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"EquityLens/internal/domain/models"
	domrepo "EquityLens/internal/domain/repository"
	domsvc "EquityLens/internal/domain/service"
	svcmetrics "EquityLens/internal/service/metrics"
	"EquityLens/internal/services/rules"
	"EquityLens/internal/usecase"
	xhttp "EquityLens/pkg/http"
	xlogger "EquityLens/pkg/logger"
)

// AnalysisEchoHandler serves analyses over REST.
type AnalysisEchoHandler struct {
	logger   *xlogger.Logger
	analyzer domsvc.BatchAnalyzer
	history  *usecase.HistoryUseCase
	refresh  domrepo.RefreshPublisher
	backtest domsvc.Backtester
	symbols  *usecase.SymbolSearchUseCase
	maxBatch int
}

type HandlerOption func(*AnalysisEchoHandler)

// WithRefreshPublisher enables POST /api/analysis/:symbol/refresh.
func WithRefreshPublisher(p domrepo.RefreshPublisher) HandlerOption {
	return func(h *AnalysisEchoHandler) { h.refresh = p }
}

// WithBacktester enables GET /api/backtest/:symbol.
func WithBacktester(b domsvc.Backtester) HandlerOption {
	return func(h *AnalysisEchoHandler) { h.backtest = b }
}

// WithSymbolSearch enables the /api/symbols lookups.
func WithSymbolSearch(uc *usecase.SymbolSearchUseCase) HandlerOption {
	return func(h *AnalysisEchoHandler) { h.symbols = uc }
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, analyzer domsvc.BatchAnalyzer, history *usecase.HistoryUseCase, maxBatch int, opts ...HandlerOption) *AnalysisEchoHandler {
	if maxBatch <= 0 {
		maxBatch = 50
	}
	svcmetrics.Register()
	h := &AnalysisEchoHandler{logger: logger, analyzer: analyzer, history: history, maxBatch: maxBatch}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/profiles", h.Profiles)
	g.POST("/analysis/batch", h.Batch)
	g.GET("/analysis/:symbol", h.Analyze)
	g.GET("/analysis/:symbol/history", h.History)
	g.POST("/analysis/:symbol/refresh", h.Refresh)
	if h.backtest != nil {
		g.GET("/backtest/:symbol", h.Backtest)
	}
	if h.symbols != nil {
		g.GET("/symbols/search", h.SearchSymbols)
		g.GET("/symbols/resolve", h.ResolveSymbol)
	}
}

func (h *AnalysisEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	defer observe("analyze", time.Now())
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	mode, _ := models.ParseMode(req.Mode)

	res, err := h.analyzer.Analyze(c.Request().Context(), req.Symbol, mode)
	if err != nil {
		return h.fail(c, "analyze", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

// BatchItem is one entry of the batch response; exactly one of Result and
// Error is set.
type BatchItem struct {
	Symbol string                 `json:"symbol"`
	Result *models.AnalysisResult `json:"result,omitempty"`
	Error  *xhttp.AppError        `json:"error,omitempty"`
}

func (h *AnalysisEchoHandler) Batch(c echo.Context) error {
	defer observe("batch", time.Now())
	req := &models.BatchAnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if len(req.Symbols) > h.maxBatch {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("at most %d symbols per batch", h.maxBatch))
	}
	mode, _ := models.ParseMode(req.Mode)

	items, err := h.analyzer.AnalyzeMany(c.Request().Context(), req.Symbols, mode)
	if err != nil {
		return h.fail(c, "batch", err)
	}
	out := make([]BatchItem, len(items))
	for i, it := range items {
		out[i] = BatchItem{Symbol: it.Symbol, Result: it.Result}
		if it.Err != nil {
			out[i].Error = toAppError(it.Err)
		}
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

func (h *AnalysisEchoHandler) History(c echo.Context) error {
	defer observe("history", time.Now())
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.history.GetHistory(c.Request().Context(), usecase.GetHistoryParams{Symbol: req.Symbol, Limit: req.Limit})
	if err != nil {
		return h.fail(c, "history", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Refresh accepts the request and returns before the recomputation runs.
func (h *AnalysisEchoHandler) Refresh(c echo.Context) error {
	defer observe("refresh", time.Now())
	req := &models.RefreshHTTPRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sym, err := models.NormalizeSymbol(req.Symbol)
	if err != nil {
		return h.fail(c, "refresh", err)
	}
	if h.refresh == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("ERR_REFRESH_DISABLED", "refresh requests are not enabled"))
	}

	rr := models.RefreshRequest{Symbol: sym, Mode: req.Mode}
	if err := h.refresh.RequestRefresh(c.Request().Context(), rr); err != nil {
		h.logger.Error("refresh publish failed", xlogger.String("symbol", sym), xlogger.Error(err))
		svcmetrics.HandlerErrors.WithLabelValues("refresh", "ERR_REFRESH_FAILED").Inc()
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("ERR_REFRESH_FAILED", "could not queue the refresh request"))
	}
	return xhttp.AcceptedResponse(c, rr)
}

func (h *AnalysisEchoHandler) Backtest(c echo.Context) error {
	defer observe("backtest", time.Now())
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.backtest.Backtest(c.Request().Context(), req.Symbol, models.Strategy(req.Strategy), req.Capital)
	if err != nil {
		return h.fail(c, "backtest", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) SearchSymbols(c echo.Context) error {
	defer observe("symbol_search", time.Now())
	req := &models.SymbolSearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res := h.symbols.Search(req.Query, req.Limit)
	return xhttp.ListResponse(c, res.Matches, int64(res.Count))
}

// ResolveSymbol returns the single best catalog match, or 404.
func (h *AnalysisEchoHandler) ResolveSymbol(c echo.Context) error {
	defer observe("symbol_resolve", time.Now())
	req := &models.SymbolResolveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	m, err := h.symbols.Resolve(req.Query)
	if err != nil {
		return h.fail(c, "symbol_resolve", err)
	}
	return xhttp.SuccessResponse(c, m)
}

func (h *AnalysisEchoHandler) Profiles(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.SuccessResponse(c, rules.Profiles())
}

func (h *AnalysisEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	svcmetrics.HandlerErrors.WithLabelValues(endpoint, appErr.Code).Inc()
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(endpoint+" usecase error", xlogger.String("code", appErr.Code), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(err error) *xhttp.AppError {
	var due *models.DataUnavailableError
	switch {
	case errors.Is(err, models.ErrInvalidSymbol):
		return xhttp.NewAppError("ERR_INVALID_SYMBOL", "symbol", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, models.ErrUnknownStrategy):
		return xhttp.NewAppError("ERR_INVALID_STRATEGY", "strategy", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, models.ErrUnknownSymbol):
		return xhttp.NewAppError("ERR_UNKNOWN_SYMBOL", "symbol", err.Error(), http.StatusNotFound).WithError(err)
	case errors.As(err, &due):
		return xhttp.ServiceUnavailableError("ERR_ANALYSIS_UNAVAILABLE", due.Error()).WithError(err)
	case errors.Is(err, usecase.ErrArchiveDisabled):
		return xhttp.NewAppError("ERR_ARCHIVE_DISABLED", "", "analysis history is not enabled", http.StatusNotFound).WithError(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return xhttp.GatewayTimeoutError("request cancelled before the analysis completed").WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}

func observe(endpoint string, start time.Time) {
	svcmetrics.HandlerLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
