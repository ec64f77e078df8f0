package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"EquityLens/internal/domain/models"
	domsvc "EquityLens/internal/domain/service"
	"EquityLens/internal/usecase"
	xhttp "EquityLens/pkg/http"
	xlogger "EquityLens/pkg/logger"
)

type fakeAnalyzer struct {
	modes []models.Mode
}

func (f *fakeAnalyzer) Analyze(_ context.Context, symbol string, mode models.Mode) (*models.AnalysisResult, error) {
	f.modes = append(f.modes, mode)
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	switch sym {
	case "ZZZZ":
		return nil, models.NewDataUnavailable(sym, "unknown symbol", models.ErrUnknownSymbol)
	case "SLOW":
		return nil, models.NewDataUnavailable(sym, "provider timeout", context.DeadlineExceeded)
	}
	at := time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)
	return &models.AnalysisResult{
		ID:         "id-" + sym,
		Symbol:     sym,
		Mode:       mode,
		Industry:   models.IndustrySoftware,
		Score:      0.2,
		Signal:     models.SignalBuy,
		Confidence: 64,
		ComputedAt: at,
		ExpiresAt:  at.Add(models.FreshnessWindow),
	}, nil
}

func (f *fakeAnalyzer) AnalyzeMany(ctx context.Context, symbols []string, mode models.Mode) ([]domsvc.BatchItem, error) {
	out := make([]domsvc.BatchItem, len(symbols))
	for i, s := range symbols {
		r, err := f.Analyze(ctx, s, mode)
		out[i] = domsvc.BatchItem{Symbol: s, Result: r, Err: err}
	}
	return out, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(a *fakeAnalyzer, history *usecase.HistoryUseCase) *xhttp.Server {
	h := NewAnalysisEchoHandler(xlogger.Nop(), a, history, 3)
	return xhttp.NewServer(h, xhttp.WithMetricsPath(""))
}

func do(t *testing.T, srv *xhttp.Server, method, target, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, target, rec.Body.String(), err)
	}
	return rec.Code, env
}

func errorCode(t *testing.T, env envelope) (string, string) {
	t.Helper()
	var errs []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Data, &errs); err != nil || len(errs) == 0 {
		t.Fatalf("expected error list, got %s (%v)", env.Data, err)
	}
	return errs[0].Code, errs[0].Message
}

func TestAnalyzeEndpoint(t *testing.T) {
	a := &fakeAnalyzer{}
	srv := newTestServer(a, nil)

	code, env := do(t, srv, http.MethodGet, "/api/analysis/aapl?mode=quick", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, body %s", code, env.Data)
	}
	var res struct {
		Symbol     string  `json:"symbol"`
		Mode       string  `json:"mode"`
		Signal     string  `json:"signal"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Symbol != "AAPL" || res.Mode != "quick" || res.Signal != "Buy" || res.Confidence != 64 {
		t.Fatalf("unexpected result %+v", res)
	}

	if code, _ := do(t, srv, http.MethodGet, "/api/analysis/AAPL", ""); code != http.StatusOK || a.modes[len(a.modes)-1] != models.ModeFull {
		t.Fatalf("default mode should be full, status %d", code)
	}
}

func TestAnalyzeEndpointErrors(t *testing.T) {
	cases := []struct {
		target   string
		status   int
		code     string
		contains string
	}{
		{"/api/analysis/AAPL?mode=deep", http.StatusBadRequest, "ERR_ONEOF", "Mode"},
		{"/api/analysis/$$$", http.StatusBadRequest, "ERR_INVALID_SYMBOL", "invalid symbol"},
		{"/api/analysis/ZZZZ", http.StatusNotFound, "ERR_UNKNOWN_SYMBOL", "analysis unavailable for ZZZZ"},
		{"/api/analysis/SLOW", http.StatusServiceUnavailable, "ERR_ANALYSIS_UNAVAILABLE", "analysis unavailable for SLOW: provider timeout"},
	}
	srv := newTestServer(&fakeAnalyzer{}, nil)
	for _, c := range cases {
		status, env := do(t, srv, http.MethodGet, c.target, "")
		if status != c.status {
			t.Fatalf("%s: status = %d, want %d", c.target, status, c.status)
		}
		code, msg := errorCode(t, env)
		if code != c.code || !strings.Contains(msg, c.contains) {
			t.Fatalf("%s: error = %s %q", c.target, code, msg)
		}
	}
}

func TestBatchEndpoint(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{}, nil)

	code, env := do(t, srv, http.MethodPost, "/api/analysis/batch", `{"symbols":["AAPL","ZZZZ"],"mode":"quick"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, body %s", code, env.Data)
	}
	var list struct {
		Rows []struct {
			Symbol string `json:"symbol"`
			Result *struct {
				Signal string `json:"signal"`
			} `json:"result"`
			Error *struct {
				Code string `json:"code"`
			} `json:"error"`
		} `json:"rows"`
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 2 || list.Rows[0].Result == nil || list.Rows[0].Error != nil {
		t.Fatalf("first row = %+v", list.Rows)
	}
	if list.Rows[1].Error == nil || list.Rows[1].Error.Code != "ERR_UNKNOWN_SYMBOL" || list.Rows[1].Result != nil {
		t.Fatalf("second row = %+v", list.Rows[1])
	}

	if code, _ := do(t, srv, http.MethodPost, "/api/analysis/batch", `{"symbols":[]}`); code != http.StatusBadRequest {
		t.Fatalf("empty batch status = %d", code)
	}
	if code, _ := do(t, srv, http.MethodPost, "/api/analysis/batch", `{"symbols":["A","B","C","D"]}`); code != http.StatusBadRequest {
		t.Fatalf("oversized batch status = %d", code)
	}
}

func TestHistoryEndpointWithoutArchive(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{}, usecase.NewHistoryUseCase(nil))
	status, env := do(t, srv, http.MethodGet, "/api/analysis/AAPL/history?limit=5", "")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d", status)
	}
	if code, _ := errorCode(t, env); code != "ERR_ARCHIVE_DISABLED" {
		t.Fatalf("code = %s", code)
	}
	if status, _ := do(t, srv, http.MethodGet, "/api/analysis/AAPL/history?limit=0", ""); status != http.StatusNotFound {
		t.Fatalf("zero limit falls back to the default, status = %d", status)
	}
	if status, _ := do(t, srv, http.MethodGet, "/api/analysis/AAPL/history?limit=900", ""); status != http.StatusBadRequest {
		t.Fatalf("limit over 500 should be rejected, status = %d", status)
	}
}

func TestProfilesAndHealth(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{}, nil)

	code, env := do(t, srv, http.MethodGet, "/api/profiles", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var profiles []struct {
		Industry string `json:"industry"`
		Rules    []struct {
			Name   string  `json:"name"`
			Weight float64 `json:"weight"`
		} `json:"rules"`
	}
	if err := json.Unmarshal(env.Data, &profiles); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(profiles) != len(models.Industries) || profiles[0].Industry != "software" || len(profiles[0].Rules) == 0 {
		t.Fatalf("profiles = %+v", profiles)
	}

	if code, _ := do(t, srv, http.MethodGet, "/healthz", ""); code != http.StatusOK {
		t.Fatalf("healthz status = %d", code)
	}
}

type fakeRefresher struct {
	reqs []models.RefreshRequest
	err  error
}

func (f *fakeRefresher) RequestRefresh(_ context.Context, req models.RefreshRequest) error {
	f.reqs = append(f.reqs, req)
	return f.err
}

func TestRefreshEndpoint(t *testing.T) {
	ref := &fakeRefresher{}
	h := NewAnalysisEchoHandler(xlogger.Nop(), &fakeAnalyzer{}, nil, 3, WithRefreshPublisher(ref))
	srv := xhttp.NewServer(h, xhttp.WithMetricsPath(""))

	status, env := do(t, srv, http.MethodPost, "/api/analysis/brk.b/refresh", `{"mode":"quick"}`)
	if status != http.StatusAccepted {
		t.Fatalf("status = %d", status)
	}
	var got models.RefreshRequest
	if err := json.Unmarshal(env.Data, &got); err != nil || got.Symbol != "BRK.B" || got.Mode != "quick" {
		t.Fatalf("data = %s (%v)", env.Data, err)
	}

	if status, _ := do(t, srv, http.MethodPost, "/api/analysis/AAPL/refresh", ""); status != http.StatusAccepted {
		t.Fatalf("refresh without body status = %d", status)
	}
	if len(ref.reqs) != 2 || ref.reqs[1] != (models.RefreshRequest{Symbol: "AAPL"}) {
		t.Fatalf("published = %+v", ref.reqs)
	}

	if status, _ := do(t, srv, http.MethodPost, "/api/analysis/AAPL/refresh", `{"mode":"weekly"}`); status != http.StatusBadRequest {
		t.Fatalf("bad mode status = %d", status)
	}
	if status, _ := do(t, srv, http.MethodPost, "/api/analysis/A$PL/refresh", ""); status != http.StatusBadRequest {
		t.Fatalf("bad symbol status = %d", status)
	}
	if len(ref.reqs) != 2 {
		t.Fatalf("invalid requests reached the publisher: %+v", ref.reqs)
	}
}

func TestRefreshEndpointDisabled(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{}, nil)
	status, env := do(t, srv, http.MethodPost, "/api/analysis/AAPL/refresh", "")
	if status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", status)
	}
	if code, _ := errorCode(t, env); code != "ERR_REFRESH_DISABLED" {
		t.Fatalf("code = %s", code)
	}
}

type fakeBacktester struct {
	symbol   string
	strategy models.Strategy
	capital  float64
}

func (f *fakeBacktester) Backtest(_ context.Context, symbol string, strategy models.Strategy, capital float64) (*models.BacktestResult, error) {
	f.symbol, f.strategy, f.capital = symbol, strategy, capital
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if sym == "NEW" {
		return nil, models.NewDataUnavailable(sym, "not enough history to backtest", nil)
	}
	return &models.BacktestResult{Symbol: sym, Strategy: strategy, InitialCapital: capital, FinalEquity: capital * 1.1}, nil
}

func TestBacktestEndpoint(t *testing.T) {
	bt := &fakeBacktester{}
	h := NewAnalysisEchoHandler(xlogger.Nop(), &fakeAnalyzer{}, nil, 3, WithBacktester(bt))
	srv := xhttp.NewServer(h, xhttp.WithMetricsPath(""))

	status, env := do(t, srv, http.MethodGet, "/api/backtest/aapl?strategy=breakout&capital=5000", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %s", status, env.Data)
	}
	var res models.BacktestResult
	if err := json.Unmarshal(env.Data, &res); err != nil || res.Symbol != "AAPL" || res.FinalEquity != 5500 {
		t.Fatalf("data = %s (%v)", env.Data, err)
	}
	if bt.strategy != models.StrategyBreakout || bt.capital != 5000 {
		t.Fatalf("backtester got %s %v", bt.strategy, bt.capital)
	}

	if status, _ := do(t, srv, http.MethodGet, "/api/backtest/AAPL", ""); status != http.StatusOK {
		t.Fatalf("default request status = %d", status)
	}
	if bt.strategy != models.StrategyDualMomentum || bt.capital != 10000 {
		t.Fatalf("defaults not applied: %s %v", bt.strategy, bt.capital)
	}

	cases := []struct {
		target string
		status int
		code   string
	}{
		{"/api/backtest/AAPL?strategy=grid", http.StatusBadRequest, "ERR_ONEOF"},
		{"/api/backtest/AAPL?capital=-5", http.StatusBadRequest, "ERR_GT"},
		{"/api/backtest/$$$", http.StatusBadRequest, "ERR_INVALID_SYMBOL"},
		{"/api/backtest/NEW", http.StatusServiceUnavailable, "ERR_ANALYSIS_UNAVAILABLE"},
	}
	for _, c := range cases {
		status, env := do(t, srv, http.MethodGet, c.target, "")
		if status != c.status {
			t.Fatalf("%s: status = %d, want %d", c.target, status, c.status)
		}
		if code, _ := errorCode(t, env); code != c.code {
			t.Fatalf("%s: code = %s, want %s", c.target, code, c.code)
		}
	}
}

func TestSymbolEndpoints(t *testing.T) {
	h := NewAnalysisEchoHandler(xlogger.Nop(), &fakeAnalyzer{}, nil, 3, WithSymbolSearch(usecase.NewSymbolSearchUseCase(nil)))
	srv := xhttp.NewServer(h, xhttp.WithMetricsPath(""))

	status, env := do(t, srv, http.MethodGet, "/api/symbols/search?q=fiserw&limit=3", "")
	if status != http.StatusOK {
		t.Fatalf("search status = %d, body %s", status, env.Data)
	}
	var list struct {
		Rows  []models.SymbolMatch `json:"rows"`
		Total int64                `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil || list.Total == 0 || list.Rows[0].Symbol != "FISV" {
		t.Fatalf("search data = %s (%v)", env.Data, err)
	}

	if status, env := do(t, srv, http.MethodGet, "/api/symbols/search?q=x", ""); status != http.StatusBadRequest {
		t.Fatalf("short query status = %d", status)
	} else if code, _ := errorCode(t, env); code != "ERR_MIN" {
		t.Fatalf("short query code = %s", code)
	}

	status, env = do(t, srv, http.MethodGet, "/api/symbols/resolve?q=APPL", "")
	var m models.SymbolMatch
	if status != http.StatusOK || json.Unmarshal(env.Data, &m) != nil || m.Symbol != "AAPL" {
		t.Fatalf("resolve = %d %s", status, env.Data)
	}
	status, env = do(t, srv, http.MethodGet, "/api/symbols/resolve?q=qwzxv", "")
	if status != http.StatusNotFound {
		t.Fatalf("resolve noise status = %d", status)
	}
	if code, _ := errorCode(t, env); code != "ERR_UNKNOWN_SYMBOL" {
		t.Fatalf("resolve noise code = %s", code)
	}
}

func TestOptionalRoutesStayUnregistered(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{}, nil)
	for _, target := range []string{"/api/backtest/AAPL", "/api/symbols/search?q=apple"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d, want 404", target, rec.Code)
		}
	}
}
