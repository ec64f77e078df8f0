package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"EquityLens/internal/domain/models"
	domrepo "EquityLens/internal/domain/repository"
	"EquityLens/internal/service/ratelimit"
	apphttp "EquityLens/pkg/http"
)

// HTTPProvider fetches snapshots from a JSON market data gateway:
// GET {base}/v1/snapshot/{symbol}?lookback_days=N returns a models.MarketSnapshot.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *apphttp.Client
	limiter *ratelimit.Limiter
	now     func() time.Time
}

var _ domrepo.MarketDataProvider = (*HTTPProvider)(nil)

type HTTPProviderOption func(*HTTPProvider)

func WithAPIKey(key string) HTTPProviderOption {
	return func(p *HTTPProvider) { p.apiKey = key }
}

func WithHTTPClient(c *apphttp.Client) HTTPProviderOption {
	return func(p *HTTPProvider) { p.client = c }
}

// WithRateLimit caps outgoing requests to perSecond with bursts of burst.
func WithRateLimit(burst, perSecond float64) HTTPProviderOption {
	return func(p *HTTPProvider) { p.limiter = ratelimit.New(burst, perSecond) }
}

func WithProviderClock(now func() time.Time) HTTPProviderOption {
	return func(p *HTTPProvider) { p.now = now }
}

func NewHTTPProvider(baseURL string, opts ...HTTPProviderOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = apphttp.NewClient(apphttp.WithTimeout(15 * time.Second))
	}
	return p
}

func (p *HTTPProvider) Fetch(ctx context.Context, symbol string, lookback time.Duration) (*models.MarketSnapshot, error) {
	if err := p.limiter.Wait(ctx, "snapshot"); err != nil {
		return nil, err
	}

	days := int(lookback.Hours() / 24)
	if days < 1 {
		days = 1
	}
	headers := map[string]string{"Accept": "application/json"}
	if p.apiKey != "" {
		headers["X-API-Key"] = p.apiKey
	}

	var snap models.MarketSnapshot
	err := p.client.SendAndParse(ctx, &apphttp.RequestOptions{
		Method:      apphttp.MethodGet,
		URL:         p.baseURL + "/v1/snapshot/" + url.PathEscape(symbol),
		Headers:     headers,
		QueryParams: map[string][]string{"lookback_days": {strconv.Itoa(days)}},
	}, &snap)

	var se *apphttp.StatusError
	switch {
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		return nil, models.NewDataUnavailable(symbol, "unknown symbol", models.ErrUnknownSymbol)
	case err != nil:
		return nil, fmt.Errorf("fetch snapshot %s: %w", symbol, err)
	}

	if snap.Symbol == "" {
		snap.Symbol = symbol
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = p.now().UTC()
	}
	sort.SliceStable(snap.Bars, func(i, j int) bool { return snap.Bars[i].Time.Before(snap.Bars[j].Time) })
	return &snap, nil
}
