package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"EquityLens/pkg/config"
	applogger "EquityLens/pkg/logger"
)

type countingDrainer struct {
	waits atomic.Int32
	block chan struct{}
}

func (d *countingDrainer) Wait() {
	d.waits.Add(1)
	if d.block != nil {
		<-d.block
	}
}

func TestMetricsEndpointFollowsConfig(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		cfg := config.Default()
		cfg.Metrics.Enabled = enabled
		app := New(cfg, applogger.Nop(), nil, nil, nil, nil, nil)

		rec := httptest.NewRecorder()
		app.HTTPServer().Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		want := http.StatusNotFound
		if enabled {
			want = http.StatusOK
		}
		if rec.Code != want {
			t.Fatalf("metrics enabled=%v: status %d, want %d", enabled, rec.Code, want)
		}
	}
}

func TestShutdownDrainsSinks(t *testing.T) {
	d := &countingDrainer{}
	app := New(config.Default(), applogger.Nop(), nil, nil, nil, nil, d)

	if err := app.shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if d.waits.Load() != 1 {
		t.Fatalf("drainer waited %d times, want 1", d.waits.Load())
	}
}

func TestShutdownGivesUpOnStuckSinks(t *testing.T) {
	d := &countingDrainer{block: make(chan struct{})}
	defer close(d.block)
	app := New(config.Default(), applogger.Nop(), nil, nil, nil, nil, d)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_ = app.shutdown(ctx)
	if time.Since(start) > time.Second {
		t.Fatalf("shutdown blocked on a stuck drainer")
	}
}
