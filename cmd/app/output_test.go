package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"EquityLens/internal/domain/models"
	domsvc "EquityLens/internal/domain/service"
)

func TestUnavailableMessage(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		err    error
		want   string
	}{
		{"raw error", " tsla ", errors.New("upstream timeout"), "analysis unavailable for TSLA: upstream timeout"},
		{"already wrapped", "aapl", models.NewDataUnavailable("AAPL", "not enough history", nil), "analysis unavailable for AAPL: not enough history"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unavailableMessage(tt.symbol, tt.err); got != tt.want {
				t.Fatalf("unavailableMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteBatchReportsFailuresPerSymbol(t *testing.T) {
	items := []domsvc.BatchItem{
		{Symbol: "AAPL", Result: &models.AnalysisResult{Symbol: "AAPL"}},
		{Symbol: "zzzz", Err: errors.New("no bars returned")},
	}
	var out, errOut bytes.Buffer
	failed, err := writeBatch(&out, &errOut, items)
	if err != nil {
		t.Fatalf("writeBatch: %v", err)
	}
	if failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
	if got := strings.TrimSpace(errOut.String()); got != "analysis unavailable for ZZZZ: no bars returned" {
		t.Fatalf("stderr = %q", got)
	}
	if !strings.Contains(out.String(), `"AAPL"`) {
		t.Fatalf("stdout missing result: %s", out.String())
	}
}
