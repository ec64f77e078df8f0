package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestDisabledTracerIsNoop(t *testing.T) {
	tr, err := New(Config{Enabled: false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, span := tr.StartSpan(context.Background(), "noop")
	span.End()
	if _, _, ok := TraceFields(ctx); ok {
		t.Fatalf("noop span must not carry a valid context")
	}
}

func TestEnabledTracerExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewWithWriter(Config{Enabled: true, ServiceName: "equitylens-test"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}
	ctx, span := tr.StartSpan(context.Background(), "analysis.compute")
	if _, _, ok := TraceFields(ctx); !ok {
		t.Fatalf("recording span has no trace id")
	}
	span.End()
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "analysis.compute") {
		t.Fatalf("span not exported: %s", buf.String())
	}
}
