package tracing

import (
	"context"
	"testing"
)

func TestDisabledProviderIsNoop(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	_, span := TraceRecompute(context.Background(), p.Tracer(), "pipeline", 10)
	if span.IsRecording() {
		t.Error("disabled provider should not record spans")
	}
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestEnabledProviderRecords(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(ctx, Config{Enabled: true, SampleRate: 1})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Shutdown(ctx)

	_, span := TraceLoad(ctx, p.Tracer(), "/var/log/app.log", "json")
	defer span.End()

	if !span.IsRecording() {
		t.Error("enabled provider should record spans")
	}
}
