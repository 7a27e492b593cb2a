package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/therealutkarshpriyadarshi/logview/internal/metrics"
)

func TestHandlerServesRegistry(t *testing.T) {
	collector := metrics.NewCollector()
	collector.Recomputations.WithLabelValues(metrics.KindPipeline).Inc()

	s, err := New(Config{Path: "/custom", Registry: collector.Registry()})
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/custom", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `logview_view_recomputations_total{kind="pipeline"} 1`) {
		t.Errorf("metrics output missing recomputation counter:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("default path should not be served, got %d", rec.Code)
	}
}

func TestNewRequiresRegistry(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without registry")
	}
}

func TestStartStop(t *testing.T) {
	collector := metrics.NewCollector()
	s, err := New(Config{Address: "127.0.0.1:0", Registry: collector.Registry()})
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "logview_") {
		t.Errorf("unexpected response %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
