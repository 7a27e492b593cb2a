package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c == nil {
		t.Fatal("NewCollector returned nil")
	}

	if c.registry == nil {
		t.Error("registry is nil")
	}

	if c.Recomputations == nil {
		t.Error("Recomputations is nil")
	}

	if c.InvalidSearchTerms == nil {
		t.Error("InvalidSearchTerms is nil")
	}

	if c.LoaderLines == nil {
		t.Error("LoaderLines is nil")
	}
}

func TestViewMetrics(t *testing.T) {
	c := NewCollector()

	c.Recomputations.WithLabelValues(KindPipeline).Add(3)
	c.RecomputeDuration.WithLabelValues(KindSort).Observe(0.001)
	c.DisplayedRecords.Set(42)

	metric := &dto.Metric{}
	if err := c.Recomputations.WithLabelValues(KindPipeline).(prometheus.Counter).Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 3 {
		t.Errorf("Expected 3, got %f", metric.Counter.GetValue())
	}

	metric = &dto.Metric{}
	if err := c.DisplayedRecords.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 42 {
		t.Errorf("Expected 42, got %f", metric.Gauge.GetValue())
	}
}

func TestRegistryGather(t *testing.T) {
	c := NewCollector()
	c.InvalidSearchTerms.Inc()
	c.LoaderLines.WithLabelValues("json", "parsed").Inc()

	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, want := range []string{
		"logview_search_invalid_terms_total",
		"logview_loader_lines_total",
		"logview_view_displayed_records",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestGetGlobalCollector(t *testing.T) {
	if GetGlobalCollector() != GetGlobalCollector() {
		t.Error("global collector should be a singleton")
	}
}
