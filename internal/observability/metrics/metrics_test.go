package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestImportMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewImportMetrics(reg)
	m.ObserveImport("completed", 1.25)
	m.ObserveRow("created")
	m.ObserveRow("created")
	m.ObserveRow("failed")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	counts := map[string]float64{}
	for _, fam := range families {
		if fam.GetName() != "grooming_importer_rows_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" {
					counts[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	if counts["created"] != 2 {
		t.Errorf("expected 2 created rows, got %v", counts["created"])
	}
	if counts["failed"] != 1 {
		t.Errorf("expected 1 failed row, got %v", counts["failed"])
	}
}

func TestImportMetricsNilSafe(t *testing.T) {
	var m *ImportMetrics
	m.ObserveImport("completed", 0.1)
	m.ObserveRow("created")
}

func TestImportMetricsGaugeTypes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewImportMetrics(reg)
	m.ObserveImport("rolled_back", 0.5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var histogram *dto.MetricFamily
	for _, fam := range families {
		if fam.GetName() == "grooming_importer_import_duration_seconds" {
			histogram = fam
		}
	}
	if histogram == nil {
		t.Fatal("expected import duration histogram to be registered")
	}
	if histogram.GetType() != dto.MetricType_HISTOGRAM {
		t.Errorf("expected histogram type, got %v", histogram.GetType())
	}
}
