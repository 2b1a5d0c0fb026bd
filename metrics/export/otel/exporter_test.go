package otel

import (
	"context"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	kotatsu "github.com/LanaDelRey07/Kotatsu"
)

type fakeSource struct {
	snapshot kotatsu.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() kotatsu.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                     { return f.dropped }

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	values := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, point := range data.DataPoints {
					values[m.Name] = point.Value
				}
			case metricdata.Gauge[int64]:
				for _, point := range data.DataPoints {
					values[m.Name] = point.Value
				}
			}
		}
	}
	return values
}

func TestOTelExporterObservesSnapshot(t *testing.T) {
	source := &fakeSource{
		snapshot: kotatsu.MetricsSnapshot{
			Counters: map[kotatsu.MetricID]uint64{
				kotatsu.MetricFlowStarted:   5,
				kotatsu.MetricFlowCancelled: 1,
			},
			Histograms: map[kotatsu.MetricID][]uint64{
				kotatsu.MetricPageLoadLatency: {2, 1, 0, 0, 0, 0, 0, 1},
			},
		},
		dropped: 3,
	}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	exporter, err := NewOTelExporterFromSource(provider.Meter("test"), source)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exporter.Close()

	values := collect(t, reader)

	if values["kotatsu_auth_flow_started_total"] != 5 {
		t.Fatalf("expected 5 started flows, got %d", values["kotatsu_auth_flow_started_total"])
	}
	if values["kotatsu_auth_flow_cancelled_total"] != 1 {
		t.Fatalf("expected 1 cancelled flow, got %d", values["kotatsu_auth_flow_cancelled_total"])
	}
	if values["kotatsu_audit_dropped_total"] != 3 {
		t.Fatalf("expected 3 dropped audit events, got %d", values["kotatsu_audit_dropped_total"])
	}

	// Histogram buckets are exported cumulatively.
	if values["kotatsu_auth_page_load_latency_seconds_bucket_le_0_05"] != 2 {
		t.Fatalf("unexpected first bucket: %d", values["kotatsu_auth_page_load_latency_seconds_bucket_le_0_05"])
	}
	if values["kotatsu_auth_page_load_latency_seconds_bucket_le_inf"] != 4 {
		t.Fatalf("unexpected overflow bucket: %d", values["kotatsu_auth_page_load_latency_seconds_bucket_le_inf"])
	}
	if values["kotatsu_auth_page_load_latency_seconds_count"] != 4 {
		t.Fatalf("unexpected count: %d", values["kotatsu_auth_page_load_latency_seconds_count"])
	}
}

func TestOTelExporterTracksLiveSource(t *testing.T) {
	source := &fakeSource{
		snapshot: kotatsu.MetricsSnapshot{
			Counters:   map[kotatsu.MetricID]uint64{kotatsu.MetricFlowStarted: 1},
			Histograms: map[kotatsu.MetricID][]uint64{},
		},
	}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	exporter, err := NewOTelExporterFromSource(provider.Meter("test"), source)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exporter.Close()

	if values := collect(t, reader); values["kotatsu_auth_flow_started_total"] != 1 {
		t.Fatalf("expected 1, got %d", values["kotatsu_auth_flow_started_total"])
	}

	source.snapshot.Counters[kotatsu.MetricFlowStarted] = 7
	if values := collect(t, reader); values["kotatsu_auth_flow_started_total"] != 7 {
		t.Fatalf("expected 7 after source advanced, got %d", values["kotatsu_auth_flow_started_total"])
	}
}

func TestOTelExporterRejectsNilInputs(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); !errors.Is(err, ErrNilMeter) {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := NewOTelExporter(provider.Meter("test"), nil); !errors.Is(err, ErrNilSource) {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
}

func TestOTelExporterCloseIdempotent(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	exporter, err := NewOTelExporterFromSource(provider.Meter("test"), &fakeSource{
		snapshot: kotatsu.MetricsSnapshot{
			Counters:   map[kotatsu.MetricID]uint64{},
			Histograms: map[kotatsu.MetricID][]uint64{},
		},
	})
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}

	if err := exporter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	var nilExporter *OTelExporter
	if err := nilExporter.Close(); err != nil {
		t.Fatalf("nil Close failed: %v", err)
	}
}
