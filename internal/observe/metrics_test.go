package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// counterValue returns the value of the single-attribute-set counter, or
// fails the test when the metric is missing or not a sum.
func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not a sum", name)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatalf("metric %q has no data points", name)
	}
	return sum.DataPoints[0].Value
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordUtterance(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordUtterance(ctx, 800*time.Millisecond)
	m.RecordUtterance(ctx, 1200*time.Millisecond)

	rm := collect(t, reader)

	if got := counterValue(t, rm, "hexavox.utterances"); got != 2 {
		t.Errorf("utterance count = %d, want 2", got)
	}

	met := findMetric(rm, "hexavox.utterance.duration")
	if met == nil {
		t.Fatal("duration metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if got := hist.DataPoints[0].Count; got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}
	if got := hist.DataPoints[0].Sum; got != 2.0 {
		t.Errorf("summed utterance seconds = %v, want 2.0", got)
	}
}

func TestRecordRecognition_ByEngine(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRecognition(ctx, "vosk", 120*time.Millisecond)
	m.RecordRecognition(ctx, "vosk", 90*time.Millisecond)
	m.RecordRecognition(ctx, "whisper", 2*time.Second)

	rm := collect(t, reader)
	met := findMetric(rm, "hexavox.recognition.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}

	for _, dp := range hist.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "engine" && kv.Value.AsString() == "vosk" {
				if dp.Count != 2 {
					t.Errorf("vosk sample count = %d, want 2", dp.Count)
				}
				return
			}
		}
	}
	t.Error("data point with engine=vosk not found")
}

func TestRejectionAndTimeoutCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRejection(ctx)
	m.RecordRejection(ctx)
	m.RecordTimeout(ctx)

	rm := collect(t, reader)
	if got := counterValue(t, rm, "hexavox.recognition.rejections"); got != 2 {
		t.Errorf("rejection count = %d, want 2", got)
	}
	if got := counterValue(t, rm, "hexavox.listen.timeouts"); got != 1 {
		t.Errorf("timeout count = %d, want 1", got)
	}
}

func TestIntentCounterByKind(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordIntent(ctx, "letter")
	m.RecordIntent(ctx, "letter")
	m.RecordIntent(ctx, "unknown")

	rm := collect(t, reader)
	met := findMetric(rm, "hexavox.intents")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}

	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "kind" && kv.Value.AsString() == "letter" {
				if dp.Value != 2 {
					t.Errorf("letter count = %d, want 2", dp.Value)
				}
				return
			}
		}
	}
	t.Error("data point with kind=letter not found")
}

func TestEngineErrorsCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordEngineError(ctx, "vosk")

	rm := collect(t, reader)
	if got := counterValue(t, rm, "hexavox.engine.errors"); got != 1 {
		t.Errorf("error count = %d, want 1", got)
	}
}

func TestWebClientsGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.WebClients.Add(ctx, 1)
	m.WebClients.Add(ctx, 1)
	m.WebClients.Add(ctx, -1)

	rm := collect(t, reader)
	if got := counterValue(t, rm, "hexavox.web.clients"); got != 1 {
		t.Errorf("client gauge = %d, want 1", got)
	}
}

func TestHTTPRequestDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.HTTPRequestDuration.Record(ctx, 0.05,
		metric.WithAttributes(
			Attr("method", "GET"),
			Attr("path", "/healthz"),
		),
	)

	rm := collect(t, reader)
	met := findMetric(rm, "hexavox.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if got := hist.DataPoints[0].Count; got != 1 {
		t.Errorf("sample count = %d, want 1", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	// DefaultMetrics uses the global OTel provider so we just check
	// that repeated calls return the same pointer.
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
