// Package observe provides observability primitives for hexavox:
// OpenTelemetry metrics, tracing, and HTTP middleware that ties them
// together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed by [InitProvider] so everything stays
// scrapable via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all hexavox metrics.
const meterName = "github.com/MrWong99/hexavox"

// Metrics holds all OpenTelemetry metric instruments for the trainer.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Histograms ---

	// UtteranceDuration tracks the spoken length of each utterance the
	// endpoint detector emits.
	UtteranceDuration metric.Float64Histogram

	// RecognitionDuration tracks engine transcription latency. Use with
	// attribute: attribute.String("engine", ...)
	RecognitionDuration metric.Float64Histogram

	// --- Counters ---

	// Utterances counts utterances emitted by the endpoint detector.
	Utterances metric.Int64Counter

	// Rejections counts transcripts dropped by the confidence gate.
	Rejections metric.Int64Counter

	// Timeouts counts listen attempts that ended without an utterance.
	Timeouts metric.Int64Counter

	// Intents counts resolved intents. Use with attribute:
	//   attribute.String("kind", "letter"|"exit"|"unknown")
	Intents metric.Int64Counter

	// EngineErrors counts recognizer failures. Use with attribute:
	//   attribute.String("engine", ...)
	EngineErrors metric.Int64Counter

	// --- Gauges ---

	// WebClients tracks the number of connected status-feed clients.
	WebClients metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// recognition latency on small local models.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// utteranceBuckets defines histogram bucket boundaries (in seconds) for
// spoken utterance lengths, bounded by the recording cap.
var utteranceBuckets = []float64{
	0.25, 0.5, 1, 2, 4, 6, 8, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.UtteranceDuration, err = m.Float64Histogram("hexavox.utterance.duration",
		metric.WithDescription("Spoken length of detected utterances."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(utteranceBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RecognitionDuration, err = m.Float64Histogram("hexavox.recognition.duration",
		metric.WithDescription("Latency of speech recognition per utterance by engine."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Utterances, err = m.Int64Counter("hexavox.utterances",
		metric.WithDescription("Total utterances emitted by the endpoint detector."),
	); err != nil {
		return nil, err
	}
	if met.Rejections, err = m.Int64Counter("hexavox.recognition.rejections",
		metric.WithDescription("Total transcripts rejected by the confidence gate."),
	); err != nil {
		return nil, err
	}
	if met.Timeouts, err = m.Int64Counter("hexavox.listen.timeouts",
		metric.WithDescription("Total listen attempts that timed out without speech."),
	); err != nil {
		return nil, err
	}
	if met.Intents, err = m.Int64Counter("hexavox.intents",
		metric.WithDescription("Total resolved intents by kind."),
	); err != nil {
		return nil, err
	}
	if met.EngineErrors, err = m.Int64Counter("hexavox.engine.errors",
		metric.WithDescription("Total recognizer failures by engine."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.WebClients, err = m.Int64UpDownCounter("hexavox.web.clients",
		metric.WithDescription("Number of connected status-feed clients."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("hexavox.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen
// with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity
// at call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordUtterance counts one emitted utterance and records its spoken
// length.
func (m *Metrics) RecordUtterance(ctx context.Context, length time.Duration) {
	m.Utterances.Add(ctx, 1)
	m.UtteranceDuration.Record(ctx, length.Seconds())
}

// RecordRecognition records how long the named engine took to transcribe
// one utterance.
func (m *Metrics) RecordRecognition(ctx context.Context, engine string, took time.Duration) {
	m.RecognitionDuration.Record(ctx, took.Seconds(),
		metric.WithAttributes(attribute.String("engine", engine)),
	)
}

// RecordRejection counts one confidence-gate rejection.
func (m *Metrics) RecordRejection(ctx context.Context) {
	m.Rejections.Add(ctx, 1)
}

// RecordTimeout counts one listen attempt that ended without speech.
func (m *Metrics) RecordTimeout(ctx context.Context) {
	m.Timeouts.Add(ctx, 1)
}

// RecordIntent counts one resolved intent by kind.
func (m *Metrics) RecordIntent(ctx context.Context, kind string) {
	m.Intents.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}

// RecordEngineError counts one recognizer failure for the named engine.
func (m *Metrics) RecordEngineError(ctx context.Context, engine string) {
	m.EngineErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("engine", engine)),
	)
}
