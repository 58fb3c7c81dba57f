// Package observe records dictation metrics through the OpenTelemetry
// metrics API and exposes them to Prometheus.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "dictee"

// Metrics holds the instruments used by the services and HTTP layer
type Metrics struct {
	SessionsStarted   metric.Int64Counter
	SessionsCompleted metric.Int64Counter
	ActiveSessions    metric.Int64UpDownCounter

	// Answers counts submissions with attribute result=correct|wrong
	Answers metric.Int64Counter

	// UnitsResolved counts resolved units with attribute stars
	UnitsResolved metric.Int64Counter

	SessionScore        metric.Float64Histogram
	SpeechDuration      metric.Float64Histogram
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var percentBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// NewMetrics creates every instrument from mp
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SessionsStarted, err = m.Int64Counter("dictee.sessions.started",
		metric.WithDescription("Practice sessions started."),
	); err != nil {
		return nil, err
	}
	if met.SessionsCompleted, err = m.Int64Counter("dictee.sessions.completed",
		metric.WithDescription("Practice sessions completed."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("dictee.sessions.active",
		metric.WithDescription("Practice sessions in progress."),
	); err != nil {
		return nil, err
	}
	if met.Answers, err = m.Int64Counter("dictee.answers",
		metric.WithDescription("Answers submitted by result."),
	); err != nil {
		return nil, err
	}
	if met.UnitsResolved, err = m.Int64Counter("dictee.units.resolved",
		metric.WithDescription("Units resolved by stars earned."),
	); err != nil {
		return nil, err
	}
	if met.SessionScore, err = m.Float64Histogram("dictee.session.score",
		metric.WithDescription("Percentage score of completed sessions."),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(percentBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SpeechDuration, err = m.Float64Histogram("dictee.speech.duration",
		metric.WithDescription("Latency of speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("dictee.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns instruments bound to the global MeterProvider.
// Call InitProvider first so they are exported.
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

// RecordSessionStarted counts a new session for language
func (m *Metrics) RecordSessionStarted(ctx context.Context, language string) {
	attrs := metric.WithAttributes(attribute.String("language", language))
	m.SessionsStarted.Add(ctx, 1, attrs)
	m.ActiveSessions.Add(ctx, 1, attrs)
}

// RecordSessionEnded marks a session as no longer active
func (m *Metrics) RecordSessionEnded(ctx context.Context, language string) {
	m.ActiveSessions.Add(ctx, -1, metric.WithAttributes(attribute.String("language", language)))
}

// RecordSessionCompleted counts a finished session and its score
func (m *Metrics) RecordSessionCompleted(ctx context.Context, language string, percentage int) {
	attrs := metric.WithAttributes(attribute.String("language", language))
	m.SessionsCompleted.Add(ctx, 1, attrs)
	m.SessionScore.Record(ctx, float64(percentage), attrs)
	m.ActiveSessions.Add(ctx, -1, attrs)
}

// RecordAnswer counts one submission
func (m *Metrics) RecordAnswer(ctx context.Context, correct bool) {
	result := "wrong"
	if correct {
		result = "correct"
	}
	m.Answers.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordUnitResolved counts a resolved unit by stars earned
func (m *Metrics) RecordUnitResolved(ctx context.Context, stars int, passed bool) {
	m.UnitsResolved.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("stars", stars),
		attribute.Bool("passed", passed),
	))
}

// RecordSpeech records one synthesis
func (m *Metrics) RecordSpeech(ctx context.Context, seconds float64, status string) {
	m.SpeechDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("status", status)))
}
