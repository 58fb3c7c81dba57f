package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

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

func sumInt(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "unexpected data type %T", m.Data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestSessionLifecycle(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSessionStarted(ctx, "fr-FR")
	m.RecordSessionStarted(ctx, "fr-FR")
	m.RecordAnswer(ctx, false)
	m.RecordAnswer(ctx, true)
	m.RecordUnitResolved(ctx, 2, false)
	m.RecordSessionCompleted(ctx, "fr-FR", 67)
	m.RecordSessionEnded(ctx, "fr-FR")

	rm := collect(t, reader)
	assert.EqualValues(t, 2, sumInt(t, findMetric(rm, "dictee.sessions.started")))
	assert.EqualValues(t, 1, sumInt(t, findMetric(rm, "dictee.sessions.completed")))
	assert.EqualValues(t, 0, sumInt(t, findMetric(rm, "dictee.sessions.active")))
	assert.EqualValues(t, 2, sumInt(t, findMetric(rm, "dictee.answers")))
	assert.EqualValues(t, 1, sumInt(t, findMetric(rm, "dictee.units.resolved")))

	score := findMetric(rm, "dictee.session.score")
	require.NotNil(t, score)
	hist, ok := score.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.EqualValues(t, 1, hist.DataPoints[0].Count)
	assert.Equal(t, 67.0, hist.DataPoints[0].Sum)
}

func TestMiddleware(t *testing.T) {
	m, reader := newTestMetrics(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Middleware(m)(mux)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/things/42", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)

	rm := collect(t, reader)
	dur := findMetric(rm, "dictee.http.request.duration")
	require.NotNil(t, dur)
	hist := dur.Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	route, ok := hist.DataPoints[0].Attributes.Value("route")
	require.True(t, ok)
	assert.Equal(t, "GET /api/things/{id}", route.AsString())
}
