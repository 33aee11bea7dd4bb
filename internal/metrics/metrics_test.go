package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lift-cli/internal/model"
)

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun(2, []model.AttributionResult{
		{Brand: "a", Model: "correlation", Confidence: model.ConfidenceHigh, AttributedDollars: 500},
		{Brand: "b", Model: "correlation", Confidence: model.ConfidenceHigh, AttributedDollars: 800, Capped: true},
		{Brand: "a", Model: "funnel", AttributedDollars: 3000},
	}, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Results.WithLabelValues("correlation", "HIGH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Results.WithLabelValues("funnel", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Capped.WithLabelValues("correlation")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Brands))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Attributed))

	expected := `
# HELP lift_attribution_capped_total Attribution results clamped to their cap, by model
# TYPE lift_attribution_capped_total counter
lift_attribution_capped_total{model="correlation"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.Capped, strings.NewReader(expected)))
}

func TestObserveBaselineLoadAndRequests(t *testing.T) {
	m := New()
	m.ObserveBaselineLoad("sqlite", nil)
	m.ObserveBaselineLoad("sqlite", errors.New("boom"))
	m.ObserveRequest("/v1/attribution", 200)
	m.ObserveRequest("/v1/attribution", 200)
	m.Throttled.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BaselineLoad.WithLabelValues("sqlite", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BaselineLoad.WithLabelValues("sqlite", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/v1/attribution", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Throttled))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRun(1, []model.AttributionResult{{Model: "yoy", Confidence: model.ConfidenceLow}}, time.Millisecond)

	path := filepath.Join(t.TempDir(), "lift.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `lift_attribution_results_total{confidence="LOW",model="yoy"} 1`)

	assert.NoError(t, m.WriteTextfile(""))
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.Throttled.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Throttled))
}
