package prometrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chowline/chowline/internal/observability"
)

func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric family %q not gathered", name)
	return nil
}

func labelValue(m *dto.Metric, key string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == key {
			return l.GetValue()
		}
	}
	return ""
}

func TestCounterBindFixesLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("test", reg)

	c := r.Counter(observability.MReconcileItems)
	success := c.Bind(observability.L("outcome", "success"))
	success.Add(1)
	success.Add(1)
	c.Add(1, observability.L("outcome", "error"))

	mf := gatherFamily(t, reg, "test_availability_reconcile_items_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "outcome")] = m.GetCounter().GetValue()
	}
	assert.InDelta(t, 2, got["success"], 1e-9)
	assert.InDelta(t, 1, got["error"], 1e-9)
}

func TestHistogramBindFixesLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("test", reg)

	h := r.Histogram(observability.MUsecaseDuration)
	bound := h.Bind(observability.L("use_case", "order.place"))
	bound.Observe(0.25)
	bound.Observe(0.75)

	mf := gatherFamily(t, reg, "test_usecase_duration_seconds")
	metrics := mf.GetMetric()
	require.Len(t, metrics, 1)
	assert.Equal(t, "order.place", labelValue(metrics[0], "use_case"))
	assert.Equal(t, uint64(2), metrics[0].GetHistogram().GetSampleCount())
}

func TestUndeclaredKeyFallsBackToNop(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("test", reg)

	c := r.Counter("made_up_metric_total")
	c.Add(1)
	c.Bind(observability.L("k", "v")).Add(1)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}

func TestCounterIsRegisteredOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("test", reg)

	// A second lookup must reuse the registered vector; MustRegister on a
	// duplicate would panic.
	r.Counter(observability.MOrdersPlaced).Add(1)
	r.Counter(observability.MOrdersPlaced).Add(1)

	mf := gatherFamily(t, reg, "test_orders_placed_total")
	require.Len(t, mf.GetMetric(), 1)
	assert.InDelta(t, 2, mf.GetMetric()[0].GetCounter().GetValue(), 1e-9)
}
