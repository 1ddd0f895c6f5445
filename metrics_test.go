package lrudict

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

// TestMetricsTrackHitsMissesAndEvictions confirms the opt-in Metrics
// collector mirrors the same observables Stats() reports, plus
// evictions, without requiring a caller to register anything to use the
// dict at all (WithMetrics is purely additive).
func TestMetricsTrackHitsMissesAndEvictions(t *testing.T) {
	reg := prometheus.NewRegistry()
	var depth func() int
	m := NewMetrics("lrudict_test", "cache", func() int {
		if depth == nil {
			return 0
		}
		return depth()
	})
	require.NoError(t, m.Register(reg))

	d, err := New[int, int](2, WithMetrics[int, int](m))
	require.NoError(t, err)
	depth = d.PurgeQueueSize

	require.NoError(t, d.Assign(0, 0))
	require.NoError(t, d.Assign(1, 1))
	require.NoError(t, d.Assign(2, 2)) // evicts key 0

	_, err = d.Lookup(1)
	require.NoError(t, err)
	_, err = d.Lookup(99)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, float64(1), counterValue(t, m.hits))
	assert.Equal(t, float64(1), counterValue(t, m.misses))
	assert.Equal(t, float64(1), counterValue(t, m.evictions))
}

// TestMetricsBusyRejectionCounter confirms a rejected reentrant write
// increments busyRejections.
func TestMetricsBusyRejectionCounter(t *testing.T) {
	m := NewMetrics("lrudict_test", "busy", nil)

	var d *LRUDict[reentrantKey, int]
	reentered := false
	hasher := HasherFunc[reentrantKey](func(k reentrantKey) uint64 {
		if k.reenter && !reentered {
			reentered = true
			_ = d.Assign(reentrantKey{n: 99}, -1)
		}
		return uint64(k.n)
	})

	var err error
	d, err = New[reentrantKey, int](4,
		WithHasher[reentrantKey, int](hasher),
		WithMetrics[reentrantKey, int](m),
	)
	require.NoError(t, err)

	require.NoError(t, d.Assign(reentrantKey{n: 1, reenter: true}, 1))
	assert.Equal(t, float64(1), counterValue(t, m.busyRejections))
}

// TestMetricsWithoutDepthFnSkipsGauge confirms NewMetrics tolerates a nil
// depthFn (Register simply omits the gauge).
func TestMetricsWithoutDepthFnSkipsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("lrudict_test", "nodepth", nil)
	assert.Nil(t, m.purgeQueueDepth)
	require.NoError(t, m.Register(reg))
}
