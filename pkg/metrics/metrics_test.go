package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveRequest("match", "ok", 20*time.Millisecond)
	m.ObserveRequest("match", "ok", 30*time.Millisecond)
	m.ObserveRequest("league", "server_error", time.Millisecond)
	m.ObserveSleep("per_second", 1100*time.Millisecond)
	m.RecordAdded("details")
	m.SetCollectionSize("details", 42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("match", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("league", "server_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LimiterSleeps.WithLabelValues("per_second")))
	assert.InDelta(t, 1.1, testutil.ToFloat64(m.LimiterSeconds.WithLabelValues("per_second")), 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsAdded.WithLabelValues("details")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.CollectionSize.WithLabelValues("details")))

	series, err := testutil.GatherAndCount(m.Registry(), "tftcrawler_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series, "one series per endpoint and outcome")
}

func TestRegistryIsPrivate(t *testing.T) {
	a, b := New(), New()
	a.RecordAdded("identities")

	count, err := testutil.GatherAndCount(b.Registry(), "tftcrawler_records_added_total")
	require.NoError(t, err)
	assert.Zero(t, count, "collectors are not shared between instances")

	count, err = testutil.GatherAndCount(a.Registry(), "tftcrawler_records_added_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest("match", "ok", time.Millisecond)
		m.ObserveSleep("per_window", time.Second)
		m.RecordAdded("identities")
		m.SetCollectionSize("identities", 1)
	})
	assert.NoError(t, m.WriteTextfile("/nonexistent/metrics.prom"))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RecordAdded("participants")

	path := filepath.Join(t.TempDir(), "tftcrawler.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tftcrawler_records_added_total{collection="participants"} 1`)
}
