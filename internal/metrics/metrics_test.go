package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountersAccumulate(t *testing.T) {
	m := NewMetrics()
	m.IncrementCounter("events_accepted")
	m.IncrementCounter("events_accepted")
	m.IncrementCounterBy("events_rejected", 3)

	counters := m.GetCounters()
	require.Equal(t, int64(2), counters["events_accepted"])
	require.Equal(t, int64(3), counters["events_rejected"])
}

func TestTimerTracksMinMaxAverage(t *testing.T) {
	m := NewMetrics()
	m.RecordTimer("ingest_pipeline", 10*time.Millisecond)
	m.RecordTimer("ingest_pipeline", 30*time.Millisecond)

	timers := m.GetTimers()
	tm := timers["ingest_pipeline"]
	require.Equal(t, int64(2), tm.Count)
	require.Equal(t, int64(10), tm.MinTimeMs)
	require.Equal(t, int64(30), tm.MaxTimeMs)
	require.Equal(t, 20.0, tm.AverageTimeMs)
}

func TestErrorRate(t *testing.T) {
	m := NewMetrics()
	m.RecordSuccess("ingest")
	m.RecordSuccess("ingest")
	m.RecordError("ingest")
	m.RecordSuccess("ingest")

	rates := m.GetErrorRates()
	require.Equal(t, int64(4), rates["ingest"].Total)
	require.Equal(t, int64(1), rates["ingest"].Errors)
	require.Equal(t, 25.0, rates["ingest"].ErrorRate)
}

func TestHealthChecks(t *testing.T) {
	m := NewMetrics()
	m.SetHealth("database", true)
	m.SetHealth("redis", false)

	checks := m.GetHealthChecks()
	require.True(t, checks["database"])
	require.False(t, checks["redis"])
}
