package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordRun(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRun(100*time.Millisecond, nil)
	assert.Equal(t, int64(1), m.RunsTotal())
	assert.Equal(t, int64(0), m.RunFailures())

	m.RecordRun(300*time.Millisecond, errors.New("bookmarks unavailable"))
	assert.Equal(t, int64(2), m.RunsTotal())
	assert.Equal(t, int64(1), m.RunFailures())

	snap := m.Snapshot()
	assert.Equal(t, (300 * time.Millisecond).Nanoseconds(), snap.LastRunNanos)
}

func TestMetrics_RunLatencyAvg(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	assert.InDelta(t, 0.0, m.RunLatencyAvgMs(), 0.001)

	m.RecordRun(100*time.Millisecond, nil)
	m.RecordRun(200*time.Millisecond, nil)
	assert.InDelta(t, 150.0, m.RunLatencyAvgMs(), 0.001)
}

func TestMetrics_SuccessRate(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	assert.InDelta(t, 0.0, m.SuccessRate(), 0.001)

	m.RecordRun(time.Millisecond, nil)
	m.RecordRun(time.Millisecond, nil)
	m.RecordRun(time.Millisecond, nil)
	m.RecordRun(time.Millisecond, errors.New("x"))
	assert.InDelta(t, 75.0, m.SuccessRate(), 0.001)
}

func TestMetrics_StorageAndScheduler(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordFallback()
	m.RecordWrite(1024, false)
	m.RecordWrite(2048, true)
	m.RecordFire()
	m.RecordReschedule()
	m.RecordReschedule()
	m.RecordStoreChange()
	m.RecordJoin()

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Fallbacks)
	assert.Equal(t, int64(1), m.Fallbacks())
	assert.Equal(t, int64(3072), snap.BytesWritten)
	assert.Equal(t, int64(2), snap.FilesWritten)
	assert.Equal(t, int64(1), snap.SealedWritten)
	assert.Equal(t, int64(1), snap.TimerFires)
	assert.Equal(t, int64(2), snap.Reschedules)
	assert.Equal(t, int64(1), snap.StoreChanges)
	assert.Equal(t, int64(1), snap.RunJoins)
}

func TestMetrics_Reset(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRun(time.Second, errors.New("x"))
	m.RecordFallback()
	m.RecordWrite(10, true)
	m.Reset()

	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestMetrics_Concurrent(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRun(time.Millisecond, nil)
			m.RecordWrite(1, false)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.RunsTotal())
	assert.Equal(t, int64(50), m.Snapshot().BytesWritten)
}

func TestGlobal(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, Global)
}
