// Package metrics provides process-level backup counters.
// Counters live for the lifetime of the process; the scheduler prints them on shutdown.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds backup metrics using atomic counters for thread safety.
type Metrics struct {
	// Run metrics
	runsTotal       atomic.Int64
	runFailures     atomic.Int64
	runJoins        atomic.Int64
	runLatencyNanos atomic.Int64
	lastRunNanos    atomic.Int64

	// Storage metrics
	fallbacks     atomic.Int64
	bytesWritten  atomic.Int64
	filesWritten  atomic.Int64
	sealedWritten atomic.Int64

	// Scheduler metrics
	timerFires   atomic.Int64
	reschedules  atomic.Int64
	storeChanges atomic.Int64
}

// Global is the global metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRun records a finished backup run with its duration and outcome.
func (m *Metrics) RecordRun(duration time.Duration, err error) {
	m.runsTotal.Add(1)
	m.runLatencyNanos.Add(duration.Nanoseconds())
	m.lastRunNanos.Store(duration.Nanoseconds())

	if err != nil {
		m.runFailures.Add(1)
	}
}

// RecordJoin records a trigger that joined a run already in flight.
func (m *Metrics) RecordJoin() {
	m.runJoins.Add(1)
}

// RecordFallback records a custom-directory write that fell back to downloads.
func (m *Metrics) RecordFallback() {
	m.fallbacks.Add(1)
}

// RecordWrite records a file written to disk.
func (m *Metrics) RecordWrite(bytes int, sealed bool) {
	m.filesWritten.Add(1)
	m.bytesWritten.Add(int64(bytes))
	if sealed {
		m.sealedWritten.Add(1)
	}
}

// RecordFire records a timer fire accepted by the scheduler.
func (m *Metrics) RecordFire() {
	m.timerFires.Add(1)
}

// RecordReschedule records a re-arm of the backup timer.
func (m *Metrics) RecordReschedule() {
	m.reschedules.Add(1)
}

// RecordStoreChange records an external change to the store file.
func (m *Metrics) RecordStoreChange() {
	m.storeChanges.Add(1)
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RunsTotal       int64 `json:"runs_total"`
	RunFailures     int64 `json:"run_failures"`
	RunJoins        int64 `json:"run_joins"`
	RunLatencyNanos int64 `json:"run_latency_nanos"`
	LastRunNanos    int64 `json:"last_run_nanos"`
	Fallbacks       int64 `json:"fallbacks"`
	BytesWritten    int64 `json:"bytes_written"`
	FilesWritten    int64 `json:"files_written"`
	SealedWritten   int64 `json:"sealed_written"`
	TimerFires      int64 `json:"timer_fires"`
	Reschedules     int64 `json:"reschedules"`
	StoreChanges    int64 `json:"store_changes"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RunsTotal:       m.runsTotal.Load(),
		RunFailures:     m.runFailures.Load(),
		RunJoins:        m.runJoins.Load(),
		RunLatencyNanos: m.runLatencyNanos.Load(),
		LastRunNanos:    m.lastRunNanos.Load(),
		Fallbacks:       m.fallbacks.Load(),
		BytesWritten:    m.bytesWritten.Load(),
		FilesWritten:    m.filesWritten.Load(),
		SealedWritten:   m.sealedWritten.Load(),
		TimerFires:      m.timerFires.Load(),
		Reschedules:     m.reschedules.Load(),
		StoreChanges:    m.storeChanges.Load(),
	}
}

// RunsTotal returns the number of finished runs.
func (m *Metrics) RunsTotal() int64 {
	return m.runsTotal.Load()
}

// RunFailures returns the number of failed runs.
func (m *Metrics) RunFailures() int64 {
	return m.runFailures.Load()
}

// Fallbacks returns the number of custom-directory fallbacks.
func (m *Metrics) Fallbacks() int64 {
	return m.fallbacks.Load()
}

// RunLatencyAvgMs returns the average run duration in milliseconds.
// Returns 0 if no runs have finished.
func (m *Metrics) RunLatencyAvgMs() float64 {
	runs := m.runsTotal.Load()
	if runs == 0 {
		return 0
	}
	return float64(m.runLatencyNanos.Load()) / float64(runs) / 1e6
}

// SuccessRate returns the share of successful runs as a percentage (0-100).
// Returns 0 if no runs have finished.
func (m *Metrics) SuccessRate() float64 {
	runs := m.runsTotal.Load()
	if runs == 0 {
		return 0
	}
	return float64(runs-m.runFailures.Load()) / float64(runs) * 100
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.runsTotal.Store(0)
	m.runFailures.Store(0)
	m.runJoins.Store(0)
	m.runLatencyNanos.Store(0)
	m.lastRunNanos.Store(0)
	m.fallbacks.Store(0)
	m.bytesWritten.Store(0)
	m.filesWritten.Store(0)
	m.sealedWritten.Store(0)
	m.timerFires.Store(0)
	m.reschedules.Store(0)
	m.storeChanges.Store(0)
}
