package qsim

import (
	"sort"
	"sync"
	"time"
)

type timeWindow struct {
	duration time.Duration
	count    int
}

// Metrics aggregates counters over every run of a simulator.
type Metrics struct {
	mu sync.RWMutex

	Runs               int64
	FailedRuns         int64
	GatesApplied       int64
	ShotsSampled       int64
	Renormalizations   int64
	RefusedRegisters   int64
	BatchesScheduled   int64
	SchedulingFailures int64
	WorkerCount        int
	TotalRunTime       time.Duration

	AverageRunLatency time.Duration
	P95RunLatency     time.Duration
	P99RunLatency     time.Duration

	latencyWindows []timeWindow
	windowSize     int
	latencySamples int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		latencyWindows: make([]timeWindow, 0, 1000), // Store last 1000 measurements
		windowSize:     1000,
	}
}

func (m *Metrics) recordRun(startTime time.Time, gates, shots int, success bool) {
	duration := time.Since(startTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Runs++
	m.GatesApplied += int64(gates)
	if !success {
		m.FailedRuns++
		return
	}

	m.ShotsSampled += int64(shots)
	m.TotalRunTime += duration
	m.updateLatencyPercentiles(duration)
}

func (m *Metrics) recordRenormalization() {
	m.mu.Lock()
	m.Renormalizations++
	m.mu.Unlock()
}

func (m *Metrics) recordRefusal() {
	m.mu.Lock()
	m.RefusedRegisters++
	m.mu.Unlock()
}

func (m *Metrics) recordBatch(scheduled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchesScheduled++
	if !scheduled {
		m.SchedulingFailures++
	}
}

// recordSchedulingFailure counts a batch that was queued but never reached a worker.
func (m *Metrics) recordSchedulingFailure() {
	m.mu.Lock()
	m.SchedulingFailures++
	m.mu.Unlock()
}

func (m *Metrics) setWorkers(count int) {
	m.mu.Lock()
	m.WorkerCount = count
	m.mu.Unlock()
}

func (m *Metrics) updateLatencyPercentiles(duration time.Duration) {
	m.latencySamples++
	m.AverageRunLatency = (m.AverageRunLatency*time.Duration(m.latencySamples-1) + duration) / time.Duration(m.latencySamples)

	m.latencyWindows = append(m.latencyWindows, timeWindow{
		duration: duration,
		count:    1,
	})

	if len(m.latencyWindows) > m.windowSize {
		m.latencyWindows = m.latencyWindows[1:]
	}

	sorted := make([]time.Duration, 0, len(m.latencyWindows))
	for _, w := range m.latencyWindows {
		for i := 0; i < w.count; i++ {
			sorted = append(sorted, w.duration)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	if len(sorted) > 0 {
		p95Index := min(int(float64(len(sorted))*0.95), len(sorted)-1)
		p99Index := min(int(float64(len(sorted))*0.99), len(sorted)-1)

		m.P95RunLatency = sorted[p95Index]
		m.P99RunLatency = sorted[p99Index]
	}
}

// ExportMetrics returns a snapshot keyed by metric name.
func (m *Metrics) ExportMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"runs":                m.Runs,
		"failed_runs":         m.FailedRuns,
		"gates_applied":       m.GatesApplied,
		"shots_sampled":       m.ShotsSampled,
		"renormalizations":    m.Renormalizations,
		"refused_registers":   m.RefusedRegisters,
		"batches_scheduled":   m.BatchesScheduled,
		"scheduling_failures": m.SchedulingFailures,
		"worker_count":        m.WorkerCount,
		"avg_latency":         m.AverageRunLatency.Milliseconds(),
		"p95_latency":         m.P95RunLatency.Milliseconds(),
		"p99_latency":         m.P99RunLatency.Milliseconds(),
	}
}
