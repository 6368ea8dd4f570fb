package secureauth

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricSignUpSuccess counts completed sign-ups.
	MetricSignUpSuccess MetricID = iota
	// MetricSignUpFailure counts rejected or failed sign-ups.
	MetricSignUpFailure
	// MetricLoginSuccess counts completed sign-ins.
	MetricLoginSuccess
	// MetricLoginFailure counts failed credential proofs.
	MetricLoginFailure
	// MetricLoginLocked counts attempts rejected by account lockout.
	MetricLoginLocked
	// MetricLoginSuspicious counts attempts rejected by anomaly detection.
	MetricLoginSuspicious
	// MetricSessionCreated counts persisted sessions.
	MetricSessionCreated
	// MetricSessionCleared counts explicit sign-outs and lazy expiries.
	MetricSessionCleared
	// MetricAccountDeleted counts completed account deletions.
	MetricAccountDeleted
	// MetricResetRequested counts issued password-reset tokens.
	MetricResetRequested
	metricIDCount
)

// Metrics holds lock-free counters for the Service hot paths.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a counter set; a disabled set is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
