package goAdmin

import (
	"sync/atomic"
	"time"
)

// MetricID indexes a counter in [Metrics].
type MetricID uint16

const (
	// MetricLoginOTPRequired counts credential submissions the backend accepted.
	MetricLoginOTPRequired MetricID = iota
	MetricLoginLocked
	MetricLoginInvalidCredentials
	// MetricLoginFailure counts other failures, transport errors included.
	MetricLoginFailure
	// MetricLoginRefusedLocked counts submissions refused locally by a stored lockout.
	MetricLoginRefusedLocked
	MetricOTPSuccess
	MetricOTPFailure
	MetricSessionValidated
	// MetricSessionInvalidated counts identities dropped because the backend
	// rejected the token or the token had expired.
	MetricSessionInvalidated
	// MetricSessionProbeFailOpen counts probes that errored and were treated as valid.
	MetricSessionProbeFailOpen
	MetricLogout
	MetricGuardRedirect
	// MetricBackendLatency is the only metric with a latency histogram.
	MetricBackendLatency
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricLoginOTPRequired:        "login_otp_required",
	MetricLoginLocked:             "login_locked",
	MetricLoginInvalidCredentials: "login_invalid_credentials",
	MetricLoginFailure:            "login_failure",
	MetricLoginRefusedLocked:      "login_refused_locked",
	MetricOTPSuccess:              "otp_success",
	MetricOTPFailure:              "otp_failure",
	MetricSessionValidated:        "session_validated",
	MetricSessionInvalidated:      "session_invalidated",
	MetricSessionProbeFailOpen:    "session_probe_fail_open",
	MetricLogout:                  "logout",
	MetricGuardRedirect:           "guard_redirect",
	MetricBackendLatency:          "backend_latency",
}

// Name returns the snake_case name used by the exporters.
func (id MetricID) Name() string {
	if id >= metricIDCount {
		return ""
	}
	return metricNames[id]
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters. A nil or disabled *Metrics
// accepts every call and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	latency       metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters record.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram records.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a backend round trip and bumps the latency counter.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricBackendLatency {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
	atomic.AddUint64(&m.latency.buckets[bucketIndex(d)], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and the histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.latency.buckets[i])
		}
		s.Histograms[MetricBackendLatency] = buckets
	}
	return s
}

// LatencyBucketBounds are the inclusive upper bounds of the histogram
// buckets; the last bucket is unbounded.
var LatencyBucketBounds = [histBucketCount - 1]time.Duration{
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	2500 * time.Millisecond,
	5 * time.Second,
}

func bucketIndex(d time.Duration) int {
	for i, bound := range LatencyBucketBounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
