package gatekeeper

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one gateway counter or histogram.
type MetricID uint16

const (
	// MetricAllowed counts requests that reached the terminal allow stage.
	MetricAllowed MetricID = iota
	// MetricBypassed counts static-asset requests that skipped the pipeline.
	MetricBypassed
	// MetricCORSViolation counts denials from origin validation.
	MetricCORSViolation
	// MetricRateLimited counts denials from the rate limiter.
	MetricRateLimited
	// MetricOversized counts denials from the payload-size check.
	MetricOversized
	// MetricAuthMissing counts requests with no bearer token on guarded routes.
	MetricAuthMissing
	// MetricAuthInvalid counts invalid, expired, or revoked tokens.
	MetricAuthInvalid
	// MetricAuthBlocked counts clients denied by the failed-attempt block.
	MetricAuthBlocked
	// MetricAdminDenied counts role checks that failed on admin routes.
	MetricAdminDenied
	// MetricHierarchyViolation counts tokens carrying unknown roles.
	MetricHierarchyViolation
	// MetricSessionInvalid counts failed session validations.
	MetricSessionInvalid
	// MetricThreatBlocked counts threat-level vetoes.
	MetricThreatBlocked
	// MetricInternalError counts recovered pipeline failures.
	MetricInternalError
	// MetricEvalLatency is the pipeline evaluation latency histogram.
	MetricEvalLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter keeps each counter on its own cache line so concurrent
// increments of different metrics do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the gateway's in-process counters. All methods are safe for
// concurrent use; a nil or disabled Metrics is a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histogram
// buckets, consumed by the exporters under metrics/export.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics set from config.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistogram,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample into the evaluation histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricEvalLatency {
		return
	}
	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters and histogram buckets.
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
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricEvalLatency].buckets[i])
		}
		s.Histograms[MetricEvalLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
