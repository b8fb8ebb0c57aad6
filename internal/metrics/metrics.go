package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter slot.
type MetricID uint16

const (
	MetricCacheHit MetricID = iota
	MetricSDKLoginSuccess
	MetricSDKLoginFailure
	MetricRedirectIssued
	MetricCallbackSuccess
	MetricCallbackFailure
	MetricStateMismatch
	MetricDegradedIdentity
	MetricStorageWriteFailed
	MetricLogout
	MetricNavigationDenied
	MetricPlatformExchangeSuccess
	MetricPlatformExchangeFailure
	MetricExchangeLatency
	MetricIDCount
)

// HistBucketCount is the number of latency buckets, including +Inf.
const HistBucketCount = 8

const cacheLineSize = 64

// Code exchanges are remote round trips, so the buckets start at 25ms.
var bucketUpperMillis = [HistBucketCount - 1]int64{25, 50, 100, 250, 500, 1000, 2500}

type histogram struct {
	buckets [HistBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config toggles collection. With Enabled false every method is a no-op.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds lock-free counters and the exchange latency histogram.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]paddedCounter
	latency       histogram
}

// Snapshot is a point-in-time copy of every counter and histogram.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram of id. Only MetricExchangeLatency
// carries a histogram; other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricExchangeLatency {
		return
	}
	atomic.AddUint64(&m.latency.buckets[BucketIndex(d)], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := Snapshot{
		Counters:   make(map[MetricID]uint64, int(MetricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		if id == MetricExchangeLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, HistBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.latency.buckets[i])
		}
		s.Histograms[MetricExchangeLatency] = buckets
	}

	return s
}

// BucketIndex maps d to its histogram slot. The last slot is +Inf.
func BucketIndex(d time.Duration) int {
	ms := d.Milliseconds()
	for i, upper := range bucketUpperMillis {
		if ms <= upper {
			return i
		}
	}
	return HistBucketCount - 1
}

// BucketUpperMillis returns the finite upper bounds in milliseconds.
func BucketUpperMillis() []int64 {
	out := make([]int64, len(bucketUpperMillis))
	copy(out, bucketUpperMillis[:])
	return out
}
