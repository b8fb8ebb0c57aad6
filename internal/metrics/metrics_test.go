package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledMetricsIgnoreWrites(t *testing.T) {
	m := New(Config{Enabled: false, EnableLatency: true})
	m.Inc(MetricCacheHit)
	m.Observe(MetricExchangeLatency, time.Millisecond)

	if got := m.Value(MetricCacheHit); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if m.LatencyEnabled() {
		t.Fatal("latency must stay off when metrics are disabled")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLogout)
	m.Observe(MetricExchangeLatency, time.Second)
	if m.Value(MetricLogout) != 0 || m.Enabled() {
		t.Fatal("nil metrics must read as zero and disabled")
	}
	if snap := m.Snapshot(); snap.Counters == nil || snap.Histograms == nil {
		t.Fatal("nil metrics snapshot must carry non-nil maps")
	}
}

func TestConcurrentIncrement(t *testing.T) {
	m := New(Config{Enabled: true})

	const goroutines = 16
	const perG = 2000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricCallbackSuccess)
			}
		}()
	}
	wg.Wait()

	if got, want := m.Value(MetricCallbackSuccess), uint64(goroutines*perG); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestOutOfRangeIDIgnored(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Inc(MetricIDCount)
	m.Inc(MetricIDCount + 5)
	if got := m.Value(MetricIDCount); got != 0 {
		t.Fatalf("expected 0 for out-of-range id, got %d", got)
	}
}

func TestBucketIndex(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{25 * time.Millisecond, 0},
		{26 * time.Millisecond, 1},
		{50 * time.Millisecond, 1},
		{100 * time.Millisecond, 2},
		{250 * time.Millisecond, 3},
		{500 * time.Millisecond, 4},
		{time.Second, 5},
		{2500 * time.Millisecond, 6},
		{3 * time.Second, 7},
	}
	for _, tc := range cases {
		if got := BucketIndex(tc.d); got != tc.want {
			t.Fatalf("BucketIndex(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}

func TestObserveOnlyExchangeLatency(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})
	m.Observe(MetricCacheHit, time.Millisecond)
	m.Observe(MetricExchangeLatency, 40*time.Millisecond)
	m.Observe(MetricExchangeLatency, 10*time.Second)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricCacheHit]; ok {
		t.Fatal("counter ids must not grow histograms")
	}
	buckets := snap.Histograms[MetricExchangeLatency]
	if len(buckets) != HistBucketCount {
		t.Fatalf("expected %d buckets, got %d", HistBucketCount, len(buckets))
	}
	if buckets[1] != 1 || buckets[HistBucketCount-1] != 1 {
		t.Fatalf("unexpected buckets: %v", buckets)
	}
	if _, ok := snap.Counters[MetricExchangeLatency]; ok {
		t.Fatal("latency id must not appear as a counter")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})
	m.Inc(MetricRedirectIssued)
	snap := m.Snapshot()
	m.Inc(MetricRedirectIssued)

	if snap.Counters[MetricRedirectIssued] != 1 {
		t.Fatalf("snapshot changed after later writes: %d", snap.Counters[MetricRedirectIssued])
	}
	if got := len(BucketUpperMillis()); got != HistBucketCount-1 {
		t.Fatalf("expected %d finite bounds, got %d", HistBucketCount-1, got)
	}
}
