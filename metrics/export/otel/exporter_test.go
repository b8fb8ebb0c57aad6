package otel

import (
	"context"
	"sync"
	"testing"

	goFeishuAuth "github.com/MrEthical07/goFeishuAuth"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goFeishuAuth.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goFeishuAuth.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goFeishuAuth.MetricsSnapshot{
		Counters:   make(map[goFeishuAuth.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goFeishuAuth.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func findSum(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			case metricdata.Gauge[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			}
		}
	}
	return 0, false
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newMeter()
	meter := provider.Meter("feishu-auth-test")

	src := &fakeSource{
		snapshot: goFeishuAuth.MetricsSnapshot{
			Counters: map[goFeishuAuth.MetricID]uint64{
				goFeishuAuth.MetricCallbackSuccess: 3,
			},
			Histograms: map[goFeishuAuth.MetricID][]uint64{
				goFeishuAuth.MetricExchangeLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if v, ok := findSum(rm, "feishu_auth_callback_success_total"); !ok || v != 3 {
		t.Fatalf("expected callback success 3, got %d (found=%v)", v, ok)
	}
	if v, ok := findSum(rm, "feishu_auth_exchange_latency_seconds_count"); !ok || v != 8 {
		t.Fatalf("expected histogram count 8, got %d (found=%v)", v, ok)
	}
	if v, ok := findSum(rm, "feishu_auth_exchange_latency_seconds_bucket_le_0_1"); !ok || v != 3 {
		t.Fatalf("expected le 0.1 bucket 3, got %d (found=%v)", v, ok)
	}
	if v, ok := findSum(rm, "feishu_auth_audit_dropped_total"); !ok || v != 1 {
		t.Fatalf("expected audit dropped 1, got %d (found=%v)", v, ok)
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newMeter()
	meter := provider.Meter("feishu-auth-test")

	if _, err := NewExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := NewExporter(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil engine, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newMeter()
	meter := provider.Meter("feishu-auth-test")

	src := &fakeSource{
		snapshot: goFeishuAuth.MetricsSnapshot{
			Counters: map[goFeishuAuth.MetricID]uint64{
				goFeishuAuth.MetricCacheHit: 1,
			},
			Histograms: map[goFeishuAuth.MetricID][]uint64{
				goFeishuAuth.MetricExchangeLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goFeishuAuth.MetricCacheHit] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
