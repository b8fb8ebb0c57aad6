package main

import (
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"
)

func TestPercentileAndStats(t *testing.T) {
	samples := []time.Duration{5, 1, 4, 2, 3}
	s := computeStats(time.Second, samples, 1)
	if s.ops != 5 || s.failures != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
	if s.p50 != 3 || s.p99 != 4 || percentile(samples, 100) != 5 {
		t.Fatalf("unexpected percentiles: p50=%d p99=%d", s.p50, s.p99)
	}
	if computeStats(time.Second, nil, 0).ops != 0 {
		t.Fatal("empty samples must give zero ops")
	}
}

func TestRunPhaseCountsFailures(t *testing.T) {
	var calls int64
	s := runPhase(10, 3, 1, func(r *rand.Rand) error {
		if atomic.AddInt64(&calls, 1)%2 == 0 {
			return errors.New("boom")
		}
		return nil
	})
	if s.ops != 10 || s.failures != 5 {
		t.Fatalf("expected 10 ops and 5 failures, got %+v", s)
	}
}
