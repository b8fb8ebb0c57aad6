// Command feishu-loadtest measures the storage-bound paths of the engine:
// cached-identity authentication and the redirect state round trip, across
// many browsing contexts sharing one durable Redis.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goFeishuAuth "github.com/MrEthical07/goFeishuAuth"
	"github.com/MrEthical07/goFeishuAuth/profile"
	"github.com/MrEthical07/goFeishuAuth/statetoken"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

func main() {
	var (
		contexts    = flag.Int("contexts", 20000, "number of browsing contexts to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (cache + state)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "fa", "durable key prefix")
	)
	flag.Parse()

	if *contexts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "contexts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  *redis.Client
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	ephemeral, err := storage.NewMemoryStore(*contexts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "memory store: %v\n", err)
		os.Exit(1)
	}
	base := storage.NewTiers(ephemeral, storage.NewRedisStore(client, *prefix+":", 0))

	cfg := goFeishuAuth.DefaultConfig()
	// Cache hits never reach the backend.
	cfg.Backend.BaseURL = "http://127.0.0.1:9/api"
	engine, err := goFeishuAuth.New().
		WithConfig(cfg).
		WithStores(base.Ephemeral, base.Durable).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	scoped := make([]*storage.Tiers, *contexts)
	fmt.Printf("seeding %d browsing contexts...\n", *contexts)
	startSeed := time.Now()
	for i := range scoped {
		scoped[i] = base.Scoped(fmt.Sprintf("ctx-%d", i))
		if err := scoped[i].Write(ctx, storage.Durable, identityFor(i)); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	cacheStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand) error {
		tiers := scoped[r.Intn(len(scoped))]
		res, err := engine.Bind(goFeishuAuth.Binding{Tiers: tiers}).Authenticate(ctx)
		if err != nil {
			return err
		}
		if !res.FromCache {
			return fmt.Errorf("attempt %s missed the cache", res.AttemptID)
		}
		return nil
	})

	stateStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand) error {
		guard := statetoken.NewGuard(scoped[r.Intn(len(scoped))].Durable, cfg.Login.StateLength)
		state, err := guard.Issue(ctx)
		if err != nil {
			return err
		}
		return guard.Consume(ctx, state)
	})

	fmt.Println("---- results ----")
	printStats("cache", cacheStats)
	printStats("state", stateStats)
	fmt.Printf("cache hits recorded: %d\n", engine.MetricsSnapshot().Counters[goFeishuAuth.MetricCacheHit])
}

// runPhase spreads ops calls of fn over concurrency workers. State
// round trips on one context may race; a lost race counts as a failure.
func runPhase(ops, concurrency int, seed int64, fn func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := fn(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func identityFor(i int) profile.Payload {
	return profile.Payload{
		"name":         fmt.Sprintf("user-%d", i),
		"open_id":      fmt.Sprintf("ou_%d", i),
		"access_token": fmt.Sprintf("u-%d", i),
	}
}
