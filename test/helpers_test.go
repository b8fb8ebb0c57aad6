//go:build integration
// +build integration

package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goFeishuAuth/storage"
)

// durableMode is one durable-tier backend the suite runs against.
type durableMode struct {
	name  string
	setup func(t *testing.T) storage.Store
}

// durableModes returns every backend available in this environment.
// miniredis, sqlite and memory always run; real Redis runs when REDIS_ADDR
// is set (e.g. "127.0.0.1:6379").
func durableModes(t *testing.T) []durableMode {
	t.Helper()
	modes := []durableMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) storage.Store {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() { _ = rdb.Close(); mr.Close() })
				return storage.NewRedisStore(rdb, "it:", 0)
			},
		},
		{
			name: "sqlite",
			setup: func(t *testing.T) storage.Store {
				t.Helper()
				s, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "durable.db"))
				if err != nil {
					t.Fatalf("sqlite: %v", err)
				}
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		},
		{
			name: "memory",
			setup: func(t *testing.T) storage.Store {
				t.Helper()
				m, err := storage.NewMemoryStore(128)
				if err != nil {
					t.Fatalf("memory: %v", err)
				}
				return m
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, durableMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) storage.Store {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				prefix := "it:" + t.Name() + ":"
				t.Cleanup(func() {
					keys, _ := rdb.Keys(context.Background(), prefix+"*").Result()
					if len(keys) > 0 {
						rdb.Del(context.Background(), keys...)
					}
					_ = rdb.Close()
				})
				return storage.NewRedisStore(rdb, prefix, 0)
			},
		})
	}
	return modes
}
