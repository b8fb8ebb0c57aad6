package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goFeishuAuth/storage"
)

const memoryCapacity = 4096

// openDurable opens the durable tier backend. The returned cleanup is never
// nil.
func openDurable(ctx context.Context, gc gatewayConfig) (storage.Store, func(), error) {
	switch gc.Durable {
	case durableRedis:
		client := redis.NewClient(&redis.Options{Addr: gc.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, func() {}, fmt.Errorf("redis %s: %w", gc.RedisAddr, err)
		}
		log.Printf("goFeishuAuth: durable tier on redis at %s", gc.RedisAddr)
		return storage.NewRedisStore(client, "", 0), func() { _ = client.Close() }, nil

	case durableMiniredis:
		mr, err := miniredis.Run()
		if err != nil {
			return nil, func() {}, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		log.Printf("goFeishuAuth: durable tier on miniredis at %s, logins are lost on exit", mr.Addr())
		return storage.NewRedisStore(client, "", 0), func() {
			_ = client.Close()
			mr.Close()
		}, nil

	case durableSQLite:
		s, err := storage.OpenSQLite(gc.SQLitePath)
		if err != nil {
			return nil, func() {}, fmt.Errorf("open sqlite %s: %w", gc.SQLitePath, err)
		}
		log.Printf("goFeishuAuth: durable tier on sqlite at %s", gc.SQLitePath)
		return s, func() { _ = s.Close() }, nil

	case durableMemory:
		m, err := storage.NewMemoryStore(memoryCapacity)
		if err != nil {
			return nil, func() {}, err
		}
		return m, func() {}, nil
	}
	return nil, func() {}, fmt.Errorf("unknown durable store %q", gc.Durable)
}
