// Package metrics provides lock-free counters and the code-exchange latency
// histogram behind Engine.MetricsSnapshot.
//
// # Design
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically via [sync/atomic.AddUint64]. The histogram uses 8 fixed buckets
// (≤25ms … ≤2.5s, +Inf). The write path never allocates.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshot creation. Export
// (Prometheus, OTel) lives in metrics/export/ and reads Snapshot values.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import goFeishuAuth or any sibling package.
//   - Expose global metric registries.
package metrics
