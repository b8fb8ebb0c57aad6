// Package storage persists the raw Feishu identity record and the auxiliary
// redirect-flow keys across an ephemeral and a durable tier.
//
// # Backends
//
//   - [MemoryStore]: bounded LRU, the default ephemeral backend.
//   - [RedisStore]: durable, shared between gateway replicas.
//   - [SQLiteStore]: durable, single node.
//
// [Tiers] is the per-browsing-context view used by the engine. Reads fall
// back from ephemeral to durable and never surface backend errors; writes
// return errors so the caller can decide whether they are fatal.
package storage
