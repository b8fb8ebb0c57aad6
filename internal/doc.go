// Package internal contains helpers private to goFeishuAuth, currently the
// alphanumeric random source behind state tokens.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - backend: HTTP client for the application backend and the Feishu platform
//   - flows: pure-function orchestrators for Authenticate and HandleCallback
//   - metrics: lock-free counters and the exchange latency histogram
//
// # What this package must NOT do
//
//   - Export types that appear in the public goFeishuAuth API.
//   - Be imported by any package outside the goFeishuAuth module.
package internal
