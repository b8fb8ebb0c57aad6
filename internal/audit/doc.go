// Package audit implements async delivery of authentication audit events.
//
// # Components
//
//   - [Sink] is the consumer interface (channel, JSON lines, fan-out, no-op).
//   - [Dispatcher] is a buffered relay with drop-if-full or block-if-full semantics.
//   - [Event] is the record: type, subject, attempt id, browsing context, metadata.
//
// # Architecture boundaries
//
// This package owns buffering and sink delivery. Which events exist and when
// they fire is decided by the Engine and the flow functions.
//
// # What this package must NOT do
//
//   - Filter events based on business logic.
//   - Import goFeishuAuth or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
