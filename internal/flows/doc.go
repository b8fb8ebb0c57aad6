// Package flows contains the pure-function orchestrators behind
// Engine.Authenticate and Engine.HandleCallback.
//
// Each flow accepts an [AuthDeps] struct of function fields and returns a
// [Result] whose State records how far the attempt got. Flows never retry and
// never fabricate an identity: every failure is returned to the caller.
//
// # Architecture boundaries
//
// Flows coordinate the storage tiers, the host bridge, the backend client,
// the state guard, metrics and audit. They do NOT own any of these
// resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goFeishuAuth (to avoid import cycles).
//   - Perform I/O directly; all I/O goes through AuthDeps.
package flows
