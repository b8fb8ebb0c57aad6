// Package middleware is the navigation guard: it gates protected views on an
// identity being present in storage.
//
// # Guards
//
//   - [Check] is the pure decision for one navigation.
//   - [Navigation] applies a route [Table] to every request.
//   - [RequireLogin] protects every route it wraps.
//   - [ResumePath] returns the path a denied navigation was heading to.
//
// A denied navigation remembers the requested path through [Presence] and is
// redirected to the landing page.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into presence checks. It reads
// storage only through [Presence].
//
// # What this package must NOT do
//
//   - Start an authentication attempt (no Authenticate calls).
//   - Touch the network.
//   - Redirect to anything but a local path on resume.
package middleware
