// Package goFeishuAuth authenticates a browser client against the Feishu (Lark)
// workplace platform and keeps one normalized identity per browsing context.
//
// An [Engine] reconciles three sources of identity: a cached record in the
// ephemeral or durable storage tier, the in-host SDK handshake when the page
// runs inside the Feishu client, and the OAuth authorization-code redirect
// when it does not. Every route ends in the same [UserProfile] shape.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build], provided the configured stores are.
//
// # Architecture boundaries
//
// goFeishuAuth is the public surface. It exposes [Engine], [Builder], [Config],
// error values and metrics/audit types. Flow orchestration, HTTP contracts and
// audit dispatch live under internal/. Storage backends, the state-token guard,
// the host bridge adapter and the profile normalizer are importable on their own.
//
// # What this package must NOT do
//
//   - Fabricate a guest identity when authentication fails.
//   - Retry an exchange; every attempt ends in a terminal state.
//   - Import any sub-package that re-imports goFeishuAuth (no import cycles).
package goFeishuAuth
