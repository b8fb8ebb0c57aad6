package goFeishuAuth

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/goFeishuAuth/hostenv"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

func collectEvents(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()

	out := make([]AuditEvent, 0, n)
	deadline := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev := <-sink.Events():
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func auditedEnv(t *testing.T, sink AuditSink, mutate func(*Config, *Builder)) *testEnv {
	t.Helper()
	return newTestEnv(t, func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 16
		b.WithAuditSink(sink)
		if mutate != nil {
			mutate(cfg, b)
		}
	})
}

func TestAuditDisabledByDefault(t *testing.T) {
	sink := NewChannelSink(4)
	env := newTestEnv(t, func(_ *Config, b *Builder) {
		b.WithAuditSink(sink)
	})
	_ = env.engine.Logout(context.Background())

	select {
	case ev := <-sink.Events():
		t.Fatalf("unexpected event with audit disabled: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAuditSDKSuccessCarriesAttemptAndContext(t *testing.T) {
	sink := NewChannelSink(8)
	env := auditedEnv(t, sink, func(_ *Config, b *Builder) {
		b.WithRuntime(hostenv.Embedded(hostenv.Relay{Code: "c"}))
	})

	ctx := WithBrowsingContext(context.Background(), "bc-42")
	res, err := env.engine.Authenticate(ctx)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	ev := collectEvents(t, sink, 1)[0]
	if ev.EventType != auditEventSDKSuccess || !ev.Success {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Subject != "ou_sdk" || ev.ContextID != "bc-42" {
		t.Fatalf("expected subject and context id, got %+v", ev)
	}
	if ev.AttemptID == "" || ev.AttemptID != res.AttemptID {
		t.Fatalf("event attempt %q does not match result attempt %q", ev.AttemptID, res.AttemptID)
	}
	if ev.Metadata["tier"] != "durable" {
		t.Fatalf("expected durable tier metadata, got %v", ev.Metadata)
	}
}

func TestAuditStateMismatchEvents(t *testing.T) {
	sink := NewChannelSink(8)
	env := auditedEnv(t, sink, nil)
	ctx := context.Background()
	_ = env.durable.Set(ctx, storage.KeyState, []byte("expected00000000"))

	_, _ = env.engine.HandleCallback(ctx, "code", "forged0000000000")

	events := collectEvents(t, sink, 2)
	if events[0].EventType != auditEventStateMismatch || events[0].Error != string(auditErrSecurityViolation) {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].EventType != auditEventCallbackFailure || events[1].Metadata["reason"] != "state_mismatch" {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestAuditNavigationDenied(t *testing.T) {
	sink := NewChannelSink(4)
	env := auditedEnv(t, sink, nil)

	if err := env.engine.RememberRedirect(context.Background(), "/recording"); err != nil {
		t.Fatalf("RememberRedirect failed: %v", err)
	}
	ev := collectEvents(t, sink, 1)[0]
	if ev.EventType != auditEventNavigationDenied || ev.Metadata["path"] != "/recording" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestAuditErrorCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{ErrSecurityViolation, auditErrSecurityViolation},
		{ErrEmptyIdentity, auditErrEmptyIdentity},
		{ErrInvalidIdentity, auditErrInvalidIdentity},
		{ErrAppIDUnavailable, auditErrAppIDUnavailable},
		{ErrMissingCallbackParams, auditErrMissingParams},
		{&hostenv.BridgeError{Code: 1}, auditErrBridge},
		{ErrEmptyAccessCode, auditErrBridge},
		{ErrRedirectURIUnavailable, auditErrRedirectURI},
		{ErrNavigatorMissing, auditErrNavigation},
		{&HTTPError{StatusCode: 502}, auditErrHTTP},
		{&PlatformError{Code: 20003}, auditErrPlatform},
		{ErrMalformedResponse, auditErrMalformed},
		{ErrStoreUnavailable, auditErrUnavailable},
		{context.Canceled, auditErrCanceled},
		{errUnexpected, auditErrInternal},
	}
	for _, tc := range cases {
		if got := auditErrorCode(tc.err); got != tc.want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestAuditDroppedReported(t *testing.T) {
	gate := make(chan struct{})
	sink := blockingSink{gate: gate}
	env := auditedEnv(t, sink, func(cfg *Config, _ *Builder) {
		cfg.Audit.BufferSize = 1
		cfg.Audit.DropIfFull = true
	})
	for i := 0; i < 8; i++ {
		_ = env.engine.RememberRedirect(context.Background(), "/p")
	}
	if env.engine.AuditDropped() == 0 {
		t.Fatal("expected dropped events with a blocked sink")
	}
	close(gate)
}

type blockingSink struct {
	gate chan struct{}
}

func (s blockingSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}
