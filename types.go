package goFeishuAuth

import (
	"context"
	"io"

	internalaudit "github.com/MrEthical07/goFeishuAuth/internal/audit"
	"github.com/MrEthical07/goFeishuAuth/internal/backend"
	internalflows "github.com/MrEthical07/goFeishuAuth/internal/flows"
	internalmetrics "github.com/MrEthical07/goFeishuAuth/internal/metrics"
	"github.com/MrEthical07/goFeishuAuth/profile"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

// State is a step of one authentication attempt.
type State = internalflows.State

const (
	// StateIdle is an exported constant or variable used by the authentication engine.
	StateIdle = internalflows.StateIdle
	// StateCheckingCache is an exported constant or variable used by the authentication engine.
	StateCheckingCache = internalflows.StateCheckingCache
	// StateNeedsLogin is an exported constant or variable used by the authentication engine.
	StateNeedsLogin = internalflows.StateNeedsLogin
	// StateInHostHandshake is an exported constant or variable used by the authentication engine.
	StateInHostHandshake = internalflows.StateInHostHandshake
	// StateRedirectPending is an exported constant or variable used by the authentication engine.
	StateRedirectPending = internalflows.StateRedirectPending
	// StateExchangingCode is an exported constant or variable used by the authentication engine.
	StateExchangingCode = internalflows.StateExchangingCode
	// StateAuthenticated is an exported constant or variable used by the authentication engine.
	StateAuthenticated = internalflows.StateAuthenticated
	// StateFailed is an exported constant or variable used by the authentication engine.
	StateFailed = internalflows.StateFailed
)

const (
	// RouteCache is an exported constant or variable used by the authentication engine.
	RouteCache = internalflows.RouteCache
	// RouteSDK is an exported constant or variable used by the authentication engine.
	RouteSDK = internalflows.RouteSDK
	// RouteRedirect is an exported constant or variable used by the authentication engine.
	RouteRedirect = internalflows.RouteRedirect
	// RouteCallback is an exported constant or variable used by the authentication engine.
	RouteCallback = internalflows.RouteCallback
)

// Result is the outcome of Authenticate or HandleCallback. It is returned
// alongside errors too, with State set to StateFailed.
type Result = internalflows.Result

// UserProfile is the normalized identity shown to the application.
type UserProfile = profile.UserProfile

// Payload is a raw identity record as returned by the backend.
type Payload = profile.Payload

// Tier selects the ephemeral or the durable storage tier.
type Tier = storage.Tier

const (
	// TierEphemeral is an exported constant or variable used by the authentication engine.
	TierEphemeral = storage.Ephemeral
	// TierDurable is an exported constant or variable used by the authentication engine.
	TierDurable = storage.Durable
)

// HTTPError reports a non-2xx response from the backend or the platform.
type HTTPError = backend.HTTPError

// PlatformError reports a Feishu open-platform response with a non-zero code.
type PlatformError = backend.PlatformError

// TokenResponse is the decoded platform token exchange response.
type TokenResponse = backend.TokenResponse

// Navigator performs the top-level navigation to the authorize URL. In a
// browser that is a location change; in a server it is usually a 302.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine’s audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON lines to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// MultiSink fans events out to several sinks.
type MultiSink = internalaudit.MultiSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricCacheHit is an exported constant or variable used by the authentication engine.
	MetricCacheHit = internalmetrics.MetricCacheHit
	// MetricSDKLoginSuccess is an exported constant or variable used by the authentication engine.
	MetricSDKLoginSuccess = internalmetrics.MetricSDKLoginSuccess
	// MetricSDKLoginFailure is an exported constant or variable used by the authentication engine.
	MetricSDKLoginFailure = internalmetrics.MetricSDKLoginFailure
	// MetricRedirectIssued is an exported constant or variable used by the authentication engine.
	MetricRedirectIssued = internalmetrics.MetricRedirectIssued
	// MetricCallbackSuccess is an exported constant or variable used by the authentication engine.
	MetricCallbackSuccess = internalmetrics.MetricCallbackSuccess
	// MetricCallbackFailure is an exported constant or variable used by the authentication engine.
	MetricCallbackFailure = internalmetrics.MetricCallbackFailure
	// MetricStateMismatch is an exported constant or variable used by the authentication engine.
	MetricStateMismatch = internalmetrics.MetricStateMismatch
	// MetricDegradedIdentity is an exported constant or variable used by the authentication engine.
	MetricDegradedIdentity = internalmetrics.MetricDegradedIdentity
	// MetricStorageWriteFailed is an exported constant or variable used by the authentication engine.
	MetricStorageWriteFailed = internalmetrics.MetricStorageWriteFailed
	// MetricLogout is an exported constant or variable used by the authentication engine.
	MetricLogout = internalmetrics.MetricLogout
	// MetricNavigationDenied is an exported constant or variable used by the authentication engine.
	MetricNavigationDenied = internalmetrics.MetricNavigationDenied
	// MetricPlatformExchangeSuccess is an exported constant or variable used by the authentication engine.
	MetricPlatformExchangeSuccess = internalmetrics.MetricPlatformExchangeSuccess
	// MetricPlatformExchangeFailure is an exported constant or variable used by the authentication engine.
	MetricPlatformExchangeFailure = internalmetrics.MetricPlatformExchangeFailure
	// MetricExchangeLatency is an exported constant or variable used by the authentication engine.
	MetricExchangeLatency = internalmetrics.MetricExchangeLatency

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and the optional exchange latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance configured by cfg. When Enabled is
// false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
