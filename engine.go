package goFeishuAuth

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/MrEthical07/goFeishuAuth/hostenv"
	internalaudit "github.com/MrEthical07/goFeishuAuth/internal/audit"
	"github.com/MrEthical07/goFeishuAuth/internal/backend"
	internalflows "github.com/MrEthical07/goFeishuAuth/internal/flows"
	"github.com/MrEthical07/goFeishuAuth/profile"
	"github.com/MrEthical07/goFeishuAuth/statetoken"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

// Engine defines a public type used by goFeishuAuth APIs.
//
// An Engine reconciles one browsing context's identity. It is safe for
// concurrent use when its stores are. Use [Engine.Bind] to serve many
// browsing contexts from one set of backends.
type Engine struct {
	config    Config
	tiers     *storage.Tiers
	guard     *statetoken.Guard
	detector  hostenv.Detector
	backend   *backend.Client
	navigator Navigator
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
	clock     func() time.Time
	newID     func() string
	bound     bool
}

// Binding selects the per-context parts of a bound engine. Zero fields keep
// the parent's value.
type Binding struct {
	Tiers     *storage.Tiers
	Runtime   hostenv.Runtime
	Navigator Navigator
}

// Bind returns a view of e over another browsing context. The view shares
// the backend client, audit dispatcher and metrics of e. Tiers are used as
// given; Storage.KeyPrefix is not applied again. Closing a bound view is a
// no-op.
func (e *Engine) Bind(b Binding) *Engine {
	if e == nil {
		return nil
	}
	out := *e
	out.bound = true
	if b.Tiers != nil {
		out.tiers = b.Tiers
		out.guard = statetoken.NewGuard(b.Tiers.Durable, e.config.Login.StateLength)
	}
	if b.Runtime != nil {
		out.detector = hostenv.NewDetector(b.Runtime)
	}
	if b.Navigator != nil {
		out.navigator = b.Navigator
	}
	return &out
}

// Close describes the close operation and its observable behavior.
//
// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil || e.bound {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// IsHostEmbedded reports whether a host bridge is available. It has no side
// effects.
func (e *Engine) IsHostEmbedded() bool {
	if e == nil {
		return false
	}
	return e.detector.IsHostEmbedded()
}

// Authenticate describes the authenticate operation and its observable behavior.
//
// Authenticate runs one attempt. A valid cached identity short-circuits with
// no network calls. Otherwise the in-host SDK handshake runs when a bridge is
// present, and the redirect hand-off runs when it is not. A redirect returns
// StateRedirectPending and a nil error; the attempt continues in
// [Engine.HandleCallback]. Authenticate never retries and never invents a
// guest identity.
func (e *Engine) Authenticate(ctx context.Context) (*Result, error) {
	if e == nil {
		return &Result{State: StateFailed}, ErrEngineNotReady
	}
	return e.flows().Authenticate(ctx)
}

// HandleCallback describes the handlecallback operation and its observable behavior.
//
// HandleCallback consumes the stored state before anything else. A mismatch
// fails with [ErrSecurityViolation] and no exchange is attempted. An identity
// without a usable name is still persisted; Result.Degraded is set and the
// profile reports IsValid false.
func (e *Engine) HandleCallback(ctx context.Context, code, state string) (*Result, error) {
	if e == nil {
		return &Result{State: StateFailed}, ErrEngineNotReady
	}
	return e.flows().Callback(ctx, code, state)
}

// CallbackFromURL reads code and state from u and calls HandleCallback. A
// URL carrying neither is not a callback: it fails with
// [ErrMissingCallbackParams] and leaves the stored state untouched.
func (e *Engine) CallbackFromURL(ctx context.Context, u *url.URL) (*Result, error) {
	if u == nil {
		return &Result{State: StateFailed}, ErrMissingCallbackParams
	}
	q := u.Query()
	code, state := q.Get("code"), q.Get("state")
	if code == "" && state == "" {
		return &Result{State: StateFailed}, ErrMissingCallbackParams
	}
	return e.HandleCallback(ctx, code, state)
}

// CurrentUser returns the stored identity, normalized. It reads storage
// only. ok is false when nothing is stored or the stored identity has no
// usable name; in the latter case the degraded profile is still returned.
func (e *Engine) CurrentUser(ctx context.Context) (*UserProfile, bool) {
	if e == nil {
		return nil, false
	}
	raw, _, found := e.tiers.ReadAny(ctx)
	if !found {
		return nil, false
	}
	p := profile.Normalize(raw, e.language(ctx))
	return &p, p.IsValid()
}

// IsAuthenticated reports whether a non-sentinel identity is stored.
func (e *Engine) IsAuthenticated(ctx context.Context) bool {
	_, ok := e.CurrentUser(ctx)
	return ok
}

// Logout describes the logout operation and its observable behavior.
//
// Logout removes the identity from both tiers. Both deletes are attempted
// even if one fails.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	var subject string
	if raw, _, ok := e.tiers.ReadAny(ctx); ok {
		subject = subjectOf(raw)
	}

	err := e.tiers.Clear(ctx)
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, err == nil, subject, "", err, nil)
	return err
}

// AuthToken returns the first non-empty of token, access_token and
// accessToken from the stored identity.
func (e *Engine) AuthToken(ctx context.Context) (string, bool) {
	if e == nil {
		return "", false
	}
	return e.tiers.Token(ctx)
}

// AuthHeaders returns the headers for authenticated backend requests:
// Content-Type always, Authorization when a token is stored.
func (e *Engine) AuthHeaders(ctx context.Context) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if token, ok := e.AuthToken(ctx); ok {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func (e *Engine) flows() internalflows.Service {
	return internalflows.New(internalflows.Deps{
		Auth: e.authFlowDeps(),
	})
}

func (e *Engine) authFlowDeps() internalflows.AuthDeps {
	return internalflows.AuthDeps{
		LoginTier: e.config.Login.Tier,

		Lang:         e.language,
		NewAttemptID: e.newID,
		Now:          e.now,

		ReadCached:    e.tiers.ReadAny,
		WriteIdentity: e.tiers.Write,

		Bridge:      e.detector.Bridge,
		RequestCode: requestCode,

		FetchAppID:        e.backend.AppID,
		SaveAppID:         e.saveAppID,
		UserInfoBySDKCode: e.backend.UserInfoBySDKCode,
		UserInfoByAPICode: e.backend.UserInfoByAPICode,

		IssueState:   e.guard.Issue,
		ConsumeState: e.guard.Consume,
		RedirectURI:  e.redirectURI,
		AuthCodeURL:  e.authCodeURL,
		Navigate:     e.navigate,

		ObserveExchange: func(d time.Duration) {
			e.metrics.Observe(MetricExchangeLatency, d)
		},
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit: e.emitAudit,
		Warn:      log.Printf,

		Metrics: internalflows.AuthMetrics{
			CacheHit:           int(MetricCacheHit),
			SDKLoginSuccess:    int(MetricSDKLoginSuccess),
			SDKLoginFailure:    int(MetricSDKLoginFailure),
			RedirectIssued:     int(MetricRedirectIssued),
			CallbackSuccess:    int(MetricCallbackSuccess),
			CallbackFailure:    int(MetricCallbackFailure),
			StateMismatch:      int(MetricStateMismatch),
			DegradedIdentity:   int(MetricDegradedIdentity),
			StorageWriteFailed: int(MetricStorageWriteFailed),
		},
		Events: internalflows.AuthEvents{
			CacheHit:           auditEventCacheHit,
			SDKSuccess:         auditEventSDKSuccess,
			SDKFailure:         auditEventSDKFailure,
			RedirectIssued:     auditEventRedirectIssued,
			CallbackSuccess:    auditEventCallbackSuccess,
			CallbackFailure:    auditEventCallbackFailure,
			StateMismatch:      auditEventStateMismatch,
			StorageWriteFailed: auditEventStorageWriteFailed,
		},
		Errors: internalflows.AuthErrors{
			EngineNotReady:        ErrEngineNotReady,
			SecurityViolation:     ErrSecurityViolation,
			EmptyIdentity:         ErrEmptyIdentity,
			InvalidIdentity:       ErrInvalidIdentity,
			AppIDUnavailable:      ErrAppIDUnavailable,
			MissingCallbackParams: ErrMissingCallbackParams,
		},
	}
}

func requestCode(ctx context.Context, bridge hostenv.Bridge, appID string) (string, error) {
	if bridge == nil {
		return "", ErrBridgeUnavailable
	}
	return hostenv.RequestCode(ctx, bridge, appID)
}

func (e *Engine) saveAppID(ctx context.Context, appID string) error {
	return e.tiers.SetString(ctx, storage.Durable, storage.KeyAppID, appID)
}

func (e *Engine) language(ctx context.Context) string {
	if tag := languageFromContext(ctx); tag != "" {
		return tag
	}
	return e.config.Locale.Default
}

// redirectURI is the configured URI, or the origin and path of the location
// in ctx.
func (e *Engine) redirectURI(ctx context.Context) (string, error) {
	if e.config.Login.RedirectURI != "" {
		return e.config.Login.RedirectURI, nil
	}
	loc := locationFromContext(ctx)
	if loc == nil || loc.Scheme == "" || loc.Host == "" {
		return "", ErrRedirectURIUnavailable
	}
	path := loc.EscapedPath()
	if path == "" {
		path = "/"
	}
	return loc.Scheme + "://" + loc.Host + path, nil
}

func (e *Engine) authCodeURL(appID, redirectURI, state string) string {
	oc := oauth2.Config{
		ClientID:    appID,
		RedirectURL: redirectURI,
		Scopes:      e.config.Login.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  e.config.Platform.AuthorizeURL,
			TokenURL: e.config.Platform.TokenURL,
		},
	}
	return oc.AuthCodeURL(state)
}

func (e *Engine) navigate(ctx context.Context, target string) error {
	if e.navigator == nil {
		return ErrNavigatorMissing
	}
	return e.navigator.Navigate(ctx, target)
}

func subjectOf(p profile.Payload) string {
	if s, ok := p.First("open_id", "union_id", "user_id"); ok {
		return s
	}
	s, _ := p.First(profile.NameFields...)
	return s
}
