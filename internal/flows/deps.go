package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goFeishuAuth/hostenv"
	"github.com/MrEthical07/goFeishuAuth/profile"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

// Deps groups flow dependency sets. Root engine builds this once per bound
// browsing context and delegates to the matching flow.
type Deps struct {
	Auth AuthDeps
}

// AuthMetrics carries metric IDs needed by the authentication flows.
type AuthMetrics struct {
	CacheHit           int
	SDKLoginSuccess    int
	SDKLoginFailure    int
	RedirectIssued     int
	CallbackSuccess    int
	CallbackFailure    int
	StateMismatch      int
	DegradedIdentity   int
	StorageWriteFailed int
}

// AuthEvents carries audit event names used by the authentication flows.
type AuthEvents struct {
	CacheHit           string
	SDKSuccess         string
	SDKFailure         string
	RedirectIssued     string
	CallbackSuccess    string
	CallbackFailure    string
	StateMismatch      string
	StorageWriteFailed string
}

// AuthErrors carries host-level sentinel errors used by the authentication flows.
type AuthErrors struct {
	EngineNotReady        error
	SecurityViolation     error
	EmptyIdentity         error
	InvalidIdentity       error
	AppIDUnavailable      error
	MissingCallbackParams error
}

// AuthDeps captures authentication flow dependencies.
type AuthDeps struct {
	LoginTier storage.Tier

	Lang         func(context.Context) string
	NewAttemptID func() string
	Now          func() time.Time

	ReadCached    func(context.Context) (profile.Payload, storage.Tier, bool)
	WriteIdentity func(context.Context, storage.Tier, profile.Payload) error

	Bridge      func() (hostenv.Bridge, bool)
	RequestCode func(context.Context, hostenv.Bridge, string) (string, error)

	FetchAppID        func(context.Context) (string, error)
	SaveAppID         func(context.Context, string) error
	UserInfoBySDKCode func(context.Context, string) (profile.Payload, error)
	UserInfoByAPICode func(context.Context, string, string) (profile.Payload, error)

	IssueState   func(context.Context) (string, error)
	ConsumeState func(context.Context, string) error
	RedirectURI  func(context.Context) (string, error)
	AuthCodeURL  func(appID, redirectURI, state string) string
	Navigate     func(context.Context, string) error

	ObserveExchange func(time.Duration)
	MetricInc       func(int)
	EmitAudit       func(ctx context.Context, eventType string, success bool, subject, attemptID string, err error, metadataBuilder func() map[string]string)
	Warn            func(string, ...any)

	Metrics AuthMetrics
	Events  AuthEvents
	Errors  AuthErrors
}

// errNotWired stands in for Errors.EngineNotReady when the caller left it unset.
var errNotWired = errors.New("flow dependencies not wired")

func (d *AuthDeps) applyDefaults() {
	if d.Errors.EngineNotReady == nil {
		d.Errors.EngineNotReady = errNotWired
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Lang == nil {
		d.Lang = func(context.Context) string { return "" }
	}
	if d.NewAttemptID == nil {
		d.NewAttemptID = func() string { return "" }
	}
	if d.ObserveExchange == nil {
		d.ObserveExchange = func(time.Duration) {}
	}
	if d.MetricInc == nil {
		d.MetricInc = func(int) {}
	}
	if d.EmitAudit == nil {
		d.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if d.Warn == nil {
		d.Warn = func(string, ...any) {}
	}
	if d.Bridge == nil {
		d.Bridge = func() (hostenv.Bridge, bool) { return nil, false }
	}
	if d.RequestCode == nil {
		d.RequestCode = hostenv.RequestCode
	}
}

func (d *AuthDeps) ready() bool {
	return d.ReadCached != nil &&
		d.WriteIdentity != nil &&
		d.FetchAppID != nil &&
		d.UserInfoBySDKCode != nil &&
		d.UserInfoByAPICode != nil &&
		d.IssueState != nil &&
		d.ConsumeState != nil &&
		d.RedirectURI != nil &&
		d.AuthCodeURL != nil &&
		d.Navigate != nil
}
