package goFeishuAuth

import (
	"context"

	"github.com/MrEthical07/goFeishuAuth/profile"
)

// ExchangePlatformToken trades an authorization code for a user access
// token directly with the Feishu platform, using the client secret flow.
// Empty clientID or clientSecret fall back to Config.Platform. A non-zero
// platform code is returned as *PlatformError.
func (e *Engine) ExchangePlatformToken(ctx context.Context, code, clientID, clientSecret string) (*TokenResponse, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if clientID == "" {
		clientID = e.config.Platform.ClientID
	}
	if clientSecret == "" {
		clientSecret = e.config.Platform.ClientSecret
	}
	if code == "" {
		return nil, ErrMissingCallbackParams
	}
	if clientID == "" || clientSecret == "" {
		return nil, ErrPlatformCredentials
	}

	start := e.now()
	tok, err := e.backend.ExchangeToken(ctx, code, clientID, clientSecret)
	e.metrics.Observe(MetricExchangeLatency, e.now().Sub(start))
	if err != nil {
		e.metricInc(MetricPlatformExchangeFailure)
		e.emitAudit(ctx, auditEventPlatformExchange, false, "", "", err, nil)
		return nil, err
	}

	e.metricInc(MetricPlatformExchangeSuccess)
	e.emitAudit(ctx, auditEventPlatformExchange, true, "", "", nil, func() map[string]string {
		return map[string]string{
			"scope": tok.Scope,
		}
	})
	return tok, nil
}

// PlatformUserInfo fetches the identity owning accessToken from the
// platform user_info endpoint and normalizes it. Nothing is persisted.
func (e *Engine) PlatformUserInfo(ctx context.Context, accessToken string) (*UserProfile, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if accessToken == "" {
		return nil, ErrAccessTokenRequired
	}
	raw, err := e.backend.UserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmptyIdentity
	}
	p := profile.Normalize(raw, e.language(ctx))
	return &p, nil
}
