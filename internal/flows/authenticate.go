package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goFeishuAuth/hostenv"
	"github.com/MrEthical07/goFeishuAuth/profile"
)

// RunAuthenticate executes one attempt: cache check, then either the in-host
// SDK handshake or the redirect hand-off. It never retries.
func RunAuthenticate(ctx context.Context, deps AuthDeps) (*Result, error) {
	deps.applyDefaults()
	if !deps.ready() {
		return &Result{State: StateFailed}, deps.Errors.EngineNotReady
	}

	res := &Result{
		State:     StateCheckingCache,
		AttemptID: deps.NewAttemptID(),
	}
	lang := deps.Lang(ctx)

	if raw, tier, ok := deps.ReadCached(ctx); ok {
		p := profile.Normalize(raw, lang)
		if p.IsValid() {
			res.State = StateAuthenticated
			res.Route = RouteCache
			res.Payload = raw
			res.Profile = p
			res.FromCache = true
			res.CacheTier = tier
			deps.MetricInc(deps.Metrics.CacheHit)
			deps.EmitAudit(ctx, deps.Events.CacheHit, true, subjectOf(raw), res.AttemptID, nil, func() map[string]string {
				return map[string]string{
					"tier": tier.String(),
				}
			})
			return res, nil
		}
	}

	res.State = StateNeedsLogin
	if bridge, ok := deps.Bridge(); ok {
		return runSDKHandshake(ctx, bridge, lang, res, deps)
	}
	return runRedirect(ctx, res, deps)
}

func runSDKHandshake(ctx context.Context, bridge hostenv.Bridge, lang string, res *Result, deps AuthDeps) (*Result, error) {
	res.State = StateInHostHandshake
	res.Route = RouteSDK

	fail := func(err error, reason string) (*Result, error) {
		res.State = StateFailed
		deps.MetricInc(deps.Metrics.SDKLoginFailure)
		deps.EmitAudit(ctx, deps.Events.SDKFailure, false, "", res.AttemptID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return res, err
	}

	appID, err := deps.FetchAppID(ctx)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", deps.Errors.AppIDUnavailable, err), "app_id")
	}

	code, err := deps.RequestCode(ctx, bridge, appID)
	if err != nil {
		return fail(err, "bridge")
	}

	res.State = StateExchangingCode
	start := deps.Now()
	payload, err := deps.UserInfoBySDKCode(ctx, code)
	deps.ObserveExchange(deps.Now().Sub(start))
	if err != nil {
		return fail(err, "exchange")
	}
	if _, ok := payload.String("name"); !ok {
		return fail(deps.Errors.InvalidIdentity, "invalid_identity")
	}

	res.Payload = payload
	res.Profile = profile.Normalize(payload, lang)
	persistIdentity(ctx, res, deps)

	res.State = StateAuthenticated
	deps.MetricInc(deps.Metrics.SDKLoginSuccess)
	deps.EmitAudit(ctx, deps.Events.SDKSuccess, true, subjectOf(payload), res.AttemptID, nil, func() map[string]string {
		return map[string]string{
			"tier": deps.LoginTier.String(),
		}
	})
	return res, nil
}

func runRedirect(ctx context.Context, res *Result, deps AuthDeps) (*Result, error) {
	res.State = StateRedirectPending
	res.Route = RouteRedirect

	fail := func(err error, reason string) (*Result, error) {
		res.State = StateFailed
		deps.EmitAudit(ctx, deps.Events.RedirectIssued, false, "", res.AttemptID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return res, err
	}

	appID, err := deps.FetchAppID(ctx)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", deps.Errors.AppIDUnavailable, err), "app_id")
	}
	if deps.SaveAppID != nil {
		if err := deps.SaveAppID(ctx, appID); err != nil {
			deps.Warn("goFeishuAuth: app id persistence failed")
		}
	}

	redirectURI, err := deps.RedirectURI(ctx)
	if err != nil {
		return fail(err, "redirect_uri")
	}

	state, err := deps.IssueState(ctx)
	if err != nil {
		return fail(err, "state")
	}

	authURL := deps.AuthCodeURL(appID, redirectURI, state)
	if err := deps.Navigate(ctx, authURL); err != nil {
		return fail(err, "navigate")
	}

	res.RedirectURL = authURL
	deps.MetricInc(deps.Metrics.RedirectIssued)
	deps.EmitAudit(ctx, deps.Events.RedirectIssued, true, "", res.AttemptID, nil, func() map[string]string {
		return map[string]string{
			"redirect_uri": redirectURI,
		}
	})
	return res, nil
}

// persistIdentity stores the raw record in the login tier. A failed write
// does not fail the attempt.
func persistIdentity(ctx context.Context, res *Result, deps AuthDeps) {
	if err := deps.WriteIdentity(ctx, deps.LoginTier, res.Payload); err != nil {
		deps.MetricInc(deps.Metrics.StorageWriteFailed)
		deps.Warn("goFeishuAuth: identity write to %s tier failed", deps.LoginTier)
		deps.EmitAudit(ctx, deps.Events.StorageWriteFailed, false, subjectOf(res.Payload), res.AttemptID, err, func() map[string]string {
			return map[string]string{
				"tier": deps.LoginTier.String(),
			}
		})
	}
}

func subjectOf(p profile.Payload) string {
	if s, ok := p.First("open_id", "union_id", "user_id"); ok {
		return s
	}
	s, _ := p.First(profile.NameFields...)
	return s
}
