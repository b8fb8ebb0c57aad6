package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goFeishuAuth/profile"
)

// RunCallback completes the redirect flow. The stored state is consumed
// before anything else; on mismatch no exchange is attempted.
func RunCallback(ctx context.Context, code, state string, deps AuthDeps) (*Result, error) {
	deps.applyDefaults()
	if !deps.ready() {
		return &Result{State: StateFailed}, deps.Errors.EngineNotReady
	}

	res := &Result{
		State:     StateExchangingCode,
		AttemptID: deps.NewAttemptID(),
		Route:     RouteCallback,
	}

	fail := func(err error, reason string) (*Result, error) {
		res.State = StateFailed
		deps.MetricInc(deps.Metrics.CallbackFailure)
		deps.EmitAudit(ctx, deps.Events.CallbackFailure, false, subjectOf(res.Payload), res.AttemptID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return res, err
	}

	if err := deps.ConsumeState(ctx, state); err != nil {
		violation := fmt.Errorf("%w: %w", deps.Errors.SecurityViolation, err)
		deps.MetricInc(deps.Metrics.StateMismatch)
		deps.EmitAudit(ctx, deps.Events.StateMismatch, false, "", res.AttemptID, violation, nil)
		return fail(violation, "state_mismatch")
	}
	if code == "" {
		return fail(deps.Errors.MissingCallbackParams, "missing_code")
	}

	redirectURI, err := deps.RedirectURI(ctx)
	if err != nil {
		return fail(err, "redirect_uri")
	}

	start := deps.Now()
	payload, err := deps.UserInfoByAPICode(ctx, code, redirectURI)
	deps.ObserveExchange(deps.Now().Sub(start))
	if err != nil {
		return fail(err, "exchange")
	}
	if len(payload) == 0 {
		return fail(deps.Errors.EmptyIdentity, "empty_identity")
	}

	res.Payload = payload
	res.Profile = profile.Normalize(payload, deps.Lang(ctx))
	if !res.Profile.IsValid() {
		res.Degraded = true
		deps.MetricInc(deps.Metrics.DegradedIdentity)
		deps.Warn("goFeishuAuth: callback identity has no usable name field")
	}
	persistIdentity(ctx, res, deps)

	res.State = StateAuthenticated
	deps.MetricInc(deps.Metrics.CallbackSuccess)
	deps.EmitAudit(ctx, deps.Events.CallbackSuccess, true, subjectOf(payload), res.AttemptID, nil, func() map[string]string {
		return map[string]string{
			"degraded": fmt.Sprintf("%t", res.Degraded),
			"tier":     deps.LoginTier.String(),
		}
	})
	return res, nil
}
