package goFeishuAuth

import (
	"context"
	"log"

	"github.com/MrEthical07/goFeishuAuth/storage"
)

// RememberRedirect records the path a denied navigation was heading to, in
// the ephemeral tier, so it can be resumed after login.
func (e *Engine) RememberRedirect(ctx context.Context, path string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	e.metricInc(MetricNavigationDenied)
	err := e.tiers.SetString(ctx, storage.Ephemeral, storage.KeyRedirectAfterLogin, path)
	e.emitAudit(ctx, auditEventNavigationDenied, false, "", "", err, func() map[string]string {
		return map[string]string{
			"path": path,
		}
	})
	return err
}

// ResumePath returns and clears the path saved by RememberRedirect.
func (e *Engine) ResumePath(ctx context.Context) (string, bool) {
	if e == nil {
		return "", false
	}
	path, ok, err := e.tiers.GetString(ctx, storage.Ephemeral, storage.KeyRedirectAfterLogin)
	if err != nil || !ok {
		return "", false
	}
	if err := e.tiers.Delete(ctx, storage.Ephemeral, storage.KeyRedirectAfterLogin); err != nil {
		log.Printf("goFeishuAuth: clearing %s failed: %v", storage.KeyRedirectAfterLogin, err)
	}
	return path, true
}
