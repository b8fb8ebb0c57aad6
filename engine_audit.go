package goFeishuAuth

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goFeishuAuth/hostenv"
	"github.com/MrEthical07/goFeishuAuth/statetoken"
)

const (
	auditEventCacheHit           = "auth_cache_hit"
	auditEventSDKSuccess         = "auth_sdk_success"
	auditEventSDKFailure         = "auth_sdk_failure"
	auditEventRedirectIssued     = "auth_redirect_issued"
	auditEventCallbackSuccess    = "auth_callback_success"
	auditEventCallbackFailure    = "auth_callback_failure"
	auditEventStateMismatch      = "auth_state_mismatch"
	auditEventLogout             = "auth_logout"
	auditEventStorageWriteFailed = "storage_write_failed"
	auditEventNavigationDenied   = "navigation_denied"
	auditEventPlatformExchange   = "platform_token_exchange"
)

// AuditErrorCode is the stable, non-sensitive error label placed in
// [AuditEvent].Error.
type AuditErrorCode string

const (
	auditErrSecurityViolation AuditErrorCode = "security_violation"
	auditErrEmptyIdentity     AuditErrorCode = "empty_identity"
	auditErrInvalidIdentity   AuditErrorCode = "invalid_identity"
	auditErrAppIDUnavailable  AuditErrorCode = "app_id_unavailable"
	auditErrMissingParams     AuditErrorCode = "missing_callback_params"
	auditErrBridge            AuditErrorCode = "bridge_error"
	auditErrRedirectURI       AuditErrorCode = "redirect_uri_unavailable"
	auditErrNavigation        AuditErrorCode = "navigation_failed"
	auditErrHTTP              AuditErrorCode = "http_error"
	auditErrPlatform          AuditErrorCode = "platform_error"
	auditErrMalformed         AuditErrorCode = "malformed_response"
	auditErrUnavailable       AuditErrorCode = "backend_unavailable"
	auditErrCanceled          AuditErrorCode = "canceled"
	auditErrInternal          AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	attemptID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Subject:   subject,
		AttemptID: attemptID,
		ContextID: browsingContextFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) now() time.Time {
	if e != nil && e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	var (
		bridgeErr   *hostenv.BridgeError
		httpErr     *HTTPError
		platformErr *PlatformError
	)

	switch {
	case errors.Is(err, ErrSecurityViolation),
		errors.Is(err, statetoken.ErrStateMismatch):
		return auditErrSecurityViolation
	case errors.Is(err, ErrEmptyIdentity):
		return auditErrEmptyIdentity
	case errors.Is(err, ErrInvalidIdentity):
		return auditErrInvalidIdentity
	case errors.Is(err, ErrAppIDUnavailable):
		return auditErrAppIDUnavailable
	case errors.Is(err, ErrMissingCallbackParams):
		return auditErrMissingParams
	case errors.As(err, &bridgeErr),
		errors.Is(err, ErrBridgeUnavailable),
		errors.Is(err, ErrEmptyAccessCode):
		return auditErrBridge
	case errors.Is(err, ErrRedirectURIUnavailable):
		return auditErrRedirectURI
	case errors.Is(err, ErrNavigatorMissing):
		return auditErrNavigation
	case errors.As(err, &platformErr):
		return auditErrPlatform
	case errors.As(err, &httpErr):
		return auditErrHTTP
	case errors.Is(err, ErrMalformedResponse):
		return auditErrMalformed
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, statetoken.ErrStateUnavailable):
		return auditErrUnavailable
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
