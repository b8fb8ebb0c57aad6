package goFeishuAuth

import (
	"context"
	"errors"
	"net"

	"github.com/MrEthical07/goFeishuAuth/hostenv"
	"github.com/MrEthical07/goFeishuAuth/internal/backend"
	"github.com/MrEthical07/goFeishuAuth/statetoken"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

var (
	// ErrSecurityViolation is an exported constant or variable used by the authentication engine.
	ErrSecurityViolation = errors.New("security violation: oauth state mismatch")
	// ErrEmptyIdentity is an exported constant or variable used by the authentication engine.
	ErrEmptyIdentity = errors.New("empty identity returned by code exchange")
	// ErrInvalidIdentity is an exported constant or variable used by the authentication engine.
	ErrInvalidIdentity = errors.New("invalid identity: missing name")
	// ErrAppIDUnavailable is an exported constant or variable used by the authentication engine.
	ErrAppIDUnavailable = errors.New("app id unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrBridgeUnavailable is an exported constant or variable used by the authentication engine.
	ErrBridgeUnavailable = errors.New("host bridge unavailable")
	// ErrMissingCallbackParams is an exported constant or variable used by the authentication engine.
	ErrMissingCallbackParams = errors.New("callback missing code or state")
	// ErrRedirectURIUnavailable is an exported constant or variable used by the authentication engine.
	ErrRedirectURIUnavailable = errors.New("redirect uri unavailable")
	// ErrNavigatorMissing is an exported constant or variable used by the authentication engine.
	ErrNavigatorMissing = errors.New("navigator not configured")
	// ErrPlatformCredentials is an exported constant or variable used by the authentication engine.
	ErrPlatformCredentials = errors.New("platform client credentials not configured")
	// ErrAccessTokenRequired is an exported constant or variable used by the authentication engine.
	ErrAccessTokenRequired = errors.New("access token required")

	// ErrEmptyAccessCode is returned when the host bridge succeeds without a code.
	ErrEmptyAccessCode = hostenv.ErrEmptyAccessCode
	// ErrMalformedResponse is returned when a backend body is not the expected JSON.
	ErrMalformedResponse = backend.ErrMalformedResponse
	// ErrStoreUnavailable is returned by storage backends that cannot be reached.
	ErrStoreUnavailable = storage.ErrStoreUnavailable
)

// ErrorKind classifies an engine error for retry and UI decisions.
type ErrorKind int

const (
	// KindUnknown is an exported constant or variable used by the authentication engine.
	KindUnknown ErrorKind = iota
	// KindTransient covers network failures, non-2xx responses and storage
	// outages. A fresh Authenticate may succeed.
	KindTransient
	// KindSecurity covers state mismatches. Never retried automatically.
	KindSecurity
	// KindIdentity covers exchanges that returned no usable identity.
	KindIdentity
	// KindBridge covers failures reported by the host SDK.
	KindBridge
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindSecurity:
		return "security"
	case KindIdentity:
		return "identity"
	case KindBridge:
		return "bridge"
	default:
		return "unknown"
	}
}

// KindOf reports the [ErrorKind] of err. A nil error is KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var (
		bridgeErr   *hostenv.BridgeError
		httpErr     *HTTPError
		platformErr *PlatformError
		netErr      net.Error
	)

	switch {
	case errors.Is(err, ErrSecurityViolation),
		errors.Is(err, statetoken.ErrStateMismatch):
		return KindSecurity
	case errors.Is(err, ErrEmptyIdentity),
		errors.Is(err, ErrInvalidIdentity):
		return KindIdentity
	case errors.As(err, &bridgeErr),
		errors.Is(err, ErrBridgeUnavailable),
		errors.Is(err, hostenv.ErrEmptyAccessCode):
		return KindBridge
	case errors.Is(err, ErrAppIDUnavailable),
		errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &httpErr),
		errors.As(err, &platformErr),
		errors.As(err, &netErr):
		return KindTransient
	default:
		return KindUnknown
	}
}
