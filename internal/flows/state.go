package flows

import (
	"github.com/MrEthical07/goFeishuAuth/profile"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

// State is a step of one authentication attempt.
type State int

const (
	StateIdle State = iota
	StateCheckingCache
	StateNeedsLogin
	StateInHostHandshake
	StateRedirectPending
	StateExchangingCode
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCheckingCache:
		return "checking_cache"
	case StateNeedsLogin:
		return "needs_login"
	case StateInHostHandshake:
		return "in_host_handshake"
	case StateRedirectPending:
		return "redirect_pending"
	case StateExchangingCode:
		return "exchanging_code"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition happens in this attempt.
// RedirectPending is terminal for the page that issued it; the callback runs
// as a new attempt.
func (s State) Terminal() bool {
	return s == StateAuthenticated || s == StateFailed || s == StateRedirectPending
}

// Route names the path an attempt took.
const (
	RouteCache    = "cache"
	RouteSDK      = "sdk"
	RouteRedirect = "redirect"
	RouteCallback = "callback"
)

// Result is the flow-local outcome of an attempt. It is non-nil on failure
// too, carrying StateFailed.
type Result struct {
	State       State
	AttemptID   string
	Route       string
	Payload     profile.Payload
	Profile     profile.UserProfile
	RedirectURL string
	FromCache   bool
	CacheTier   storage.Tier
	Degraded    bool
}
