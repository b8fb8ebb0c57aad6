package middleware

import (
	"context"
	"net/http"
	"strings"
)

// DefaultLanding is where denied navigations are sent.
const DefaultLanding = "/"

// Route describes one navigable view.
type Route struct {
	Path         string
	RequiresAuth bool
}

// Presence is the storage-only view of a browsing context the guard needs.
// *goFeishuAuth.Engine implements it.
type Presence interface {
	IsAuthenticated(ctx context.Context) bool
	RememberRedirect(ctx context.Context, path string) error
}

// Decision is the outcome of a navigation check.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Guard decides navigations. It never starts an authentication attempt.
type Guard struct {
	Landing string
}

// Check allows route when it is public or an identity is present. On
// denial the requested path is remembered so login can resume it; a failed
// write does not change the decision.
func (g Guard) Check(ctx context.Context, p Presence, route Route, requested string) Decision {
	if !route.RequiresAuth {
		return Decision{Allow: true}
	}
	if p != nil && p.IsAuthenticated(ctx) {
		return Decision{Allow: true}
	}

	if p != nil && requested != "" {
		_ = p.RememberRedirect(ctx, requested)
	}
	return Decision{Allow: false, RedirectTo: g.landing()}
}

func (g Guard) landing() string {
	if g.Landing == "" {
		return DefaultLanding
	}
	return g.Landing
}

// Check runs [Guard.Check] with the default landing.
func Check(ctx context.Context, p Presence, route Route, requested string) Decision {
	return Guard{}.Check(ctx, p, route, requested)
}

// Table maps request paths to routes. A path matches an entry exactly or
// as a sub-path ("/recording" matches "/recording/42").
type Table []Route

// Match returns the most specific route for path. Unknown paths are public.
func (t Table) Match(path string) Route {
	best := Route{Path: path}
	bestLen := -1
	for _, r := range t {
		if !pathMatches(r.Path, path) {
			continue
		}
		if len(r.Path) > bestLen {
			best, bestLen = r, len(r.Path)
		}
	}
	return best
}

func pathMatches(prefix, path string) bool {
	if prefix == path {
		return true
	}
	if prefix == "/" {
		return false
	}
	return strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}

// PresenceFunc resolves the browsing context of a request.
type PresenceFunc func(r *http.Request) Presence

// Navigation returns middleware that applies table to every request.
// Denied requests are redirected to landing with 302 Found.
func Navigation(table Table, presence PresenceFunc, landing string) func(http.Handler) http.Handler {
	g := Guard{Landing: landing}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(w, r, table.Match(r.URL.Path), presence, next)
		})
	}
}

// RequireLogin guards every request it wraps.
func RequireLogin(presence PresenceFunc, landing string) func(http.Handler) http.Handler {
	g := Guard{Landing: landing}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(w, r, Route{Path: r.URL.Path, RequiresAuth: true}, presence, next)
		})
	}
}

func (g Guard) serve(w http.ResponseWriter, r *http.Request, route Route, presence PresenceFunc, next http.Handler) {
	if !route.RequiresAuth {
		next.ServeHTTP(w, r)
		return
	}
	var p Presence
	if presence != nil {
		p = presence(r)
	}
	d := g.Check(r.Context(), p, route, r.URL.RequestURI())
	if !d.Allow {
		http.Redirect(w, r, d.RedirectTo, http.StatusFound)
		return
	}
	next.ServeHTTP(w, r)
}
