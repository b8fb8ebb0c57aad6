package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	goFeishuAuth "github.com/MrEthical07/goFeishuAuth"
	"github.com/MrEthical07/goFeishuAuth/envprofile"
	"github.com/MrEthical07/goFeishuAuth/hostenv"
	"github.com/MrEthical07/goFeishuAuth/jwt"
	"github.com/MrEthical07/goFeishuAuth/metrics/export/prometheus"
	"github.com/MrEthical07/goFeishuAuth/middleware"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

const (
	contextCookie = "feishu_ctx"
	sessionCookie = "feishu_session"
	sdkCodeHeader = "X-Feishu-SDK-Code"
	sdkCodeParam  = "sdk_code"
)

type engineContextKey struct{}

// server serves one engine to many browsers. Each browser is pinned to a
// browsing context by a signed cookie, and every request runs against a
// view of the engine bound to that context's storage.
type server struct {
	engine  *goFeishuAuth.Engine
	tiers   *storage.Tiers
	prefix  string
	cookies *jwt.Manager
	langs   languages
	origin  *url.URL
	secure  bool
	profile envprofile.Profile
	table   middleware.Table
	metrics http.Handler
}

type serverDeps struct {
	Engine  *goFeishuAuth.Engine
	Tiers   *storage.Tiers
	Cookies *jwt.Manager
	Config  gatewayConfig
	Profile envprofile.Profile
}

func newServer(deps serverDeps) (*server, error) {
	if deps.Engine == nil || deps.Tiers == nil || deps.Cookies == nil {
		return nil, errors.New("gateway requires an engine, storage tiers and a cookie signer")
	}
	langs, err := newLanguages(deps.Config.Languages)
	if err != nil {
		return nil, err
	}
	table := make(middleware.Table, 0, len(deps.Config.ProtectedPaths))
	for _, p := range deps.Config.ProtectedPaths {
		if p = strings.TrimSpace(p); p != "" {
			table = append(table, middleware.Route{Path: p, RequiresAuth: true})
		}
	}
	return &server{
		engine:  deps.Engine,
		tiers:   deps.Tiers,
		prefix:  deps.Config.KeyPrefix,
		cookies: deps.Cookies,
		langs:   langs,
		origin:  deps.Config.origin(),
		secure:  deps.Config.secureCookies(),
		profile: deps.Profile,
		table:   table,
		metrics: prometheus.NewExporter(deps.Engine).Handler(),
	}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/metrics", s.metrics.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(s.browsingContext)
		r.Use(middleware.Navigation(s.table, presenceOf, middleware.DefaultLanding))

		r.Get("/", s.handleIndex)
		r.Get("/login", s.handleLogin)
		r.Get("/callback", s.handleCallback)
		r.Post("/logout", s.handleLogout)
		r.Get("/me", s.handleMe)
		r.Get("/headers", s.handleHeaders)
		r.Get("/recording", s.handleRecording)
		r.Get("/recording/*", s.handleRecording)
	})
	return r
}

// browsingContext resolves or mints the context cookie and binds the
// engine to that context for the rest of the request. The cookie is
// reissued, keeping its id, when the negotiated language changes.
func (s *server) browsingContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid, remembered := "", ""
		if c, err := r.Cookie(contextCookie); err == nil {
			if claims, err := s.cookies.Parse(c.Value); err == nil {
				cid, remembered = claims.CID, claims.Lang
			}
		}
		lang := s.langs.resolve(r, remembered)

		if cid == "" || lang != remembered {
			if cid == "" {
				cid = uuid.NewString()
			}
			token, err := s.cookies.Issue(cid, lang)
			if err != nil {
				log.Printf("goFeishuAuth: context cookie signing failed: %v", err)
				writeError(w, http.StatusInternalServerError, "context_unavailable", err)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     contextCookie,
				Value:    token,
				Path:     "/",
				MaxAge:   int(s.cookies.TTL() / time.Second),
				HttpOnly: true,
				Secure:   s.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		sid := s.browserSession(w, r)

		location := *s.origin
		location.Path = r.URL.Path

		ctx := r.Context()
		ctx = goFeishuAuth.WithBrowsingContext(ctx, cid)
		ctx = goFeishuAuth.WithLanguage(ctx, lang)
		ctx = goFeishuAuth.WithLocation(ctx, &location)

		bound := s.engine.Bind(goFeishuAuth.Binding{
			Tiers:     s.contextTiers(cid, sid),
			Navigator: redirectNavigator(w, r),
		})
		ctx = context.WithValue(ctx, engineContextKey{}, bound)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// browserSession returns the id of the current browser session, minting a
// cookie without MaxAge when none is present. It scopes the ephemeral tier,
// which therefore ends with the browser session rather than the context.
func (s *server) browserSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// contextTiers scopes the durable tier by context and the ephemeral tier by
// context and browser session.
func (s *server) contextTiers(cid, sid string) *storage.Tiers {
	scope := s.prefix + ":" + cid
	return &storage.Tiers{
		Ephemeral: storage.Namespace(s.tiers.Ephemeral, scope+":"+sid),
		Durable:   storage.Namespace(s.tiers.Durable, scope),
	}
}

func redirectNavigator(w http.ResponseWriter, r *http.Request) goFeishuAuth.Navigator {
	return goFeishuAuth.NavigatorFunc(func(_ context.Context, target string) error {
		http.Redirect(w, r, target, http.StatusFound)
		return nil
	})
}

func engineFrom(r *http.Request) *goFeishuAuth.Engine {
	e, _ := r.Context().Value(engineContextKey{}).(*goFeishuAuth.Engine)
	return e
}

func presenceOf(r *http.Request) middleware.Presence {
	if e := engineFrom(r); e != nil {
		return e
	}
	return nil
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	e := engineFrom(r)
	user, ok := e.CurrentUser(r.Context())
	body := map[string]any{
		"app_title":     s.profile.AppTitle,
		"environment":   s.profile.Name,
		"authenticated": ok,
		"host_embedded": e.IsHostEmbedded(),
	}
	if user != nil {
		body["user"] = user
	}
	writeJSON(w, http.StatusOK, body)
}

// handleLogin runs one attempt. A code relayed from the Feishu client
// selects the in-host handshake; otherwise the browser is redirected to
// the authorization page.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	e := engineFrom(r)
	if code := sdkCode(r); code != "" {
		e = e.Bind(goFeishuAuth.Binding{Runtime: hostenv.Embedded(hostenv.Relay{Code: code})})
	}

	res, err := e.Authenticate(r.Context())
	if err != nil {
		writeAuthError(w, err)
		return
	}
	if res.State == goFeishuAuth.StateRedirectPending {
		// Navigator already wrote the 302.
		return
	}
	s.finishLogin(w, r, e)
}

func (s *server) handleCallback(w http.ResponseWriter, r *http.Request) {
	e := engineFrom(r)
	res, err := e.CallbackFromURL(r.Context(), r.URL)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	if res.Degraded {
		log.Printf("goFeishuAuth: attempt %s completed with a degraded identity", res.AttemptID)
	}
	s.finishLogin(w, r, e)
}

func (s *server) finishLogin(w http.ResponseWriter, r *http.Request, e *goFeishuAuth.Engine) {
	target := middleware.ResumePath(r.Context(), e, middleware.DefaultLanding)
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := engineFrom(r).Logout(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "logout_incomplete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := engineFrom(r).CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", nil)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleHeaders reports the headers a client would attach to backend
// calls, with the bearer value redacted.
func (s *server) handleHeaders(w http.ResponseWriter, r *http.Request) {
	h := engineFrom(r).AuthHeaders(r.Context())
	out := map[string]string{"Content-Type": h.Get("Content-Type")}
	if h.Get("Authorization") != "" {
		out["Authorization"] = "Bearer <redacted>"
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleRecording(w http.ResponseWriter, r *http.Request) {
	user, _ := engineFrom(r).CurrentUser(r.Context())
	body := map[string]any{"path": r.URL.Path}
	if user != nil {
		body["welcome"] = user.WelcomeText
	}
	writeJSON(w, http.StatusOK, body)
}

func sdkCode(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(sdkCodeHeader)); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get(sdkCodeParam))
}

func writeAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, goFeishuAuth.ErrMissingCallbackParams) {
		writeError(w, http.StatusBadRequest, "missing_callback_params", err)
		return
	}
	switch goFeishuAuth.KindOf(err) {
	case goFeishuAuth.KindSecurity:
		writeError(w, http.StatusForbidden, goFeishuAuth.KindSecurity.String(), err)
	case goFeishuAuth.KindIdentity, goFeishuAuth.KindBridge:
		writeError(w, http.StatusBadGateway, goFeishuAuth.KindOf(err).String(), err)
	case goFeishuAuth.KindTransient:
		writeError(w, http.StatusServiceUnavailable, goFeishuAuth.KindTransient.String(), err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	body := map[string]string{"error": code}
	if err != nil && status < http.StatusInternalServerError {
		body["detail"] = err.Error()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
