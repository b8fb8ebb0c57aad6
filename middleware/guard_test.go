package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresence struct {
	mu          sync.Mutex
	loggedIn    bool
	remembered  []string
	rememberErr error
	saved       string
}

func (f *fakePresence) IsAuthenticated(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedIn
}

func (f *fakePresence) RememberRedirect(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remembered = append(f.remembered, path)
	f.saved = path
	return f.rememberErr
}

func (f *fakePresence) ResumePath(context.Context) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.saved
	f.saved = ""
	return p, p != ""
}

func TestCheckPublicRouteAlwaysAllowed(t *testing.T) {
	p := &fakePresence{}
	d := Check(context.Background(), p, Route{Path: "/"}, "/")

	assert.True(t, d.Allow)
	assert.Empty(t, p.remembered)
}

func TestCheckProtectedRoute(t *testing.T) {
	cases := []struct {
		name       string
		loggedIn   bool
		wantAllow  bool
		wantRecord []string
	}{
		{name: "logged in", loggedIn: true, wantAllow: true},
		{name: "anonymous", loggedIn: false, wantAllow: false, wantRecord: []string{"/recording?id=3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakePresence{loggedIn: tc.loggedIn}
			d := Check(context.Background(), p, Route{Path: "/recording", RequiresAuth: true}, "/recording?id=3")

			assert.Equal(t, tc.wantAllow, d.Allow)
			assert.Equal(t, tc.wantRecord, p.remembered)
			if !tc.wantAllow {
				assert.Equal(t, DefaultLanding, d.RedirectTo)
			}
		})
	}
}

func TestCheckDeniesEvenWhenRecordingFails(t *testing.T) {
	p := &fakePresence{rememberErr: errors.New("store down")}
	d := Guard{Landing: "/home"}.Check(context.Background(), p, Route{Path: "/recording", RequiresAuth: true}, "/recording")

	assert.False(t, d.Allow)
	assert.Equal(t, "/home", d.RedirectTo)
}

func TestCheckNilPresenceDenies(t *testing.T) {
	d := Check(context.Background(), nil, Route{Path: "/recording", RequiresAuth: true}, "/recording")
	assert.False(t, d.Allow)
}

func TestTableMatch(t *testing.T) {
	table := Table{
		{Path: "/"},
		{Path: "/recording", RequiresAuth: true},
		{Path: "/recording/public"},
	}

	assert.True(t, table.Match("/recording").RequiresAuth)
	assert.True(t, table.Match("/recording/42").RequiresAuth)
	assert.False(t, table.Match("/recording/public/1").RequiresAuth)
	assert.False(t, table.Match("/recordings").RequiresAuth)
	assert.False(t, table.Match("/").RequiresAuth)
	assert.Equal(t, "/unknown", table.Match("/unknown").Path)
}

func TestNavigationMiddleware(t *testing.T) {
	p := &fakePresence{}
	table := Table{{Path: "/recording", RequiresAuth: true}}
	h := Navigation(table, func(*http.Request) Presence { return p }, "/")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recording/7?tab=a", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, []string{"/recording/7?tab=a"}, p.remembered)

	p.loggedIn = true
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recording/7", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRequireLoginMiddleware(t *testing.T) {
	p := &fakePresence{}
	h := RequireLogin(func(*http.Request) Presence { return p }, "/login")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestResumePath(t *testing.T) {
	p := &fakePresence{}
	assert.Equal(t, "/", ResumePath(context.Background(), p, "/"))

	p.saved = "/recording?id=9"
	assert.Equal(t, "/recording?id=9", ResumePath(context.Background(), p, "/"))
	assert.Equal(t, "/", ResumePath(context.Background(), p, "/"), "path must be cleared after resume")

	for _, unsafe := range []string{"https://evil.example", "//evil.example", "/\\evil", "relative", "/a\r\nSet-Cookie: x"} {
		p.saved = unsafe
		assert.Equal(t, "/home", ResumePath(context.Background(), p, "/home"), unsafe)
	}

	assert.Equal(t, "/x", ResumePath(context.Background(), nil, "/x"))
}
