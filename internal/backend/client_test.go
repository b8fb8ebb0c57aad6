package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:     srv.URL + "/api/feishu/app/",
		TokenURL:    srv.URL + "/open-apis/authen/v2/oauth/token",
		UserInfoURL: srv.URL + "/open-apis/authen/v1/user_info",
		Timeout:     2 * time.Second,
	}, nil), srv
}

func TestAppID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/feishu/app/get_appid" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"appid":"cli_a1"}`)
	})

	id, err := c.AppID(context.Background())
	if err != nil {
		t.Fatalf("AppID failed: %v", err)
	}
	if id != "cli_a1" {
		t.Fatalf("expected cli_a1, got %q", id)
	}
}

func TestAppIDEmptyAndMalformed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	if _, err := c.AppID(context.Background()); !errors.Is(err, ErrEmptyAppID) {
		t.Fatalf("expected ErrEmptyAppID, got %v", err)
	}

	c, _ = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})
	if _, err := c.AppID(context.Background()); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestNon2xxBecomesHTTPError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})

	_, err := c.UserInfoByAPICode(context.Background(), "code", "https://app/cb")
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if he.StatusCode != http.StatusBadGateway || he.Endpoint != EndpointAPICode {
		t.Fatalf("unexpected HTTPError %+v", he)
	}
}

func TestTransportErrorIsWrapped(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.AppID(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	var he *HTTPError
	if errors.As(err, &he) {
		t.Fatal("transport failure must not be reported as HTTPError")
	}
}

func TestUserInfoBySDKCode(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/feishu/app/getUserInfoBySdkCode" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("code"); got != "a b&c" {
			t.Errorf("code not round-tripped: %q", got)
		}
		_, _ = io.WriteString(w, `{"code":0,"name":"张伟","avatar_url":"u"}`)
	})

	p, err := c.UserInfoBySDKCode(context.Background(), "a b&c")
	if err != nil {
		t.Fatalf("UserInfoBySDKCode failed: %v", err)
	}
	if name, _ := p.String("name"); name != "张伟" {
		t.Fatalf("unexpected name %q", name)
	}
}

func TestUserInfoEmptyBodies(t *testing.T) {
	for _, body := range []string{"", "null", "  \n"} {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		p, err := c.UserInfoBySDKCode(context.Background(), "x")
		if err != nil || p != nil {
			t.Fatalf("body %q: expected nil payload and nil error, got %v, %v", body, p, err)
		}
	}
}

func TestUserInfoByAPICodeUnwrapsData(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "wrapped", body: `{"code":0,"data":{"name":"Wrapped"}}`, want: "Wrapped"},
		{name: "bare", body: `{"name":"Bare"}`, want: "Bare"},
		{name: "bare en_name", body: `{"en_name":"Bare"}`, want: ""},
		{name: "null data", body: `{"data":null,"name":"Outer"}`, want: "Outer"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("redirectUri"); got != "https://app.example.com/callback" {
					t.Errorf("unexpected redirectUri %q", got)
				}
				_, _ = io.WriteString(w, tc.body)
			})
			p, err := c.UserInfoByAPICode(context.Background(), "code", "https://app.example.com/callback")
			if err != nil {
				t.Fatalf("UserInfoByAPICode failed: %v", err)
			}
			name, _ := p.String("name")
			if name != tc.want {
				t.Fatalf("expected name %q, got %q", tc.want, name)
			}
		})
	}
}

func TestExchangeToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["grant_type"] != "authorization_code" || body["code"] != "c1" ||
			body["client_id"] != "id" || body["client_secret"] != "secret" {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = io.WriteString(w, `{"code":0,"access_token":"u-at","refresh_token":"u-rt","token_type":"Bearer","expires_in":7200}`)
	})

	tok, err := c.ExchangeToken(context.Background(), "c1", "id", "secret")
	if err != nil {
		t.Fatalf("ExchangeToken failed: %v", err)
	}
	if tok.AccessToken != "u-at" || tok.ExpiresIn != 7200 {
		t.Fatalf("unexpected token %+v", tok)
	}

	now := time.Unix(1000, 0)
	ot := tok.OAuth2Token(now)
	if !ot.Expiry.Equal(now.Add(2*time.Hour)) || ot.Type() != "Bearer" {
		t.Fatalf("unexpected oauth2 token %+v", ot)
	}
}

func TestExchangeTokenDataEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":0,"data":{"access_token":"nested"}}`)
	})
	tok, err := c.ExchangeToken(context.Background(), "c", "id", "s")
	if err != nil || tok.AccessToken != "nested" {
		t.Fatalf("expected nested token, got %+v, %v", tok, err)
	}
}

func TestPlatformErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
	}{
		{name: "non-zero code", status: http.StatusBadRequest, body: `{"code":20003,"error_description":"code expired"}`, wantCode: 20003},
		{name: "non-zero code on 200", status: http.StatusOK, body: `{"code":99991663,"msg":"invalid token"}`, wantCode: 99991663},
		{name: "absent code", status: http.StatusOK, body: `{"msg":"?"}`, wantCode: -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})

			_, err := c.ExchangeToken(context.Background(), "c", "id", "s")
			var pe *PlatformError
			if !errors.As(err, &pe) || pe.Code != tc.wantCode {
				t.Fatalf("token: expected PlatformError %d, got %v", tc.wantCode, err)
			}

			_, err = c.UserInfo(context.Background(), "at")
			if !errors.As(err, &pe) || pe.Code != tc.wantCode {
				t.Fatalf("user_info: expected PlatformError %d, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestPlatformNon2xxWithoutEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	_, err := c.UserInfo(context.Background(), "at")
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected HTTPError 502, got %v", err)
	}
}

func TestUserInfoSendsBearer(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer u-at" {
			t.Errorf("unexpected Authorization %q", got)
		}
		_, _ = io.WriteString(w, `{"code":0,"data":{"name":"Lark User","open_id":"ou_1"}}`)
	})

	p, err := c.UserInfo(context.Background(), "u-at")
	if err != nil {
		t.Fatalf("UserInfo failed: %v", err)
	}
	if name, _ := p.String("name"); name != "Lark User" {
		t.Fatalf("unexpected name %q", name)
	}
}
