package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/goFeishuAuth/profile"
	"golang.org/x/oauth2"
)

// TokenResponse is the user access token issued by the platform.
type TokenResponse struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	TokenType             string `json:"token_type,omitempty"`
	ExpiresIn             int64  `json:"expires_in,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in,omitempty"`
	Scope                 string `json:"scope,omitempty"`
}

// OAuth2Token converts the response relative to now.
func (t TokenResponse) OAuth2Token(now time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if t.ExpiresIn > 0 {
		tok.Expiry = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return tok
}

type envelope struct {
	Code             *int            `json:"code"`
	Msg              string          `json:"msg"`
	ErrorDescription string          `json:"error_description"`
	Data             json.RawMessage `json:"data"`
}

func (e envelope) err() error {
	if e.Code != nil && *e.Code == 0 {
		return nil
	}
	code := -1
	if e.Code != nil {
		code = *e.Code
	}
	return &PlatformError{Code: code, Msg: e.Msg, Description: e.ErrorDescription}
}

// ExchangeToken trades an authorization code for a user access token using
// the client secret flow.
func (c *Client) ExchangeToken(ctx context.Context, code, clientID, clientSecret string) (*TokenResponse, error) {
	body, err := json.Marshal(map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     clientID,
		"client_secret": clientSecret,
		"code":          code,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", EndpointPlatformAuth, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	raw, err := c.do(req, EndpointPlatformAuth)
	env, decodeErr := decodeEnvelope(raw, EndpointPlatformAuth, err)
	if decodeErr != nil {
		return nil, decodeErr
	}

	var tok TokenResponse
	src := []byte(env.Data)
	if len(src) == 0 || string(src) == "null" {
		// the v2 endpoint returns token fields next to code
		src = raw
	}
	if err := json.Unmarshal(src, &tok); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", EndpointPlatformAuth, ErrMalformedResponse, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%s: %w: missing access_token", EndpointPlatformAuth, ErrMalformedResponse)
	}
	return &tok, nil
}

// UserInfo fetches the identity record of the user owning accessToken.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (profile.Payload, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	authed.Timeout = c.http.Timeout

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", EndpointPlatformUser, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	raw, err := (&Client{cfg: c.cfg, http: authed}).do(req, EndpointPlatformUser)
	env, decodeErr := decodeEnvelope(raw, EndpointPlatformUser, err)
	if decodeErr != nil {
		return nil, decodeErr
	}
	return decodePayload(env.Data, EndpointPlatformUser)
}

// decodeEnvelope returns the platform error carried in the body when there is
// one, and the HTTP error otherwise.
func decodeEnvelope(raw []byte, endpoint string, httpErr error) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(bytes.TrimSpace(raw), &env); err != nil {
		if httpErr != nil {
			return env, httpErr
		}
		return env, fmt.Errorf("%s: %w: %v", endpoint, ErrMalformedResponse, err)
	}
	if err := env.err(); err != nil {
		return env, err
	}
	if httpErr != nil {
		return env, httpErr
	}
	return env, nil
}
