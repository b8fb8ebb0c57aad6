package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goFeishuAuth/profile"
)

const maxBodyBytes = 1 << 20

// Endpoint names used in errors.
const (
	EndpointAppID        = "get_appid"
	EndpointSDKCode      = "getUserInfoBySdkCode"
	EndpointAPICode      = "getUserInfoByApiCode"
	EndpointPlatformAuth = "oauth/token"
	EndpointPlatformUser = "user_info"
)

// Config locates the application backend and the Feishu platform endpoints.
type Config struct {
	BaseURL     string
	TokenURL    string
	UserInfoURL string
	Timeout     time.Duration
}

// Client calls the application backend and the Feishu open platform.
type Client struct {
	cfg  Config
	http *http.Client
}

// New returns a Client. When httpClient is nil a client with cfg.Timeout is
// created.
func New(cfg Config, httpClient *http.Client) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// HTTPClient returns the underlying transport client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// AppID fetches the Feishu application id from the backend.
func (c *Client) AppID(ctx context.Context) (string, error) {
	var body struct {
		AppID string `json:"appid"`
	}
	raw, err := c.get(ctx, c.cfg.BaseURL+"/get_appid", EndpointAppID)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("%s: %w: %v", EndpointAppID, ErrMalformedResponse, err)
	}
	if body.AppID == "" {
		return "", ErrEmptyAppID
	}
	return body.AppID, nil
}

// UserInfoBySDKCode exchanges a host-issued code for an identity record.
// A null or empty body yields a nil Payload and no error.
func (c *Client) UserInfoBySDKCode(ctx context.Context, code string) (profile.Payload, error) {
	q := url.Values{}
	q.Set("code", code)
	raw, err := c.get(ctx, c.cfg.BaseURL+"/getUserInfoBySdkCode?"+q.Encode(), EndpointSDKCode)
	if err != nil {
		return nil, err
	}
	return decodePayload(raw, EndpointSDKCode)
}

// UserInfoByAPICode exchanges an OAuth authorization code for an identity
// record. A record wrapped as {"data": {...}} is unwrapped.
func (c *Client) UserInfoByAPICode(ctx context.Context, code, redirectURI string) (profile.Payload, error) {
	q := url.Values{}
	q.Set("code", code)
	q.Set("redirectUri", redirectURI)
	raw, err := c.get(ctx, c.cfg.BaseURL+"/getUserInfoByApiCode?"+q.Encode(), EndpointAPICode)
	if err != nil {
		return nil, err
	}
	p, err := decodePayload(raw, EndpointAPICode)
	if err != nil || p == nil {
		return p, err
	}
	if data, ok := p["data"].(map[string]any); ok && data != nil {
		return profile.Payload(data), nil
	}
	return p, nil
}

func (c *Client) get(ctx context.Context, target, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, endpoint)
}

func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return raw, &HTTPError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}
	return raw, nil
}

func decodePayload(raw []byte, endpoint string) (profile.Payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	p, err := profile.ParsePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", endpoint, ErrMalformedResponse, err)
	}
	return p, nil
}
