package goFeishuAuth

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/MrEthical07/goFeishuAuth/statetoken"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

// Config defines a public type used by goFeishuAuth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Backend  BackendConfig
	Platform PlatformConfig
	Storage  StorageConfig
	Login    LoginConfig
	Locale   LocaleConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig locates the application backend that owns the app secret.
type BackendConfig struct {
	BaseURL string // e.g. "https://api.example.com/api"
	Timeout time.Duration
}

/*
====================================
PLATFORM CONFIG
====================================
*/

// PlatformConfig locates the Feishu open platform. ClientID and
// ClientSecret are only needed by ExchangePlatformToken.
type PlatformConfig struct {
	AuthorizeURL string
	TokenURL     string
	UserInfoURL  string
	ClientID     string
	ClientSecret string
}

const (
	// DefaultAuthorizeURL is an exported constant or variable used by the authentication engine.
	DefaultAuthorizeURL = "https://accounts.feishu.cn/open-apis/authen/v1/authorize"
	// DefaultTokenURL is an exported constant or variable used by the authentication engine.
	DefaultTokenURL = "https://open.feishu.cn/open-apis/authen/v2/oauth/token"
	// DefaultUserInfoURL is an exported constant or variable used by the authentication engine.
	DefaultUserInfoURL = "https://open.feishu.cn/open-apis/authen/v1/user_info"
)

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig controls key layout and the default in-memory backends.
type StorageConfig struct {
	KeyPrefix      string
	MemoryCapacity int
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig controls where a successful login is persisted and how the
// redirect hand-off is built.
type LoginConfig struct {
	Tier        storage.Tier
	RedirectURI string // empty: derived from the request location in ctx
	StateLength int
	Scopes      []string
}

// LocaleConfig supplies the language used when ctx carries none.
type LocaleConfig struct {
	Default string
}

// AuditConfig defines a public type used by goFeishuAuth APIs.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goFeishuAuth APIs.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. Backend.BaseURL must
// still be set before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Timeout: 10 * time.Second,
		},
		Platform: PlatformConfig{
			AuthorizeURL: DefaultAuthorizeURL,
			TokenURL:     DefaultTokenURL,
			UserInfoURL:  DefaultUserInfoURL,
		},
		Storage: StorageConfig{
			MemoryCapacity: storage.DefaultMemoryCapacity,
		},
		Login: LoginConfig{
			Tier:        storage.Durable,
			StateLength: statetoken.DefaultLength,
		},
		Locale: LocaleConfig{
			Default: "en-US",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Login.Scopes != nil {
		out.Login.Scopes = append([]string(nil), cfg.Login.Scopes...)
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate returns the first configuration problem found, or nil.
func (c *Config) Validate() error {
	// Backend
	if c.Backend.BaseURL == "" {
		return errors.New("Backend BaseURL must be set")
	}
	if err := requireAbsoluteURL("Backend BaseURL", c.Backend.BaseURL); err != nil {
		return err
	}
	if c.Backend.Timeout < 0 {
		return errors.New("Backend Timeout must be >= 0")
	}

	// Platform
	for _, f := range []struct{ name, value string }{
		{"Platform AuthorizeURL", c.Platform.AuthorizeURL},
		{"Platform TokenURL", c.Platform.TokenURL},
		{"Platform UserInfoURL", c.Platform.UserInfoURL},
	} {
		if f.value == "" {
			return fmt.Errorf("%s must be set", f.name)
		}
		if err := requireAbsoluteURL(f.name, f.value); err != nil {
			return err
		}
	}
	if c.Platform.ClientSecret != "" && c.Platform.ClientID == "" {
		return errors.New("Platform ClientSecret requires ClientID")
	}

	// Storage
	if c.Storage.MemoryCapacity <= 0 {
		return errors.New("Storage MemoryCapacity must be > 0")
	}

	// Login
	if c.Login.Tier != storage.Ephemeral && c.Login.Tier != storage.Durable {
		return errors.New("Login Tier must be Ephemeral or Durable")
	}
	if c.Login.StateLength < 8 || c.Login.StateLength > 128 {
		return errors.New("Login StateLength must be between 8 and 128")
	}
	if c.Login.RedirectURI != "" {
		if err := requireAbsoluteURL("Login RedirectURI", c.Login.RedirectURI); err != nil {
			return err
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}

func requireAbsoluteURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", name)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
