package main

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	goFeishuAuth "github.com/MrEthical07/goFeishuAuth"
	"github.com/MrEthical07/goFeishuAuth/envprofile"
	"github.com/MrEthical07/goFeishuAuth/jwt"
	"github.com/MrEthical07/goFeishuAuth/storage"
)

// Durable store backends.
const (
	durableMiniredis = "miniredis"
	durableRedis     = "redis"
	durableSQLite    = "sqlite"
	durableMemory    = "memory"
)

// gatewayConfig is read from FEISHU_* environment variables.
type gatewayConfig struct {
	ListenAddr     string        `env:"FEISHU_GATEWAY_ADDR" envDefault:":8080"`
	PublicOrigin   string        `env:"FEISHU_PUBLIC_ORIGIN" envDefault:"http://localhost:8080"`
	Durable        string        `env:"FEISHU_DURABLE_STORE" envDefault:"miniredis"`
	RedisAddr      string        `env:"FEISHU_REDIS_ADDR" envDefault:"localhost:6379"`
	SQLitePath     string        `env:"FEISHU_SQLITE_PATH" envDefault:"feishu-auth.db"`
	KeyPrefix      string        `env:"FEISHU_KEY_PREFIX" envDefault:"feishu"`
	CookieKey      string        `env:"FEISHU_COOKIE_KEY"`
	CookieTTL      time.Duration `env:"FEISHU_COOKIE_TTL" envDefault:"720h"`

	// CookieAlg is hs256 (FEISHU_COOKIE_KEY) or ed25519 (the PEM file).
	CookieAlg        string            `env:"FEISHU_COOKIE_ALG" envDefault:"hs256"`
	CookieKeyID      string            `env:"FEISHU_COOKIE_KEY_ID"`
	CookiePrivateKey string            `env:"FEISHU_COOKIE_PRIVATE_KEY_FILE,file"`
	CookieVerifyKeys map[string]string `env:"FEISHU_COOKIE_VERIFY_KEYS"`

	ClientID       string        `env:"FEISHU_CLIENT_ID"`
	ClientSecret   string        `env:"FEISHU_CLIENT_SECRET"`
	BackendTimeout time.Duration `env:"FEISHU_BACKEND_TIMEOUT" envDefault:"10s"`
	LoginTier      string        `env:"FEISHU_LOGIN_TIER" envDefault:"durable"`
	AuditLog       bool          `env:"FEISHU_AUDIT_LOG" envDefault:"false"`
	ProtectedPaths []string      `env:"FEISHU_PROTECTED_PATHS" envSeparator:"," envDefault:"/recording"`
	Languages      []string      `env:"FEISHU_LANGUAGES" envSeparator:"," envDefault:"zh-CN,en-US,ja-JP"`
}

// loadConfig reads the gateway configuration and resolves the environment
// profile. A nil environ reads the process environment.
func loadConfig(environ map[string]string) (gatewayConfig, envprofile.Profile, error) {
	if environ == nil {
		environ = env.ToMap(os.Environ())
	}

	var gc gatewayConfig
	if err := env.ParseWithOptions(&gc, env.Options{Environment: environ}); err != nil {
		return gatewayConfig{}, envprofile.Profile{}, fmt.Errorf("parse gateway env: %w", err)
	}
	if err := gc.validate(); err != nil {
		return gatewayConfig{}, envprofile.Profile{}, err
	}

	prof, err := envprofile.FromEnviron(environ, gc.publicHost())
	if err != nil {
		return gatewayConfig{}, envprofile.Profile{}, err
	}
	return gc, prof, nil
}

func (gc gatewayConfig) validate() error {
	switch gc.Durable {
	case durableMiniredis, durableRedis, durableSQLite, durableMemory:
	default:
		return fmt.Errorf("unknown durable store %q", gc.Durable)
	}
	u, err := url.Parse(gc.PublicOrigin)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("public origin %q must be an absolute http(s) URL", gc.PublicOrigin)
	}
	if gc.CookieTTL <= 0 {
		return fmt.Errorf("cookie ttl must be positive")
	}
	if _, err := jwt.ParseSigningMethod(gc.CookieAlg); err != nil {
		return fmt.Errorf("cookie signing: %w", err)
	}
	if len(gc.CookieVerifyKeys) > 0 && gc.CookieKeyID == "" {
		return fmt.Errorf("FEISHU_COOKIE_VERIFY_KEYS requires FEISHU_COOKIE_KEY_ID")
	}
	if len(gc.Languages) == 0 {
		return fmt.Errorf("at least one language is required")
	}
	return nil
}

func (gc gatewayConfig) origin() *url.URL {
	u, _ := url.Parse(strings.TrimRight(gc.PublicOrigin, "/"))
	return u
}

func (gc gatewayConfig) publicHost() string {
	if u := gc.origin(); u != nil {
		return u.Host
	}
	return ""
}

func (gc gatewayConfig) secureCookies() bool {
	u := gc.origin()
	return u != nil && u.Scheme == "https"
}

// cookieKey decodes FEISHU_COOKIE_KEY. An empty key returns nil.
func (gc gatewayConfig) cookieKey() []byte {
	return decodeKey(gc.CookieKey)
}

// verifyKeys decodes the retired cookie keys by key id.
func (gc gatewayConfig) verifyKeys() map[string][]byte {
	if len(gc.CookieVerifyKeys) == 0 {
		return nil
	}
	out := make(map[string][]byte, len(gc.CookieVerifyKeys))
	for kid, v := range gc.CookieVerifyKeys {
		out[kid] = decodeKey(v)
	}
	return out
}

// decodeKey decodes hex input; anything else is used as raw bytes.
func decodeKey(s string) []byte {
	if s == "" {
		return nil
	}
	if b, err := hex.DecodeString(s); err == nil {
		return b
	}
	return []byte(s)
}

// engineConfig maps the gateway settings and profile onto the engine.
func (gc gatewayConfig) engineConfig(prof envprofile.Profile) (goFeishuAuth.Config, error) {
	cfg := goFeishuAuth.DefaultConfig()
	cfg.Backend.BaseURL = prof.APIBaseURL
	cfg.Backend.Timeout = gc.BackendTimeout
	cfg.Platform.ClientID = gc.ClientID
	cfg.Platform.ClientSecret = gc.ClientSecret
	cfg.Storage.KeyPrefix = gc.KeyPrefix
	cfg.Login.RedirectURI = gc.origin().String() + "/callback"
	cfg.Locale.Default = gc.Languages[0]
	cfg.Audit.Enabled = gc.AuditLog

	tier, err := storage.ParseTier(gc.LoginTier)
	if err != nil {
		return goFeishuAuth.Config{}, err
	}
	cfg.Login.Tier = tier

	if err := cfg.Validate(); err != nil {
		return goFeishuAuth.Config{}, err
	}
	return cfg, nil
}
