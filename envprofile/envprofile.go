package envprofile

import (
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Profile names.
const (
	Development = "development"
	Test        = "test"
	Production  = "production"
)

// Profile is the per-environment application configuration.
type Profile struct {
	Name       string `json:"name"`
	APIBaseURL string `json:"api_base_url"`
	AppTitle   string `json:"app_title"`
}

func (p Profile) IsDevelopment() bool { return p.Name == Development }
func (p Profile) IsTest() bool        { return p.Name == Test }
func (p Profile) IsProduction() bool  { return p.Name == Production }

var profiles = map[string]Profile{
	Development: {
		Name:       Development,
		APIBaseURL: "http://localhost:8080/api/feishu/app",
		AppTitle:   "Feishu Login (development)",
	},
	Test: {
		Name:       Test,
		APIBaseURL: "http://test.example.com/api/feishu/app",
		AppTitle:   "Feishu Login (test)",
	},
	Production: {
		Name:       Production,
		APIBaseURL: "https://example.com/api/feishu/app",
		AppTitle:   "Feishu Login",
	},
}

// Names lists the known profile names in sorted order.
func Names() []string {
	out := make([]string, 0, len(profiles))
	for name := range profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the named profile.
func Lookup(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// Resolve picks a profile. A non-empty explicit name wins; an unknown one
// falls back to development. Without one the hostname decides: localhost
// and 127.0.0.1 are development, hosts containing "test" or "staging" are
// test, anything else is production.
func Resolve(explicit, hostname string) Profile {
	if explicit != "" {
		if p, ok := profiles[strings.ToLower(strings.TrimSpace(explicit))]; ok {
			return p
		}
		return profiles[Development]
	}
	return profiles[byHostname(hostname)]
}

func byHostname(hostname string) string {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	switch {
	case host == "localhost" || host == "127.0.0.1":
		return Development
	case strings.Contains(host, "test") || strings.Contains(host, "staging"):
		return Test
	default:
		return Production
	}
}

// envVars are the process-level overrides.
type envVars struct {
	Mode       string `env:"FEISHU_ENV"`
	APIBaseURL string `env:"FEISHU_API_BASE_URL"`
	AppTitle   string `env:"FEISHU_APP_TITLE"`
}

// FromEnv resolves the profile from the process environment and hostname.
// FEISHU_API_BASE_URL and FEISHU_APP_TITLE override the resolved values.
func FromEnv(hostname string) (Profile, error) {
	var raw envVars
	if err := env.Parse(&raw); err != nil {
		return Profile{}, fmt.Errorf("parse env: %w", err)
	}
	return raw.apply(hostname), nil
}

// FromEnviron is FromEnv over an explicit environment map.
func FromEnviron(environ map[string]string, hostname string) (Profile, error) {
	var raw envVars
	if err := env.ParseWithOptions(&raw, env.Options{Environment: environ}); err != nil {
		return Profile{}, fmt.Errorf("parse env: %w", err)
	}
	return raw.apply(hostname), nil
}

func (v envVars) apply(hostname string) Profile {
	p := Resolve(v.Mode, hostname)
	if v.APIBaseURL != "" {
		p.APIBaseURL = v.APIBaseURL
	}
	if v.AppTitle != "" {
		p.AppTitle = v.AppTitle
	}
	return p
}
