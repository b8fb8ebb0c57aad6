package goFeishuAuth

import (
	"net/url"
	"strings"

	"github.com/MrEthical07/goFeishuAuth/storage"
)

// LintSeverity grades a [LintWarning].
type LintSeverity int

const (
	// LintInfo is an exported constant or variable used by the authentication engine.
	LintInfo LintSeverity = iota
	// LintWarn is an exported constant or variable used by the authentication engine.
	LintWarn
	// LintHigh is an exported constant or variable used by the authentication engine.
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "INFO"
	}
}

// LintWarning is a configuration that validates but is probably unintended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// AtLeast returns the warnings whose severity is >= min.
func (ws LintWarnings) AtLeast(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// Lint reports settings that pass Validate but weaken the login flow. It
// never fails; call Validate for hard errors.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.Login.StateLength > 0 && c.Login.StateLength < 16 {
		add("state_length_short", LintHigh, "state tokens shorter than 16 characters are easier to guess")
	}
	if c.Login.Tier == storage.Ephemeral {
		add("login_tier_ephemeral", LintInfo, "logins are lost when the browsing context ends")
	}
	if c.Login.RedirectURI == "" {
		add("redirect_uri_derived", LintInfo, "redirect URI is derived from the request location in ctx")
	}
	if isPlainRemoteHTTP(c.Backend.BaseURL) {
		add("backend_plain_http", LintHigh, "backend exchanges authorization codes over plain HTTP")
	}
	if c.Backend.Timeout == 0 {
		add("backend_timeout_unset", LintWarn, "backend calls have no timeout")
	}
	if c.Platform.ClientSecret != "" {
		add("platform_secret_configured", LintWarn, "client secret is held by the engine; prefer the backend exchange")
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		add("audit_blocking", LintWarn, "a slow audit sink will block authentication")
	}
	if !c.Metrics.Enabled && c.Metrics.EnableLatencyHistograms {
		add("latency_without_metrics", LintInfo, "latency histograms have no effect while metrics are disabled")
	}

	return ws
}

func isPlainRemoteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host != "localhost" && host != "127.0.0.1" && host != "::1"
}
