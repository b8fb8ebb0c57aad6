package internaldefs

import (
	"strconv"
	"strings"

	goFeishuAuth "github.com/MrEthical07/goFeishuAuth"
	internalmetrics "github.com/MrEthical07/goFeishuAuth/internal/metrics"
)

// CounterDef binds a counter id to its exported name.
type CounterDef struct {
	ID   goFeishuAuth.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram id to its exported name.
type HistogramDef struct {
	ID   goFeishuAuth.MetricID
	Name string
	Help string
}

// BucketCount is the number of histogram buckets, including +Inf.
const BucketCount = internalmetrics.HistBucketCount

// CounterDefs is an exported constant or variable used by the authentication engine.
var CounterDefs = []CounterDef{
	{ID: goFeishuAuth.MetricCacheHit, Name: "feishu_auth_cache_hit_total", Help: "Attempts satisfied from a cached identity."},
	{ID: goFeishuAuth.MetricSDKLoginSuccess, Name: "feishu_auth_sdk_login_success_total", Help: "Successful in-host SDK handshakes."},
	{ID: goFeishuAuth.MetricSDKLoginFailure, Name: "feishu_auth_sdk_login_failure_total", Help: "Failed in-host SDK handshakes."},
	{ID: goFeishuAuth.MetricRedirectIssued, Name: "feishu_auth_redirect_issued_total", Help: "Redirects issued to the authorization page."},
	{ID: goFeishuAuth.MetricCallbackSuccess, Name: "feishu_auth_callback_success_total", Help: "Successful callback completions."},
	{ID: goFeishuAuth.MetricCallbackFailure, Name: "feishu_auth_callback_failure_total", Help: "Failed callback completions."},
	{ID: goFeishuAuth.MetricStateMismatch, Name: "feishu_auth_state_mismatch_total", Help: "Callbacks rejected for a missing or mismatched state."},
	{ID: goFeishuAuth.MetricDegradedIdentity, Name: "feishu_auth_degraded_identity_total", Help: "Callback identities without a usable name."},
	{ID: goFeishuAuth.MetricStorageWriteFailed, Name: "feishu_auth_storage_write_failed_total", Help: "Identity writes that failed."},
	{ID: goFeishuAuth.MetricLogout, Name: "feishu_auth_logout_total", Help: "Logout operations."},
	{ID: goFeishuAuth.MetricNavigationDenied, Name: "feishu_auth_navigation_denied_total", Help: "Protected navigations redirected to the landing page."},
	{ID: goFeishuAuth.MetricPlatformExchangeSuccess, Name: "feishu_auth_platform_exchange_success_total", Help: "Successful direct platform token exchanges."},
	{ID: goFeishuAuth.MetricPlatformExchangeFailure, Name: "feishu_auth_platform_exchange_failure_total", Help: "Failed direct platform token exchanges."},
}

// HistogramDefs is an exported constant or variable used by the authentication engine.
var HistogramDefs = []HistogramDef{
	{ID: goFeishuAuth.MetricExchangeLatency, Name: "feishu_auth_exchange_latency_seconds", Help: "Code exchange latency histogram."},
}

// HistogramBounds holds the Prometheus le labels, in seconds.
var HistogramBounds = bounds()

// HistogramBoundSuffix holds instrument-safe forms of HistogramBounds.
var HistogramBoundSuffix = suffixes(HistogramBounds)

func bounds() []string {
	out := make([]string, 0, BucketCount)
	for _, ms := range internalmetrics.BucketUpperMillis() {
		out = append(out, strconv.FormatFloat(float64(ms)/1000, 'f', -1, 64))
	}
	return append(out, "+Inf")
}

func suffixes(in []string) []string {
	out := make([]string, len(in))
	for i, b := range in {
		if b == "+Inf" {
			out[i] = "inf"
			continue
		}
		out[i] = strings.ReplaceAll(b, ".", "_")
	}
	return out
}

// NormalizeBuckets copies raw into a fixed-size bucket array.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
