package internaldefs

import (
	kotatsu "github.com/LanaDelRey07/Kotatsu"
)

// CounterDef defines a public type used by kotatsu APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   kotatsu.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by kotatsu APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   kotatsu.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the source authentication engine.
var CounterDefs = []CounterDef{
	{ID: kotatsu.MetricFlowStarted, Name: "kotatsu_auth_flow_started_total", Help: "Started source authentication flows."},
	{ID: kotatsu.MetricFlowUnsupported, Name: "kotatsu_auth_flow_unsupported_total", Help: "Flow starts rejected before a browser was created."},
	{ID: kotatsu.MetricFlowAuthorized, Name: "kotatsu_auth_flow_authorized_total", Help: "Flows terminated as authorized."},
	{ID: kotatsu.MetricFlowCancelled, Name: "kotatsu_auth_flow_cancelled_total", Help: "Flows terminated as cancelled."},
	{ID: kotatsu.MetricFlowBackNavigation, Name: "kotatsu_auth_flow_back_navigation_total", Help: "Cancel requests reinterpreted as back navigation."},
	{ID: kotatsu.MetricPageLoadFinished, Name: "kotatsu_auth_page_load_finished_total", Help: "Finished page loads observed by flows."},
	{ID: kotatsu.MetricAuthCheckAuthorized, Name: "kotatsu_auth_check_authorized_total", Help: "Authorization checks that reported authorized."},
	{ID: kotatsu.MetricAuthCheckUnauthorized, Name: "kotatsu_auth_check_unauthorized_total", Help: "Authorization checks that reported unauthorized."},
	{ID: kotatsu.MetricAuthCheckError, Name: "kotatsu_auth_check_error_total", Help: "Authorization checks that failed with an error."},
	{ID: kotatsu.MetricCookiePersistFailure, Name: "kotatsu_cookie_persist_failure_total", Help: "Cookie sets that could not be mirrored to the backend."},
	{ID: kotatsu.MetricCookieRestoreFailure, Name: "kotatsu_cookie_restore_failure_total", Help: "Cookie restores that fell back to memory-only."},
	{ID: kotatsu.MetricPageCacheHit, Name: "kotatsu_page_cache_hit_total", Help: "Page cache hits."},
	{ID: kotatsu.MetricPageCacheMiss, Name: "kotatsu_page_cache_miss_total", Help: "Page cache misses."},
}

// HistogramDefs is an exported constant or variable used by the source authentication engine.
var HistogramDefs = []HistogramDef{
	{ID: kotatsu.MetricPageLoadLatency, Name: "kotatsu_auth_page_load_latency_seconds", Help: "Page load latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the source authentication engine.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the source authentication engine.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
