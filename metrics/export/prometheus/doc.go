// Package prometheus provides Prometheus collectors for kotatsu metrics.
//
// [NewPrometheusExporter] accepts a [kotatsu.Engine] and exposes an [http.Handler]
// that renders all kotatsu counters and histograms in Prometheus text exposition format.
// Counter names are prefixed kotatsu_*_total; the single histogram is
// kotatsu_auth_page_load_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
