// Package prometheus renders goFeishuAuth metrics in Prometheus text
// exposition format.
//
// [NewExporter] wraps an engine and exposes an [http.Handler]. Counter names
// are feishu_auth_*_total; the single histogram is
// feishu_auth_exchange_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
