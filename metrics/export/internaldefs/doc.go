// Package internaldefs holds the metric names and bucket bounds shared by
// the Prometheus and OTel exporters, so both publish identical series.
//
// Bucket bounds are derived from the engine's latency histogram and never
// restated here.
package internaldefs
