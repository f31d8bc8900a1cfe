// Package prometheus renders goAdmin client metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps a [goAdmin.Client] and serves every counter
// as goadmin_*_total plus the goadmin_backend_latency_seconds histogram.
// Nothing is registered globally; callers mount [PrometheusExporter.Handler].
package prometheus
