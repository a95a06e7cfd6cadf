// Package prometheus renders the gateway's metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [gatekeeper.Gate] and exposes an
// [http.Handler] that renders every counter and histogram. Counter names are
// prefixed gatekeeper_*_total; the single histogram is
// gatekeeper_eval_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate gate state.
package prometheus
