// Package otel provides OpenTelemetry metric exporter bindings for the
// gateway's counters and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each
// gateway metric and Int64ObservableGauge per histogram bucket. A single
// callback reads [gatekeeper.Gate.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate gate state.
package otel
