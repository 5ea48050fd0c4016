// Package otel binds goBlade session metrics to an OpenTelemetry meter.
//
// Each counter becomes an Int64ObservableCounter. The login latency histogram
// is published as one cumulative gauge per bucket plus a count gauge. A single
// callback reads the snapshot on every collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate session state.
package otel
