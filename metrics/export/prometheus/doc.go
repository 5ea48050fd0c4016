// Package prometheus publishes goBlade session metrics through a
// client_golang [prometheus.Collector].
//
// Counter names are goblade_*_total; the single histogram is
// goblade_login_latency_seconds. Values are read from a snapshot at scrape
// time, so the collector never holds state of its own.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry. Callers pick the registry.
//   - Mutate session state.
package prometheus
