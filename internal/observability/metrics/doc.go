// Package metrics provides Prometheus metrics for poller runs.
//
// Metrics live on a caller-supplied registry rather than the global default so
// that one-shot runs can export exactly one run's values to a node_exporter
// textfile, and tests can assert on a fresh registry.
//
// Metric families:
//   - mextfeed_feeds_total{status}: feeds processed per run (ok, fetch_failed, parse_failed, invalid)
//   - mextfeed_items_total{stage}: item counts per pipeline stage (parsed, dropped_incomplete, filtered, kept)
//   - mextfeed_snapshot_items: items in the last written snapshot
//   - mextfeed_run_duration_seconds: run duration histogram
//   - mextfeed_last_success_timestamp_seconds: Unix time of the last successful run
package metrics
