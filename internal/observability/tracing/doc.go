// Package tracing exposes the OpenTelemetry tracer used for run and feed spans.
//
// No exporter is installed by this module; without an SDK provider the global
// tracer is a no-op. Deployments that want traces register a provider with
// otel.SetTracerProvider before the first run.
package tracing
