// Package observability bundles the service's operational surface:
// structured JSON logging (slog), Prometheus metrics, health probes,
// OpenTelemetry tracing and graceful shutdown.
package observability
