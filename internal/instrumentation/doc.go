// Package instrumentation wires OpenTelemetry metrics and tracing for the
// meeting assistant.
//
// Metrics are exported through Prometheus by default (scraped from
// /metrics), with OTLP and stdout exporters available for collector-based
// setups and local debugging. Tracing is off unless an exporter is
// configured. A nil or disabled Metrics value is safe to call; every
// recording method is a no-op then, so instrumented code never has to
// guard.
package instrumentation
