// Package observes wires OpenTelemetry tracing and sentry error reporting.
package observes
