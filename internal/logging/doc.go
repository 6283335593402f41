// Package logging assembles structured slog loggers and formatting helpers
// used across amp services.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so components emit log lines with
// a consistent shape. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// share the same routing and field conventions as the rest of the system.
package logging
