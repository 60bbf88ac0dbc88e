// Package logging assembles structured slog loggers and formatting helpers used
// across festmail commands.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so dispatch code can tag every line
// of a run with its run ID and campaign. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging
