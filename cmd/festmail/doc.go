// Package main hosts the festmail CLI entrypoint and command graph.
//
// The Cobra command tree covers campaign dispatch (send), dispatch log
// inspection and repair (log), roster extraction from registration sheets
// (roster), and configuration scaffolding (config). Configuration loading and
// logger construction happen once per invocation in commandContext so
// subcommands only deal with their own flags and output.
//
// Keep this package thin: behavior belongs in internal/dispatch,
// internal/campaign and internal/roster, and commands only translate flags
// into calls and results into terminal output.
package main
