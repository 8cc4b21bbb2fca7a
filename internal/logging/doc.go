// Package logging assembles structured slog loggers and formatting helpers used
// across seopilot.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so batch code can tag log lines
// with tick ids, categories, and content record ids. DiagnosticsHub is the
// capped, timestamped diagnostics log: every record published through its
// handler lands in a bounded ring (oldest dropped first) and in any attached
// durable sinks.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
