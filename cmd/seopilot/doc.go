// Package main hosts the seopilot CLI entrypoint and command graph.
//
// The Cobra-based command tree opens the local database, wires the resolver,
// write-back pipeline, and batch scheduler, and exposes ticks, scheduler
// state, single-record resolution, ordered backfill, and the diagnostics log.
// It centralizes configuration resolution and structured logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
