// Package daemon coordinates the long-running seopilot process.
//
// It wires configuration, the store, and the batch scheduler's periodic tick
// loop into a single lifecycle with flock-based locking to prevent multiple
// instances. A pid file next to the lock lets the CLI report whether a daemon
// is alive without contacting it.
//
// Keep orchestration logic here: resolution and write-back live in their own
// packages while the daemon focuses on startup, shutdown, and liveness.
package daemon
