// Package preflight provides readiness checks for the paths, database, and
// settings seopilot depends on.
//
// The CLI "seopilot status" command renders RunAll results, and the daemon
// runs them once at startup and logs failures without refusing to start.
// Checks never mutate state.
package preflight
