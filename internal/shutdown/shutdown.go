// Package shutdown implements the process-wide cooperative shutdown
// flag spec.md §5 requires: a single atomic bool, set once on SIGINT,
// consulted by every long-running loop (listener accept loop,
// connection handler's keep-alive wait, GC worker) after any blocking
// call returns.
package shutdown

import "sync/atomic"

// Flag is the "exit_requested" value from spec.md §3's global state.
// The zero value is ready to use and reports false.
type Flag struct {
	requested atomic.Bool
}

// Request marks the flag set. Idempotent.
func (f *Flag) Request() {
	f.requested.Store(true)
}

// Requested reports whether shutdown has been requested.
func (f *Flag) Requested() bool {
	return f.requested.Load()
}
