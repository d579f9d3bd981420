// Package app wires the declaration loader, the executor, and the logger
// into one runnable application instance. Each App owns an isolated
// logger and executor; nothing global is touched, so tests can run many
// instances in parallel.
package app
