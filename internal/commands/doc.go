// Package commands normalizes operator command specifications and runs them
// through a shell with a bounded timeout.
package commands
