// Package execshell wraps external process execution for git and shell
// commands, logging lifecycle events and surfacing typed failures.
package execshell
