// Package cli assembles the batchgitops command-line application: root command,
// configuration loading, structured logging, and the run subcommand.
package cli
