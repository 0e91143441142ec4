// Package utils exposes reusable helpers consumed by multiple commands.
//
// It currently houses ConfigurationLoader, LoggerFactory, and
// CommandContextAccessor abstractions that integrate Viper, environment
// variables, and zap logging for the CLI.
package utils
