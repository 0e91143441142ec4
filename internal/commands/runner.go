package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allenclove/BatchGitOps/internal/execshell"
)

const (
	shellExecutorMissingMessageConstant    = "shell executor not configured"
	loggerMissingMessageConstant           = "logger not configured"
	commandTimedOutLogMessageConstant      = "Command timed out"
	commandFailedLogMessageConstant        = "Command failed"
	commandLaunchFailureLogMessageConstant = "Command could not be launched"
	commandOutputLogMessageConstant        = "Command output"
	commandErrorOutputLogMessageConstant   = "Command error output"
	commandFieldNameConstant               = "command"
	directoryFieldNameConstant             = "directory"
	exitCodeFieldNameConstant              = "exit_code"
	standardErrorFieldNameConstant         = "stderr"
	outputLineFieldNameConstant            = "line"
	commandTimeoutDurationConstant         = 300 * time.Second
	outputLineSeparatorConstant            = "\n"
)

// ErrShellExecutorNotConfigured indicates the runner was built without an executor.
var ErrShellExecutorNotConfigured = errors.New(shellExecutorMissingMessageConstant)

// ErrLoggerNotConfigured indicates the runner was built without a logger.
var ErrLoggerNotConfigured = errors.New(loggerMissingMessageConstant)

// ShellRunner abstracts shell command execution.
type ShellRunner interface {
	ExecuteShell(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RunnerOptions configures command stage execution behavior.
type RunnerOptions struct {
	StopOnFailure     bool
	ShowCommandOutput bool
}

// Result reports how many scoped commands were attempted and with what outcome.
type Result struct {
	SuccessCount int
	FailureCount int
}

// Runner executes operator commands through a shell with a bounded timeout.
type Runner struct {
	executor ShellRunner
	logger   *zap.Logger
}

// NewRunner constructs a Runner after validating dependencies.
func NewRunner(executor ShellRunner, logger *zap.Logger) (*Runner, error) {
	if executor == nil {
		return nil, ErrShellExecutorNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return &Runner{executor: executor, logger: logger}, nil
}

// RunRepoScoped executes the repo-scoped commands inside the repository tree.
func (runner *Runner) RunRepoScoped(executionContext context.Context, treePath string, specifications []Specification, options RunnerOptions) Result {
	return runner.run(executionContext, treePath, FilterByScope(specifications, ScopeRepo), options)
}

// RunParentScoped executes the parent-scoped commands inside the shared parent directory.
func (runner *Runner) RunParentScoped(executionContext context.Context, parentDirectory string, specifications []Specification, options RunnerOptions) Result {
	return runner.run(executionContext, parentDirectory, FilterByScope(specifications, ScopeParent), options)
}

// run iterates the command list in order. A failed command halts the
// remaining commands when StopOnFailure is set; counts reflect only commands
// actually attempted.
func (runner *Runner) run(executionContext context.Context, workingDirectory string, specifications []Specification, options RunnerOptions) Result {
	runResult := Result{}

	for _, specification := range specifications {
		commandSucceeded := runner.runSingle(executionContext, workingDirectory, specification, options)
		if commandSucceeded {
			runResult.SuccessCount++
			continue
		}

		runResult.FailureCount++
		if options.StopOnFailure {
			break
		}
	}

	return runResult
}

func (runner *Runner) runSingle(executionContext context.Context, workingDirectory string, specification Specification, options RunnerOptions) bool {
	timeoutContext, cancelTimeout := context.WithTimeout(executionContext, commandTimeoutDurationConstant)
	defer cancelTimeout()

	executionResult, executionError := runner.executor.ExecuteShell(timeoutContext, execshell.NewShellScriptDetails(specification.Command, workingDirectory))

	if options.ShowCommandOutput {
		runner.logCommandOutput(specification.Command, executionResult)
	}

	if executionError == nil {
		return true
	}

	commandFields := []zap.Field{
		zap.String(commandFieldNameConstant, specification.Command),
		zap.String(directoryFieldNameConstant, workingDirectory),
	}

	// A deadline that expires after launch surfaces as an ordinary non-zero
	// exit, so the context is consulted before classifying the failure.
	if errors.Is(timeoutContext.Err(), context.DeadlineExceeded) || errors.Is(executionError, context.DeadlineExceeded) {
		runner.logger.Warn(commandTimedOutLogMessageConstant, commandFields...)
		return false
	}

	failedError := execshell.CommandFailedError{}
	if errors.As(executionError, &failedError) {
		runner.logger.Warn(commandFailedLogMessageConstant, append(commandFields,
			zap.Int(exitCodeFieldNameConstant, failedError.Result.ExitCode),
			zap.String(standardErrorFieldNameConstant, strings.TrimSpace(failedError.Result.StandardError)))...)
		return false
	}

	runner.logger.Warn(commandLaunchFailureLogMessageConstant, append(commandFields,
		zap.String(standardErrorFieldNameConstant, executionError.Error()))...)
	return false
}

func (runner *Runner) logCommandOutput(commandText string, executionResult execshell.ExecutionResult) {
	for _, outputLine := range splitOutputLines(executionResult.StandardOutput) {
		runner.logger.Info(commandOutputLogMessageConstant,
			zap.String(commandFieldNameConstant, commandText),
			zap.String(outputLineFieldNameConstant, outputLine))
	}
	for _, outputLine := range splitOutputLines(executionResult.StandardError) {
		runner.logger.Warn(commandErrorOutputLogMessageConstant,
			zap.String(commandFieldNameConstant, commandText),
			zap.String(outputLineFieldNameConstant, outputLine))
	}
}

func splitOutputLines(outputText string) []string {
	trimmedOutput := strings.TrimSpace(outputText)
	if len(trimmedOutput) == 0 {
		return nil
	}
	return strings.Split(trimmedOutput, outputLineSeparatorConstant)
}
