package execshell

// CommandEventObserver is notified as the executor drives each git or shell
// invocation through its lifecycle. The console narrator uses it to mirror
// batch progress for operators watching a run.
type CommandEventObserver interface {
	// CommandStarted fires just before the process is launched.
	CommandStarted(command ShellCommand)
	// CommandCompleted fires once the process exits, successfully or not,
	// with the captured result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed fires when the process could not run at all,
	// so no execution result exists.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// noopCommandEventObserver stands in when no observer is registered.
type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
