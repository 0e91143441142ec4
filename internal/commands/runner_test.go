package commands_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/allenclove/BatchGitOps/internal/commands"
	"github.com/allenclove/BatchGitOps/internal/execshell"
)

const (
	testRunnerWorkingDirectoryConstant = "/work/repos/service"
)

type scriptedShellExecutor struct {
	resultsByScript map[string]execshell.ExecutionResult
	errorsByScript  map[string]error
	executedScripts []string
}

func newScriptedShellExecutor() *scriptedShellExecutor {
	return &scriptedShellExecutor{
		resultsByScript: map[string]execshell.ExecutionResult{},
		errorsByScript:  map[string]error{},
	}
}

func (executor *scriptedShellExecutor) ExecuteShell(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	scriptText := details.Arguments[len(details.Arguments)-1]
	executor.executedScripts = append(executor.executedScripts, scriptText)
	return executor.resultsByScript[scriptText], executor.errorsByScript[scriptText]
}

func (executor *scriptedShellExecutor) failScript(scriptText string, exitCode int) {
	result := execshell.ExecutionResult{ExitCode: exitCode, StandardError: "boom"}
	executor.resultsByScript[scriptText] = result
	executor.errorsByScript[scriptText] = execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandShell},
		Result:  result,
	}
}

func newCommandRunner(testInstance *testing.T, executor commands.ShellRunner, logger *zap.Logger) *commands.Runner {
	runner, creationError := commands.NewRunner(executor, logger)
	require.NoError(testInstance, creationError)
	return runner
}

func repoSpecifications(commandTexts ...string) []commands.Specification {
	specifications := make([]commands.Specification, 0, len(commandTexts))
	for _, commandText := range commandTexts {
		specifications = append(specifications, commands.Specification{Command: commandText, Scope: commands.ScopeRepo})
	}
	return specifications
}

func TestNewRunnerValidation(testInstance *testing.T) {
	runner, creationError := commands.NewRunner(nil, zap.NewNop())
	require.ErrorIs(testInstance, creationError, commands.ErrShellExecutorNotConfigured)
	require.Nil(testInstance, runner)

	runner, creationError = commands.NewRunner(newScriptedShellExecutor(), nil)
	require.ErrorIs(testInstance, creationError, commands.ErrLoggerNotConfigured)
	require.Nil(testInstance, runner)
}

func TestRunRepoScopedCountsOnlyAttemptedCommands(testInstance *testing.T) {
	executor := newScriptedShellExecutor()
	executor.failScript("second", 1)
	runner := newCommandRunner(testInstance, executor, zap.NewNop())

	runResult := runner.RunRepoScoped(context.Background(), testRunnerWorkingDirectoryConstant,
		repoSpecifications("first", "second", "third"), commands.RunnerOptions{StopOnFailure: true})

	require.Equal(testInstance, 1, runResult.SuccessCount)
	require.Equal(testInstance, 1, runResult.FailureCount)
	require.Equal(testInstance, []string{"first", "second"}, executor.executedScripts)
}

func TestRunRepoScopedContinuesPastFailures(testInstance *testing.T) {
	executor := newScriptedShellExecutor()
	executor.failScript("second", 1)
	runner := newCommandRunner(testInstance, executor, zap.NewNop())

	runResult := runner.RunRepoScoped(context.Background(), testRunnerWorkingDirectoryConstant,
		repoSpecifications("first", "second", "third"), commands.RunnerOptions{})

	require.Equal(testInstance, 2, runResult.SuccessCount)
	require.Equal(testInstance, 1, runResult.FailureCount)
	require.Equal(testInstance, []string{"first", "second", "third"}, executor.executedScripts)
}

func TestRunnerFiltersByScope(testInstance *testing.T) {
	executor := newScriptedShellExecutor()
	runner := newCommandRunner(testInstance, executor, zap.NewNop())

	specifications := []commands.Specification{
		{Command: "repo-only", Scope: commands.ScopeRepo},
		{Command: "parent-only", Scope: commands.ScopeParent},
	}

	repoResult := runner.RunRepoScoped(context.Background(), testRunnerWorkingDirectoryConstant, specifications, commands.RunnerOptions{})
	require.Equal(testInstance, 1, repoResult.SuccessCount)
	require.Equal(testInstance, []string{"repo-only"}, executor.executedScripts)

	parentResult := runner.RunParentScoped(context.Background(), "/work/repos", specifications, commands.RunnerOptions{})
	require.Equal(testInstance, 1, parentResult.SuccessCount)
	require.Equal(testInstance, []string{"repo-only", "parent-only"}, executor.executedScripts)
}

func TestRunnerLogsCommandOutputWhenEnabled(testInstance *testing.T) {
	executor := newScriptedShellExecutor()
	executor.resultsByScript["emit"] = execshell.ExecutionResult{StandardOutput: "line one\nline two\n"}
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	runner := newCommandRunner(testInstance, executor, zap.New(observerCore))

	runResult := runner.RunRepoScoped(context.Background(), testRunnerWorkingDirectoryConstant,
		repoSpecifications("emit"), commands.RunnerOptions{ShowCommandOutput: true})

	require.Equal(testInstance, 1, runResult.SuccessCount)
	require.Equal(testInstance, 2, observedLogs.FilterMessage("Command output").Len())
}

func TestRunnerEchoesStandardErrorAtWarn(testInstance *testing.T) {
	executor := newScriptedShellExecutor()
	executor.resultsByScript["emit"] = execshell.ExecutionResult{
		StandardOutput: "built target\n",
		StandardError:  "warning: deprecated flag\nwarning: stale cache\n",
	}
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	runner := newCommandRunner(testInstance, executor, zap.New(observerCore))

	runResult := runner.RunRepoScoped(context.Background(), testRunnerWorkingDirectoryConstant,
		repoSpecifications("emit"), commands.RunnerOptions{ShowCommandOutput: true})

	require.Equal(testInstance, 1, runResult.SuccessCount)
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Command output").Len())

	errorOutputEntries := observedLogs.FilterMessage("Command error output").All()
	require.Len(testInstance, errorOutputEntries, 2)
	for _, logEntry := range errorOutputEntries {
		require.Equal(testInstance, zap.WarnLevel, logEntry.Level)
	}
}

func TestRunnerReportsExpiredDeadlineAsTimeout(testInstance *testing.T) {
	executor := newScriptedShellExecutor()
	executor.failScript("slow", -1)
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	runner := newCommandRunner(testInstance, executor, zap.New(observerCore))

	expiredContext, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()

	runResult := runner.RunRepoScoped(expiredContext, testRunnerWorkingDirectoryConstant,
		repoSpecifications("slow"), commands.RunnerOptions{})

	require.Equal(testInstance, 1, runResult.FailureCount)
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Command timed out").Len())
	require.Equal(testInstance, 0, observedLogs.FilterMessage("Command failed").Len())
}

func TestRunnerReportsLaunchFailuresDistinctly(testInstance *testing.T) {
	executor := newScriptedShellExecutor()
	executor.errorsByScript["broken"] = execshell.CommandExecutionError{
		Command: execshell.ShellCommand{Name: execshell.CommandShell},
		Cause:   context.DeadlineExceeded,
	}
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	runner := newCommandRunner(testInstance, executor, zap.New(observerCore))

	runResult := runner.RunRepoScoped(context.Background(), testRunnerWorkingDirectoryConstant,
		repoSpecifications("broken"), commands.RunnerOptions{})

	require.Equal(testInstance, 1, runResult.FailureCount)
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Command timed out").Len())
}
