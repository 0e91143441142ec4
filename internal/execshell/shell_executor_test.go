package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/allenclove/BatchGitOps/internal/execshell"
)

const (
	testExecutionSuccessCaseNameConstant         = "success"
	testExecutionFailureCaseNameConstant         = "failure_exit_code"
	testExecutionRunnerErrorCaseNameConstant     = "runner_error"
	testWorkingDirectoryConstant                 = "/tmp/fleet/example"
	testStandardErrorOutputConstant              = "failure"
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
	testShellScriptTextConstant                  = "make release"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

type recordingCommandEventObserver struct {
	startedCommands   []execshell.ShellCommand
	completedResults  []execshell.ExecutionResult
	executionFailures []error
}

func (observerInstance *recordingCommandEventObserver) CommandStarted(command execshell.ShellCommand) {
	observerInstance.startedCommands = append(observerInstance.startedCommands, command)
}

func (observerInstance *recordingCommandEventObserver) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	observerInstance.completedResults = append(observerInstance.completedResults, result)
}

func (observerInstance *recordingCommandEventObserver) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	observerInstance.executionFailures = append(observerInstance.executionFailures, failure)
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      &recordingCommandRunner{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
			} else {
				require.Error(testInstance, creationError)
				require.ErrorIs(testInstance, creationError, testCase.expectError)
			}
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name             string
		runnerResult     execshell.ExecutionResult
		runnerError      error
		expectErrorType  any
		expectedLogCount int
	}{
		{
			name: testExecutionSuccessCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardOutput: "ok",
				ExitCode:       0,
			},
			expectedLogCount: 2,
		},
		{
			name: testExecutionFailureCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardError: testStandardErrorOutputConstant,
				ExitCode:      1,
			},
			expectErrorType:  execshell.CommandFailedError{},
			expectedLogCount: 2,
		},
		{
			name:             testExecutionRunnerErrorCaseNameConstant,
			runnerError:      errors.New("runner failure"),
			expectErrorType:  execshell.CommandExecutionError{},
			expectedLogCount: 2,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			logger := zap.New(observerCore)
			runner := &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			}

			executor, creationError := execshell.NewShellExecutor(logger, runner)
			require.NoError(testInstance, creationError)

			executionResult, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{
				Arguments:        []string{"status", "--porcelain"},
				WorkingDirectory: testWorkingDirectoryConstant,
			})

			require.Len(testInstance, runner.recordedCommands, 1)
			require.Equal(testInstance, execshell.CommandGit, runner.recordedCommands[0].Name)
			require.Equal(testInstance, testCase.expectedLogCount, observerLogs.Len())

			switch testCase.expectErrorType.(type) {
			case nil:
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerResult, executionResult)
			case execshell.CommandFailedError:
				var failedError execshell.CommandFailedError
				require.ErrorAs(testInstance, executionError, &failedError)
				require.Equal(testInstance, testCase.runnerResult, failedError.Result)
				require.Equal(testInstance, testCase.runnerResult, executionResult)
			case execshell.CommandExecutionError:
				var launchError execshell.CommandExecutionError
				require.ErrorAs(testInstance, executionError, &launchError)
				require.ErrorIs(testInstance, executionError, testCase.runnerError)
			}
		})
	}
}

func TestShellExecutorNotifiesRegisteredObserver(testInstance *testing.T) {
	testCases := []struct {
		name                    string
		runnerResult            execshell.ExecutionResult
		runnerError             error
		expectedStartedCount    int
		expectedCompletedCount  int
		expectedFailureCount    int
	}{
		{
			name:                   testExecutionSuccessCaseNameConstant,
			runnerResult:           execshell.ExecutionResult{ExitCode: 0},
			expectedStartedCount:   1,
			expectedCompletedCount: 1,
		},
		{
			name:                   testExecutionFailureCaseNameConstant,
			runnerResult:           execshell.ExecutionResult{ExitCode: 2},
			expectedStartedCount:   1,
			expectedCompletedCount: 1,
		},
		{
			name:                 testExecutionRunnerErrorCaseNameConstant,
			runnerError:          errors.New("spawn failure"),
			expectedStartedCount: 1,
			expectedFailureCount: 1,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner := &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			}
			executor, creationError := execshell.NewShellExecutor(zap.NewNop(), runner)
			require.NoError(testInstance, creationError)

			eventObserver := &recordingCommandEventObserver{}
			executor.RegisterCommandEventObserver(eventObserver)

			_, _ = executor.ExecuteShell(context.Background(), execshell.NewShellScriptDetails(testShellScriptTextConstant, testWorkingDirectoryConstant))

			require.Len(testInstance, eventObserver.startedCommands, testCase.expectedStartedCount)
			require.Len(testInstance, eventObserver.completedResults, testCase.expectedCompletedCount)
			require.Len(testInstance, eventObserver.executionFailures, testCase.expectedFailureCount)
			require.Equal(testInstance, execshell.CommandShell, eventObserver.startedCommands[0].Name)
			require.Equal(testInstance, []string{"-c", testShellScriptTextConstant}, eventObserver.startedCommands[0].Details.Arguments)
		})
	}
}
