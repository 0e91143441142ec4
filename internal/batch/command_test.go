package batch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/allenclove/BatchGitOps/internal/batch"
	"github.com/allenclove/BatchGitOps/internal/execshell"
)

type successfulCommandRunner struct{}

func (successfulCommandRunner) Run(_ context.Context, _ execshell.ShellCommand) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, nil
}

func buildRunCommand(testInstance *testing.T, builder *batch.CommandBuilder) *cobra.Command {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	command.SetContext(context.Background())
	command.SilenceUsage = true
	command.SilenceErrors = true
	return command
}

func TestRunCommandRequiresConfigurationPath(testInstance *testing.T) {
	builder := &batch.CommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		CommandRunner:  successfulCommandRunner{},
	}
	command := buildRunCommand(testInstance, builder)
	command.SetArgs([]string{})

	executionError := command.Execute()
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "configuration path required")
}

func TestRunCommandReportsConfigurationLoadFailures(testInstance *testing.T) {
	builder := &batch.CommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		CommandRunner:  successfulCommandRunner{},
	}
	command := buildRunCommand(testInstance, builder)
	command.SetArgs([]string{"/nonexistent/batch.yaml"})

	executionError := command.Execute()
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "failed to load batch configuration")
}

func TestRunCommandWrapsServiceFactoryFailures(testInstance *testing.T) {
	factoryError := errors.New("factory exploded")
	builder := &batch.CommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		CommandRunner:  successfulCommandRunner{},
		ServiceFactory: func(dependencies batch.Dependencies) (*batch.Service, error) {
			require.NotNil(testInstance, dependencies.Logger)
			require.NotNil(testInstance, dependencies.RepositoryManager)
			require.NotNil(testInstance, dependencies.Reconciler)
			require.NotNil(testInstance, dependencies.Engine)
			require.NotNil(testInstance, dependencies.CommandRunner)
			return nil, factoryError
		},
	}
	command := buildRunCommand(testInstance, builder)

	configurationPath := writeConfigurationFile(testInstance, `
repositories:
  - https://github.com/example/service.git
personal_branch: feature/update
commit:
  message: automated update
`)
	command.SetArgs([]string{configurationPath})

	executionError := command.Execute()
	require.ErrorIs(testInstance, executionError, factoryError)
}
