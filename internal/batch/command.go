package batch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allenclove/BatchGitOps/internal/branches"
	"github.com/allenclove/BatchGitOps/internal/commands"
	"github.com/allenclove/BatchGitOps/internal/execshell"
	"github.com/allenclove/BatchGitOps/internal/gitrepo"
	"github.com/allenclove/BatchGitOps/internal/replacements"
	"github.com/allenclove/BatchGitOps/internal/ui"
	"github.com/allenclove/BatchGitOps/internal/utils"
)

const (
	commandUseConstant                           = "run [configuration]"
	commandShortDescriptionConstant              = "Run a batch configuration file"
	commandLongDescriptionConstant               = "run processes every repository named in a YAML configuration file through the clone, branch, replacement, command, and commit stages."
	configurationArgumentRequiredMessageConstant = "batch configuration path required; provide a positional argument or --config flag"
	shellExecutorErrorTemplateConstant           = "unable to construct shell executor: %w"
	repositoryManagerErrorTemplateConstant       = "unable to construct repository manager: %w"
	reconcilerErrorTemplateConstant              = "unable to construct branch reconciler: %w"
	engineErrorTemplateConstant                  = "unable to construct replacement engine: %w"
	commandRunnerErrorTemplateConstant           = "unable to construct command runner: %w"
	serviceErrorTemplateConstant                 = "unable to construct batch service: %w"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ServiceFactory builds the batch service from resolved dependencies; tests
// substitute their own factory.
type ServiceFactory func(dependencies Dependencies) (*Service, error)

// CommandBuilder assembles the run command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	CommandRunner                execshell.CommandRunner
	HumanReadableLoggingProvider func() bool
	ServiceFactory               ServiceFactory
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	contextAccessor := utils.NewCommandContextAccessor()

	configurationPathCandidate := ""
	if len(arguments) > 0 {
		configurationPathCandidate = strings.TrimSpace(arguments[0])
	} else {
		configurationPathFromContext, configurationPathAvailable := contextAccessor.ConfigurationFilePath(command.Context())
		if configurationPathAvailable {
			configurationPathCandidate = strings.TrimSpace(configurationPathFromContext)
		}
	}

	if len(configurationPathCandidate) == 0 {
		if helpError := command.Help(); helpError != nil {
			return helpError
		}
		return errors.New(configurationArgumentRequiredMessageConstant)
	}

	runConfiguration, configurationError := LoadRunConfiguration(configurationPathCandidate)
	if configurationError != nil {
		return configurationError
	}

	logger := builder.resolveLogger()

	shellExecutor, executorError := execshell.NewShellExecutor(logger, builder.resolveCommandRunner())
	if executorError != nil {
		return fmt.Errorf(shellExecutorErrorTemplateConstant, executorError)
	}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		shellExecutor.RegisterCommandEventObserver(ui.NewConsoleCommandEventLogger(logger))
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
	if managerError != nil {
		return fmt.Errorf(repositoryManagerErrorTemplateConstant, managerError)
	}

	reconciler, reconcilerError := branches.NewService(branches.Dependencies{RepositoryManager: repositoryManager})
	if reconcilerError != nil {
		return fmt.Errorf(reconcilerErrorTemplateConstant, reconcilerError)
	}

	replacementEngine, engineError := replacements.NewEngine(logger)
	if engineError != nil {
		return fmt.Errorf(engineErrorTemplateConstant, engineError)
	}

	commandRunner, runnerError := commands.NewRunner(shellExecutor, logger)
	if runnerError != nil {
		return fmt.Errorf(commandRunnerErrorTemplateConstant, runnerError)
	}

	service, serviceError := builder.resolveServiceFactory()(Dependencies{
		Logger:            logger,
		RepositoryManager: repositoryManager,
		Reconciler:        reconciler,
		Engine:            replacementEngine,
		CommandRunner:     commandRunner,
	})
	if serviceError != nil {
		return fmt.Errorf(serviceErrorTemplateConstant, serviceError)
	}

	_, runError := service.Run(command.Context(), runConfiguration)
	return runError
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveCommandRunner() execshell.CommandRunner {
	if builder.CommandRunner == nil {
		return execshell.NewOSCommandRunner()
	}
	return builder.CommandRunner
}

func (builder *CommandBuilder) resolveServiceFactory() ServiceFactory {
	if builder.ServiceFactory == nil {
		return NewService
	}
	return builder.ServiceFactory
}
