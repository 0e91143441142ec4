package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/allenclove/BatchGitOps/internal/branches"
	"github.com/allenclove/BatchGitOps/internal/commands"
	"github.com/allenclove/BatchGitOps/internal/commitmsg"
	"github.com/allenclove/BatchGitOps/internal/gitrepo"
	"github.com/allenclove/BatchGitOps/internal/ledger"
	"github.com/allenclove/BatchGitOps/internal/replacements"
)

const (
	loggerMissingMessageConstant             = "logger not configured"
	repositoryManagerMissingMessageConstant  = "repository manager not configured"
	reconcilerMissingMessageConstant         = "branch reconciler not configured"
	engineMissingMessageConstant             = "replacement engine not configured"
	commandRunnerMissingMessageConstant      = "command runner not configured"
	workDirectoryCreationTemplateConstant    = "failed to create work directory %s: %w"
	repositoryPanicLogMessageConstant        = "Repository processing aborted by unexpected panic"
	cloneFailureLogMessageConstant           = "Clone failed"
	updateFailureLogMessageConstant          = "Update of existing tree failed"
	missingTreeLogMessageConstant            = "Clone stage skipped but no working tree exists"
	branchFailureLogMessageConstant          = "Branch reconciliation failed"
	replacementsFailureLogMessageConstant    = "Replacement application failed"
	commitWarningLogMessageConstant          = "Commit/push failed; repository still counted as succeeded"
	noChangesLogMessageConstant              = "No uncommitted changes; nothing to commit"
	repositoryStartLogMessageConstant        = "Processing repository"
	repositorySucceededLogMessageConstant    = "Repository processed"
	repositoryFailedLogMessageConstant       = "Repository failed"
	runStoppedLogMessageConstant             = "Stopping after failure per on_error policy"
	stageSummaryLogMessageConstant           = "Stage summary"
	runCompletedLogMessageConstant           = "Batch run completed"
	repositoryFieldNameConstant              = "repository"
	stageFieldNameConstant                   = "stage"
	errorFieldNameConstant                   = "error"
	classificationFieldNameConstant          = "classification"
	executedFieldNameConstant                = "executed"
	skippedFieldNameConstant                 = "skipped"
	succeededFieldNameConstant               = "succeeded"
	failedFieldNameConstant                  = "failed"
	panicValueFieldNameConstant              = "panic"
	workDirectoryPermissionsConstant         = 0o755
)

// ErrLoggerNotConfigured indicates the service was built without a logger.
var ErrLoggerNotConfigured = errors.New(loggerMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrReconcilerNotConfigured indicates the branch reconciler dependency was missing.
var ErrReconcilerNotConfigured = errors.New(reconcilerMissingMessageConstant)

// ErrEngineNotConfigured indicates the replacement engine dependency was missing.
var ErrEngineNotConfigured = errors.New(engineMissingMessageConstant)

// ErrCommandRunnerNotConfigured indicates the command runner dependency was missing.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerMissingMessageConstant)

// GitRepositoryManager enumerates the repository operations the orchestrator needs.
type GitRepositoryManager interface {
	Clone(executionContext context.Context, remoteURL string, targetDirectory string) error
	FetchOrigin(executionContext context.Context, repositoryPath string) error
	CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error
	Pull(executionContext context.Context, repositoryPath string, branchName string) error
	HasUncommittedChanges(executionContext context.Context, repositoryPath string) (bool, error)
	StageAll(executionContext context.Context, repositoryPath string) error
	Commit(executionContext context.Context, repositoryPath string, commitMessage string) error
	Push(executionContext context.Context, repositoryPath string, branchName string) error
	OriginURL(executionContext context.Context, repositoryPath string) (string, error)
	SetOriginURL(executionContext context.Context, repositoryPath string, remoteURL string) error
}

// BranchReconciler reconciles the personal branch for one repository tree.
type BranchReconciler interface {
	Reconcile(executionContext context.Context, options branches.Options) (branches.Result, error)
}

// ReplacementEngine applies mutation rules to one repository tree.
type ReplacementEngine interface {
	Apply(treePath string, rules []replacements.Rule, repositoryName string, statistics *replacements.RuleStatistics) (int, error)
}

// CommandRunner executes scoped operator commands.
type CommandRunner interface {
	RunRepoScoped(executionContext context.Context, treePath string, specifications []commands.Specification, options commands.RunnerOptions) commands.Result
	RunParentScoped(executionContext context.Context, parentDirectory string, specifications []commands.Specification, options commands.RunnerOptions) commands.Result
}

// Dependencies enumerates the collaborators the orchestrator requires.
type Dependencies struct {
	Logger            *zap.Logger
	RepositoryManager GitRepositoryManager
	Reconciler        BranchReconciler
	Engine            ReplacementEngine
	CommandRunner     CommandRunner
}

// RunSummary aggregates the observable results of a batch run.
type RunSummary struct {
	SucceededRepositories int
	FailedRepositories    int
	Stages                []ledger.StageSummary
	Statistics            *replacements.RuleStatistics
}

// Service orchestrates the five-stage pipeline across every configured repository.
type Service struct {
	logger            *zap.Logger
	repositoryManager GitRepositoryManager
	reconciler        BranchReconciler
	engine            ReplacementEngine
	commandRunner     CommandRunner
	now               func() time.Time
}

// NewService constructs a Service after validating dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if dependencies.Reconciler == nil {
		return nil, ErrReconcilerNotConfigured
	}
	if dependencies.Engine == nil {
		return nil, ErrEngineNotConfigured
	}
	if dependencies.CommandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	return &Service{
		logger:            dependencies.Logger,
		repositoryManager: dependencies.RepositoryManager,
		reconciler:        dependencies.Reconciler,
		engine:            dependencies.Engine,
		commandRunner:     dependencies.CommandRunner,
		now:               time.Now,
	}, nil
}

// Run processes every configured repository in order, runs parent-scoped
// commands once afterwards, and emits the ledger and rule summaries.
func (service *Service) Run(executionContext context.Context, configuration RunConfiguration) (RunSummary, error) {
	if directoryError := os.MkdirAll(configuration.WorkDirectory, workDirectoryPermissionsConstant); directoryError != nil {
		return RunSummary{}, fmt.Errorf(workDirectoryCreationTemplateConstant, configuration.WorkDirectory, directoryError)
	}

	executionLedger := ledger.NewLedger()
	markEnabledStages(executionLedger, configuration.Stages)
	statistics := replacements.NewRuleStatistics()

	summary := RunSummary{Statistics: statistics}

	for _, repositorySpecification := range configuration.Repositories {
		service.logger.Info(repositoryStartLogMessageConstant, zap.String(repositoryFieldNameConstant, repositorySpecification.Name))

		repositorySucceeded := service.ProcessRepository(executionContext, configuration, repositorySpecification, executionLedger, statistics)
		if repositorySucceeded {
			summary.SucceededRepositories++
			service.logger.Info(repositorySucceededLogMessageConstant, zap.String(repositoryFieldNameConstant, repositorySpecification.Name))
			continue
		}

		summary.FailedRepositories++
		service.logger.Error(repositoryFailedLogMessageConstant, zap.String(repositoryFieldNameConstant, repositorySpecification.Name))

		if configuration.OnError == OnErrorStop {
			service.logger.Warn(runStoppedLogMessageConstant)
			break
		}
	}

	parentCommands := commands.FilterByScope(configuration.Commands, commands.ScopeParent)
	if configuration.Stages.Commands && len(parentCommands) > 0 {
		service.commandRunner.RunParentScoped(executionContext, configuration.WorkDirectory, configuration.Commands, commands.RunnerOptions{
			StopOnFailure:     configuration.OnError == OnErrorStop,
			ShowCommandOutput: configuration.ShowCommandOutput,
		})
	}

	summary.Stages = executionLedger.Summarize()
	service.logSummaries(summary, configuration)

	return summary, nil
}

// ProcessRepository drives the five ordered stages for one repository. Only
// clone and branch failures make the repository fail; any panic is converted
// to a failure result rather than propagated.
func (service *Service) ProcessRepository(executionContext context.Context, configuration RunConfiguration, repositorySpecification RepositorySpecification, executionLedger *ledger.Ledger, statistics *replacements.RuleStatistics) (repositorySucceeded bool) {
	defer func() {
		if panicValue := recover(); panicValue != nil {
			service.logger.Error(repositoryPanicLogMessageConstant,
				zap.String(repositoryFieldNameConstant, repositorySpecification.Name),
				zap.Any(panicValueFieldNameConstant, panicValue))
			repositorySucceeded = false
		}
	}()

	treePath := filepath.Join(configuration.WorkDirectory, repositorySpecification.Name)

	if !service.runCloneStage(executionContext, configuration, repositorySpecification, treePath, executionLedger) {
		return false
	}

	if !service.runBranchStage(executionContext, configuration, repositorySpecification, treePath, executionLedger) {
		return false
	}

	service.runReplacementsStage(configuration, repositorySpecification, treePath, executionLedger, statistics)
	service.runCommandsStage(executionContext, configuration, treePath, executionLedger)
	service.runCommitStage(executionContext, configuration, repositorySpecification, treePath, executionLedger)

	return true
}

func (service *Service) runCloneStage(executionContext context.Context, configuration RunConfiguration, repositorySpecification RepositorySpecification, treePath string, executionLedger *ledger.Ledger) bool {
	treeExists := workingTreeExists(treePath)

	if !configuration.Stages.Clone {
		executionLedger.RecordSkip(ledger.StageClone)
		if !treeExists {
			service.logger.Error(missingTreeLogMessageConstant, zap.String(repositoryFieldNameConstant, repositorySpecification.Name))
			return false
		}
		return true
	}

	if treeExists {
		if updateError := service.updateExistingTree(executionContext, configuration, treePath); updateError != nil {
			service.logger.Error(updateFailureLogMessageConstant,
				zap.String(repositoryFieldNameConstant, repositorySpecification.Name),
				zap.String(errorFieldNameConstant, updateError.Error()))
			executionLedger.RecordExecute(ledger.StageClone, false)
			return false
		}
		executionLedger.RecordExecute(ledger.StageClone, true)
		return true
	}

	cloneURL := gitrepo.InjectCredentials(repositorySpecification.URL, configuration.GitAccount, configuration.GitToken)
	if cloneError := service.repositoryManager.Clone(executionContext, cloneURL, treePath); cloneError != nil {
		service.logger.Error(cloneFailureLogMessageConstant,
			zap.String(repositoryFieldNameConstant, repositorySpecification.Name),
			zap.String(errorFieldNameConstant, cloneError.Error()))
		executionLedger.RecordExecute(ledger.StageClone, false)
		return false
	}

	executionLedger.RecordExecute(ledger.StageClone, true)
	return true
}

// updateExistingTree refreshes a tree that was cloned on an earlier run: fetch
// origin, return to the source branch, and pull it up to date so later stages
// start from current source history even when the branch stage is disabled.
func (service *Service) updateExistingTree(executionContext context.Context, configuration RunConfiguration, treePath string) error {
	if fetchError := service.repositoryManager.FetchOrigin(executionContext, treePath); fetchError != nil {
		return fetchError
	}
	if checkoutError := service.repositoryManager.CheckoutBranch(executionContext, treePath, configuration.SourceBranch); checkoutError != nil {
		return checkoutError
	}
	return service.repositoryManager.Pull(executionContext, treePath, configuration.SourceBranch)
}

func (service *Service) runBranchStage(executionContext context.Context, configuration RunConfiguration, repositorySpecification RepositorySpecification, treePath string, executionLedger *ledger.Ledger) bool {
	if !configuration.Stages.Branch {
		executionLedger.RecordSkip(ledger.StageBranch)
		return true
	}

	_, reconcileError := service.reconciler.Reconcile(executionContext, branches.Options{
		RepositoryPath: treePath,
		SourceBranch:   configuration.SourceBranch,
		PersonalBranch: configuration.PersonalBranch,
		Strategy:       configuration.Strategy,
	})
	if reconcileError != nil {
		service.logger.Error(branchFailureLogMessageConstant,
			zap.String(repositoryFieldNameConstant, repositorySpecification.Name),
			zap.String(errorFieldNameConstant, reconcileError.Error()))
		executionLedger.RecordExecute(ledger.StageBranch, false)
		return false
	}

	executionLedger.RecordExecute(ledger.StageBranch, true)
	return true
}

// runReplacementsStage applies the configured rules. With zero configured
// rules the ledger receives no call so the stage classifies as not-executed.
func (service *Service) runReplacementsStage(configuration RunConfiguration, repositorySpecification RepositorySpecification, treePath string, executionLedger *ledger.Ledger, statistics *replacements.RuleStatistics) {
	if len(configuration.Rules) == 0 {
		return
	}

	if !configuration.Stages.Replacements {
		executionLedger.RecordSkip(ledger.StageReplacements)
		return
	}

	_, applyError := service.engine.Apply(treePath, configuration.Rules, repositorySpecification.Name, statistics)
	if applyError != nil {
		service.logger.Warn(replacementsFailureLogMessageConstant,
			zap.String(repositoryFieldNameConstant, repositorySpecification.Name),
			zap.String(errorFieldNameConstant, applyError.Error()))
		executionLedger.RecordExecute(ledger.StageReplacements, false)
		return
	}

	executionLedger.RecordExecute(ledger.StageReplacements, true)
}

func (service *Service) runCommandsStage(executionContext context.Context, configuration RunConfiguration, treePath string, executionLedger *ledger.Ledger) {
	repoCommands := commands.FilterByScope(configuration.Commands, commands.ScopeRepo)
	if len(repoCommands) == 0 {
		return
	}

	if !configuration.Stages.Commands {
		executionLedger.RecordSkip(ledger.StageCommands)
		return
	}

	commandResult := service.commandRunner.RunRepoScoped(executionContext, treePath, configuration.Commands, commands.RunnerOptions{
		StopOnFailure:     configuration.OnError == OnErrorStop,
		ShowCommandOutput: configuration.ShowCommandOutput,
	})

	executionLedger.RecordExecute(ledger.StageCommands, commandResult.FailureCount == 0)
}

// runCommitStage records ledger success even when commit or push fails; by
// that point the repository's substantive work already succeeded, so a
// publish failure is reported as a warning only.
func (service *Service) runCommitStage(executionContext context.Context, configuration RunConfiguration, repositorySpecification RepositorySpecification, treePath string, executionLedger *ledger.Ledger) {
	if !configuration.Stages.Commit {
		executionLedger.RecordSkip(ledger.StageCommit)
		return
	}

	commitError := service.commitAndPush(executionContext, configuration, repositorySpecification, treePath)
	if commitError != nil {
		service.logger.Warn(commitWarningLogMessageConstant,
			zap.String(repositoryFieldNameConstant, repositorySpecification.Name),
			zap.String(errorFieldNameConstant, commitError.Error()))
	}
	executionLedger.RecordExecute(ledger.StageCommit, true)
}

func (service *Service) commitAndPush(executionContext context.Context, configuration RunConfiguration, repositorySpecification RepositorySpecification, treePath string) error {
	hasChanges, statusError := service.repositoryManager.HasUncommittedChanges(executionContext, treePath)
	if statusError != nil {
		return statusError
	}
	if !hasChanges {
		service.logger.Info(noChangesLogMessageConstant, zap.String(repositoryFieldNameConstant, repositorySpecification.Name))
		return nil
	}

	if credentialError := service.ensurePushCredentials(executionContext, configuration, treePath); credentialError != nil {
		return credentialError
	}

	if stageError := service.repositoryManager.StageAll(executionContext, treePath); stageError != nil {
		return stageError
	}

	commitMessage := commitmsg.Expand(configuration.CommitMessageTemplate, commitmsg.Data{
		RepositoryName:   repositorySpecification.Name,
		Moment:           service.now(),
		ReplacementCount: len(configuration.Rules),
		CommandCount:     len(configuration.Commands),
		Variables:        configuration.CommitVariables,
	})

	if commitError := service.repositoryManager.Commit(executionContext, treePath, commitMessage); commitError != nil {
		return commitError
	}

	return service.repositoryManager.Push(executionContext, treePath, configuration.PersonalBranch)
}

// ensurePushCredentials rewrites the origin URL with embedded credentials when
// a token is configured and the remote does not already carry one.
func (service *Service) ensurePushCredentials(executionContext context.Context, configuration RunConfiguration, treePath string) error {
	if len(configuration.GitToken) == 0 {
		return nil
	}

	originURL, originError := service.repositoryManager.OriginURL(executionContext, treePath)
	if originError != nil {
		return originError
	}

	authenticatedURL := gitrepo.InjectCredentials(originURL, configuration.GitAccount, configuration.GitToken)
	if authenticatedURL == originURL {
		return nil
	}

	return service.repositoryManager.SetOriginURL(executionContext, treePath, authenticatedURL)
}

func (service *Service) logSummaries(summary RunSummary, configuration RunConfiguration) {
	for _, stageSummary := range summary.Stages {
		service.logger.Info(stageSummaryLogMessageConstant,
			zap.String(stageFieldNameConstant, string(stageSummary.Stage)),
			zap.String(classificationFieldNameConstant, string(stageSummary.Classification)),
			zap.Int(executedFieldNameConstant, stageSummary.Outcome.Executed),
			zap.Int(skippedFieldNameConstant, stageSummary.Outcome.Skipped),
			zap.Int(succeededFieldNameConstant, stageSummary.Outcome.Succeeded),
			zap.Int(failedFieldNameConstant, stageSummary.Outcome.Failed))
	}

	replacements.WriteSummary(service.logger, configuration.Rules, summary.Statistics)

	service.logger.Info(runCompletedLogMessageConstant,
		zap.Int(succeededFieldNameConstant, summary.SucceededRepositories),
		zap.Int(failedFieldNameConstant, summary.FailedRepositories))
}

func markEnabledStages(executionLedger *ledger.Ledger, enablement StageEnablement) {
	if enablement.Clone {
		executionLedger.MarkEnabled(ledger.StageClone)
	}
	if enablement.Branch {
		executionLedger.MarkEnabled(ledger.StageBranch)
	}
	if enablement.Replacements {
		executionLedger.MarkEnabled(ledger.StageReplacements)
	}
	if enablement.Commands {
		executionLedger.MarkEnabled(ledger.StageCommands)
	}
	if enablement.Commit {
		executionLedger.MarkEnabled(ledger.StageCommit)
	}
}

func workingTreeExists(treePath string) bool {
	treeInfo, statError := os.Stat(treePath)
	return statError == nil && treeInfo.IsDir()
}
