package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/allenclove/BatchGitOps/internal/execshell"
)

const (
	gitExecutorMissingMessageConstant           = "git executor not configured"
	gitCloneSubcommandConstant                  = "clone"
	gitFetchSubcommandConstant                  = "fetch"
	gitPullSubcommandConstant                   = "pull"
	gitCheckoutSubcommandConstant               = "checkout"
	gitCheckoutCreateFlagConstant               = "-b"
	gitBranchSubcommandConstant                 = "branch"
	gitBranchListFlagConstant                   = "--list"
	gitBranchForceDeleteFlagConstant            = "-D"
	gitResetSubcommandConstant                  = "reset"
	gitResetHardFlagConstant                    = "--hard"
	gitStatusSubcommandConstant                 = "status"
	gitStatusPorcelainFlagConstant              = "--porcelain"
	gitAddSubcommandConstant                    = "add"
	gitAddAllPathSpecConstant                   = "."
	gitCommitSubcommandConstant                 = "commit"
	gitCommitMessageFlagConstant                = "-m"
	gitPushSubcommandConstant                   = "push"
	gitPushSetUpstreamFlagConstant              = "-u"
	gitLSRemoteSubcommandConstant               = "ls-remote"
	gitLSRemoteHeadsFlagConstant                = "--heads"
	gitRemoteSubcommandConstant                 = "remote"
	gitRemoteGetURLSubcommandConstant           = "get-url"
	gitRemoteSetURLSubcommandConstant           = "set-url"
	originRemoteNameConstant                    = "origin"
	remoteBranchReferencePrefixConstant         = "origin/"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
)

// ErrGitExecutorNotConfigured indicates the repository manager was built without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// GitExecutor abstracts git command execution.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager performs git repository operations through a GitExecutor.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager after validating dependencies.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// Clone clones the remote repository into the target directory.
func (manager *RepositoryManager) Clone(executionContext context.Context, remoteURL string, targetDirectory string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments: []string{gitCloneSubcommandConstant, remoteURL, targetDirectory},
	})
	return executionError
}

// FetchOrigin refreshes remote tracking references from origin.
func (manager *RepositoryManager) FetchOrigin(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitFetchSubcommandConstant, originRemoteNameConstant},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// Pull integrates remote changes for the named branch from origin.
func (manager *RepositoryManager) Pull(executionContext context.Context, repositoryPath string, branchName string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitPullSubcommandConstant, originRemoteNameConstant, branchName},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// CheckoutBranch switches the repository to an existing branch.
func (manager *RepositoryManager) CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, branchName},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// CreateBranch creates and switches to a branch, optionally starting from a reference.
func (manager *RepositoryManager) CreateBranch(executionContext context.Context, repositoryPath string, branchName string, startReference string) error {
	arguments := []string{gitCheckoutSubcommandConstant, gitCheckoutCreateFlagConstant, branchName}
	if len(strings.TrimSpace(startReference)) > 0 {
		arguments = append(arguments, startReference)
	}
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// CreateTrackingBranch creates a branch tracking its origin counterpart.
func (manager *RepositoryManager) CreateTrackingBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	return manager.CreateBranch(executionContext, repositoryPath, branchName, remoteBranchReferencePrefixConstant+branchName)
}

// LocalBranchExists reports whether the named branch exists locally.
func (manager *RepositoryManager) LocalBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error) {
	executionResult, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, gitBranchListFlagConstant, branchName},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}

// RemoteBranchExists reports whether the named branch exists on origin.
func (manager *RepositoryManager) RemoteBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error) {
	executionResult, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitLSRemoteSubcommandConstant, gitLSRemoteHeadsFlagConstant, originRemoteNameConstant, branchName},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}

// DeleteLocalBranch force removes a local branch.
func (manager *RepositoryManager) DeleteLocalBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, gitBranchForceDeleteFlagConstant, branchName},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// ResetHardTo moves the current branch to the supplied reference discarding local changes.
func (manager *RepositoryManager) ResetHardTo(executionContext context.Context, repositoryPath string, reference string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitResetSubcommandConstant, gitResetHardFlagConstant, reference},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// ResetHardToRemoteBranch moves the current branch to the origin tip of the named branch.
func (manager *RepositoryManager) ResetHardToRemoteBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	return manager.ResetHardTo(executionContext, repositoryPath, remoteBranchReferencePrefixConstant+branchName)
}

// HasUncommittedChanges reports whether the working tree differs from HEAD.
func (manager *RepositoryManager) HasUncommittedChanges(executionContext context.Context, repositoryPath string) (bool, error) {
	executionResult, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}

// StageAll stages every change in the working tree.
func (manager *RepositoryManager) StageAll(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitAddSubcommandConstant, gitAddAllPathSpecConstant},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// Commit records the staged changes with the supplied message.
func (manager *RepositoryManager) Commit(executionContext context.Context, repositoryPath string, commitMessage string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCommitSubcommandConstant, gitCommitMessageFlagConstant, commitMessage},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// Push publishes the named branch to origin and records it as upstream.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string, branchName string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitPushSubcommandConstant, gitPushSetUpstreamFlagConstant, originRemoteNameConstant, branchName},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// OriginURL reads the configured origin remote URL.
func (manager *RepositoryManager) OriginURL(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, originRemoteNameConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// SetOriginURL rewrites the configured origin remote URL.
func (manager *RepositoryManager) SetOriginURL(executionContext context.Context, repositoryPath string, remoteURL string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoteSetURLSubcommandConstant, originRemoteNameConstant, remoteURL},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

func (manager *RepositoryManager) executeGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	if details.EnvironmentVariables == nil {
		details.EnvironmentVariables = map[string]string{}
	}
	details.EnvironmentVariables[gitTerminalPromptEnvironmentNameConstant] = gitTerminalPromptEnvironmentDisableConstant
	return manager.executor.ExecuteGit(executionContext, details)
}
