package branches

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	repositoryPathRequiredMessageConstant    = "repository path must be provided"
	sourceBranchRequiredMessageConstant      = "source branch must be provided"
	personalBranchRequiredMessageConstant    = "personal branch must be provided"
	repositoryManagerMissingMessageConstant  = "repository manager not configured"
	unsupportedStrategyTemplateConstant      = "unsupported branch strategy: %s"
	sourceCheckoutFailureTemplateConstant    = "failed to check out source branch %q: %w"
	sourceFastForwardFailureTemplateConstant = "failed to fast-forward source branch %q: %w"
	localLookupFailureTemplateConstant       = "failed to inspect local branch %q: %w"
	remoteLookupFailureTemplateConstant      = "failed to inspect remote branch %q: %w"
	personalCheckoutFailureTemplateConstant  = "failed to check out branch %q: %w"
	branchDeletionFailureTemplateConstant    = "failed to delete local branch %q: %w"
	branchCreationFailureTemplateConstant    = "failed to create branch %q: %w"
	branchResetFailureTemplateConstant       = "failed to reset branch %q to origin/%s: %w"
	strategyCheckoutStringConstant           = "checkout"
	strategyRecreateStringConstant           = "recreate"
	strategyResetStringConstant              = "reset"
)

// Strategy selects how an already existing personal branch is handled.
type Strategy string

// Supported reconciliation strategies.
const (
	StrategyCheckout Strategy = Strategy(strategyCheckoutStringConstant)
	StrategyRecreate Strategy = Strategy(strategyRecreateStringConstant)
	StrategyReset    Strategy = Strategy(strategyResetStringConstant)
)

// ParseStrategy converts a textual strategy into a Strategy value.
func ParseStrategy(candidate string) (Strategy, error) {
	normalized := Strategy(strings.ToLower(strings.TrimSpace(candidate)))
	switch normalized {
	case StrategyCheckout, StrategyRecreate, StrategyReset:
		return normalized, nil
	default:
		return "", fmt.Errorf(unsupportedStrategyTemplateConstant, candidate)
	}
}

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrSourceBranchRequired indicates the source branch option was empty.
var ErrSourceBranchRequired = errors.New(sourceBranchRequiredMessageConstant)

// ErrPersonalBranchRequired indicates the personal branch option was empty.
var ErrPersonalBranchRequired = errors.New(personalBranchRequiredMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// GitRepositoryManager enumerates the repository operations reconciliation relies on.
type GitRepositoryManager interface {
	CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error
	CreateBranch(executionContext context.Context, repositoryPath string, branchName string, startReference string) error
	CreateTrackingBranch(executionContext context.Context, repositoryPath string, branchName string) error
	Pull(executionContext context.Context, repositoryPath string, branchName string) error
	LocalBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error)
	RemoteBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error)
	DeleteLocalBranch(executionContext context.Context, repositoryPath string, branchName string) error
	ResetHardToRemoteBranch(executionContext context.Context, repositoryPath string, branchName string) error
}

// Dependencies enumerates external collaborators required for reconciliation.
type Dependencies struct {
	RepositoryManager GitRepositoryManager
}

// Options configures a branch reconciliation.
type Options struct {
	RepositoryPath string
	SourceBranch   string
	PersonalBranch string
	Strategy       Strategy
}

// Result captures the observable outcome of a reconciliation.
type Result struct {
	RepositoryPath string
	BranchName     string
}

// Service reconciles personal branches against their source branch.
type Service struct {
	repositoryManager GitRepositoryManager
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	return &Service{repositoryManager: dependencies.RepositoryManager}, nil
}

// Reconcile places the repository on the personal branch according to the strategy.
//
// The source branch is checked out and fast-forwarded first so that fresh
// branch creation always starts from the current source tip. An existing
// local personal branch is handled by the strategy; a remote-only personal
// branch is tracked locally, with recreate behaving as checkout.
func (service *Service) Reconcile(executionContext context.Context, options Options) (Result, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}
	trimmedSourceBranch := strings.TrimSpace(options.SourceBranch)
	if len(trimmedSourceBranch) == 0 {
		return Result{}, ErrSourceBranchRequired
	}
	trimmedPersonalBranch := strings.TrimSpace(options.PersonalBranch)
	if len(trimmedPersonalBranch) == 0 {
		return Result{}, ErrPersonalBranchRequired
	}
	strategy := options.Strategy
	if len(strategy) == 0 {
		strategy = StrategyCheckout
	}

	if sourceError := service.checkoutSource(executionContext, trimmedRepositoryPath, trimmedSourceBranch); sourceError != nil {
		return Result{}, sourceError
	}

	localExists, localLookupError := service.repositoryManager.LocalBranchExists(executionContext, trimmedRepositoryPath, trimmedPersonalBranch)
	if localLookupError != nil {
		return Result{}, fmt.Errorf(localLookupFailureTemplateConstant, trimmedPersonalBranch, localLookupError)
	}

	if localExists {
		reconcileError := service.reconcileExistingLocal(executionContext, trimmedRepositoryPath, trimmedSourceBranch, trimmedPersonalBranch, strategy)
		if reconcileError != nil {
			return Result{}, reconcileError
		}
		return Result{RepositoryPath: trimmedRepositoryPath, BranchName: trimmedPersonalBranch}, nil
	}

	remoteExists, remoteLookupError := service.repositoryManager.RemoteBranchExists(executionContext, trimmedRepositoryPath, trimmedPersonalBranch)
	if remoteLookupError != nil {
		return Result{}, fmt.Errorf(remoteLookupFailureTemplateConstant, trimmedPersonalBranch, remoteLookupError)
	}

	if remoteExists {
		reconcileError := service.reconcileRemoteOnly(executionContext, trimmedRepositoryPath, trimmedSourceBranch, trimmedPersonalBranch, strategy)
		if reconcileError != nil {
			return Result{}, reconcileError
		}
		return Result{RepositoryPath: trimmedRepositoryPath, BranchName: trimmedPersonalBranch}, nil
	}

	if creationError := service.repositoryManager.CreateBranch(executionContext, trimmedRepositoryPath, trimmedPersonalBranch, ""); creationError != nil {
		return Result{}, fmt.Errorf(branchCreationFailureTemplateConstant, trimmedPersonalBranch, creationError)
	}

	return Result{RepositoryPath: trimmedRepositoryPath, BranchName: trimmedPersonalBranch}, nil
}

func (service *Service) checkoutSource(executionContext context.Context, repositoryPath string, sourceBranch string) error {
	sourceLocalExists, sourceLookupError := service.repositoryManager.LocalBranchExists(executionContext, repositoryPath, sourceBranch)
	if sourceLookupError != nil {
		return fmt.Errorf(localLookupFailureTemplateConstant, sourceBranch, sourceLookupError)
	}

	if sourceLocalExists {
		if checkoutError := service.repositoryManager.CheckoutBranch(executionContext, repositoryPath, sourceBranch); checkoutError != nil {
			return fmt.Errorf(sourceCheckoutFailureTemplateConstant, sourceBranch, checkoutError)
		}
	} else {
		if trackingError := service.repositoryManager.CreateTrackingBranch(executionContext, repositoryPath, sourceBranch); trackingError != nil {
			return fmt.Errorf(sourceCheckoutFailureTemplateConstant, sourceBranch, trackingError)
		}
	}

	if pullError := service.repositoryManager.Pull(executionContext, repositoryPath, sourceBranch); pullError != nil {
		return fmt.Errorf(sourceFastForwardFailureTemplateConstant, sourceBranch, pullError)
	}

	return nil
}

func (service *Service) reconcileExistingLocal(executionContext context.Context, repositoryPath string, sourceBranch string, personalBranch string, strategy Strategy) error {
	switch strategy {
	case StrategyCheckout:
		if checkoutError := service.repositoryManager.CheckoutBranch(executionContext, repositoryPath, personalBranch); checkoutError != nil {
			return fmt.Errorf(personalCheckoutFailureTemplateConstant, personalBranch, checkoutError)
		}
		return nil
	case StrategyRecreate:
		if checkoutError := service.repositoryManager.CheckoutBranch(executionContext, repositoryPath, sourceBranch); checkoutError != nil {
			return fmt.Errorf(sourceCheckoutFailureTemplateConstant, sourceBranch, checkoutError)
		}
		if deletionError := service.repositoryManager.DeleteLocalBranch(executionContext, repositoryPath, personalBranch); deletionError != nil {
			return fmt.Errorf(branchDeletionFailureTemplateConstant, personalBranch, deletionError)
		}
		if creationError := service.repositoryManager.CreateBranch(executionContext, repositoryPath, personalBranch, ""); creationError != nil {
			return fmt.Errorf(branchCreationFailureTemplateConstant, personalBranch, creationError)
		}
		return nil
	case StrategyReset:
		if checkoutError := service.repositoryManager.CheckoutBranch(executionContext, repositoryPath, personalBranch); checkoutError != nil {
			return fmt.Errorf(personalCheckoutFailureTemplateConstant, personalBranch, checkoutError)
		}
		if resetError := service.repositoryManager.ResetHardToRemoteBranch(executionContext, repositoryPath, sourceBranch); resetError != nil {
			return fmt.Errorf(branchResetFailureTemplateConstant, personalBranch, sourceBranch, resetError)
		}
		return nil
	default:
		return fmt.Errorf(unsupportedStrategyTemplateConstant, strategy)
	}
}

func (service *Service) reconcileRemoteOnly(executionContext context.Context, repositoryPath string, sourceBranch string, personalBranch string, strategy Strategy) error {
	switch strategy {
	case StrategyCheckout, StrategyRecreate:
		if trackingError := service.repositoryManager.CreateTrackingBranch(executionContext, repositoryPath, personalBranch); trackingError != nil {
			return fmt.Errorf(branchCreationFailureTemplateConstant, personalBranch, trackingError)
		}
		return nil
	case StrategyReset:
		if trackingError := service.repositoryManager.CreateTrackingBranch(executionContext, repositoryPath, personalBranch); trackingError != nil {
			return fmt.Errorf(branchCreationFailureTemplateConstant, personalBranch, trackingError)
		}
		if resetError := service.repositoryManager.ResetHardToRemoteBranch(executionContext, repositoryPath, sourceBranch); resetError != nil {
			return fmt.Errorf(branchResetFailureTemplateConstant, personalBranch, sourceBranch, resetError)
		}
		return nil
	default:
		return fmt.Errorf(unsupportedStrategyTemplateConstant, strategy)
	}
}
