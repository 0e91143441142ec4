package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/allenclove/BatchGitOps/internal/branches"
	"github.com/allenclove/BatchGitOps/internal/commands"
	"github.com/allenclove/BatchGitOps/internal/gitrepo"
	"github.com/allenclove/BatchGitOps/internal/replacements"
)

const (
	configurationPathRequiredMessageConstant     = "batch configuration path must be provided"
	configurationLoadErrorTemplateConstant       = "failed to load batch configuration: %w"
	configurationParseErrorTemplateConstant      = "failed to parse batch configuration: %w"
	repositoriesRequiredMessageConstant          = "batch configuration must define at least one repository"
	repositoryURLRequiredTemplateConstant        = "repository at index %d has no url"
	personalBranchRequiredMessageConstant        = "batch configuration must define personal_branch"
	commitMessageRequiredMessageConstant         = "batch configuration must define commit.message"
	strategyParseErrorTemplateConstant           = "invalid branch_exists_strategy: %w"
	onErrorParseErrorTemplateConstant            = "invalid on_error policy: %s"
	commandNormalizationErrorTemplateConstant    = "invalid commands section: %w"
	repositoryNameDerivationTemplateConstant     = "repository at index %d: %w"
	defaultSourceBranchNameConstant              = "main"
	workDirectoryNameConstant                    = "repos"
	onErrorContinueStringConstant                = "continue"
	onErrorStopStringConstant                    = "stop"
	environmentVariablePatternConstant           = `\$\{([A-Za-z_][A-Za-z0-9_]*)\}`
)

// OnErrorPolicy controls whether processing continues after a failure.
type OnErrorPolicy string

// Supported failure policies.
const (
	OnErrorContinue OnErrorPolicy = OnErrorPolicy(onErrorContinueStringConstant)
	OnErrorStop     OnErrorPolicy = OnErrorPolicy(onErrorStopStringConstant)
)

var environmentVariablePattern = regexp.MustCompile(environmentVariablePatternConstant)

// RepositorySpecification identifies a repository to process.
type RepositorySpecification struct {
	URL  string
	Name string
}

// UnmarshalYAML accepts either a bare URL string or a {url, name} mapping.
func (specification *RepositorySpecification) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		specification.URL = strings.TrimSpace(value.Value)
		return nil
	}

	var mappingForm struct {
		URL  string `yaml:"url"`
		Name string `yaml:"name"`
	}
	if decodeError := value.Decode(&mappingForm); decodeError != nil {
		return decodeError
	}
	specification.URL = strings.TrimSpace(mappingForm.URL)
	specification.Name = strings.TrimSpace(mappingForm.Name)
	return nil
}

// StageEnablement gates each of the five pipeline stages.
type StageEnablement struct {
	Clone        bool
	Branch       bool
	Replacements bool
	Commands     bool
	Commit       bool
}

// RunConfiguration is the canonical, fully normalized batch run description.
// It is produced once by LoadRunConfiguration; stage logic never sees the
// legacy configuration shapes.
type RunConfiguration struct {
	Repositories          []RepositorySpecification
	PersonalBranch        string
	SourceBranch          string
	Strategy              branches.Strategy
	OnError               OnErrorPolicy
	Stages                StageEnablement
	GitAccount            string
	GitToken              string
	CommitMessageTemplate string
	CommitVariables       map[string]string
	Rules                 []replacements.Rule
	Commands              []commands.Specification
	LogDirectory          string
	LogLevel              string
	ShowCommandOutput     bool
	WorkDirectory         string
}

type fileConfiguration struct {
	Repositories   []RepositorySpecification `yaml:"repositories"`
	PersonalBranch string                    `yaml:"personal_branch"`
	Commit         commitConfiguration       `yaml:"commit"`
	Global         globalConfiguration       `yaml:"global"`
	Execution      *executionConfiguration   `yaml:"execution"`
	Replacements   []replacementConfiguration `yaml:"replacements"`
	Commands       []any                     `yaml:"commands"`
}

type commitConfiguration struct {
	Message   string            `yaml:"message"`
	Variables map[string]string `yaml:"variables"`
}

type globalConfiguration struct {
	SourceBranch         string `yaml:"source_branch"`
	GitAccount           string `yaml:"git_account"`
	GitToken             string `yaml:"git_token"`
	BranchExistsStrategy string `yaml:"branch_exists_strategy"`
	OnError              string `yaml:"on_error"`
	LogDirectory         string `yaml:"log_dir"`
	LogLevel             string `yaml:"log_level"`
	ShowCommandOutput    bool   `yaml:"show_command_output"`
	ExecuteClone         *bool  `yaml:"execute_clone"`
	ExecuteBranch        *bool  `yaml:"execute_branch"`
	ExecuteReplacements  *bool  `yaml:"execute_replacements"`
	ExecuteCommands      *bool  `yaml:"execute_commands"`
	ExecuteCommit        *bool  `yaml:"execute_commit"`
}

type executionConfiguration struct {
	Clone        *bool `yaml:"clone"`
	Branch       *bool `yaml:"branch"`
	Replacements *bool `yaml:"replacements"`
	Commands     *bool `yaml:"commands"`
	Commit       *bool `yaml:"commit"`
}

type replacementConfiguration struct {
	Search            string   `yaml:"search"`
	Replace           string   `yaml:"replace"`
	IsRegex           bool     `yaml:"is_regex"`
	IncludeExtensions []string `yaml:"include_extensions"`
	ExcludePatterns   []string `yaml:"exclude_patterns"`
}

// LoadRunConfiguration reads, expands, validates, and normalizes the batch
// configuration file. Environment references of the form ${VAR} are expanded
// against the process environment before parsing; unset variables are left
// verbatim.
func LoadRunConfiguration(configurationPath string) (RunConfiguration, error) {
	trimmedPath := strings.TrimSpace(configurationPath)
	if len(trimmedPath) == 0 {
		return RunConfiguration{}, errors.New(configurationPathRequiredMessageConstant)
	}

	rawContent, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return RunConfiguration{}, fmt.Errorf(configurationLoadErrorTemplateConstant, readError)
	}

	expandedContent := expandEnvironmentVariables(rawContent)

	parsedConfiguration := fileConfiguration{}
	if unmarshalError := yaml.Unmarshal(expandedContent, &parsedConfiguration); unmarshalError != nil {
		return RunConfiguration{}, fmt.Errorf(configurationParseErrorTemplateConstant, unmarshalError)
	}

	return normalizeConfiguration(trimmedPath, parsedConfiguration)
}

func expandEnvironmentVariables(rawContent []byte) []byte {
	return environmentVariablePattern.ReplaceAllFunc(rawContent, func(reference []byte) []byte {
		variableName := string(environmentVariablePattern.FindSubmatch(reference)[1])
		if variableValue, variableSet := os.LookupEnv(variableName); variableSet {
			return []byte(variableValue)
		}
		return reference
	})
}

func normalizeConfiguration(configurationPath string, parsed fileConfiguration) (RunConfiguration, error) {
	if len(parsed.Repositories) == 0 {
		return RunConfiguration{}, errors.New(repositoriesRequiredMessageConstant)
	}
	if len(strings.TrimSpace(parsed.PersonalBranch)) == 0 {
		return RunConfiguration{}, errors.New(personalBranchRequiredMessageConstant)
	}
	if len(strings.TrimSpace(parsed.Commit.Message)) == 0 {
		return RunConfiguration{}, errors.New(commitMessageRequiredMessageConstant)
	}

	normalizedRepositories := make([]RepositorySpecification, 0, len(parsed.Repositories))
	for repositoryIndex, repositorySpecification := range parsed.Repositories {
		if len(repositorySpecification.URL) == 0 {
			return RunConfiguration{}, fmt.Errorf(repositoryURLRequiredTemplateConstant, repositoryIndex)
		}
		if len(repositorySpecification.Name) == 0 {
			derivedName, derivationError := gitrepo.RepositoryNameFromURL(repositorySpecification.URL)
			if derivationError != nil {
				return RunConfiguration{}, fmt.Errorf(repositoryNameDerivationTemplateConstant, repositoryIndex, derivationError)
			}
			repositorySpecification.Name = derivedName
		}
		normalizedRepositories = append(normalizedRepositories, repositorySpecification)
	}

	sourceBranch := strings.TrimSpace(parsed.Global.SourceBranch)
	if len(sourceBranch) == 0 {
		sourceBranch = defaultSourceBranchNameConstant
	}

	strategy := branches.StrategyCheckout
	if len(strings.TrimSpace(parsed.Global.BranchExistsStrategy)) > 0 {
		parsedStrategy, strategyError := branches.ParseStrategy(parsed.Global.BranchExistsStrategy)
		if strategyError != nil {
			return RunConfiguration{}, fmt.Errorf(strategyParseErrorTemplateConstant, strategyError)
		}
		strategy = parsedStrategy
	}

	onErrorPolicy, policyError := parseOnErrorPolicy(parsed.Global.OnError)
	if policyError != nil {
		return RunConfiguration{}, policyError
	}

	normalizedCommands, commandError := commands.NormalizeSpecifications(parsed.Commands)
	if commandError != nil {
		return RunConfiguration{}, fmt.Errorf(commandNormalizationErrorTemplateConstant, commandError)
	}

	normalizedRules := make([]replacements.Rule, 0, len(parsed.Replacements))
	for _, configuredRule := range parsed.Replacements {
		normalizedRules = append(normalizedRules, replacements.Rule{
			Search:            configuredRule.Search,
			Replace:           configuredRule.Replace,
			IsRegex:           configuredRule.IsRegex,
			IncludeExtensions: configuredRule.IncludeExtensions,
			ExcludePatterns:   configuredRule.ExcludePatterns,
		})
	}

	configurationDirectory := filepath.Dir(configurationPath)

	return RunConfiguration{
		Repositories:          normalizedRepositories,
		PersonalBranch:        strings.TrimSpace(parsed.PersonalBranch),
		SourceBranch:          sourceBranch,
		Strategy:              strategy,
		OnError:               onErrorPolicy,
		Stages:                resolveStageEnablement(parsed),
		GitAccount:            strings.TrimSpace(parsed.Global.GitAccount),
		GitToken:              strings.TrimSpace(parsed.Global.GitToken),
		CommitMessageTemplate: parsed.Commit.Message,
		CommitVariables:       parsed.Commit.Variables,
		Rules:                 normalizedRules,
		Commands:              normalizedCommands,
		LogDirectory:          strings.TrimSpace(parsed.Global.LogDirectory),
		LogLevel:              strings.TrimSpace(parsed.Global.LogLevel),
		ShowCommandOutput:     parsed.Global.ShowCommandOutput,
		WorkDirectory:         filepath.Join(configurationDirectory, workDirectoryNameConstant),
	}, nil
}

func parseOnErrorPolicy(configuredPolicy string) (OnErrorPolicy, error) {
	normalized := OnErrorPolicy(strings.ToLower(strings.TrimSpace(configuredPolicy)))
	switch normalized {
	case "":
		return OnErrorContinue, nil
	case OnErrorContinue, OnErrorStop:
		return normalized, nil
	default:
		return "", fmt.Errorf(onErrorParseErrorTemplateConstant, configuredPolicy)
	}
}

// resolveStageEnablement prefers the execution block; the legacy
// global.execute_* flags apply only when the block is absent. Unset flags
// default to enabled in both shapes.
func resolveStageEnablement(parsed fileConfiguration) StageEnablement {
	if parsed.Execution != nil {
		return StageEnablement{
			Clone:        boolOrDefault(parsed.Execution.Clone, true),
			Branch:       boolOrDefault(parsed.Execution.Branch, true),
			Replacements: boolOrDefault(parsed.Execution.Replacements, true),
			Commands:     boolOrDefault(parsed.Execution.Commands, true),
			Commit:       boolOrDefault(parsed.Execution.Commit, true),
		}
	}

	return StageEnablement{
		Clone:        boolOrDefault(parsed.Global.ExecuteClone, true),
		Branch:       boolOrDefault(parsed.Global.ExecuteBranch, true),
		Replacements: boolOrDefault(parsed.Global.ExecuteReplacements, true),
		Commands:     boolOrDefault(parsed.Global.ExecuteCommands, true),
		Commit:       boolOrDefault(parsed.Global.ExecuteCommit, true),
	}
}

func boolOrDefault(configuredValue *bool, defaultValue bool) bool {
	if configuredValue == nil {
		return defaultValue
	}
	return *configuredValue
}
