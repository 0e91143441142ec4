package commands

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const (
	scopeRepoStringConstant                = "repo"
	scopeParentStringConstant              = "parent"
	unsupportedScopeTemplateConstant       = "unsupported command scope: %s"
	unsupportedEntryTemplateConstant       = "unsupported command entry at index %d: %T"
	commandDecodingFailureTemplateConstant = "failed to decode command entry at index %d: %w"
	emptyCommandTemplateConstant           = "command entry at index %d has no command text"
)

// Scope determines whether a command runs per repository or once per run.
type Scope string

// Supported command scopes.
const (
	ScopeRepo   Scope = Scope(scopeRepoStringConstant)
	ScopeParent Scope = Scope(scopeParentStringConstant)
)

// Specification describes a single operator command.
type Specification struct {
	Command string `mapstructure:"command"`
	Scope   Scope  `mapstructure:"scope"`
}

// NormalizeSpecifications converts the configured command list into canonical
// specifications. Bare strings become repo-scoped commands; object entries may
// carry an explicit scope which defaults to repo.
func NormalizeSpecifications(configuredEntries []any) ([]Specification, error) {
	specifications := make([]Specification, 0, len(configuredEntries))

	for entryIndex, configuredEntry := range configuredEntries {
		switch typedEntry := configuredEntry.(type) {
		case string:
			commandText := strings.TrimSpace(typedEntry)
			if len(commandText) == 0 {
				return nil, fmt.Errorf(emptyCommandTemplateConstant, entryIndex)
			}
			specifications = append(specifications, Specification{Command: commandText, Scope: ScopeRepo})
		case map[string]any:
			specification := Specification{}
			decodeError := mapstructure.Decode(typedEntry, &specification)
			if decodeError != nil {
				return nil, fmt.Errorf(commandDecodingFailureTemplateConstant, entryIndex, decodeError)
			}
			specification.Command = strings.TrimSpace(specification.Command)
			if len(specification.Command) == 0 {
				return nil, fmt.Errorf(emptyCommandTemplateConstant, entryIndex)
			}
			normalizedScope, scopeError := normalizeScope(specification.Scope)
			if scopeError != nil {
				return nil, scopeError
			}
			specification.Scope = normalizedScope
			specifications = append(specifications, specification)
		default:
			return nil, fmt.Errorf(unsupportedEntryTemplateConstant, entryIndex, configuredEntry)
		}
	}

	return specifications, nil
}

func normalizeScope(configuredScope Scope) (Scope, error) {
	normalized := Scope(strings.ToLower(strings.TrimSpace(string(configuredScope))))
	switch normalized {
	case "":
		return ScopeRepo, nil
	case ScopeRepo, ScopeParent:
		return normalized, nil
	default:
		return "", fmt.Errorf(unsupportedScopeTemplateConstant, configuredScope)
	}
}

// FilterByScope returns the specifications matching the requested scope in order.
func FilterByScope(specifications []Specification, requestedScope Scope) []Specification {
	filtered := make([]Specification, 0, len(specifications))
	for _, specification := range specifications {
		if specification.Scope == requestedScope {
			filtered = append(filtered, specification)
		}
	}
	return filtered
}
