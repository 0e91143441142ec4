package replacements

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	loggerMissingMessageConstant            = "logger not configured"
	treeWalkFailureTemplateConstant         = "failed to walk repository tree %s: %w"
	gitMetadataDirectoryNameConstant        = ".git"
	multilineRegexPrefixConstant            = "(?m)"
	invalidPatternLogMessageConstant        = "Skipping rule with invalid regular expression"
	unreadableFileLogMessageConstant        = "Skipping unreadable file"
	nonTextFileLogMessageConstant           = "Skipping non-text file"
	fileWriteFailureLogMessageConstant      = "Failed to write modified file"
	ruleFieldNameConstant                   = "rule"
	fileFieldNameConstant                   = "file"
	errorFieldNameConstant                  = "error"
	defaultFilePermissionsConstant          = 0o644
)

// ErrLoggerNotConfigured indicates the engine was built without a logger.
var ErrLoggerNotConfigured = errors.New(loggerMissingMessageConstant)

// Rule describes a single content replacement applied across a working tree.
type Rule struct {
	Search            string
	Replace           string
	IsRegex           bool
	IncludeExtensions []string
	ExcludePatterns   []string
}

// Engine applies ordered replacement rules to repository working trees.
type Engine struct {
	logger *zap.Logger
}

// NewEngine constructs an Engine after validating dependencies.
func NewEngine(logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return &Engine{logger: logger}, nil
}

// Apply runs every rule in order against the working tree and records per-rule
// outcomes in statistics keyed by rule index. The number of files modified
// across all rules is returned. Individual file read, decode, and write
// failures are absorbed as "no modification" for that file.
func (engine *Engine) Apply(treePath string, rules []Rule, repositoryName string, statistics *RuleStatistics) (int, error) {
	totalModifiedFiles := 0

	for ruleIndex, rule := range rules {
		if len(rule.Search) == 0 {
			continue
		}

		candidateFiles, walkError := engine.collectCandidateFiles(treePath, rule)
		if walkError != nil {
			return totalModifiedFiles, fmt.Errorf(treeWalkFailureTemplateConstant, treePath, walkError)
		}

		var compiledPattern *regexp.Regexp
		if rule.IsRegex {
			var compileError error
			compiledPattern, compileError = regexp.Compile(multilineRegexPrefixConstant + rule.Search)
			if compileError != nil {
				engine.logger.Warn(invalidPatternLogMessageConstant,
					zap.Int(ruleFieldNameConstant, ruleIndex),
					zap.String(errorFieldNameConstant, compileError.Error()))
				statistics.RecordZeroMatch(ruleIndex, repositoryName)
				continue
			}
		}

		modifiedFiles := []string{}
		ruleReplacementCount := 0

		for _, candidateFile := range candidateFiles {
			replacementCount, fileModified := engine.applyRuleToFile(candidateFile, rule, compiledPattern)
			if fileModified {
				modifiedFiles = append(modifiedFiles, candidateFile)
				ruleReplacementCount += replacementCount
			}
		}

		if len(modifiedFiles) > 0 {
			statistics.RecordModification(ruleIndex, repositoryName, modifiedFiles, ruleReplacementCount)
			totalModifiedFiles += len(modifiedFiles)
		} else {
			statistics.RecordZeroMatch(ruleIndex, repositoryName)
		}
	}

	return totalModifiedFiles, nil
}

func (engine *Engine) collectCandidateFiles(treePath string, rule Rule) ([]string, error) {
	candidateFiles := []string{}

	walkError := filepath.WalkDir(treePath, func(currentPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if directoryEntry.IsDir() {
			if directoryEntry.Name() == gitMetadataDirectoryNameConstant {
				return filepath.SkipDir
			}
			return nil
		}

		relativePath, relativeError := filepath.Rel(treePath, currentPath)
		if relativeError != nil {
			relativePath = currentPath
		}

		if matchesAnyPattern(relativePath, rule.ExcludePatterns) {
			return nil
		}
		if len(rule.IncludeExtensions) > 0 && !hasIncludedExtension(currentPath, rule.IncludeExtensions) {
			return nil
		}

		candidateFiles = append(candidateFiles, currentPath)
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}

	return candidateFiles, nil
}

func (engine *Engine) applyRuleToFile(filePath string, rule Rule, compiledPattern *regexp.Regexp) (int, bool) {
	originalContent, readError := os.ReadFile(filePath)
	if readError != nil {
		engine.logger.Debug(unreadableFileLogMessageConstant,
			zap.String(fileFieldNameConstant, filePath),
			zap.String(errorFieldNameConstant, readError.Error()))
		return 0, false
	}

	if !utf8.Valid(originalContent) {
		engine.logger.Debug(nonTextFileLogMessageConstant, zap.String(fileFieldNameConstant, filePath))
		return 0, false
	}

	originalText := string(originalContent)
	replacementCount := 0
	replacedText := originalText

	if rule.IsRegex {
		matches := compiledPattern.FindAllStringIndex(originalText, -1)
		replacementCount = len(matches)
		if replacementCount > 0 {
			replacedText = compiledPattern.ReplaceAllString(originalText, rule.Replace)
		}
	} else {
		replacementCount = strings.Count(originalText, rule.Search)
		if replacementCount > 0 {
			replacedText = strings.ReplaceAll(originalText, rule.Search, rule.Replace)
		}
	}

	if replacementCount == 0 || replacedText == originalText {
		return 0, false
	}

	filePermissions := fs.FileMode(defaultFilePermissionsConstant)
	if fileInfo, statError := os.Stat(filePath); statError == nil {
		filePermissions = fileInfo.Mode().Perm()
	}

	writeError := os.WriteFile(filePath, []byte(replacedText), filePermissions)
	if writeError != nil {
		engine.logger.Warn(fileWriteFailureLogMessageConstant,
			zap.String(fileFieldNameConstant, filePath),
			zap.String(errorFieldNameConstant, writeError.Error()))
		return 0, false
	}

	return replacementCount, true
}

func matchesAnyPattern(relativePath string, excludePatterns []string) bool {
	baseName := filepath.Base(relativePath)
	for _, excludePattern := range excludePatterns {
		if pathMatched, matchError := filepath.Match(excludePattern, relativePath); matchError == nil && pathMatched {
			return true
		}
		if baseMatched, matchError := filepath.Match(excludePattern, baseName); matchError == nil && baseMatched {
			return true
		}
	}
	return false
}

func hasIncludedExtension(filePath string, includeExtensions []string) bool {
	fileExtension := strings.ToLower(filepath.Ext(filePath))
	for _, includedExtension := range includeExtensions {
		if strings.ToLower(strings.TrimSpace(includedExtension)) == fileExtension {
			return true
		}
	}
	return false
}
