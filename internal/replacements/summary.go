package replacements

import "go.uber.org/zap"

const (
	ruleSummaryLogMessageConstant       = "Replacement rule summary"
	zeroMatchWarningLogMessageConstant  = "Replacement rule matched no repository; check the search pattern"
	runSummaryLogMessageConstant        = "Replacement run summary"
	searchFieldNameConstant             = "search"
	modifiedRepositoriesFieldConstant   = "modified_repositories"
	zeroMatchRepositoriesFieldConstant  = "zero_match_repositories"
	filesModifiedFieldConstant          = "files_modified"
	totalReplacementsFieldConstant      = "total_replacements"
)

// WriteSummary logs the per-rule outcome report for the whole run and warns
// about any rule that modified no repository anywhere, which usually signals a
// mistyped search pattern.
func WriteSummary(logger *zap.Logger, rules []Rule, statistics *RuleStatistics) {
	if logger == nil || statistics == nil {
		return
	}

	for ruleIndex, rule := range rules {
		if len(rule.Search) == 0 {
			continue
		}

		outcome := statistics.Outcome(ruleIndex)
		modifiedCount := 0
		zeroMatchCount := 0
		filesModified := 0
		totalReplacements := 0
		if outcome != nil {
			modifiedCount = len(outcome.ModifiedRepositories)
			zeroMatchCount = len(outcome.ZeroMatchRepositories)
			filesModified = len(outcome.Files)
			totalReplacements = outcome.TotalReplacements
		}

		logger.Info(ruleSummaryLogMessageConstant,
			zap.Int(ruleFieldNameConstant, ruleIndex),
			zap.String(searchFieldNameConstant, rule.Search),
			zap.Int(modifiedRepositoriesFieldConstant, modifiedCount),
			zap.Int(zeroMatchRepositoriesFieldConstant, zeroMatchCount),
			zap.Int(filesModifiedFieldConstant, filesModified),
			zap.Int(totalReplacementsFieldConstant, totalReplacements))

		if modifiedCount == 0 {
			logger.Warn(zeroMatchWarningLogMessageConstant,
				zap.Int(ruleFieldNameConstant, ruleIndex),
				zap.String(searchFieldNameConstant, rule.Search))
		}
	}

	logger.Info(runSummaryLogMessageConstant,
		zap.Int(filesModifiedFieldConstant, statistics.TotalModifiedFiles()),
		zap.Int(totalReplacementsFieldConstant, statistics.TotalReplacements()))
}
