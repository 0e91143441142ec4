package replacements

import "sort"

// RuleStatistics accumulates per-rule outcomes across every processed repository.
// Entries are created lazily the first time a rule index reports an outcome.
type RuleStatistics struct {
	entries map[int]*RuleOutcome
}

// RuleOutcome captures the aggregate effect of one rule across the run.
type RuleOutcome struct {
	ModifiedRepositories  map[string]struct{}
	ZeroMatchRepositories map[string]struct{}
	Files                 []string
	ReplacementCounts     map[string]int
	TotalReplacements     int
}

// NewRuleStatistics constructs an empty statistics accumulator.
func NewRuleStatistics() *RuleStatistics {
	return &RuleStatistics{entries: map[int]*RuleOutcome{}}
}

func (statistics *RuleStatistics) outcome(ruleIndex int) *RuleOutcome {
	entry, entryExists := statistics.entries[ruleIndex]
	if !entryExists {
		entry = &RuleOutcome{
			ModifiedRepositories:  map[string]struct{}{},
			ZeroMatchRepositories: map[string]struct{}{},
			ReplacementCounts:     map[string]int{},
		}
		statistics.entries[ruleIndex] = entry
	}
	return entry
}

// RecordModification registers that a rule modified files in a repository.
func (statistics *RuleStatistics) RecordModification(ruleIndex int, repositoryName string, modifiedFiles []string, replacementCount int) {
	entry := statistics.outcome(ruleIndex)
	entry.ModifiedRepositories[repositoryName] = struct{}{}
	entry.Files = append(entry.Files, modifiedFiles...)
	entry.ReplacementCounts[repositoryName] = replacementCount
	entry.TotalReplacements += replacementCount
}

// RecordZeroMatch registers that a rule matched nothing in a repository.
func (statistics *RuleStatistics) RecordZeroMatch(ruleIndex int, repositoryName string) {
	entry := statistics.outcome(ruleIndex)
	entry.ZeroMatchRepositories[repositoryName] = struct{}{}
}

// Outcome returns the accumulated outcome for a rule index, or nil when the
// rule never reported anything.
func (statistics *RuleStatistics) Outcome(ruleIndex int) *RuleOutcome {
	return statistics.entries[ruleIndex]
}

// RuleIndexes lists every rule index with recorded outcomes in ascending order.
func (statistics *RuleStatistics) RuleIndexes() []int {
	indexes := make([]int, 0, len(statistics.entries))
	for ruleIndex := range statistics.entries {
		indexes = append(indexes, ruleIndex)
	}
	sort.Ints(indexes)
	return indexes
}

// TotalReplacements sums replacement counts across all rules.
func (statistics *RuleStatistics) TotalReplacements() int {
	total := 0
	for _, entry := range statistics.entries {
		total += entry.TotalReplacements
	}
	return total
}

// TotalModifiedFiles counts every file touched across all rules.
func (statistics *RuleStatistics) TotalModifiedFiles() int {
	total := 0
	for _, entry := range statistics.entries {
		total += len(entry.Files)
	}
	return total
}
