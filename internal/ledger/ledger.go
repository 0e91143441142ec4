package ledger

// StageName identifies one of the five ordered per-repository stages.
type StageName string

// The five pipeline stages in execution order.
const (
	StageClone        StageName = "clone"
	StageBranch       StageName = "branch"
	StageReplacements StageName = "replacements"
	StageCommands     StageName = "commands"
	StageCommit       StageName = "commit"
)

// StageOrder lists the stages in their execution order for reporting.
var StageOrder = []StageName{StageClone, StageBranch, StageReplacements, StageCommands, StageCommit}

// Classification summarizes a stage's run-end outcome.
type Classification string

// Stage classifications in evaluation order.
const (
	ClassificationDisabled        Classification = "disabled"
	ClassificationNotExecuted     Classification = "not-executed"
	ClassificationFullySucceeded  Classification = "fully-succeeded"
	ClassificationPartiallyFailed Classification = "partially-failed"
)

// StageOutcome accumulates per-stage counters across repositories.
type StageOutcome struct {
	Enabled   bool
	Executed  int
	Skipped   int
	Succeeded int
	Failed    int
}

// Ledger records exactly one outcome per repository per stage the orchestrator
// reaches. Stages never reached for a repository receive no call, so stage
// totals are not required to equal the repository count.
type Ledger struct {
	outcomes map[StageName]*StageOutcome
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{outcomes: map[StageName]*StageOutcome{}}
}

func (executionLedger *Ledger) outcome(stage StageName) *StageOutcome {
	entry, entryExists := executionLedger.outcomes[stage]
	if !entryExists {
		entry = &StageOutcome{}
		executionLedger.outcomes[stage] = entry
	}
	return entry
}

// MarkEnabled records that a stage was enabled for the run.
func (executionLedger *Ledger) MarkEnabled(stage StageName) {
	executionLedger.outcome(stage).Enabled = true
}

// RecordSkip registers that a repository reached the stage but skipped it.
func (executionLedger *Ledger) RecordSkip(stage StageName) {
	executionLedger.outcome(stage).Skipped++
}

// RecordExecute registers that a repository executed the stage with the given outcome.
func (executionLedger *Ledger) RecordExecute(stage StageName, success bool) {
	entry := executionLedger.outcome(stage)
	entry.Executed++
	if success {
		entry.Succeeded++
	} else {
		entry.Failed++
	}
}

// Outcome returns the accumulated counters for a stage.
func (executionLedger *Ledger) Outcome(stage StageName) StageOutcome {
	entry, entryExists := executionLedger.outcomes[stage]
	if !entryExists {
		return StageOutcome{}
	}
	return *entry
}

// Classify evaluates the run-end classification for a stage.
func (executionLedger *Ledger) Classify(stage StageName) Classification {
	entry := executionLedger.Outcome(stage)
	switch {
	case !entry.Enabled:
		return ClassificationDisabled
	case entry.Executed == 0 && entry.Skipped == 0:
		return ClassificationNotExecuted
	case entry.Failed == 0:
		return ClassificationFullySucceeded
	default:
		return ClassificationPartiallyFailed
	}
}

// StageSummary pairs a stage with its counters and classification.
type StageSummary struct {
	Stage          StageName
	Outcome        StageOutcome
	Classification Classification
}

// Summarize produces per-stage summaries in execution order.
func (executionLedger *Ledger) Summarize() []StageSummary {
	summaries := make([]StageSummary, 0, len(StageOrder))
	for _, stage := range StageOrder {
		summaries = append(summaries, StageSummary{
			Stage:          stage,
			Outcome:        executionLedger.Outcome(stage),
			Classification: executionLedger.Classify(stage),
		})
	}
	return summaries
}
