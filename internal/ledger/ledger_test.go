package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allenclove/BatchGitOps/internal/ledger"
)

func TestLedgerClassification(testInstance *testing.T) {
	testCases := []struct {
		name                   string
		prepare                func(executionLedger *ledger.Ledger)
		expectedClassification ledger.Classification
	}{
		{
			name:                   "disabled_stage",
			prepare:                func(executionLedger *ledger.Ledger) {},
			expectedClassification: ledger.ClassificationDisabled,
		},
		{
			name: "enabled_but_never_reached",
			prepare: func(executionLedger *ledger.Ledger) {
				executionLedger.MarkEnabled(ledger.StageReplacements)
			},
			expectedClassification: ledger.ClassificationNotExecuted,
		},
		{
			name: "all_executions_succeeded",
			prepare: func(executionLedger *ledger.Ledger) {
				executionLedger.MarkEnabled(ledger.StageReplacements)
				executionLedger.RecordExecute(ledger.StageReplacements, true)
				executionLedger.RecordExecute(ledger.StageReplacements, true)
			},
			expectedClassification: ledger.ClassificationFullySucceeded,
		},
		{
			name: "skips_only_still_fully_succeeded",
			prepare: func(executionLedger *ledger.Ledger) {
				executionLedger.MarkEnabled(ledger.StageReplacements)
				executionLedger.RecordSkip(ledger.StageReplacements)
			},
			expectedClassification: ledger.ClassificationFullySucceeded,
		},
		{
			name: "any_failure_partially_failed",
			prepare: func(executionLedger *ledger.Ledger) {
				executionLedger.MarkEnabled(ledger.StageReplacements)
				executionLedger.RecordExecute(ledger.StageReplacements, true)
				executionLedger.RecordExecute(ledger.StageReplacements, false)
			},
			expectedClassification: ledger.ClassificationPartiallyFailed,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executionLedger := ledger.NewLedger()
			testCase.prepare(executionLedger)
			require.Equal(testInstance, testCase.expectedClassification, executionLedger.Classify(ledger.StageReplacements))
		})
	}
}

func TestLedgerCountersStayConsistent(testInstance *testing.T) {
	executionLedger := ledger.NewLedger()
	executionLedger.MarkEnabled(ledger.StageClone)
	executionLedger.RecordExecute(ledger.StageClone, true)
	executionLedger.RecordExecute(ledger.StageClone, false)
	executionLedger.RecordSkip(ledger.StageClone)

	outcome := executionLedger.Outcome(ledger.StageClone)
	require.Equal(testInstance, 2, outcome.Executed)
	require.Equal(testInstance, 1, outcome.Skipped)
	require.Equal(testInstance, outcome.Executed, outcome.Succeeded+outcome.Failed)
}

func TestLedgerSummarizeCoversAllStagesInOrder(testInstance *testing.T) {
	executionLedger := ledger.NewLedger()
	executionLedger.MarkEnabled(ledger.StageClone)
	executionLedger.RecordExecute(ledger.StageClone, true)

	summaries := executionLedger.Summarize()
	require.Len(testInstance, summaries, len(ledger.StageOrder))
	require.Equal(testInstance, ledger.StageClone, summaries[0].Stage)
	require.Equal(testInstance, ledger.ClassificationFullySucceeded, summaries[0].Classification)
	require.Equal(testInstance, ledger.ClassificationDisabled, summaries[1].Classification)
}
