//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

func TestEvaluateCheckRuns(t *testing.T) {
	t.Parallel()

	completed := func(conclusion string) entities.CheckRun {
		return entities.CheckRun{Name: "job", Status: entities.CheckStatusCompleted, Conclusion: conclusion}
	}

	tests := []struct {
		name     string
		runs     []entities.CheckRun
		expected entities.MergeState
	}{
		{name: "should be mergeable without check runs", runs: nil, expected: entities.MergeStateMergeable},
		{
			name:     "should be mergeable when every run succeeded",
			runs:     []entities.CheckRun{completed("success"), completed("neutral"), completed("skipped")},
			expected: entities.MergeStateMergeable,
		},
		{
			name:     "should be blocked by a failed run",
			runs:     []entities.CheckRun{completed("success"), completed("failure")},
			expected: entities.MergeStateBlocked,
		},
		{
			name:     "should be blocked by a cancelled run",
			runs:     []entities.CheckRun{completed("cancelled")},
			expected: entities.MergeStateBlocked,
		},
		{
			name:     "should wait for a queued run even after a failure",
			runs:     []entities.CheckRun{completed("failure"), {Name: "job", Status: "queued"}},
			expected: entities.MergeStateWaiting,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			runs := tt.runs

			// when
			state := entities.EvaluateCheckRuns(runs)

			// then
			assert.Equal(t, tt.expected, state)
		})
	}
}
