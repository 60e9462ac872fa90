package entities

// MergeState is the auto-merge decision for one pull request.
type MergeState string

const (
	MergeStatePending   MergeState = "PENDING"
	MergeStateWaiting   MergeState = "WAITING"
	MergeStateBlocked   MergeState = "BLOCKED"
	MergeStateMergeable MergeState = "MERGEABLE"
	MergeStateMerged    MergeState = "MERGED"
	MergeStateClosed    MergeState = "CLOSED"
)

const (
	CheckStatusCompleted = "completed"

	CheckConclusionSuccess = "success"
	CheckConclusionNeutral = "neutral"
	CheckConclusionSkipped = "skipped"
	CheckConclusionFailure = "failure"
)

// CheckRun is a CI status unit reported against a commit.
type CheckRun struct {
	Name       string
	Status     string
	Conclusion string
	App        string
}

// IsSuccessfulConclusion reports whether a completed run does not block a merge.
func IsSuccessfulConclusion(conclusion string) bool {
	switch conclusion {
	case CheckConclusionSuccess, CheckConclusionNeutral, CheckConclusionSkipped:
		return true
	default:
		return false
	}
}

// EvaluateCheckRuns derives the merge state from the full check-run set of a
// commit. Incomplete runs win over failed ones, so a pending rerun of a failed
// job keeps the pull request waiting.
func EvaluateCheckRuns(runs []CheckRun) MergeState {
	for _, run := range runs {
		if run.Status != CheckStatusCompleted {
			return MergeStateWaiting
		}
	}
	for _, run := range runs {
		if !IsSuccessfulConclusion(run.Conclusion) {
			return MergeStateBlocked
		}
	}
	return MergeStateMergeable
}

// CheckSuiteEvent is a completed check suite delivered by a webhook.
type CheckSuiteEvent struct {
	Repository Repository
	HeadBranch string
	HeadSHA    string
	Conclusion string
}

// MergeDecision records the state reached for one pull request.
type MergeDecision struct {
	PullRequest PullRequest
	State       MergeState
	Message     string
}

// MergeResult is the forge answer to a merge attempt.
type MergeResult struct {
	Merged  bool
	Message string
}
