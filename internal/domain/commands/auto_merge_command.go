package commands

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
	"github.com/rios0rios0/pinbump/internal/domain/repositories"
)

// AutoMergeOptions selects the pull requests eligible for auto-merge.
type AutoMergeOptions struct {
	Login string // author of the pull requests
	Label string // opt-in label
}

// AutoMerge decides, and possibly merges, the pull requests of a branch when
// a check suite completes.
type AutoMerge interface {
	Execute(
		ctx context.Context,
		api repositories.RepositoryAPI,
		event entities.CheckSuiteEvent,
		opts AutoMergeOptions,
	) ([]entities.MergeDecision, error)
}

// AutoMergeCommand reloads the full check-run set on every event, so
// duplicated or out-of-order deliveries converge to the same decision.
type AutoMergeCommand struct{}

// NewAutoMergeCommand creates a new AutoMergeCommand.
func NewAutoMergeCommand() *AutoMergeCommand {
	return &AutoMergeCommand{}
}

// Execute returns one decision per eligible pull request.
func (it *AutoMergeCommand) Execute(
	ctx context.Context,
	api repositories.RepositoryAPI,
	event entities.CheckSuiteEvent,
	opts AutoMergeOptions,
) ([]entities.MergeDecision, error) {
	if opts.Label == "" {
		opts.Label = entities.DefaultAutoMergeLabel
	}
	if opts.Login == "" {
		opts.Login = entities.DefaultAutoMergeLogin
	}

	pullRequests, err := api.ListOpenPullRequests(ctx, event.Repository, event.HeadBranch)
	if err != nil {
		return nil, err
	}

	var decisions []entities.MergeDecision
	for _, pr := range pullRequests {
		if pr.Author != opts.Login || !pr.HasLabel(opts.Label) {
			continue
		}
		if pr.Head != "" && pr.Head != event.HeadBranch {
			continue
		}

		decision, decideErr := it.decide(ctx, api, event, pr)
		if decideErr != nil {
			return decisions, decideErr
		}
		logger.Infof("[%s] pull request #%d is %s", event.Repository, pr.Number, decision.State)
		decisions = append(decisions, decision)
	}
	return decisions, nil
}

func (it *AutoMergeCommand) decide(
	ctx context.Context,
	api repositories.RepositoryAPI,
	event entities.CheckSuiteEvent,
	pr entities.PullRequest,
) (entities.MergeDecision, error) {
	decision := entities.MergeDecision{PullRequest: pr, State: entities.MergeStatePending}

	if pr.State != "" && pr.State != entities.PullRequestStateOpen {
		decision.State = entities.MergeStateClosed
		return decision, nil
	}
	if event.Conclusion != entities.CheckConclusionSuccess {
		decision.State = entities.MergeStateBlocked
		decision.Message = "check suite concluded with " + event.Conclusion
		return decision, nil
	}

	ref := event.HeadSHA
	if ref == "" {
		ref = pr.HeadSHA
	}
	runs, err := api.ListCheckRuns(ctx, event.Repository, ref)
	if err != nil {
		return decision, err
	}

	decision.State = entities.EvaluateCheckRuns(runs)
	if decision.State != entities.MergeStateMergeable {
		return decision, nil
	}

	result, err := api.MergePullRequest(ctx, event.Repository, pr.Number)
	if err != nil {
		return decision, err
	}
	decision.Message = result.Message
	if result.Merged {
		decision.State = entities.MergeStateMerged
		return decision, nil
	}
	logger.Warnf("[%s] pull request #%d was not merged: %s", event.Repository, pr.Number, result.Message)
	return decision, nil
}
