package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
	"github.com/rios0rios0/pinbump/internal/domain/repositories"
)

//nolint:gochecknoglobals // compiled once
var conventionalPrefix = regexp.MustCompile(`^(\w+)(\(.*?\))?!?:`)

const pullRequestBody = "Automated dependency update by pinbump."

// CreatePullRequest opens or refreshes the pull request of the working branch.
type CreatePullRequest interface {
	Execute(
		ctx context.Context,
		api repositories.RepositoryAPI,
		repo entities.Repository,
		opts entities.UpdateOptions,
	) (*entities.PullRequest, error)
}

// CreatePullRequestCommand diffs the working branch against the base branch
// and keeps a single open pull request per head.
type CreatePullRequestCommand struct{}

// NewCreatePullRequestCommand creates a new CreatePullRequestCommand.
func NewCreatePullRequestCommand() *CreatePullRequestCommand {
	return &CreatePullRequestCommand{}
}

// Execute returns nil without error when the branches are equal.
func (it *CreatePullRequestCommand) Execute(
	ctx context.Context,
	api repositories.RepositoryAPI,
	repo entities.Repository,
	opts entities.UpdateOptions,
) (*entities.PullRequest, error) {
	base, err := resolveBaseBranch(ctx, api, repo, opts)
	if err != nil {
		return nil, err
	}
	head := opts.WorkingBranch()

	headBranch, err := api.GetBranch(ctx, repo, head)
	if err != nil {
		return nil, err
	}
	if headBranch == nil {
		logger.Infof("[%s] branch %q does not exist, nothing to propose", repo, head)
		return nil, nil //nolint:nilnil // no branch means no pull request
	}

	commits, err := api.CompareBranches(ctx, repo, base, head)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		logger.Infof("[%s] up to date", repo)
		return nil, nil //nolint:nilnil // no difference means no pull request
	}

	title, err := it.title(ctx, api, repo, commits, opts.Release)
	if err != nil {
		return nil, err
	}

	existing, err := api.ListOpenPullRequests(ctx, repo, head)
	if err != nil {
		return nil, err
	}

	var number int
	if len(existing) > 0 {
		number = existing[0].Number
		if existing[0].Title != title {
			if updateErr := api.UpdatePullRequestTitle(ctx, repo, number, title); updateErr != nil {
				return nil, updateErr
			}
		}
		logger.Infof("[%s] updated pull request #%d: %s", repo, number, title)
	} else {
		created, createErr := api.CreatePullRequest(ctx, repo, entities.PullRequestInput{
			Title: title,
			Head:  head,
			Base:  base,
			Body:  pullRequestBody,
		})
		if createErr != nil {
			return nil, createErr
		}
		number = created.Number
		logger.Infof("[%s] created pull request #%d: %s", repo, number, title)
	}

	if labelErr := api.AddLabels(ctx, repo, number, opts.Labels); labelErr != nil {
		return nil, labelErr
	}
	return api.GetPullRequest(ctx, repo, number)
}

// title picks the pull request title from the commits of the branch.
func (it *CreatePullRequestCommand) title(
	ctx context.Context,
	api repositories.RepositoryAPI,
	repo entities.Repository,
	commits []entities.Commit,
	release *entities.UpdateSpec,
) (string, error) {
	if release != nil {
		previous, err := api.GetLatestRelease(ctx, repo)
		if err != nil {
			return "", err
		}
		return releaseTitle(previous, release.Target), nil
	}

	if len(commits) > 1 {
		return fmt.Sprintf("%s(deps): update dependencies", pullRequestTypeOf(commits)), nil
	}
	return firstLine(commits[0].Message), nil
}

func releaseTitle(previous, target string) string {
	if previous == "" {
		return fmt.Sprintf("build(version): bump the version to %s", target)
	}
	return fmt.Sprintf("build(version): bump the version from %s to %s", previous, target)
}

// pullRequestTypeOf selects the lowest commit type present in the commits.
func pullRequestTypeOf(commits []entities.Commit) entities.CommitType {
	types := make([]entities.CommitType, 0, len(commits))
	for _, commit := range commits {
		match := conventionalPrefix.FindStringSubmatch(commit.Message)
		if match == nil {
			continue
		}
		if commitType, ok := entities.ParseCommitType(match[1]); ok {
			types = append(types, commitType)
		}
	}
	return entities.PullRequestType(types)
}

func firstLine(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(line)
}
