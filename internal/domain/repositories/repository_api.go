package repositories

import (
	"context"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

// RepositoryAPI abstracts the git forge operations consumed by the update
// engine. Not-found responses wrap entities.ErrNotFound and authorization
// failures wrap entities.ErrUnauthorized.
type RepositoryAPI interface {
	GetDefaultBranch(ctx context.Context, repo entities.Repository) (string, error)

	// GetTree lists every blob reachable from ref, recursively.
	GetTree(ctx context.Context, repo entities.Repository, ref string) ([]entities.TreeEntry, error)
	GetBlob(ctx context.Context, repo entities.Repository, sha string) (string, error)

	// GetBranch returns nil without error when the branch does not exist.
	GetBranch(ctx context.Context, repo entities.Repository, name string) (*entities.Branch, error)
	CreateBranch(ctx context.Context, repo entities.Repository, name, baseSHA string) (*entities.Branch, error)
	UpdateBranchRef(ctx context.Context, repo entities.Repository, name, sha string, force bool) error
	DeleteBranch(ctx context.Context, repo entities.Repository, name string) error

	// CreateCommit writes blobs on top of the parent commit tree.
	CreateCommit(
		ctx context.Context,
		repo entities.Repository,
		parentSHA string,
		message string,
		author entities.CommitAuthor,
		blobs []entities.Blob,
	) (*entities.Commit, error)

	// GetLatestRelease returns an empty tag when the repository has no release.
	GetLatestRelease(ctx context.Context, repo entities.Repository) (string, error)
	CompareBranches(ctx context.Context, repo entities.Repository, base, head string) ([]entities.Commit, error)

	ListOpenPullRequests(ctx context.Context, repo entities.Repository, head string) ([]entities.PullRequest, error)
	GetPullRequest(ctx context.Context, repo entities.Repository, number int) (*entities.PullRequest, error)
	CreatePullRequest(
		ctx context.Context,
		repo entities.Repository,
		input entities.PullRequestInput,
	) (*entities.PullRequest, error)
	UpdatePullRequestTitle(ctx context.Context, repo entities.Repository, number int, title string) error
	AddLabels(ctx context.Context, repo entities.Repository, number int, labels []string) error

	ListCheckRuns(ctx context.Context, repo entities.Repository, ref string) ([]entities.CheckRun, error)
	MergePullRequest(ctx context.Context, repo entities.Repository, number int) (*entities.MergeResult, error)
}

// RepositoryAPIFactory builds a RepositoryAPI authenticated with the token.
type RepositoryAPIFactory func(token string) RepositoryAPI
