package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
	"github.com/rios0rios0/pinbump/internal/domain/repositories"
)

const (
	ProviderName = "github"

	// DefaultHTTPClientTimeout bounds every API request.
	DefaultHTTPClientTimeout = time.Minute

	perPage    = 100
	blobMode   = "100644"
	blobType   = "blob"
	headsRef   = "refs/heads/"
	stateOpen  = "open"
	stateAll   = "all"
	maxCompare = 250
)

// GitHubRepositoryAPI implements repositories.RepositoryAPI on the GitHub
// REST API.
type GitHubRepositoryAPI struct {
	client *gh.Client
}

// NewGitHubRepositoryAPI creates a client authenticated with the token.
func NewGitHubRepositoryAPI(token string) repositories.RepositoryAPI {
	return NewGitHubRepositoryAPIWithClient(gh.NewClient(newHTTPClient(token)))
}

// NewGitHubRepositoryAPIWithClient wraps an existing go-github client.
func NewGitHubRepositoryAPIWithClient(client *gh.Client) *GitHubRepositoryAPI {
	return &GitHubRepositoryAPI{client: client}
}

func newHTTPClient(apiToken string) *http.Client {
	if apiToken == "" {
		return &http.Client{
			Timeout: DefaultHTTPClientTimeout,
		}
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: apiToken},
	)

	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = DefaultHTTPClientTimeout

	return tc
}

func (p *GitHubRepositoryAPI) GetDefaultBranch(ctx context.Context, repo entities.Repository) (string, error) {
	repository, _, err := p.client.Repositories.Get(ctx, repo.Owner, repo.Name)
	if err != nil {
		return "", fmt.Errorf("failed to get repository %s: %w", repo, classify(err))
	}
	return repository.GetDefaultBranch(), nil
}

func (p *GitHubRepositoryAPI) GetTree(
	ctx context.Context,
	repo entities.Repository,
	ref string,
) ([]entities.TreeEntry, error) {
	tree, _, err := p.client.Git.GetTree(ctx, repo.Owner, repo.Name, ref, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get repo tree: %w", classify(err))
	}
	if tree.GetTruncated() {
		logger.Warnf("[github] tree of %s@%s is truncated, some files are not scanned", repo, ref)
	}

	entries := make([]entities.TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry.GetType() != blobType {
			continue
		}
		entries = append(entries, entities.TreeEntry{
			Path: entry.GetPath(),
			SHA:  entry.GetSHA(),
			Type: entry.GetType(),
		})
	}
	return entries, nil
}

func (p *GitHubRepositoryAPI) GetBlob(ctx context.Context, repo entities.Repository, sha string) (string, error) {
	raw, _, err := p.client.Git.GetBlobRaw(ctx, repo.Owner, repo.Name, sha)
	if err != nil {
		return "", fmt.Errorf("failed to get blob %s: %w", sha, classify(err))
	}
	return string(raw), nil
}

func (p *GitHubRepositoryAPI) GetBranch(
	ctx context.Context,
	repo entities.Repository,
	name string,
) (*entities.Branch, error) {
	ref, _, err := p.client.Git.GetRef(ctx, repo.Owner, repo.Name, headsRef+name)
	if err != nil {
		classified := classify(err)
		if errors.Is(classified, entities.ErrNotFound) {
			return nil, nil //nolint:nilnil // absent branch is not an error
		}
		return nil, fmt.Errorf("failed to get branch %q: %w", name, classified)
	}
	return &entities.Branch{Name: name, SHA: ref.GetObject().GetSHA()}, nil
}

func (p *GitHubRepositoryAPI) CreateBranch(
	ctx context.Context,
	repo entities.Repository,
	name, baseSHA string,
) (*entities.Branch, error) {
	branchRef := headsRef + name
	ref, _, err := p.client.Git.CreateRef(ctx, repo.Owner, repo.Name, &gh.Reference{
		Ref:    &branchRef,
		Object: &gh.GitObject{SHA: &baseSHA},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create branch %q: %w", name, classify(err))
	}
	return &entities.Branch{Name: name, SHA: ref.GetObject().GetSHA()}, nil
}

func (p *GitHubRepositoryAPI) UpdateBranchRef(
	ctx context.Context,
	repo entities.Repository,
	name, sha string,
	force bool,
) error {
	branchRef := headsRef + name
	_, _, err := p.client.Git.UpdateRef(ctx, repo.Owner, repo.Name, &gh.Reference{
		Ref:    &branchRef,
		Object: &gh.GitObject{SHA: &sha},
	}, force)
	if err != nil {
		classified := classify(err)
		if errors.Is(classified, entities.ErrNotFound) {
			return fmt.Errorf("%w: %q: %w", entities.ErrBranchNotFound, name, err)
		}
		return fmt.Errorf("failed to update branch %q: %w", name, classified)
	}
	return nil
}

func (p *GitHubRepositoryAPI) DeleteBranch(ctx context.Context, repo entities.Repository, name string) error {
	if _, err := p.client.Git.DeleteRef(ctx, repo.Owner, repo.Name, headsRef+name); err != nil {
		return fmt.Errorf("failed to delete branch %q: %w", name, classify(err))
	}
	return nil
}

func (p *GitHubRepositoryAPI) CreateCommit(
	ctx context.Context,
	repo entities.Repository,
	parentSHA string,
	message string,
	author entities.CommitAuthor,
	blobs []entities.Blob,
) (*entities.Commit, error) {
	parent, _, err := p.client.Git.GetCommit(ctx, repo.Owner, repo.Name, parentSHA)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent commit: %w", classify(err))
	}

	entries := make([]*gh.TreeEntry, 0, len(blobs))
	for _, blob := range blobs {
		path := strings.TrimPrefix(blob.Path, "/")
		content := blob.Content
		mode := blobMode
		entryType := blobType
		entries = append(entries, &gh.TreeEntry{
			Path:    &path,
			Mode:    &mode,
			Type:    &entryType,
			Content: &content,
		})
	}

	tree, _, err := p.client.Git.CreateTree(ctx, repo.Owner, repo.Name, parent.GetTree().GetSHA(), entries)
	if err != nil {
		return nil, fmt.Errorf("failed to create tree: %w", classify(err))
	}

	commit, _, err := p.client.Git.CreateCommit(ctx, repo.Owner, repo.Name, &gh.Commit{
		Message: &message,
		Tree:    tree,
		Parents: []*gh.Commit{{SHA: &parentSHA}},
		Author: &gh.CommitAuthor{
			Name:  &author.Name,
			Email: &author.Email,
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create commit: %w", classify(err))
	}
	return &entities.Commit{SHA: commit.GetSHA(), Message: commit.GetMessage()}, nil
}

func (p *GitHubRepositoryAPI) GetLatestRelease(ctx context.Context, repo entities.Repository) (string, error) {
	release, _, err := p.client.Repositories.GetLatestRelease(ctx, repo.Owner, repo.Name)
	if err != nil {
		classified := classify(err)
		if errors.Is(classified, entities.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get latest release of %s: %w", repo, classified)
	}
	return release.GetTagName(), nil
}

func (p *GitHubRepositoryAPI) CompareBranches(
	ctx context.Context,
	repo entities.Repository,
	base, head string,
) ([]entities.Commit, error) {
	comparison, _, err := p.client.Repositories.CompareCommits(
		ctx, repo.Owner, repo.Name, base, head,
		&gh.ListOptions{PerPage: maxCompare},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s...%s: %w", base, head, classify(err))
	}

	commits := make([]entities.Commit, 0, len(comparison.Commits))
	for _, commit := range comparison.Commits {
		commits = append(commits, entities.Commit{
			SHA:     commit.GetSHA(),
			Message: commit.GetCommit().GetMessage(),
		})
	}
	return commits, nil
}

func (p *GitHubRepositoryAPI) ListOpenPullRequests(
	ctx context.Context,
	repo entities.Repository,
	head string,
) ([]entities.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       stateOpen,
		ListOptions: gh.ListOptions{PerPage: perPage},
	}
	if head != "" {
		opts.Head = repo.Owner + ":" + head
	}

	var result []entities.PullRequest
	for {
		prs, resp, err := p.client.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", classify(err))
		}
		for _, pr := range prs {
			result = append(result, toPullRequest(pr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

func (p *GitHubRepositoryAPI) GetPullRequest(
	ctx context.Context,
	repo entities.Repository,
	number int,
) (*entities.PullRequest, error) {
	pr, _, err := p.client.PullRequests.Get(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request #%d: %w", number, classify(err))
	}
	result := toPullRequest(pr)
	return &result, nil
}

func (p *GitHubRepositoryAPI) CreatePullRequest(
	ctx context.Context,
	repo entities.Repository,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	maintainerCanModify := true
	pr, _, err := p.client.PullRequests.Create(ctx, repo.Owner, repo.Name, &gh.NewPullRequest{
		Title:               &input.Title,
		Head:                &input.Head,
		Base:                &input.Base,
		Body:                &input.Body,
		MaintainerCanModify: &maintainerCanModify,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", classify(err))
	}
	result := toPullRequest(pr)
	return &result, nil
}

func (p *GitHubRepositoryAPI) UpdatePullRequestTitle(
	ctx context.Context,
	repo entities.Repository,
	number int,
	title string,
) error {
	_, _, err := p.client.PullRequests.Edit(ctx, repo.Owner, repo.Name, number, &gh.PullRequest{Title: &title})
	if err != nil {
		return fmt.Errorf("failed to update pull request #%d: %w", number, classify(err))
	}
	return nil
}

func (p *GitHubRepositoryAPI) AddLabels(
	ctx context.Context,
	repo entities.Repository,
	number int,
	labels []string,
) error {
	if len(labels) == 0 {
		return nil
	}
	if _, _, err := p.client.Issues.AddLabelsToIssue(ctx, repo.Owner, repo.Name, number, labels); err != nil {
		return fmt.Errorf("failed to label pull request #%d: %w", number, classify(err))
	}
	return nil
}

func (p *GitHubRepositoryAPI) ListCheckRuns(
	ctx context.Context,
	repo entities.Repository,
	ref string,
) ([]entities.CheckRun, error) {
	filter := stateAll
	opts := &gh.ListCheckRunsOptions{
		Filter:      &filter,
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	var runs []entities.CheckRun
	for {
		result, resp, err := p.client.Checks.ListCheckRunsForRef(ctx, repo.Owner, repo.Name, ref, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list check runs of %s: %w", ref, classify(err))
		}
		for _, run := range result.CheckRuns {
			runs = append(runs, entities.CheckRun{
				Name:       run.GetName(),
				Status:     run.GetStatus(),
				Conclusion: run.GetConclusion(),
				App:        run.GetApp().GetSlug(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return runs, nil
}

func (p *GitHubRepositoryAPI) MergePullRequest(
	ctx context.Context,
	repo entities.Repository,
	number int,
) (*entities.MergeResult, error) {
	result, _, err := p.client.PullRequests.Merge(ctx, repo.Owner, repo.Name, number, "", nil)
	if err != nil {
		var errResp *gh.ErrorResponse
		// 405 and 409 mean the head moved or the pull request is not mergeable yet
		if errors.As(err, &errResp) && errResp.Response != nil &&
			(errResp.Response.StatusCode == http.StatusMethodNotAllowed ||
				errResp.Response.StatusCode == http.StatusConflict) {
			return &entities.MergeResult{Merged: false, Message: errResp.Message}, nil
		}
		return nil, fmt.Errorf("failed to merge pull request #%d: %w", number, classify(err))
	}
	return &entities.MergeResult{Merged: result.GetMerged(), Message: result.GetMessage()}, nil
}

func toPullRequest(pr *gh.PullRequest) entities.PullRequest {
	labels := make([]string, 0, len(pr.Labels))
	for _, label := range pr.Labels {
		labels = append(labels, label.GetName())
	}
	return entities.PullRequest{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		URL:     pr.GetHTMLURL(),
		State:   pr.GetState(),
		Base:    pr.GetBase().GetRef(),
		Head:    pr.GetHead().GetRef(),
		HeadSHA: pr.GetHead().GetSHA(),
		Author:  pr.GetUser().GetLogin(),
		Labels:  labels,
	}
}

// classify maps GitHub error responses to the domain sentinels.
func classify(err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		logger.Warnf("[github] rate limit exceeded, resets at %s", rateErr.Rate.Reset.Time)
		return err
	}

	var errResp *gh.ErrorResponse
	if !errors.As(err, &errResp) || errResp.Response == nil {
		return err
	}
	switch errResp.Response.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", entities.ErrNotFound, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", entities.ErrUnauthorized, err)
	default:
		return err
	}
}
