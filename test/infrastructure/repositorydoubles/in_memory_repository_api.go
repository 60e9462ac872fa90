//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, fakes) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"crypto/sha1" //nolint:gosec // content addressing only
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
	"github.com/rios0rios0/pinbump/internal/domain/repositories"
)

const DefaultPullRequestAuthor = "pinbump[bot]"

type fakeCommit struct {
	sha     string
	parent  string
	message string
	author  entities.CommitAuthor
	files   map[string]string
}

// InMemoryRepositoryAPI is a fake forge holding commits, branches and pull
// requests in memory. It is safe for concurrent use.
type InMemoryRepositoryAPI struct {
	mu sync.Mutex

	DefaultBranch string
	Releases      map[string]string // owner/name -> tag
	ReleaseErrs   map[string]error  // owner/name -> error
	CheckRuns     map[string][]entities.CheckRun
	MergeResult   *entities.MergeResult
	MergeErr      error
	Author        string

	// DenyWorkflowWrites makes CreateCommit fail with ErrUnauthorized when a
	// blob lives under .github/workflows/.
	DenyWorkflowWrites bool
	// GetTreeFailures makes the next N GetTree calls fail.
	GetTreeFailures int
	GetTreeErr      error

	commits      map[string]*fakeCommit
	branches     map[string]string
	blobs        map[string]string
	pullRequests []entities.PullRequest
	sequence     int

	// --- call tracking ---
	GetTreeCalls          int
	GetBlobCalls          int
	GetLatestReleaseCalls map[string]int
	CreateBranchCalls     []string
	ForcedUpdates         []string
	CreateCommitCalls     int
	CreatePRCalls         int
	UpdateTitleCalls      int
	AddedLabels           map[int][]string
	ListCheckRunsCalls    []string
	MergeCalls            []int
}

var _ repositories.RepositoryAPI = (*InMemoryRepositoryAPI)(nil)

// NewInMemoryRepositoryAPI creates a forge whose default branch holds files.
func NewInMemoryRepositoryAPI(defaultBranch string, files map[string]string) *InMemoryRepositoryAPI {
	api := &InMemoryRepositoryAPI{
		DefaultBranch:         defaultBranch,
		Releases:              make(map[string]string),
		ReleaseErrs:           make(map[string]error),
		CheckRuns:             make(map[string][]entities.CheckRun),
		Author:                DefaultPullRequestAuthor,
		commits:               make(map[string]*fakeCommit),
		branches:              make(map[string]string),
		blobs:                 make(map[string]string),
		GetLatestReleaseCalls: make(map[string]int),
		AddedLabels:           make(map[int][]string),
	}
	root := api.storeCommit("", "initial commit", entities.CommitAuthor{}, copyFiles(files))
	api.branches[defaultBranch] = root
	return api
}

// AddPullRequest registers an existing pull request.
func (f *InMemoryRepositoryAPI) AddPullRequest(pr entities.PullRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pr.State == "" {
		pr.State = entities.PullRequestStateOpen
	}
	f.pullRequests = append(f.pullRequests, pr)
}

// PullRequests returns a copy of every pull request.
func (f *InMemoryRepositoryAPI) PullRequests() []entities.PullRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.PullRequest(nil), f.pullRequests...)
}

// BranchSHA returns the sha a branch points to, or "".
func (f *InMemoryRepositoryAPI) BranchSHA(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.branches[name]
}

// FileAt returns the content of a file on a branch.
func (f *InMemoryRepositoryAPI) FileAt(branch, path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	commit := f.commits[f.branches[branch]]
	if commit == nil {
		return ""
	}
	return commit.files[path]
}

// History returns the commits of a branch that are not on the default branch,
// oldest first.
func (f *InMemoryRepositoryAPI) History(branch string) []entities.Commit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.diff(f.branches[f.DefaultBranch], f.branches[branch])
}

// CommitAuthorOf returns the author recorded for a commit.
func (f *InMemoryRepositoryAPI) CommitAuthorOf(sha string) entities.CommitAuthor {
	f.mu.Lock()
	defer f.mu.Unlock()
	if commit := f.commits[sha]; commit != nil {
		return commit.author
	}
	return entities.CommitAuthor{}
}

// CommitOnBase adds a commit on the default branch, simulating upstream work.
func (f *InMemoryRepositoryAPI) CommitOnBase(path, content string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent := f.commits[f.branches[f.DefaultBranch]]
	files := copyFiles(parent.files)
	files[path] = content
	sha := f.storeCommit(parent.sha, "upstream change", entities.CommitAuthor{}, files)
	f.branches[f.DefaultBranch] = sha
	return sha
}

func (f *InMemoryRepositoryAPI) GetDefaultBranch(_ context.Context, _ entities.Repository) (string, error) {
	return f.DefaultBranch, nil
}

func (f *InMemoryRepositoryAPI) GetTree(
	_ context.Context,
	_ entities.Repository,
	ref string,
) ([]entities.TreeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetTreeCalls++
	if f.GetTreeFailures > 0 {
		f.GetTreeFailures--
		if f.GetTreeErr != nil {
			return nil, f.GetTreeErr
		}
		return nil, errors.New("transient failure")
	}

	commit := f.resolve(ref)
	if commit == nil {
		return nil, fmt.Errorf("%w: ref %q", entities.ErrNotFound, ref)
	}
	paths := make([]string, 0, len(commit.files))
	for path := range commit.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	entries := make([]entities.TreeEntry, 0, len(paths))
	for _, path := range paths {
		entries = append(entries, entities.TreeEntry{Path: path, SHA: f.storeBlob(commit.files[path]), Type: "blob"})
	}
	return entries, nil
}

func (f *InMemoryRepositoryAPI) GetBlob(_ context.Context, _ entities.Repository, sha string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetBlobCalls++
	content, ok := f.blobs[sha]
	if !ok {
		return "", fmt.Errorf("%w: blob %q", entities.ErrNotFound, sha)
	}
	return content, nil
}

func (f *InMemoryRepositoryAPI) GetBranch(
	_ context.Context,
	_ entities.Repository,
	name string,
) (*entities.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sha, ok := f.branches[name]
	if !ok {
		return nil, nil //nolint:nilnil // absent branch
	}
	return &entities.Branch{Name: name, SHA: sha}, nil
}

func (f *InMemoryRepositoryAPI) CreateBranch(
	_ context.Context,
	_ entities.Repository,
	name, baseSHA string,
) (*entities.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.branches[name]; exists {
		return nil, fmt.Errorf("branch %q already exists", name)
	}
	if _, ok := f.commits[baseSHA]; !ok {
		return nil, fmt.Errorf("%w: commit %q", entities.ErrNotFound, baseSHA)
	}
	f.CreateBranchCalls = append(f.CreateBranchCalls, name)
	f.branches[name] = baseSHA
	return &entities.Branch{Name: name, SHA: baseSHA}, nil
}

func (f *InMemoryRepositoryAPI) UpdateBranchRef(
	_ context.Context,
	_ entities.Repository,
	name, sha string,
	force bool,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.branches[name]
	if !ok {
		return fmt.Errorf("%w: %q", entities.ErrBranchNotFound, name)
	}
	if force {
		f.ForcedUpdates = append(f.ForcedUpdates, name)
	} else if !f.descendsFrom(sha, current) {
		return fmt.Errorf("update of %q to %s is not a fast forward", name, sha)
	}
	f.branches[name] = sha
	return nil
}

func (f *InMemoryRepositoryAPI) DeleteBranch(_ context.Context, _ entities.Repository, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.branches[name]; !ok {
		return fmt.Errorf("%w: %q", entities.ErrBranchNotFound, name)
	}
	delete(f.branches, name)
	return nil
}

func (f *InMemoryRepositoryAPI) CreateCommit(
	_ context.Context,
	_ entities.Repository,
	parentSHA string,
	message string,
	author entities.CommitAuthor,
	blobs []entities.Blob,
) (*entities.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCommitCalls++

	parent, ok := f.commits[parentSHA]
	if !ok {
		return nil, fmt.Errorf("%w: commit %q", entities.ErrNotFound, parentSHA)
	}
	files := copyFiles(parent.files)
	for _, blob := range blobs {
		if f.DenyWorkflowWrites && entities.IsWorkflow(blob.Path) {
			return nil, fmt.Errorf("%w: cannot write %q", entities.ErrUnauthorized, blob.Path)
		}
		files[blob.Path] = blob.Content
	}
	sha := f.storeCommit(parentSHA, message, author, files)
	return &entities.Commit{SHA: sha, Message: message}, nil
}

func (f *InMemoryRepositoryAPI) GetLatestRelease(_ context.Context, repo entities.Repository) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetLatestReleaseCalls[repo.String()]++
	if err := f.ReleaseErrs[repo.String()]; err != nil {
		return "", err
	}
	return f.Releases[repo.String()], nil
}

func (f *InMemoryRepositoryAPI) CompareBranches(
	_ context.Context,
	_ entities.Repository,
	base, head string,
) ([]entities.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	baseSHA, ok := f.branches[base]
	if !ok {
		return nil, fmt.Errorf("%w: %q", entities.ErrBranchNotFound, base)
	}
	headSHA, ok := f.branches[head]
	if !ok {
		return nil, fmt.Errorf("%w: %q", entities.ErrBranchNotFound, head)
	}
	return f.diff(baseSHA, headSHA), nil
}

func (f *InMemoryRepositoryAPI) ListOpenPullRequests(
	_ context.Context,
	_ entities.Repository,
	head string,
) ([]entities.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []entities.PullRequest
	for _, pr := range f.pullRequests {
		if pr.State != entities.PullRequestStateOpen {
			continue
		}
		if head != "" && pr.Head != head {
			continue
		}
		result = append(result, pr)
	}
	return result, nil
}

func (f *InMemoryRepositoryAPI) GetPullRequest(
	_ context.Context,
	_ entities.Repository,
	number int,
) (*entities.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pr := range f.pullRequests {
		if pr.Number == number {
			found := pr
			found.Labels = append([]string(nil), pr.Labels...)
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: pull request #%d", entities.ErrNotFound, number)
}

func (f *InMemoryRepositoryAPI) CreatePullRequest(
	_ context.Context,
	_ entities.Repository,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreatePRCalls++
	pr := entities.PullRequest{
		Number:  len(f.pullRequests) + 1,
		Title:   input.Title,
		URL:     fmt.Sprintf("https://github.com/owner/repo/pull/%d", len(f.pullRequests)+1),
		State:   entities.PullRequestStateOpen,
		Base:    input.Base,
		Head:    input.Head,
		HeadSHA: f.branches[input.Head],
		Author:  f.Author,
	}
	f.pullRequests = append(f.pullRequests, pr)
	return &pr, nil
}

func (f *InMemoryRepositoryAPI) UpdatePullRequestTitle(
	_ context.Context,
	_ entities.Repository,
	number int,
	title string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateTitleCalls++
	for i := range f.pullRequests {
		if f.pullRequests[i].Number == number {
			f.pullRequests[i].Title = title
			return nil
		}
	}
	return fmt.Errorf("%w: pull request #%d", entities.ErrNotFound, number)
}

func (f *InMemoryRepositoryAPI) AddLabels(
	_ context.Context,
	_ entities.Repository,
	number int,
	labels []string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.pullRequests {
		if f.pullRequests[i].Number != number {
			continue
		}
		for _, label := range labels {
			if !f.pullRequests[i].HasLabel(label) {
				f.pullRequests[i].Labels = append(f.pullRequests[i].Labels, label)
			}
		}
		f.AddedLabels[number] = append(f.AddedLabels[number], labels...)
		return nil
	}
	return fmt.Errorf("%w: pull request #%d", entities.ErrNotFound, number)
}

func (f *InMemoryRepositoryAPI) ListCheckRuns(
	_ context.Context,
	_ entities.Repository,
	ref string,
) ([]entities.CheckRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCheckRunsCalls = append(f.ListCheckRunsCalls, ref)
	return append([]entities.CheckRun(nil), f.CheckRuns[ref]...), nil
}

func (f *InMemoryRepositoryAPI) MergePullRequest(
	_ context.Context,
	_ entities.Repository,
	number int,
) (*entities.MergeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MergeCalls = append(f.MergeCalls, number)
	if f.MergeErr != nil {
		return nil, f.MergeErr
	}
	result := entities.MergeResult{Merged: true, Message: "Pull Request successfully merged"}
	if f.MergeResult != nil {
		result = *f.MergeResult
	}
	if result.Merged {
		for i := range f.pullRequests {
			if f.pullRequests[i].Number == number {
				f.pullRequests[i].State = "closed"
			}
		}
	}
	return &result, nil
}

// resolve accepts a branch name or a commit sha.
func (f *InMemoryRepositoryAPI) resolve(ref string) *fakeCommit {
	if sha, ok := f.branches[strings.TrimPrefix(ref, "refs/heads/")]; ok {
		return f.commits[sha]
	}
	return f.commits[ref]
}

func (f *InMemoryRepositoryAPI) storeCommit(
	parent, message string,
	author entities.CommitAuthor,
	files map[string]string,
) string {
	f.sequence++
	sha := fmt.Sprintf("c%03d", f.sequence)
	f.commits[sha] = &fakeCommit{sha: sha, parent: parent, message: message, author: author, files: files}
	return sha
}

func (f *InMemoryRepositoryAPI) storeBlob(content string) string {
	sum := sha1.Sum([]byte(content)) //nolint:gosec // content addressing only
	sha := hex.EncodeToString(sum[:])
	f.blobs[sha] = content
	return sha
}

func (f *InMemoryRepositoryAPI) descendsFrom(sha, ancestor string) bool {
	for current := sha; current != ""; current = f.commits[current].parent {
		if current == ancestor {
			return true
		}
		if f.commits[current] == nil {
			return false
		}
	}
	return false
}

// diff lists the commits reachable from head and not from base, oldest first.
func (f *InMemoryRepositoryAPI) diff(baseSHA, headSHA string) []entities.Commit {
	ancestors := make(map[string]struct{})
	for current := baseSHA; current != ""; current = f.commits[current].parent {
		ancestors[current] = struct{}{}
	}

	var commits []entities.Commit
	for current := headSHA; current != ""; current = f.commits[current].parent {
		if _, shared := ancestors[current]; shared {
			break
		}
		commit := f.commits[current]
		commits = append([]entities.Commit{{SHA: commit.sha, Message: commit.message}}, commits...)
	}
	return commits
}

func copyFiles(files map[string]string) map[string]string {
	copied := make(map[string]string, len(files))
	for path, content := range files {
		copied[path] = content
	}
	return copied
}
