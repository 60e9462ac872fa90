package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
	"github.com/rios0rios0/pinbump/internal/domain/repositories"
)

// CreateCommits writes one commit per dependency on the working branch.
type CreateCommits interface {
	Execute(
		ctx context.Context,
		api repositories.RepositoryAPI,
		repo entities.Repository,
		updates []entities.Update,
		opts entities.UpdateOptions,
	) ([]entities.Commit, error)
}

// CreateCommitsCommand resets the working branch to the base tip, then
// chains one atomic commit per dependency group on top of it.
type CreateCommitsCommand struct{}

// NewCreateCommitsCommand creates a new CreateCommitsCommand.
func NewCreateCommitsCommand() *CreateCommitsCommand {
	return &CreateCommitsCommand{}
}

// updateGroup gathers the updates of one dependency, in scan order.
type updateGroup struct {
	name    string
	updates []entities.Update
}

// Execute commits the updates and returns the created commits in order.
// A failure leaves the branch at the last successful commit.
func (it *CreateCommitsCommand) Execute(
	ctx context.Context,
	api repositories.RepositoryAPI,
	repo entities.Repository,
	updates []entities.Update,
	opts entities.UpdateOptions,
) ([]entities.Commit, error) {
	if len(updates) == 0 {
		logger.Infof("[%s] nothing to commit", repo)
		return nil, nil
	}
	if !opts.Privileged {
		updates = withoutWorkflows(repo, updates)
	}

	base, err := resolveBaseBranch(ctx, api, repo, opts)
	if err != nil {
		return nil, err
	}
	baseBranch, err := api.GetBranch(ctx, repo, base)
	if err != nil {
		return nil, err
	}
	if baseBranch == nil {
		return nil, fmt.Errorf("%w: %q", entities.ErrBranchNotFound, base)
	}

	working := opts.WorkingBranch()
	if resetErr := resetBranch(ctx, api, repo, working, baseBranch.SHA); resetErr != nil {
		return nil, resetErr
	}
	if len(updates) == 0 {
		logger.Infof("[%s] nothing to commit", repo)
		return nil, nil
	}

	// fold over the groups, threading the previous commit sha as parent
	parent := baseBranch.SHA
	var commits []entities.Commit
	for _, group := range groupByDependency(updates) {
		commit, commitErr := it.commitGroup(ctx, api, repo, parent, group, opts.Committer())
		if commitErr != nil {
			if errors.Is(commitErr, entities.ErrUnauthorized) && touchesWorkflows(group) {
				logger.Warnf(
					"[%s] token is not allowed to update workflows, skipping %s: %v",
					repo, group.name, commitErr,
				)
				continue
			}
			return commits, commitErr
		}
		if commit == nil {
			continue
		}

		if refErr := api.UpdateBranchRef(ctx, repo, working, commit.SHA, false); refErr != nil {
			return commits, fmt.Errorf("failed to advance %q: %w", working, refErr)
		}
		logger.Infof("[%s] %s", repo, commit.Message)
		commits = append(commits, *commit)
		parent = commit.SHA
	}
	return commits, nil
}

// commitGroup rewrites every file touched by the group as found at parent.
// It returns nil when the rewrite does not change any content.
func (it *CreateCommitsCommand) commitGroup(
	ctx context.Context,
	api repositories.RepositoryAPI,
	repo entities.Repository,
	parent string,
	group updateGroup,
	author entities.CommitAuthor,
) (*entities.Commit, error) {
	entries, err := api.GetTree(ctx, repo, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree at %s: %w", parent, err)
	}
	shas := make(map[string]string, len(entries))
	for _, entry := range entries {
		shas[entry.Path] = entry.SHA
	}

	var blobs []entities.Blob
	for _, path := range distinctPaths(group.updates) {
		sha, ok := shas[path]
		if !ok {
			return nil, fmt.Errorf("%w: %q at %s", entities.ErrNotFound, path, parent)
		}
		original, blobErr := api.GetBlob(ctx, repo, sha)
		if blobErr != nil {
			return nil, blobErr
		}

		content := original
		for _, update := range group.updates {
			if update.Path == path {
				content = update.Content(content)
			}
		}
		if content != original {
			blobs = append(blobs, entities.Blob{Path: path, Content: content})
		}
	}
	if len(blobs) == 0 {
		logger.Debugf("[%s] %s is already up to date", repo, group.name)
		return nil, nil //nolint:nilnil // no change is not an error
	}

	return api.CreateCommit(ctx, repo, parent, groupMessage(group), author, blobs)
}

// resetBranch creates the branch from sha, or force-moves it back to sha.
func resetBranch(
	ctx context.Context,
	api repositories.RepositoryAPI,
	repo entities.Repository,
	name, sha string,
) error {
	existing, err := api.GetBranch(ctx, repo, name)
	if err != nil {
		return err
	}
	if existing == nil {
		if _, createErr := api.CreateBranch(ctx, repo, name, sha); createErr != nil {
			return createErr
		}
		logger.Infof("[%s] created branch %q", repo, name)
		return nil
	}
	if existing.SHA == sha {
		return nil
	}
	if updateErr := api.UpdateBranchRef(ctx, repo, name, sha, true); updateErr != nil {
		return updateErr
	}
	logger.Infof("[%s] reset branch %q to %s", repo, name, sha)
	return nil
}

func withoutWorkflows(repo entities.Repository, updates []entities.Update) []entities.Update {
	kept := make([]entities.Update, 0, len(updates))
	var skipped []string
	for _, update := range updates {
		if entities.IsWorkflow(update.Path) {
			skipped = append(skipped, update.Path)
			continue
		}
		kept = append(kept, update)
	}
	if len(skipped) > 0 {
		logger.Warnf(
			"[%s] skipping workflow files without a privileged token: %s",
			repo, strings.Join(distinctStrings(skipped), ", "),
		)
	}
	return kept
}

func groupByDependency(updates []entities.Update) []updateGroup {
	var groups []updateGroup
	index := make(map[string]int)
	for _, update := range updates {
		i, ok := index[update.Spec.Name]
		if !ok {
			i = len(groups)
			index[update.Spec.Name] = i
			groups = append(groups, updateGroup{name: update.Spec.Name})
		}
		groups[i].updates = append(groups[i].updates, update)
	}
	return groups
}

func groupMessage(group updateGroup) string {
	first := group.updates[0]
	types := make([]entities.CommitType, 0, len(group.updates))
	initial := first.Spec.Initial
	for _, update := range group.updates {
		types = append(types, update.Type)
		if update.Spec.Initial != initial {
			initial = ""
		}
	}
	return entities.FormatCommitMessage(entities.PullRequestType(types), group.name, initial, first.Spec.Target)
}

func touchesWorkflows(group updateGroup) bool {
	for _, update := range group.updates {
		if entities.IsWorkflow(update.Path) {
			return true
		}
	}
	return false
}

func distinctPaths(updates []entities.Update) []string {
	paths := make([]string, 0, len(updates))
	for _, update := range updates {
		paths = append(paths, update.Path)
	}
	return distinctStrings(paths)
}

func distinctStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}
