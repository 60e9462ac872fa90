package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
	"github.com/rios0rios0/pinbump/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/pinbump/internal/infrastructure/repositories"
	ghRepo "github.com/rios0rios0/pinbump/internal/infrastructure/repositories/github"
)

const defaultRetryInterval = time.Second

// Run is the interface for the run command (batch mode).
type Run interface {
	Execute(ctx context.Context, settings *entities.Settings, opts RunOptions) error
}

// RunOptions holds runtime options for a single run. Non-empty values
// override the settings file.
type RunOptions struct {
	Token        string
	Repositories []string // owner/name, replaces the configured list
	Base         string
	Branch       string
	Include      []string
	Exclude      []string
	Release      *entities.UpdateSpec
	Labels       []string
	Privileged   bool
	Check        bool // report outdated references and fail, without changes
	DryRun       bool
	Verbose      bool
}

// repositoryTarget is one repository with its effective options.
type repositoryTarget struct {
	repo entities.Repository
	opts entities.UpdateOptions
}

// RunCommand orchestrates the full update flow of every repository:
// get updates -> create commits -> create or update the pull request.
type RunCommand struct {
	providerRegistry  *infraRepos.ProviderRegistry
	getUpdates        GetUpdates
	createCommits     CreateCommits
	createPullRequest CreatePullRequest
	retryInterval     time.Duration
}

// NewRunCommand creates a new RunCommand.
func NewRunCommand(
	providerRegistry *infraRepos.ProviderRegistry,
	getUpdates GetUpdates,
	createCommits CreateCommits,
	createPullRequest CreatePullRequest,
) *RunCommand {
	return &RunCommand{
		providerRegistry:  providerRegistry,
		getUpdates:        getUpdates,
		createCommits:     createCommits,
		createPullRequest: createPullRequest,
		retryInterval:     defaultRetryInterval,
	}
}

// Execute runs the update cycle of every repository. Repositories run
// concurrently, each one as a strict sequential pipeline.
func (it *RunCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	runOpts RunOptions,
) error {
	if runOpts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}
	if settings == nil {
		settings = entities.DefaultSettings()
	}

	token := runOpts.Token
	if token == "" {
		token = settings.Token
	}
	if token == "" {
		return entities.ErrMissingToken
	}

	targets, err := buildTargets(settings, runOpts)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New("no repositories to update, pass owner/name or configure repositories")
	}

	api, err := it.providerRegistry.Get(ghRepo.ProviderName, token)
	if err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		failures []error
		outdated int
	)
	limit := settings.Concurrency
	if limit <= 0 {
		limit = entities.DefaultConcurrency
	}
	group := new(errgroup.Group)
	group.SetLimit(limit)
	for _, target := range targets {
		group.Go(func() error {
			repoErr := it.processRepository(ctx, api, target, settings.Retry.MaxAttempts, runOpts)
			if repoErr == nil {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if errors.Is(repoErr, entities.ErrOutdated) {
				outdated++
				return nil
			}
			logger.Errorf("[%s] update failed: %v", target.repo, repoErr)
			failures = append(failures, fmt.Errorf("%s: %w", target.repo, repoErr))
			return nil
		})
	}
	_ = group.Wait()

	logger.Infof(
		"Run complete: %d repositories processed, %d outdated, %d errors",
		len(targets), outdated, len(failures),
	)
	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	if outdated > 0 {
		return entities.ErrOutdated
	}
	return nil
}

// processRepository runs the pipeline on a single repository.
func (it *RunCommand) processRepository(
	ctx context.Context,
	api repositories.RepositoryAPI,
	target repositoryTarget,
	attempts int,
	runOpts RunOptions,
) error {
	repo := target.repo
	logger.Infof("[%s] checking for updates...", repo)

	updates, err := it.getUpdatesWithRetry(ctx, api, target, attempts)
	if err != nil {
		return err
	}

	if len(updates) == 0 {
		logger.Infof("[%s] up to date", repo)
		return nil
	}

	if runOpts.Check {
		for _, update := range updates {
			logger.Infof("[%s] %s: %s", repo, update.Path, update.Message())
		}
		return fmt.Errorf("%w: %d in %s", entities.ErrOutdated, len(updates), repo)
	}

	if runOpts.DryRun {
		for _, update := range updates {
			logger.Infof("[%s] [dry-run] would commit %s: %s", repo, update.Path, update.Message())
		}
		return nil
	}

	if _, err = it.createCommits.Execute(ctx, api, repo, updates, target.opts); err != nil {
		return err
	}

	pr, err := it.createPullRequest.Execute(ctx, api, repo, target.opts)
	if err != nil {
		return err
	}
	if pr != nil {
		logger.Infof("[%s] pull request #%d: %s (%s)", repo, pr.Number, pr.Title, pr.URL)
	}
	return nil
}

// getUpdatesWithRetry retries the read-only scan phase with an exponential
// backoff, at most attempts times.
func (it *RunCommand) getUpdatesWithRetry(
	ctx context.Context,
	api repositories.RepositoryAPI,
	target repositoryTarget,
	attempts int,
) ([]entities.Update, error) {
	if attempts < 1 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = it.retryInterval

	var updates []entities.Update
	operation := func() error {
		var err error
		updates, err = it.getUpdates.Execute(ctx, api, target.repo, target.opts)
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		logger.Warnf("[%s] failed to get updates, retrying in %s: %v", target.repo, next, err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, fmt.Errorf("failed to get updates: %w", err)
	}
	return updates, nil
}

// isPermanent reports whether a scan error cannot be fixed by retrying.
func isPermanent(err error) bool {
	return errors.Is(err, entities.ErrNotFound) ||
		errors.Is(err, entities.ErrUnauthorized) ||
		errors.Is(err, entities.ErrInvalidPattern)
}

// buildTargets merges the settings, the repository list and the CLI overrides.
func buildTargets(settings *entities.Settings, runOpts RunOptions) ([]repositoryTarget, error) {
	configs := settings.Repositories
	if len(runOpts.Repositories) > 0 {
		configs = make([]entities.RepositoryConfig, 0, len(runOpts.Repositories))
		for _, name := range runOpts.Repositories {
			configs = append(configs, entities.RepositoryConfig{Name: name})
		}
	}

	targets := make([]repositoryTarget, 0, len(configs))
	for _, cfg := range configs {
		repo, err := entities.ParseRepository(cfg.Name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, repositoryTarget{
			repo: repo,
			opts: applyOverrides(settings.UpdateOptionsFor(cfg), runOpts),
		})
	}
	return targets, nil
}

func applyOverrides(opts entities.UpdateOptions, runOpts RunOptions) entities.UpdateOptions {
	if runOpts.Base != "" {
		opts.BaseBranch = runOpts.Base
	}
	if runOpts.Branch != "" {
		opts.Branch = runOpts.Branch
	}
	if len(runOpts.Include) > 0 {
		opts.Include = runOpts.Include
	}
	if len(runOpts.Exclude) > 0 {
		opts.Exclude = runOpts.Exclude
	}
	if len(runOpts.Labels) > 0 {
		opts.Labels = runOpts.Labels
	}
	if runOpts.Release != nil {
		opts.Release = runOpts.Release
	}
	opts.Privileged = opts.Privileged || runOpts.Privileged
	return opts
}
