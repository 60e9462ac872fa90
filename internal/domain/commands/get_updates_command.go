package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
	"github.com/rios0rios0/pinbump/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/pinbump/internal/infrastructure/repositories"
	"github.com/rios0rios0/pinbump/internal/infrastructure/repositories/pathfilter"
)

const defaultLookupConcurrency = 8

// GetUpdates scans a repository and returns every pending update.
type GetUpdates interface {
	Execute(
		ctx context.Context,
		api repositories.RepositoryAPI,
		repo entities.Repository,
		opts entities.UpdateOptions,
	) ([]entities.Update, error)
}

// GetUpdatesCommand reads the base tree, extracts module and annotated
// references, resolves their latest versions and emits the outdated ones.
// It never mutates the repository.
type GetUpdatesCommand struct {
	registries  *infraRepos.ModuleRegistrySet
	concurrency int
}

// NewGetUpdatesCommand creates a new GetUpdatesCommand.
func NewGetUpdatesCommand(registries *infraRepos.ModuleRegistrySet) *GetUpdatesCommand {
	return &GetUpdatesCommand{
		registries:  registries,
		concurrency: defaultLookupConcurrency,
	}
}

// WithConcurrency bounds the number of concurrent network lookups.
func (it *GetUpdatesCommand) WithConcurrency(limit int) *GetUpdatesCommand {
	if limit > 0 {
		it.concurrency = limit
	}
	return it
}

// scannedFile holds the references found in one file, in scan order.
type scannedFile struct {
	path        string
	modules     []moduleCandidate
	annotations []entities.AnnotatedReference
}

type moduleCandidate struct {
	registry repositories.ModuleRegistry
	ref      entities.ModuleReference
}

// Execute returns the updates of every file of the base branch that passes
// the include/exclude filters.
func (it *GetUpdatesCommand) Execute(
	ctx context.Context,
	api repositories.RepositoryAPI,
	repo entities.Repository,
	opts entities.UpdateOptions,
) ([]entities.Update, error) {
	base, err := resolveBaseBranch(ctx, api, repo, opts)
	if err != nil {
		return nil, err
	}

	entries, err := api.GetTree(ctx, repo, base)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree of %s@%s: %w", repo, base, err)
	}

	filter, err := pathfilter.New(opts.Include, opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrInvalidPattern, err)
	}

	var selected []entities.TreeEntry
	for _, entry := range entries {
		if entry.Type == "blob" && filter.Match(entry.Path) {
			selected = append(selected, entry)
		}
	}
	logger.Debugf(
		"[%s] scanning %d of %d files with registries [%s]",
		repo, len(selected), len(entries), strings.Join(it.registries.Names(), ", "),
	)

	contents, err := it.fetchContents(ctx, api, repo, selected)
	if err != nil {
		return nil, err
	}

	marker := opts.AnnotationMarker()
	files := make([]scannedFile, 0, len(selected))
	for i, entry := range selected {
		files = append(files, it.scan(entry.Path, entities.RemoveIgnore(contents[i], marker), marker))
	}

	resolver := newTargetResolver(api, opts.Release)
	if resolveErr := it.resolveAll(ctx, resolver, files); resolveErr != nil {
		return nil, resolveErr
	}

	return buildUpdates(files, resolver, marker), nil
}

func (it *GetUpdatesCommand) fetchContents(
	ctx context.Context,
	api repositories.RepositoryAPI,
	repo entities.Repository,
	entries []entities.TreeEntry,
) ([]string, error) {
	contents := make([]string, len(entries))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(it.concurrency)
	for i, entry := range entries {
		group.Go(func() error {
			content, err := api.GetBlob(groupCtx, repo, entry.SHA)
			if err != nil {
				return fmt.Errorf("failed to get blob %q: %w", entry.Path, err)
			}
			contents[i] = content
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return contents, nil
}

func (it *GetUpdatesCommand) scan(path, content, marker string) scannedFile {
	file := scannedFile{path: path}

	for _, url := range entities.ExtractURLs(content) {
		registry := it.registries.Find(url)
		if registry == nil {
			continue
		}
		ref, err := registry.Parse(url)
		if err != nil {
			logger.Debugf("[%s] skipping %q: %v", registry.Name(), url, err)
			continue
		}
		if !entities.IsValidVersion(ref.Version) {
			continue
		}
		file.modules = append(file.modules, moduleCandidate{registry: registry, ref: ref})
	}

	for _, ref := range entities.FindAnnotatedReferences(content, marker) {
		if entities.IsValidVersion(ref.Version) {
			file.annotations = append(file.annotations, ref)
		}
	}
	return file
}

// resolveAll looks up every distinct dependency once, concurrently.
func (it *GetUpdatesCommand) resolveAll(ctx context.Context, resolver *targetResolver, files []scannedFile) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(it.concurrency)

	scheduled := make(map[string]struct{})
	schedule := func(key, name string, lookup func(context.Context) (string, error)) {
		if _, ok := scheduled[key]; ok {
			return
		}
		scheduled[key] = struct{}{}
		group.Go(func() error {
			resolver.resolve(groupCtx, key, name, lookup)
			return groupCtx.Err()
		})
	}

	for _, file := range files {
		for _, candidate := range file.modules {
			registry, name := candidate.registry, candidate.ref.Name
			schedule(moduleKey(registry, name), name, func(ctx context.Context) (string, error) {
				return latestModuleVersion(ctx, registry, name)
			})
		}
		for _, ref := range file.annotations {
			name := ref.Name
			schedule(repoKey(name), name, func(ctx context.Context) (string, error) {
				return resolver.latestRelease(ctx, name)
			})
		}
	}
	return group.Wait()
}

func buildUpdates(files []scannedFile, resolver *targetResolver, marker string) []entities.Update {
	var updates []entities.Update
	for _, file := range files {
		for _, candidate := range file.modules {
			target, ok := resolver.target(moduleKey(candidate.registry, candidate.ref.Name))
			if !ok || !entities.IsNewerVersion(candidate.ref.Version, target) {
				continue
			}
			logger.Infof("[%s] %s %s => %s", file.path, candidate.ref.Name, candidate.ref.Version, target)
			updates = append(updates, entities.NewModuleUpdate(file.path, entities.UpdateSpec{
				Name:      candidate.ref.Name,
				Initial:   candidate.ref.Version,
				Target:    target,
				URL:       candidate.ref.URL,
				TargetURL: candidate.registry.At(candidate.ref, target),
			}, marker))
		}

		seen := make(map[string]struct{})
		for _, ref := range file.annotations {
			key := ref.Name + "@" + ref.Version
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			target, ok := resolver.target(repoKey(ref.Name))
			if !ok || !entities.IsNewerVersion(ref.Version, target) {
				continue
			}
			target = entities.AlignVersionPrefix(ref.Version, target)
			logger.Infof("[%s] %s %s => %s", file.path, ref.Name, ref.Version, target)
			updates = append(updates, entities.NewRepoUpdate(file.path, entities.UpdateSpec{
				Name:    ref.Name,
				Initial: ref.Version,
				Target:  target,
			}, marker))
		}
	}
	return updates
}

func moduleKey(registry repositories.ModuleRegistry, name string) string {
	return "module:" + registry.Name() + ":" + name
}

func repoKey(name string) string {
	return "repo:" + name
}

// targetResolver caches the resolved target of every dependency for a run.
// Failed lookups are cached as missing so a dependency is looked up once.
type targetResolver struct {
	api      repositories.RepositoryAPI
	override *entities.UpdateSpec

	mu      sync.Mutex
	targets map[string]string
}

func newTargetResolver(api repositories.RepositoryAPI, override *entities.UpdateSpec) *targetResolver {
	return &targetResolver{
		api:      api,
		override: override,
		targets:  make(map[string]string),
	}
}

func (r *targetResolver) resolve(
	ctx context.Context,
	key, name string,
	lookup func(context.Context) (string, error),
) {
	var target string
	if matchesOverride(r.override, name) {
		target = r.override.Target
	} else {
		latest, err := lookup(ctx)
		if err != nil {
			logger.Warnf("Failed to resolve %s, skipping: %v", name, err)
		}
		target = latest
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[key] = target
}

func (r *targetResolver) target(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.targets[key]
	return target, ok && target != ""
}

func (r *targetResolver) latestRelease(ctx context.Context, name string) (string, error) {
	source, err := entities.ParseRepository(name)
	if err != nil {
		return "", err
	}
	return r.api.GetLatestRelease(ctx, source)
}

// matchesOverride reports whether a coordinated-release override applies to
// the dependency. The override name only needs to be contained in it.
func matchesOverride(override *entities.UpdateSpec, name string) bool {
	return override != nil && override.Name != "" && strings.Contains(name, override.Name)
}

// latestModuleVersion returns the newest valid version that is not a prerelease.
func latestModuleVersion(ctx context.Context, registry repositories.ModuleRegistry, name string) (string, error) {
	versions, err := registry.Versions(ctx, name)
	if err != nil {
		return "", err
	}
	for _, version := range versions {
		if entities.IsValidVersion(version) && !entities.IsPrerelease(version) {
			return version, nil
		}
	}
	return "", fmt.Errorf("no stable version published for %q", name)
}

func resolveBaseBranch(
	ctx context.Context,
	api repositories.RepositoryAPI,
	repo entities.Repository,
	opts entities.UpdateOptions,
) (string, error) {
	if opts.BaseBranch != "" {
		return opts.BaseBranch, nil
	}
	base, err := api.GetDefaultBranch(ctx, repo)
	if err != nil {
		return "", fmt.Errorf("failed to get default branch of %s: %w", repo, err)
	}
	return base, nil
}
