package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

const (
	originRemote = "origin"
	githubHost   = "github.com"
)

// Local is the interface for the local command (standalone mode).
type Local interface {
	Execute(ctx context.Context, settings *entities.Settings, opts LocalOptions) error
}

// LocalOptions holds runtime options for the local mode.
type LocalOptions struct {
	RepoDir string
	RunOptions
}

// LocalCommand handles the standalone local mode: it reads the GitHub
// repository of a local clone from its origin remote and runs the regular
// update pipeline against it.
type LocalCommand struct {
	run Run
}

// NewLocalCommand creates a new LocalCommand delegating to the run command.
func NewLocalCommand(run Run) *LocalCommand {
	return &LocalCommand{run: run}
}

// Execute is the entry point for the standalone local mode.
func (it *LocalCommand) Execute(ctx context.Context, settings *entities.Settings, opts LocalOptions) error {
	repo, err := parseGitRemote(opts.RepoDir)
	if err != nil {
		return err
	}
	logger.Infof("Detected repository %s in %q", repo, opts.RepoDir)

	runOpts := opts.RunOptions
	runOpts.Repositories = []string{repo.String()}
	if runOpts.Token == "" {
		runOpts.Token = resolveTokenFromEnv()
	}
	if runOpts.Token == "" && (settings == nil || settings.Token == "") {
		return fmt.Errorf("%w: set %s", entities.ErrMissingToken, tokenEnvHint())
	}
	return it.run.Execute(ctx, settings, runOpts)
}

// parseGitRemote opens the clone and parses the URL of its origin remote.
func parseGitRemote(repoDir string) (entities.Repository, error) {
	repository, err := git.PlainOpenWithOptions(repoDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return entities.Repository{}, fmt.Errorf("failed to open git repository %q: %w", repoDir, err)
	}
	remote, err := repository.Remote(originRemote)
	if err != nil {
		return entities.Repository{}, fmt.Errorf("failed to read remote %q: %w", originRemote, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return entities.Repository{}, fmt.Errorf("remote %q has no URL", originRemote)
	}
	return parseRemoteURL(urls[0])
}

// parseRemoteURL extracts owner and name from a GitHub HTTPS or SSH URL.
func parseRemoteURL(rawURL string) (entities.Repository, error) {
	cleaned := strings.TrimSuffix(strings.TrimSpace(rawURL), ".git")
	if !strings.Contains(cleaned, githubHost) {
		return entities.Repository{}, fmt.Errorf("unsupported git remote URL: %s", rawURL)
	}

	var pathPart string
	if strings.HasPrefix(cleaned, "git@") {
		_, after, ok := strings.Cut(cleaned, ":")
		if !ok {
			return entities.Repository{}, fmt.Errorf("invalid SSH URL: %s", rawURL)
		}
		pathPart = after
	} else {
		_, after, _ := strings.Cut(cleaned, githubHost)
		pathPart = strings.TrimPrefix(after, "/")
	}

	segments := strings.Split(pathPart, "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" { //nolint:mnd // need owner + name
		return entities.Repository{}, errors.New("cannot extract owner/name from URL: " + rawURL)
	}
	return entities.Repository{Owner: segments[0], Name: segments[1]}, nil
}

func resolveTokenFromEnv() string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	return os.Getenv("GH_TOKEN")
}

func tokenEnvHint() string {
	return "GITHUB_TOKEN or GH_TOKEN"
}
