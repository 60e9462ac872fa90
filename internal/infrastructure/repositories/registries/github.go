package registries

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

const (
	rawGitHubName        = "raw.githubusercontent.com"
	jsDelivrGitHubName   = "cdn.jsdelivr.net/gh"
	defaultJsDelivrAPI   = "https://data.jsdelivr.com/v1/package/gh"
	rawGitHubURLPrefix   = "https://raw.githubusercontent.com/"
	jsDelivrGitHubPrefix = "https://cdn.jsdelivr.net/gh/"
)

//nolint:gochecknoglobals // compiled once
var (
	rawGitHubPattern      = regexp.MustCompile(`^https://raw\.githubusercontent\.com/([\w.-]+/[\w.-]+)/([^/]+)/.+$`)
	jsDelivrGitHubPattern = regexp.MustCompile(`^https://cdn\.jsdelivr\.net/gh/([\w.-]+/[\w.-]+)@([^/]+)(/.*)?$`)
)

// GitHubCDNRegistry handles files served straight from GitHub repositories,
// pinned to a tag: raw.githubusercontent.com and cdn.jsdelivr.net/gh.
type GitHubCDNRegistry struct {
	name    string
	pattern *regexp.Regexp
	fetcher *Fetcher
	apiBase string
}

// NewRawGitHubRegistry creates the raw.githubusercontent.com registry.
func NewRawGitHubRegistry(fetcher *Fetcher) *GitHubCDNRegistry {
	return &GitHubCDNRegistry{
		name:    rawGitHubName,
		pattern: rawGitHubPattern,
		fetcher: fetcher,
		apiBase: defaultJsDelivrAPI,
	}
}

// NewJsDelivrGitHubRegistry creates the cdn.jsdelivr.net/gh registry.
func NewJsDelivrGitHubRegistry(fetcher *Fetcher) *GitHubCDNRegistry {
	return &GitHubCDNRegistry{
		name:    jsDelivrGitHubName,
		pattern: jsDelivrGitHubPattern,
		fetcher: fetcher,
		apiBase: defaultJsDelivrAPI,
	}
}

// WithAPIBase overrides the jsDelivr data API host.
func (r *GitHubCDNRegistry) WithAPIBase(base string) *GitHubCDNRegistry {
	r.apiBase = strings.TrimSuffix(base, "/")
	return r
}

func (r *GitHubCDNRegistry) Name() string { return r.name }

func (r *GitHubCDNRegistry) Match(url string) bool {
	return r.pattern.MatchString(url)
}

func (r *GitHubCDNRegistry) Parse(url string) (entities.ModuleReference, error) {
	match := r.pattern.FindStringSubmatch(url)
	if match == nil {
		return entities.ModuleReference{}, fmt.Errorf("%w: %q", entities.ErrNoRegistry, url)
	}
	return entities.ModuleReference{URL: url, Name: match[1], Version: match[2]}, nil
}

type jsDelivrPackage struct {
	Versions []string `json:"versions"`
}

func (r *GitHubCDNRegistry) Versions(ctx context.Context, name string) ([]string, error) {
	var pkg jsDelivrPackage
	if err := r.fetcher.GetJSON(ctx, r.apiBase+"/"+name, &pkg); err != nil {
		return nil, err
	}
	return sortVersionsDescending(pkg.Versions), nil
}

func (r *GitHubCDNRegistry) At(ref entities.ModuleReference, version string) string {
	target := entities.AlignVersionPrefix(ref.Version, version)
	if r.name == rawGitHubName {
		return strings.Replace(
			ref.URL,
			rawGitHubURLPrefix+ref.Name+"/"+ref.Version+"/",
			rawGitHubURLPrefix+ref.Name+"/"+target+"/",
			1,
		)
	}
	return strings.Replace(
		ref.URL,
		jsDelivrGitHubPrefix+ref.Name+"@"+ref.Version,
		jsDelivrGitHubPrefix+ref.Name+"@"+target,
		1,
	)
}
