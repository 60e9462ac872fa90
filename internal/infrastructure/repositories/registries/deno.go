package registries

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

const (
	denoLandName        = "deno.land"
	defaultDenoMetaBase = "https://cdn.deno.land"
)

//nolint:gochecknoglobals // compiled once
var denoLandPattern = regexp.MustCompile(`^https://deno\.land/((?:x/)?[\w.-]+)@([^/]+)(/.*)?$`)

// DenoLandRegistry handles https://deno.land/std@<v>/... and
// https://deno.land/x/<name>@<v>/... imports.
type DenoLandRegistry struct {
	fetcher  *Fetcher
	metaBase string
}

// NewDenoLandRegistry creates the deno.land registry.
func NewDenoLandRegistry(fetcher *Fetcher) *DenoLandRegistry {
	return &DenoLandRegistry{fetcher: fetcher, metaBase: defaultDenoMetaBase}
}

// WithMetaBase overrides the metadata host.
func (r *DenoLandRegistry) WithMetaBase(base string) *DenoLandRegistry {
	r.metaBase = strings.TrimSuffix(base, "/")
	return r
}

func (r *DenoLandRegistry) Name() string { return denoLandName }

func (r *DenoLandRegistry) Match(url string) bool {
	return denoLandPattern.MatchString(url)
}

func (r *DenoLandRegistry) Parse(url string) (entities.ModuleReference, error) {
	match := denoLandPattern.FindStringSubmatch(url)
	if match == nil {
		return entities.ModuleReference{}, fmt.Errorf("%w: %q", entities.ErrNoRegistry, url)
	}
	return entities.ModuleReference{
		URL:     url,
		Name:    denoLandName + "/" + match[1],
		Version: match[2],
	}, nil
}

type denoVersions struct {
	Latest   string   `json:"latest"`
	Versions []string `json:"versions"`
}

func (r *DenoLandRegistry) Versions(ctx context.Context, name string) ([]string, error) {
	module := strings.TrimPrefix(strings.TrimPrefix(name, denoLandName+"/"), "x/")
	var meta denoVersions
	if err := r.fetcher.GetJSON(ctx, fmt.Sprintf("%s/%s/meta/versions.json", r.metaBase, module), &meta); err != nil {
		return nil, err
	}
	return sortVersionsDescending(meta.Versions), nil
}

func (r *DenoLandRegistry) At(ref entities.ModuleReference, version string) string {
	return replaceVersion(ref.URL, ref.Version, version)
}

// replaceVersion swaps the first "@<from>" of the URL for "@<to>".
func replaceVersion(url, from, to string) string {
	return strings.Replace(url, "@"+from, "@"+entities.AlignVersionPrefix(from, to), 1)
}
