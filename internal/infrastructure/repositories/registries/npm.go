package registries

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

const defaultNpmRegistryBase = "https://registry.npmjs.org"

// NpmCDNRegistry handles CDNs serving npm packages as
// <prefix><package>@<version>[/path], e.g. https://esm.sh/preact@10.0.0.
type NpmCDNRegistry struct {
	name         string
	prefix       string
	fetcher      *Fetcher
	registryBase string
}

// NewNpmCDNRegistry creates a registry for one npm CDN prefix.
func NewNpmCDNRegistry(name, prefix string, fetcher *Fetcher) *NpmCDNRegistry {
	return &NpmCDNRegistry{
		name:         name,
		prefix:       prefix,
		fetcher:      fetcher,
		registryBase: defaultNpmRegistryBase,
	}
}

// WithRegistryBase overrides the npm registry host.
func (r *NpmCDNRegistry) WithRegistryBase(base string) *NpmCDNRegistry {
	r.registryBase = strings.TrimSuffix(base, "/")
	return r
}

func (r *NpmCDNRegistry) Name() string { return r.name }

func (r *NpmCDNRegistry) Match(rawURL string) bool {
	if !strings.HasPrefix(rawURL, r.prefix) {
		return false
	}
	_, _, ok := splitPackage(strings.TrimPrefix(rawURL, r.prefix))
	return ok
}

func (r *NpmCDNRegistry) Parse(rawURL string) (entities.ModuleReference, error) {
	if !strings.HasPrefix(rawURL, r.prefix) {
		return entities.ModuleReference{}, fmt.Errorf("%w: %q", entities.ErrNoRegistry, rawURL)
	}
	name, version, ok := splitPackage(strings.TrimPrefix(rawURL, r.prefix))
	if !ok {
		return entities.ModuleReference{}, fmt.Errorf("%w: %q", entities.ErrNoRegistry, rawURL)
	}
	return entities.ModuleReference{URL: rawURL, Name: name, Version: version}, nil
}

type npmPackage struct {
	Versions map[string]any `json:"versions"`
}

func (r *NpmCDNRegistry) Versions(ctx context.Context, name string) ([]string, error) {
	var pkg npmPackage
	endpoint := r.registryBase + "/" + url.PathEscape(name)
	if err := r.fetcher.GetJSON(ctx, endpoint, &pkg); err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(pkg.Versions))
	for version := range pkg.Versions {
		versions = append(versions, version)
	}
	return sortVersionsDescending(versions), nil
}

func (r *NpmCDNRegistry) At(ref entities.ModuleReference, version string) string {
	return r.prefix + strings.Replace(
		strings.TrimPrefix(ref.URL, r.prefix),
		ref.Name+"@"+ref.Version,
		ref.Name+"@"+entities.AlignVersionPrefix(ref.Version, version),
		1,
	)
}

// splitPackage parses "[@scope/]name@version[/path|?query]".
func splitPackage(rest string) (string, string, bool) {
	scope := ""
	if strings.HasPrefix(rest, "@") {
		slash := strings.IndexByte(rest, '/')
		if slash < 0 {
			return "", "", false
		}
		scope, rest = rest[:slash+1], rest[slash+1:]
	}

	at := strings.IndexByte(rest, '@')
	if at <= 0 {
		return "", "", false
	}
	name := rest[:at]
	if strings.ContainsAny(name, "/?#") {
		return "", "", false
	}

	version := rest[at+1:]
	if end := strings.IndexAny(version, "/?#"); end >= 0 {
		version = version[:end]
	}
	if version == "" {
		return "", "", false
	}
	return scope + name, version, true
}
