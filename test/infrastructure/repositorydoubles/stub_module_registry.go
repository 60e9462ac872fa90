//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
	"github.com/rios0rios0/pinbump/internal/domain/repositories"
)

// StubModuleRegistry implements repositories.ModuleRegistry for URLs of the
// form <Prefix><name>@<version>[/path]. It counts version lookups per name.
type StubModuleRegistry struct {
	RegistryName string
	Prefix       string
	Published    map[string][]string
	VersionsErr  error

	mu           sync.Mutex
	VersionCalls map[string]int
}

var _ repositories.ModuleRegistry = (*StubModuleRegistry)(nil)

// NewStubModuleRegistry creates a registry answering with the given versions.
func NewStubModuleRegistry(name, prefix string, versions map[string][]string) *StubModuleRegistry {
	return &StubModuleRegistry{
		RegistryName: name,
		Prefix:       prefix,
		Published:    versions,
		VersionCalls: make(map[string]int),
	}
}

func (r *StubModuleRegistry) Name() string { return r.RegistryName }

func (r *StubModuleRegistry) Match(url string) bool {
	return strings.HasPrefix(url, r.Prefix) && strings.Contains(strings.TrimPrefix(url, r.Prefix), "@")
}

func (r *StubModuleRegistry) Parse(url string) (entities.ModuleReference, error) {
	rest := strings.TrimPrefix(url, r.Prefix)
	name, versionPath, ok := strings.Cut(rest, "@")
	if !ok {
		return entities.ModuleReference{}, fmt.Errorf("%w: %q", entities.ErrNoRegistry, url)
	}
	version, _, _ := strings.Cut(versionPath, "/")
	return entities.ModuleReference{URL: url, Name: name, Version: version}, nil
}

func (r *StubModuleRegistry) Versions(_ context.Context, name string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.VersionCalls[name]++
	if r.VersionsErr != nil {
		return nil, r.VersionsErr
	}
	versions, ok := r.Published[name]
	if !ok {
		return nil, fmt.Errorf("%w: module %q", entities.ErrNotFound, name)
	}
	return versions, nil
}

func (r *StubModuleRegistry) At(ref entities.ModuleReference, version string) string {
	return strings.Replace(ref.URL, ref.Name+"@"+ref.Version, ref.Name+"@"+version, 1)
}

// Calls returns how many times the versions of name were requested.
func (r *StubModuleRegistry) Calls(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.VersionCalls[name]
}
