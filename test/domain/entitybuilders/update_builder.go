//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/pinbump/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// UpdateBuilder helps create test updates with a fluent interface.
type UpdateBuilder struct {
	*testkit.BaseBuilder
	kind      entities.UpdateKind
	path      string
	name      string
	initial   string
	target    string
	url       string
	targetURL string
	marker    string
}

// NewUpdateBuilder creates a new update builder with sensible defaults:
// an annotated update of denoland/deno_std in deps.ts.
func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		kind:        entities.RepoUpdate,
		path:        "deps.ts",
		name:        "denoland/deno_std",
		initial:     "0.158.0",
		target:      "0.160.0",
		marker:      entities.DefaultMarker,
	}
}

// WithPath sets the file path.
func (b *UpdateBuilder) WithPath(path string) *UpdateBuilder {
	b.path = path
	return b
}

// WithName sets the dependency name.
func (b *UpdateBuilder) WithName(name string) *UpdateBuilder {
	b.name = name
	return b
}

// WithInitial sets the current version.
func (b *UpdateBuilder) WithInitial(version string) *UpdateBuilder {
	b.initial = version
	return b
}

// WithTarget sets the target version.
func (b *UpdateBuilder) WithTarget(version string) *UpdateBuilder {
	b.target = version
	return b
}

// WithModuleURLs turns the update into a module update rewriting url.
func (b *UpdateBuilder) WithModuleURLs(url, targetURL string) *UpdateBuilder {
	b.kind = entities.ModuleUpdate
	b.url = url
	b.targetURL = targetURL
	return b
}

// Build creates the update (satisfies testkit.Builder interface).
func (b *UpdateBuilder) Build() interface{} {
	return b.BuildUpdate()
}

// BuildUpdate creates the update with a concrete return type.
func (b *UpdateBuilder) BuildUpdate() entities.Update {
	spec := entities.UpdateSpec{
		Name:      b.name,
		Initial:   b.initial,
		Target:    b.target,
		URL:       b.url,
		TargetURL: b.targetURL,
	}
	if b.kind == entities.ModuleUpdate {
		return entities.NewModuleUpdate(b.path, spec, b.marker)
	}
	return entities.NewRepoUpdate(b.path, spec, b.marker)
}

// Reset clears the builder state, allowing it to be reused.
func (b *UpdateBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.kind = entities.RepoUpdate
	b.path = "deps.ts"
	b.name = "denoland/deno_std"
	b.initial = "0.158.0"
	b.target = "0.160.0"
	b.url = ""
	b.targetURL = ""
	b.marker = entities.DefaultMarker
	return b
}

// Clone creates a deep copy of the UpdateBuilder.
func (b *UpdateBuilder) Clone() testkit.Builder {
	return &UpdateBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		kind:        b.kind,
		path:        b.path,
		name:        b.name,
		initial:     b.initial,
		target:      b.target,
		url:         b.url,
		targetURL:   b.targetURL,
		marker:      b.marker,
	}
}
