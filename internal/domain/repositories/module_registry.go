package repositories

import (
	"context"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

// ModuleRegistry is one module-hosting scheme able to parse its import URLs,
// list the published versions of a module and build a URL at any version.
type ModuleRegistry interface {
	// Name identifies the registry (e.g. "deno.land", "esm.sh").
	Name() string

	Match(url string) bool
	Parse(url string) (entities.ModuleReference, error)

	// Versions lists the published versions of a module, newest first.
	Versions(ctx context.Context, name string) ([]string, error)

	// At returns the reference URL rewritten to the given version.
	At(ref entities.ModuleReference, version string) string
}
