//go:build unit

package controllers

import "github.com/rios0rios0/pinbump/internal/domain/entities"

//nolint:gochecknoglobals // test export
var (
	ParseRelease = parseRelease
	ResolveToken = resolveToken
)

// ResolveTokenFor exposes resolveToken with a settings token.
func ResolveTokenFor(flagValue, settingsToken string) string {
	return resolveToken(flagValue, &entities.Settings{Token: settingsToken})
}

// SetRunExit replaces the process exit of the run controller.
func SetRunExit(it *RunController, exit func(code int)) { it.exit = exit }

// SetLocalExit replaces the process exit of the local controller.
func SetLocalExit(it *LocalController, exit func(code int)) { it.exit = exit }
