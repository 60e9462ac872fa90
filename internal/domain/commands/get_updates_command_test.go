//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/pinbump/internal/domain/commands"
	"github.com/rios0rios0/pinbump/internal/domain/entities"
	infraRepos "github.com/rios0rios0/pinbump/internal/infrastructure/repositories"
	doubles "github.com/rios0rios0/pinbump/test/infrastructure/repositorydoubles"
)

const denoStdLines = "export const a = \"0.158.0\"; // @pinbump denoland/deno_std\n" +
	"export const b = \"0.158.0\"; // @pinbump denoland/deno_std\n"

func newDenoRegistry(published map[string][]string) *doubles.StubModuleRegistry {
	return doubles.NewStubModuleRegistry("deno.land", "https://deno.land/x/", published)
}

func newGetUpdates(registry *doubles.StubModuleRegistry) *commands.GetUpdatesCommand {
	if registry == nil {
		return commands.NewGetUpdatesCommand(infraRepos.NewModuleRegistrySet())
	}
	return commands.NewGetUpdatesCommand(infraRepos.NewModuleRegistrySet(registry))
}

func TestGetUpdatesCommandExecute(t *testing.T) {
	t.Parallel()

	repo := entities.Repository{Owner: "owner", Name: "repo"}

	t.Run("should emit one update for repeated annotations of the same version", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{"deps.ts": denoStdLines})
		api.Releases["denoland/deno_std"] = "0.160.0"
		cmd := newGetUpdates(nil)

		// when
		updates, err := cmd.Execute(context.Background(), api, repo, entities.UpdateOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Equal(t, entities.RepoUpdate, updates[0].Kind)
		assert.Equal(t, "deps.ts", updates[0].Path)
		assert.Equal(t, "0.158.0", updates[0].Spec.Initial)
		assert.Equal(t, "0.160.0", updates[0].Spec.Target)
		assert.Equal(t, entities.CommitTypeBuild, updates[0].Type)
		assert.Equal(t,
			"export const a = \"0.160.0\"; // @pinbump denoland/deno_std\n"+
				"export const b = \"0.160.0\"; // @pinbump denoland/deno_std\n",
			updates[0].Content(denoStdLines),
		)
		assert.Equal(t, 1, api.GetLatestReleaseCalls["denoland/deno_std"])
	})

	t.Run("should align the target with the version prefix of the pin", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{
			"action.yml": "version: 1.2.3 # @pinbump owner/tool\n",
		})
		api.Releases["owner/tool"] = "v1.3.0"
		cmd := newGetUpdates(nil)

		// when
		updates, err := cmd.Execute(context.Background(), api, repo, entities.UpdateOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Equal(t, "1.3.0", updates[0].Spec.Target)
	})

	t.Run("should resolve module URLs to the newest stable version", func(t *testing.T) {
		t.Parallel()

		// given
		content := "import { Application } from \"https://deno.land/x/oak@v11.1.0/mod.ts\";\n"
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{"server.ts": content})
		registry := newDenoRegistry(map[string][]string{
			"oak": {"v13.0.0-beta.1", "v12.1.0", "v11.1.0"},
		})
		cmd := newGetUpdates(registry)

		// when
		updates, err := cmd.Execute(context.Background(), api, repo, entities.UpdateOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Equal(t, entities.ModuleUpdate, updates[0].Kind)
		assert.Equal(t, "v12.1.0", updates[0].Spec.Target)
		assert.Equal(t, "https://deno.land/x/oak@v12.1.0/mod.ts", updates[0].Spec.TargetURL)
		assert.Equal(t,
			"import { Application } from \"https://deno.land/x/oak@v12.1.0/mod.ts\";\n",
			updates[0].Content(content),
		)
	})

	t.Run("should look up a module once across files", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{
			"a.ts":      "import \"https://deno.land/x/oak@v11.1.0/mod.ts\";\n",
			"b.ts":      "import \"https://deno.land/x/oak@v11.1.0/router.ts\";\n",
			"README.md": "See https://deno.land/x/oak@v11.1.0/mod.ts.\n",
		})
		registry := newDenoRegistry(map[string][]string{"oak": {"v12.1.0"}})
		cmd := newGetUpdates(registry).WithConcurrency(2)

		// when
		updates, err := cmd.Execute(context.Background(), api, repo, entities.UpdateOptions{})

		// then
		require.NoError(t, err)
		assert.Len(t, updates, 3)
		assert.Equal(t, 1, registry.Calls("oak"))
		for _, update := range updates {
			if update.Path == "README.md" {
				assert.Equal(t, entities.CommitTypeDocs, update.Type)
			}
		}
	})

	t.Run("should look up a module once and rewrite every occurrence in one file", func(t *testing.T) {
		t.Parallel()

		// given
		content := "import \"https://deno.land/x/oak@v11.1.0/mod.ts\";\n" +
			"export * from \"https://deno.land/x/oak@v11.1.0/mod.ts\";\n"
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{"deps.ts": content})
		registry := newDenoRegistry(map[string][]string{"oak": {"v12.1.0"}})
		cmd := newGetUpdates(registry)

		// when
		updates, err := cmd.Execute(context.Background(), api, repo, entities.UpdateOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Equal(t, 1, registry.Calls("oak"))
		assert.Equal(t,
			"import \"https://deno.land/x/oak@v12.1.0/mod.ts\";\n"+
				"export * from \"https://deno.land/x/oak@v12.1.0/mod.ts\";\n",
			updates[0].Content(content),
		)
	})

	t.Run("should skip references marked as ignored", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{
			"deps.ts": "import \"https://deno.land/x/oak@v11.1.0/mod.ts\"; // @pinbump ignore\n" +
				"// @pinbump ignore-start\n" +
				"export const a = \"0.158.0\"; // @pinbump denoland/deno_std\n" +
				"// @pinbump ignore-end\n",
		})
		api.Releases["denoland/deno_std"] = "0.160.0"
		registry := newDenoRegistry(map[string][]string{"oak": {"v12.1.0"}})
		cmd := newGetUpdates(registry)

		// when
		updates, err := cmd.Execute(context.Background(), api, repo, entities.UpdateOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, updates)
	})

	t.Run("should not emit an update when the pin is already the latest", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{"deps.ts": denoStdLines})
		api.Releases["denoland/deno_std"] = "0.158.0"
		cmd := newGetUpdates(nil)

		// when
		updates, err := cmd.Execute(context.Background(), api, repo, entities.UpdateOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, updates)
	})

	t.Run("should use the release override without looking up the dependency", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{"deps.ts": denoStdLines})
		api.Releases["denoland/deno_std"] = "0.160.0"
		cmd := newGetUpdates(nil)
		opts := entities.UpdateOptions{
			Release: &entities.UpdateSpec{Name: "deno_std", Target: "0.170.0"},
		}

		// when
		updates, err := cmd.Execute(context.Background(), api, repo, opts)

		// then
		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Equal(t, "0.170.0", updates[0].Spec.Target)
		assert.Zero(t, api.GetLatestReleaseCalls["denoland/deno_std"])
	})

	t.Run("should skip dependencies whose lookup fails", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{
			"deps.ts": denoStdLines + "export const c = \"1.0.0\"; // @pinbump owner/tool\n",
		})
		api.ReleaseErrs["denoland/deno_std"] = errors.New("rate limited")
		api.Releases["owner/tool"] = "1.1.0"
		cmd := newGetUpdates(nil)

		// when
		updates, err := cmd.Execute(context.Background(), api, repo, entities.UpdateOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Equal(t, "owner/tool", updates[0].Spec.Name)
	})

	t.Run("should only scan paths selected by the filters", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{
			"deps.ts":   denoStdLines,
			"README.md": "Pinned to 0.158.0 <!-- @pinbump denoland/deno_std -->\n",
		})
		api.Releases["denoland/deno_std"] = "0.160.0"
		cmd := newGetUpdates(nil)
		opts := entities.UpdateOptions{Exclude: []string{"*.md"}}

		// when
		updates, err := cmd.Execute(context.Background(), api, repo, opts)

		// then
		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Equal(t, "deps.ts", updates[0].Path)
	})

	t.Run("should reject an empty path pattern", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{"deps.ts": denoStdLines})
		cmd := newGetUpdates(nil)
		opts := entities.UpdateOptions{Include: []string{" "}}

		// when
		_, err := cmd.Execute(context.Background(), api, repo, opts)

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrInvalidPattern)
	})

	t.Run("should fail when the configured base branch is missing", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{})
		cmd := newGetUpdates(nil)

		// when
		_, err := cmd.Execute(context.Background(), api, repo, entities.UpdateOptions{BaseBranch: "develop"})

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("should propagate tree failures", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{"deps.ts": denoStdLines})
		api.GetTreeFailures = 1
		api.GetTreeErr = entities.ErrUnauthorized
		cmd := newGetUpdates(nil)

		// when
		updates, err := cmd.Execute(context.Background(), api, repo, entities.UpdateOptions{})

		// then
		require.ErrorIs(t, err, entities.ErrUnauthorized)
		assert.Nil(t, updates)
	})
}

func TestMatchesOverride(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		override *entities.UpdateSpec
		dep      string
		expected bool
	}{
		{name: "should not match without override", override: nil, dep: "denoland/deno_std", expected: false},
		{name: "should not match an empty name", override: &entities.UpdateSpec{Target: "1.0.0"}, dep: "denoland/deno_std", expected: false},
		{name: "should match a contained name", override: &entities.UpdateSpec{Name: "deno_std"}, dep: "denoland/deno_std", expected: true},
		{name: "should not match another dependency", override: &entities.UpdateSpec{Name: "oak"}, dep: "denoland/deno_std", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			override := tt.override

			// when
			result := commands.MatchesOverride(override, tt.dep)

			// then
			assert.Equal(t, tt.expected, result)
		})
	}
}
