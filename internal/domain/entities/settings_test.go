//go:build unit

package entities_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

func TestParseSettings(t *testing.T) {
	t.Parallel()

	t.Run("should parse a complete configuration", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte(`
token: inline-token
privileged: true
branch: deps
labels: [dependencies]
author:
  name: release-bot
  email: release-bot@example.com
concurrency: 2
retry:
  max_attempts: 5
repositories:
  - name: denoland/deno_std
    base: main
    include: ["*.ts"]
    exclude: ["vendor/"]
  - name: owner/site
    branch: site-deps
    labels: [docs]
auto_merge:
  login: release-bot
  label: ship-it
  listen: ":9000"
`)

		// when
		settings, err := entities.ParseSettings(data)

		// then
		require.NoError(t, err)
		assert.Equal(t, "inline-token", settings.Token)
		assert.True(t, settings.Privileged)
		assert.Equal(t, 2, settings.Concurrency)
		assert.Equal(t, 5, settings.Retry.MaxAttempts)
		require.Len(t, settings.Repositories, 2)
		assert.Equal(t, []string{"*.ts"}, settings.Repositories[0].Include)
		assert.Equal(t, "ship-it", settings.AutoMerge.Label)
		assert.Equal(t, ":9000", settings.AutoMerge.Listen)
		assert.Equal(t, entities.DefaultMarker, settings.Marker)
	})

	t.Run("should fill defaults for an empty configuration", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte("{}")

		// when
		settings, err := entities.ParseSettings(data)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.DefaultBranchName, settings.Branch)
		assert.Equal(t, entities.DefaultConcurrency, settings.Concurrency)
		assert.Equal(t, entities.DefaultRetryAttempts, settings.Retry.MaxAttempts)
		assert.Equal(t, entities.DefaultAutoMergeLogin, settings.AutoMerge.Login)
		assert.Equal(t, entities.DefaultAutoMergeLabel, settings.AutoMerge.Label)
		assert.Equal(t, entities.DefaultListenAddress, settings.AutoMerge.Listen)
		assert.Equal(t, entities.DefaultAuthor(), settings.CommitAuthor())
	})

	t.Run("should reject a malformed repository name", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte("repositories:\n  - name: just-a-name\n")

		// when
		_, err := entities.ParseSettings(data)

		// then
		require.ErrorIs(t, err, entities.ErrInvalidRepository)
	})

	t.Run("should reject an empty path pattern", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte("repositories:\n  - name: owner/repo\n    exclude: [\"\"]\n")

		// when
		_, err := entities.ParseSettings(data)

		// then
		require.Error(t, err)
	})

	t.Run("should reject invalid YAML", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte("repositories: [")

		// when
		_, err := entities.ParseSettings(data)

		// then
		require.Error(t, err)
	})

	t.Run("should read the token from a file", func(t *testing.T) {
		t.Parallel()

		// given
		tokenFile := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("file-token\n"), 0o600))
		data := []byte("token: " + tokenFile + "\n")

		// when
		settings, err := entities.ParseSettings(data)

		// then
		require.NoError(t, err)
		assert.Equal(t, "file-token", settings.Token)
	})
}

//nolint:paralleltest // mutates the process environment
func TestParseSettingsExpandsEnvironment(t *testing.T) {
	t.Run("should expand environment variables in secrets", func(t *testing.T) {
		// given
		t.Setenv("PINBUMP_TEST_TOKEN", "env-token")
		t.Setenv("PINBUMP_TEST_SECRET", "env-secret")
		data := []byte("token: ${PINBUMP_TEST_TOKEN}\nauto_merge:\n  webhook_secret: ${PINBUMP_TEST_SECRET}\n")

		// when
		settings, err := entities.ParseSettings(data)

		// then
		require.NoError(t, err)
		assert.Equal(t, "env-token", settings.Token)
		assert.Equal(t, "env-secret", settings.AutoMerge.WebhookSecret)
	})
}

func TestNewSettings(t *testing.T) {
	t.Parallel()

	t.Run("should load a settings file", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), ".pinbump.yaml")
		require.NoError(t, os.WriteFile(path, []byte("branch: bump\n"), 0o600))

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "bump", settings.Branch)
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "missing.yaml")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.Error(t, err)
	})
}

func TestSettingsUpdateOptionsFor(t *testing.T) {
	t.Parallel()

	t.Run("should merge the repository entry over the global settings", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.DefaultSettings()
		settings.Labels = []string{"dependencies"}
		settings.Privileged = true
		repo := entities.RepositoryConfig{
			Name:    "owner/site",
			Base:    "develop",
			Include: []string{"*.md"},
			Labels:  []string{"docs"},
		}

		// when
		opts := settings.UpdateOptionsFor(repo)

		// then
		assert.Equal(t, "develop", opts.BaseBranch)
		assert.Equal(t, entities.DefaultBranchName, opts.WorkingBranch())
		assert.Equal(t, []string{"*.md"}, opts.Include)
		assert.Equal(t, []string{"docs"}, opts.Labels)
		assert.True(t, opts.Privileged)
		assert.Equal(t, entities.DefaultAuthor(), opts.Committer())
	})

	t.Run("should fall back to the global labels and branch", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.DefaultSettings()
		settings.Branch = "deps"
		settings.Labels = []string{"dependencies"}

		// when
		opts := settings.UpdateOptionsFor(entities.RepositoryConfig{Name: "owner/repo"})

		// then
		assert.Equal(t, "deps", opts.Branch)
		assert.Equal(t, []string{"dependencies"}, opts.Labels)
		assert.Empty(t, opts.BaseBranch)
	})
}
