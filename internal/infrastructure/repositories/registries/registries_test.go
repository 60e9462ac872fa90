//go:build unit

package registries_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
	"github.com/rios0rios0/pinbump/internal/infrastructure/repositories/registries"
)

// serveJSON answers the escaped paths of routes with their JSON body.
func serveJSON(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.EscapedPath()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDenoLandRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should parse standard library and third party URLs", func(t *testing.T) {
		t.Parallel()

		// given
		registry := registries.NewDenoLandRegistry(registries.NewFetcherWithClient(http.DefaultClient))

		// when
		std, stdErr := registry.Parse("https://deno.land/std@0.158.0/http/server.ts")
		oak, oakErr := registry.Parse("https://deno.land/x/oak@v11.1.0/mod.ts")

		// then
		require.NoError(t, stdErr)
		require.NoError(t, oakErr)
		assert.Equal(t, "deno.land/std", std.Name)
		assert.Equal(t, "0.158.0", std.Version)
		assert.Equal(t, "deno.land/x/oak", oak.Name)
		assert.Equal(t, "v11.1.0", oak.Version)
	})

	t.Run("should not match unversioned URLs", func(t *testing.T) {
		t.Parallel()

		// given
		registry := registries.NewDenoLandRegistry(registries.NewFetcherWithClient(http.DefaultClient))

		// when
		matched := registry.Match("https://deno.land/x/oak/mod.ts")

		// then
		assert.False(t, matched)
	})

	t.Run("should list versions newest first", func(t *testing.T) {
		t.Parallel()

		// given
		server := serveJSON(t, map[string]string{
			"/oak/meta/versions.json": `{"latest":"v12.1.0","versions":["v11.1.0","v12.1.0","v12.0.0","nightly"]}`,
		})
		registry := registries.NewDenoLandRegistry(registries.NewFetcherWithClient(server.Client())).
			WithMetaBase(server.URL)

		// when
		versions, err := registry.Versions(context.Background(), "deno.land/x/oak")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"v12.1.0", "v12.0.0", "v11.1.0"}, versions)
	})

	t.Run("should report a missing module", func(t *testing.T) {
		t.Parallel()

		// given
		server := serveJSON(t, map[string]string{})
		registry := registries.NewDenoLandRegistry(registries.NewFetcherWithClient(server.Client())).
			WithMetaBase(server.URL)

		// when
		_, err := registry.Versions(context.Background(), "deno.land/x/missing")

		// then
		require.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("should point the URL at the target version", func(t *testing.T) {
		t.Parallel()

		// given
		registry := registries.NewDenoLandRegistry(registries.NewFetcherWithClient(http.DefaultClient))
		ref, err := registry.Parse("https://deno.land/std@0.158.0/http/server.ts")
		require.NoError(t, err)

		// when
		url := registry.At(ref, "0.160.0")

		// then
		assert.Equal(t, "https://deno.land/std@0.160.0/http/server.ts", url)
	})
}

func TestNpmCDNRegistry(t *testing.T) {
	t.Parallel()

	newRegistry := func(fetcher *registries.Fetcher) *registries.NpmCDNRegistry {
		return registries.NewNpmCDNRegistry("esm.sh", "https://esm.sh/", fetcher)
	}

	tests := []struct {
		name    string
		url     string
		pkg     string
		version string
	}{
		{name: "should parse a bare package", url: "https://esm.sh/preact@10.11.0", pkg: "preact", version: "10.11.0"},
		{name: "should parse a package path", url: "https://esm.sh/preact@10.11.0/hooks", pkg: "preact", version: "10.11.0"},
		{name: "should parse a query", url: "https://esm.sh/react@18.2.0?dev", pkg: "react", version: "18.2.0"},
		{name: "should parse a scoped package", url: "https://esm.sh/@preact/signals@1.1.0/", pkg: "@preact/signals", version: "1.1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			registry := newRegistry(registries.NewFetcherWithClient(http.DefaultClient))

			// when
			ref, err := registry.Parse(tt.url)

			// then
			require.NoError(t, err)
			assert.Equal(t, tt.pkg, ref.Name)
			assert.Equal(t, tt.version, ref.Version)
		})
	}

	t.Run("should not match other hosts or unpinned packages", func(t *testing.T) {
		t.Parallel()

		// given
		registry := newRegistry(registries.NewFetcherWithClient(http.DefaultClient))

		// when
		otherHost := registry.Match("https://unpkg.com/preact@10.11.0")
		unpinned := registry.Match("https://esm.sh/preact")

		// then
		assert.False(t, otherHost)
		assert.False(t, unpinned)
	})

	t.Run("should list the published versions newest first", func(t *testing.T) {
		t.Parallel()

		// given
		server := serveJSON(t, map[string]string{
			"/@preact%2Fsignals": `{"versions":{"1.0.0":{},"1.1.0":{},"1.2.0-next.1":{}}}`,
		})
		registry := newRegistry(registries.NewFetcherWithClient(server.Client())).WithRegistryBase(server.URL)

		// when
		versions, err := registry.Versions(context.Background(), "@preact/signals")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"1.2.0-next.1", "1.1.0", "1.0.0"}, versions)
	})

	t.Run("should rewrite only the package version", func(t *testing.T) {
		t.Parallel()

		// given
		registry := newRegistry(registries.NewFetcherWithClient(http.DefaultClient))
		ref, err := registry.Parse("https://esm.sh/@preact/signals@1.1.0/dist/signals.js")
		require.NoError(t, err)

		// when
		url := registry.At(ref, "1.2.0")

		// then
		assert.Equal(t, "https://esm.sh/@preact/signals@1.2.0/dist/signals.js", url)
	})
}

func TestGitHubCDNRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should parse and rewrite a raw GitHub URL", func(t *testing.T) {
		t.Parallel()

		// given
		registry := registries.NewRawGitHubRegistry(registries.NewFetcherWithClient(http.DefaultClient))
		url := "https://raw.githubusercontent.com/owner/repo/v1.0.0/src/mod.ts"

		// when
		ref, err := registry.Parse(url)

		// then
		require.NoError(t, err)
		assert.Equal(t, "owner/repo", ref.Name)
		assert.Equal(t, "v1.0.0", ref.Version)
		assert.Equal(t, "https://raw.githubusercontent.com/owner/repo/v1.1.0/src/mod.ts", registry.At(ref, "1.1.0"))
	})

	t.Run("should parse and rewrite a jsDelivr GitHub URL", func(t *testing.T) {
		t.Parallel()

		// given
		registry := registries.NewJsDelivrGitHubRegistry(registries.NewFetcherWithClient(http.DefaultClient))
		url := "https://cdn.jsdelivr.net/gh/owner/repo@1.0.0/dist/lib.js"

		// when
		ref, err := registry.Parse(url)

		// then
		require.NoError(t, err)
		assert.Equal(t, "owner/repo", ref.Name)
		assert.Equal(t, "https://cdn.jsdelivr.net/gh/owner/repo@1.1.0/dist/lib.js", registry.At(ref, "v1.1.0"))
	})

	t.Run("should list tags from the data API", func(t *testing.T) {
		t.Parallel()

		// given
		server := serveJSON(t, map[string]string{
			"/owner/repo": `{"tags":{},"versions":["1.0.0","1.1.0","0.9.0"]}`,
		})
		registry := registries.NewJsDelivrGitHubRegistry(registries.NewFetcherWithClient(server.Client())).
			WithAPIBase(server.URL)

		// when
		versions, err := registry.Versions(context.Background(), "owner/repo")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"1.1.0", "1.0.0", "0.9.0"}, versions)
	})
}

func TestNewDefaultRegistries(t *testing.T) {
	t.Parallel()

	t.Run("should register every supported host", func(t *testing.T) {
		t.Parallel()

		// given
		fetcher := registries.NewFetcher()

		// when
		all := registries.NewDefaultRegistries(fetcher)

		// then
		names := make([]string, 0, len(all))
		for _, registry := range all {
			names = append(names, registry.Name())
		}
		assert.Equal(t, []string{
			"deno.land", "esm.sh", "unpkg.com", "cdn.skypack.dev",
			"cdn.jsdelivr.net/npm", "cdn.jsdelivr.net/gh", "raw.githubusercontent.com",
		}, names)
	})
}

func TestFetcherGetJSON(t *testing.T) {
	t.Parallel()

	t.Run("should fail on an unexpected status", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(server.Close)
		fetcher := registries.NewFetcherWithClient(server.Client())
		var target map[string]any

		// when
		err := fetcher.GetJSON(context.Background(), server.URL, &target)

		// then
		require.Error(t, err)
		assert.NotErrorIs(t, err, entities.ErrNotFound)
	})
}
