package registries

import (
	domainRepos "github.com/rios0rios0/pinbump/internal/domain/repositories"
)

// NewDefaultRegistries returns every supported registry in dispatch order.
func NewDefaultRegistries(fetcher *Fetcher) []domainRepos.ModuleRegistry {
	return []domainRepos.ModuleRegistry{
		NewDenoLandRegistry(fetcher),
		NewNpmCDNRegistry("esm.sh", "https://esm.sh/", fetcher),
		NewNpmCDNRegistry("unpkg.com", "https://unpkg.com/", fetcher),
		NewNpmCDNRegistry("cdn.skypack.dev", "https://cdn.skypack.dev/", fetcher),
		NewNpmCDNRegistry("cdn.jsdelivr.net/npm", "https://cdn.jsdelivr.net/npm/", fetcher),
		NewJsDelivrGitHubRegistry(fetcher),
		NewRawGitHubRegistry(fetcher),
	}
}
