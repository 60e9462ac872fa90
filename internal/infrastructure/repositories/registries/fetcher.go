// Package registries implements the module registries recognized in import
// URLs: deno.land, the npm CDNs and the GitHub CDNs.
package registries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

const (
	defaultRetryMax = 3
	defaultTimeout  = 30 * time.Second
)

// Fetcher downloads registry metadata with bounded transport retries.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher backed by a retrying HTTP client.
func NewFetcher() *Fetcher {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = defaultRetryMax
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = defaultTimeout
	return &Fetcher{client: retryClient.StandardClient()}
}

// NewFetcherWithClient wraps a plain HTTP client, mostly for tests.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// GetJSON decodes the JSON document at url into target.
func (f *Fetcher) GetJSON(ctx context.Context, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %q: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %q: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", entities.ErrNotFound, url)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d from %q", resp.StatusCode, url)
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(target); decodeErr != nil {
		return fmt.Errorf("failed to decode %q: %w", url, decodeErr)
	}
	return nil
}

// sortVersionsDescending orders valid versions newest first and drops the rest.
func sortVersionsDescending(versions []string) []string {
	valid := make([]string, 0, len(versions))
	for _, version := range versions {
		if entities.IsValidVersion(version) {
			valid = append(valid, version)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return entities.CompareVersions(valid[i], valid[j]) > 0
	})
	return valid
}
