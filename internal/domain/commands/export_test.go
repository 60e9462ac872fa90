package commands

import (
	"time"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

// ParseRemoteURL exports parseRemoteURL for testing.
var ParseRemoteURL = parseRemoteURL //nolint:gochecknoglobals // test export

// ResolveTokenFromEnv exports resolveTokenFromEnv for testing.
var ResolveTokenFromEnv = resolveTokenFromEnv //nolint:gochecknoglobals // test export

// TokenEnvHint exports tokenEnvHint for testing.
var TokenEnvHint = tokenEnvHint //nolint:gochecknoglobals // test export

// ReleaseTitle exports releaseTitle for testing.
var ReleaseTitle = releaseTitle //nolint:gochecknoglobals // test export

// MatchesOverride exports matchesOverride for testing.
var MatchesOverride = matchesOverride //nolint:gochecknoglobals // test export

// GroupMessages returns the commit message of every dependency group, in order.
func GroupMessages(updates []entities.Update) []string {
	groups := groupByDependency(updates)
	messages := make([]string, 0, len(groups))
	for _, group := range groups {
		messages = append(messages, groupMessage(group))
	}
	return messages
}

// SetRetryInterval shortens the backoff of the scan phase for testing.
func SetRetryInterval(cmd *RunCommand, interval time.Duration) {
	cmd.retryInterval = interval
}
