//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/pinbump/internal/domain/commands"
	"github.com/rios0rios0/pinbump/internal/domain/entities"
	"github.com/rios0rios0/pinbump/internal/domain/repositories"
)

// SpyGetUpdates returns canned updates and fails the first Failures calls.
type SpyGetUpdates struct {
	mu sync.Mutex

	Updates  []entities.Update
	Err      error
	Failures int

	Calls []entities.Repository
}

var _ commands.GetUpdates = (*SpyGetUpdates)(nil)

func (s *SpyGetUpdates) Execute(
	_ context.Context,
	_ repositories.RepositoryAPI,
	repo entities.Repository,
	_ entities.UpdateOptions,
) ([]entities.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, repo)
	if len(s.Calls) <= s.Failures {
		return nil, s.Err
	}
	if s.Failures == 0 && s.Err != nil {
		return nil, s.Err
	}
	return s.Updates, nil
}

// CallCount returns the number of Execute calls.
func (s *SpyGetUpdates) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// SpyCreateCommits records the updates it receives.
type SpyCreateCommits struct {
	mu sync.Mutex

	Commits []entities.Commit
	Err     error

	Received [][]entities.Update
	Opts     []entities.UpdateOptions
}

var _ commands.CreateCommits = (*SpyCreateCommits)(nil)

func (s *SpyCreateCommits) Execute(
	_ context.Context,
	_ repositories.RepositoryAPI,
	_ entities.Repository,
	updates []entities.Update,
	opts entities.UpdateOptions,
) ([]entities.Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Received = append(s.Received, updates)
	s.Opts = append(s.Opts, opts)
	return s.Commits, s.Err
}

// CallCount returns the number of Execute calls.
func (s *SpyCreateCommits) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Received)
}

// SpyCreatePullRequest returns a canned pull request.
type SpyCreatePullRequest struct {
	mu sync.Mutex

	PullRequest *entities.PullRequest
	Err         error

	Calls int
}

var _ commands.CreatePullRequest = (*SpyCreatePullRequest)(nil)

func (s *SpyCreatePullRequest) Execute(
	_ context.Context,
	_ repositories.RepositoryAPI,
	_ entities.Repository,
	_ entities.UpdateOptions,
) (*entities.PullRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	return s.PullRequest, s.Err
}

// CallCount returns the number of Execute calls.
func (s *SpyCreatePullRequest) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}

// SpyAutoMerge records the events it receives.
type SpyAutoMerge struct {
	mu sync.Mutex

	Decisions []entities.MergeDecision
	Err       error

	Events []entities.CheckSuiteEvent
	Opts   []commands.AutoMergeOptions
}

var _ commands.AutoMerge = (*SpyAutoMerge)(nil)

func (s *SpyAutoMerge) Execute(
	_ context.Context,
	_ repositories.RepositoryAPI,
	event entities.CheckSuiteEvent,
	opts commands.AutoMergeOptions,
) ([]entities.MergeDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, event)
	s.Opts = append(s.Opts, opts)
	return s.Decisions, s.Err
}

// ReceivedEvents returns a copy of the received events.
func (s *SpyAutoMerge) ReceivedEvents() []entities.CheckSuiteEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.CheckSuiteEvent(nil), s.Events...)
}
