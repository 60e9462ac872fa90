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
	doubles "github.com/rios0rios0/pinbump/test/infrastructure/repositorydoubles"
)

func autoMergeFixture(runs []entities.CheckRun) *doubles.InMemoryRepositoryAPI {
	api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{})
	api.AddPullRequest(entities.PullRequest{
		Number:  3,
		Head:    entities.DefaultBranchName,
		HeadSHA: "abc",
		Author:  entities.DefaultAutoMergeLogin,
		Labels:  []string{entities.DefaultAutoMergeLabel},
	})
	api.CheckRuns["abc"] = runs
	return api
}

func completedRun(name, conclusion string) entities.CheckRun {
	return entities.CheckRun{Name: name, Status: entities.CheckStatusCompleted, Conclusion: conclusion}
}

func TestAutoMergeCommandExecute(t *testing.T) {
	t.Parallel()

	event := entities.CheckSuiteEvent{
		Repository: entities.Repository{Owner: "owner", Name: "repo"},
		HeadBranch: entities.DefaultBranchName,
		HeadSHA:    "abc",
		Conclusion: entities.CheckConclusionSuccess,
	}

	t.Run("should merge when every check run succeeded", func(t *testing.T) {
		t.Parallel()

		// given
		api := autoMergeFixture([]entities.CheckRun{
			completedRun("test", entities.CheckConclusionSuccess),
			completedRun("lint", entities.CheckConclusionSkipped),
		})
		cmd := commands.NewAutoMergeCommand()

		// when
		decisions, err := cmd.Execute(context.Background(), api, event, commands.AutoMergeOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, decisions, 1)
		assert.Equal(t, entities.MergeStateMerged, decisions[0].State)
		assert.Equal(t, []int{3}, api.MergeCalls)
	})

	t.Run("should wait while a check run is still in progress", func(t *testing.T) {
		t.Parallel()

		// given
		api := autoMergeFixture([]entities.CheckRun{
			completedRun("test", entities.CheckConclusionFailure),
			{Name: "test", Status: "in_progress"},
		})
		cmd := commands.NewAutoMergeCommand()

		// when
		decisions, err := cmd.Execute(context.Background(), api, event, commands.AutoMergeOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, decisions, 1)
		assert.Equal(t, entities.MergeStateWaiting, decisions[0].State)
		assert.Empty(t, api.MergeCalls)
	})

	t.Run("should block when a check run failed", func(t *testing.T) {
		t.Parallel()

		// given
		api := autoMergeFixture([]entities.CheckRun{
			completedRun("test", entities.CheckConclusionSuccess),
			completedRun("lint", entities.CheckConclusionFailure),
		})
		cmd := commands.NewAutoMergeCommand()

		// when
		decisions, err := cmd.Execute(context.Background(), api, event, commands.AutoMergeOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, decisions, 1)
		assert.Equal(t, entities.MergeStateBlocked, decisions[0].State)
		assert.Empty(t, api.MergeCalls)
	})

	t.Run("should block when the suite did not succeed", func(t *testing.T) {
		t.Parallel()

		// given
		api := autoMergeFixture(nil)
		failed := event
		failed.Conclusion = entities.CheckConclusionFailure
		cmd := commands.NewAutoMergeCommand()

		// when
		decisions, err := cmd.Execute(context.Background(), api, failed, commands.AutoMergeOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, decisions, 1)
		assert.Equal(t, entities.MergeStateBlocked, decisions[0].State)
		assert.Empty(t, api.ListCheckRunsCalls)
	})

	t.Run("should converge when the same event is delivered twice", func(t *testing.T) {
		t.Parallel()

		// given
		api := autoMergeFixture([]entities.CheckRun{completedRun("test", entities.CheckConclusionSuccess)})
		cmd := commands.NewAutoMergeCommand()
		_, err := cmd.Execute(context.Background(), api, event, commands.AutoMergeOptions{})
		require.NoError(t, err)

		// when
		decisions, err := cmd.Execute(context.Background(), api, event, commands.AutoMergeOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, decisions)
		assert.Equal(t, []int{3}, api.MergeCalls)
	})

	t.Run("should ignore pull requests without the opt-in label or author", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{})
		api.AddPullRequest(entities.PullRequest{
			Number: 1, Head: entities.DefaultBranchName, Author: entities.DefaultAutoMergeLogin,
		})
		api.AddPullRequest(entities.PullRequest{
			Number: 2, Head: entities.DefaultBranchName, Author: "someone",
			Labels: []string{entities.DefaultAutoMergeLabel},
		})
		cmd := commands.NewAutoMergeCommand()

		// when
		decisions, err := cmd.Execute(context.Background(), api, event, commands.AutoMergeOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, decisions)
	})

	t.Run("should honor a custom login and label", func(t *testing.T) {
		t.Parallel()

		// given
		api := doubles.NewInMemoryRepositoryAPI("main", map[string]string{})
		api.AddPullRequest(entities.PullRequest{
			Number: 5, Head: entities.DefaultBranchName, Author: "release-bot", Labels: []string{"ship-it"},
		})
		cmd := commands.NewAutoMergeCommand()
		opts := commands.AutoMergeOptions{Login: "release-bot", Label: "ship-it"}

		// when
		decisions, err := cmd.Execute(context.Background(), api, event, opts)

		// then
		require.NoError(t, err)
		require.Len(t, decisions, 1)
		assert.Equal(t, entities.MergeStateMerged, decisions[0].State)
	})

	t.Run("should stay mergeable when the forge refuses the merge", func(t *testing.T) {
		t.Parallel()

		// given
		api := autoMergeFixture([]entities.CheckRun{completedRun("test", entities.CheckConclusionSuccess)})
		api.MergeResult = &entities.MergeResult{Merged: false, Message: "Head branch was modified"}
		cmd := commands.NewAutoMergeCommand()

		// when
		decisions, err := cmd.Execute(context.Background(), api, event, commands.AutoMergeOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, decisions, 1)
		assert.Equal(t, entities.MergeStateMergeable, decisions[0].State)
		assert.Equal(t, "Head branch was modified", decisions[0].Message)
	})

	t.Run("should return merge errors", func(t *testing.T) {
		t.Parallel()

		// given
		api := autoMergeFixture([]entities.CheckRun{completedRun("test", entities.CheckConclusionSuccess)})
		api.MergeErr = errors.New("boom")
		cmd := commands.NewAutoMergeCommand()

		// when
		_, err := cmd.Execute(context.Background(), api, event, commands.AutoMergeOptions{})

		// then
		require.Error(t, err)
	})
}
