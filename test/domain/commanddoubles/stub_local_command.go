//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/pinbump/internal/domain/commands"
	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

// StubLocalCommand is a stub implementation of commands.Local.
type StubLocalCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	LastOpts         commands.LocalOptions
}

var _ commands.Local = (*StubLocalCommand)(nil)

func (s *StubLocalCommand) Execute(_ context.Context, _ *entities.Settings, opts commands.LocalOptions) error {
	s.ExecuteCallCount++
	s.LastOpts = opts
	return s.ExecuteErr
}
