//go:build unit

package controllers_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
	"github.com/rios0rios0/pinbump/internal/infrastructure/controllers"
)

// exitRecorder stands in for os.Exit.
type exitRecorder struct {
	codes []int
}

func (e *exitRecorder) exit(code int) { e.codes = append(e.codes, code) }

// writeConfig writes a settings file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".pinbump.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newCommand builds a command carrying the global and controller flags,
// parsed from flags.
func newCommand(t *testing.T, controller entities.Controller, flags ...string) *cobra.Command {
	t.Helper()
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{Use: controller.GetBind().Use}
	controllers.AddGlobalFlags(cmd)
	controller.AddFlags(cmd)
	require.NoError(t, cmd.ParseFlags(flags))
	return cmd
}
