// Test Type: Unit Test
// Description: Tests for the paths package - env overrides and XDG fallbacks

package paths_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calebhs/mdrive/pkg/paths"
)

func TestIndexFile(t *testing.T) {
	t.Run("env_override_wins", func(t *testing.T) {
		t.Setenv(paths.EnvIndexFile, "/tmp/custom/index.db")
		assert.Equal(t, "/tmp/custom/index.db", paths.IndexFile())
	})

	t.Run("falls_back_to_xdg_data_dir", func(t *testing.T) {
		t.Setenv(paths.EnvIndexFile, "")
		got := paths.IndexFile()
		assert.Equal(t, paths.IndexFileName, filepath.Base(got))
		assert.Contains(t, got, paths.AppDirName)
	})
}

func TestLogFile(t *testing.T) {
	t.Run("state_dir_override", func(t *testing.T) {
		t.Setenv(paths.EnvStateDir, "/tmp/state")
		assert.Equal(t, filepath.Join("/tmp/state", paths.LogFileName), paths.LogFile())
	})

	t.Run("falls_back_to_xdg_state_dir", func(t *testing.T) {
		t.Setenv(paths.EnvStateDir, "")
		got := paths.LogFile()
		assert.Equal(t, paths.LogFileName, filepath.Base(got))
	})
}
