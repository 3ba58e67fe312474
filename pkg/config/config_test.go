// Test Type: Unit Test
// Description: Tests for the config package - default layering and drive overrides

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebhs/mdrive/pkg/config"
	"github.com/calebhs/mdrive/pkg/errors"
)

func TestLoad(t *testing.T) {
	t.Run("defaults_without_drive_config", func(t *testing.T) {
		cfg, err := config.Load(t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, "include.txt", cfg.IncludeFile)
		assert.Equal(t, "organized", cfg.OrganizedDir)
		assert.Equal(t, "shuffled", cfg.ShuffledDir)
		assert.Equal(t, "", cfg.IndexFile)
		assert.False(t, cfg.DeleteExcluded)
	})

	t.Run("drive_config_overrides_defaults", func(t *testing.T) {
		drive := t.TempDir()
		content := "include_file = \"music.rules\"\ndelete_excluded = true\n"
		require.NoError(t, os.WriteFile(filepath.Join(drive, ".mdrive.toml"), []byte(content), 0644))

		cfg, err := config.Load(drive)
		require.NoError(t, err)

		assert.Equal(t, "music.rules", cfg.IncludeFile)
		assert.True(t, cfg.DeleteExcluded)
		// Untouched keys keep their defaults.
		assert.Equal(t, "organized", cfg.OrganizedDir)
	})

	t.Run("dotless_name_is_probed_too", func(t *testing.T) {
		drive := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(drive, "mdrive.toml"), []byte("shuffled_dir = \"mix\"\n"), 0644))

		cfg, err := config.Load(drive)
		require.NoError(t, err)
		assert.Equal(t, "mix", cfg.ShuffledDir)
	})

	t.Run("broken_toml_is_config_parse_error", func(t *testing.T) {
		drive := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(drive, ".mdrive.toml"), []byte("include_file = [broken"), 0644))

		_, err := config.Load(drive)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
	})

	t.Run("identical_layout_dirs_rejected", func(t *testing.T) {
		drive := t.TempDir()
		content := "organized_dir = \"music\"\nshuffled_dir = \"music\"\n"
		require.NoError(t, os.WriteFile(filepath.Join(drive, ".mdrive.toml"), []byte(content), 0644))

		_, err := config.Load(drive)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
	})
}

func TestWriteDefault(t *testing.T) {
	t.Run("writes_loadable_defaults", func(t *testing.T) {
		drive := t.TempDir()
		path := filepath.Join(drive, ".mdrive.toml")
		require.NoError(t, config.WriteDefault(path))

		cfg, err := config.Load(drive)
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("refuses_to_overwrite", func(t *testing.T) {
		drive := t.TempDir()
		path := filepath.Join(drive, ".mdrive.toml")
		require.NoError(t, os.WriteFile(path, []byte("include_file = \"mine.txt\"\n"), 0644))

		err := config.WriteDefault(path)
		require.Error(t, err)

		cfg, err := config.Load(drive)
		require.NoError(t, err)
		assert.Equal(t, "mine.txt", cfg.IncludeFile)
	})
}
