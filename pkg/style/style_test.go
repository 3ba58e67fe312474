// Test Type: Unit Test
// Description: Tests for the style package - summary rendering

package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calebhs/mdrive/pkg/commands"
	"github.com/calebhs/mdrive/pkg/style"
	"github.com/calebhs/mdrive/pkg/sync"
)

func TestRenderSummary(t *testing.T) {
	t.Run("clean_run", func(t *testing.T) {
		out := style.RenderSummary(&commands.SyncResult{
			Stats:        sync.Stats{Copied: 3, Skipped: 5},
			Pruned:       1,
			Destinations: 8,
		})
		assert.Contains(t, out, "Sync complete")
		assert.Contains(t, out, "3")
		assert.Contains(t, out, "8 files on drive")
		assert.NotContains(t, out, "failed")
	})

	t.Run("failures_are_called_out", func(t *testing.T) {
		out := style.RenderSummary(&commands.SyncResult{
			Stats: sync.Stats{Copied: 1, Failed: 2},
		})
		assert.Contains(t, out, "failed")
	})

	t.Run("dry_run_header", func(t *testing.T) {
		out := style.RenderSummary(&commands.SyncResult{DryRun: true})
		assert.Contains(t, out, "Dry run")
	})
}
