// Package prune deletes destination files that are no longer part of
// the required output set. It is the only destructive operation in
// mdrive and runs strictly after reconciliation has recorded every
// destination of the current run.
package prune

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/calebhs/mdrive/pkg/errors"
	"github.com/calebhs/mdrive/pkg/logging"
	"github.com/calebhs/mdrive/pkg/sync"
)

// Engine removes stale files under the destination roots.
type Engine struct {
	DryRun bool
	logger zerolog.Logger
}

// New returns a prune engine.
func New(dryRun bool) *Engine {
	return &Engine{
		DryRun: dryRun,
		logger: logging.GetLogger("prune"),
	}
}

// Run walks each destination root and deletes every regular file not
// present in keep. Directories are never deleted. Returns the number
// of files removed (or that would be removed, in a dry run).
func (e *Engine) Run(keep sync.DestinationSet, roots ...string) (int, error) {
	deleted := 0
	for _, root := range roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return errors.Wrapf(err, errors.ErrFileAccess, "cannot walk %s", path)
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if keep.Contains(path) {
				return nil
			}

			if e.DryRun {
				e.logger.Info().Str("path", path).Msg("Would delete")
				deleted++
				return nil
			}

			e.logger.Debug().Str("path", path).Msg("Deleting")
			if err := os.Remove(path); err != nil {
				return errors.Wrapf(err, errors.ErrFileAccess, "cannot delete %s", path)
			}
			deleted++
			return nil
		})
		if err != nil {
			return deleted, err
		}
	}

	e.logger.Info().Int("deleted", deleted).Msg("Prune complete")
	return deleted, nil
}
