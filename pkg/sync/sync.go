// Package sync implements the reconciliation engine: it walks the
// library, applies the filter rules, resolves every included file to
// its canonical source through the index, and copies it into the
// destination layouts it belongs to. Copies are idempotent; a
// destination that already exists is recorded and skipped.
package sync

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/calebhs/mdrive/pkg/checksum"
	"github.com/calebhs/mdrive/pkg/errors"
	"github.com/calebhs/mdrive/pkg/filter"
	"github.com/calebhs/mdrive/pkg/fsx"
	"github.com/calebhs/mdrive/pkg/index"
	"github.com/calebhs/mdrive/pkg/logging"
)

// DestinationSet is the set of absolute destination paths that must
// exist after a run, whether freshly copied or already present. It
// lives for a single run and is never persisted.
type DestinationSet map[string]struct{}

// Add records a destination path.
func (s DestinationSet) Add(path string) {
	s[path] = struct{}{}
}

// Contains reports whether a destination path is part of the set.
func (s DestinationSet) Contains(path string) bool {
	_, ok := s[path]
	return ok
}

// Stats counts the outcome of a run.
type Stats struct {
	Copied  int // destinations newly written (or planned, in dry runs)
	Skipped int // destinations already present
	Failed  int // per-file copy failures, run continued
}

// Engine reconciles the library against the destination trees.
type Engine struct {
	Filters       *filter.Set
	Index         *index.Index
	LibraryRoot   string
	OrganizedRoot string
	ShuffledRoot  string
	DryRun        bool

	logger zerolog.Logger
}

// New returns an Engine over the given roots.
func New(filters *filter.Set, ix *index.Index, libraryRoot, organizedRoot, shuffledRoot string, dryRun bool) *Engine {
	return &Engine{
		Filters:       filters,
		Index:         ix,
		LibraryRoot:   libraryRoot,
		OrganizedRoot: organizedRoot,
		ShuffledRoot:  shuffledRoot,
		DryRun:        dryRun,
		logger:        logging.GetLogger("sync"),
	}
}

// Run walks the library and reconciles every included file. It
// returns the full destination set and run statistics. Per-file copy
// failures are logged and counted; only configuration, library and
// index errors abort the run.
func (e *Engine) Run() (DestinationSet, Stats, error) {
	dests := make(DestinationSet)
	stats := Stats{}

	e.logger.Info().Str("library", e.LibraryRoot).Msg("Scanning library")

	err := filepath.WalkDir(e.LibraryRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot walk %s", path)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(e.LibraryRoot, path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "cannot relativize %s", path)
		}

		mode, included := e.Filters.Resolve(filepath.ToSlash(rel))
		if !included {
			e.logger.Trace().Str("path", rel).Msg("Excluded by rules")
			return nil
		}

		if err := e.reconcileFile(path, mode, dests, &stats); err != nil {
			if errors.IsFatal(err) {
				return err
			}
			// Local recovery: skip this file, keep going.
			e.logger.Error().Err(err).Str("path", path).Msg("Copy failed, continuing")
			stats.Failed++
		}
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	e.logger.Info().
		Int("copied", stats.Copied).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("Reconciliation complete")
	return dests, stats, nil
}

// reconcileFile resolves one included library file and materializes
// its destination(s). Destination paths are always derived from the
// canonical path, so a renamed duplicate is copied from its live
// location exactly once.
func (e *Engine) reconcileFile(path string, mode filter.Mode, dests DestinationSet, stats *Stats) error {
	canonical, err := e.Index.Resolve(path)
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrFileAccess) {
			// The file vanished or became unreadable mid-run; same
			// recovery policy as a failed copy.
			return errors.Wrapf(err, errors.ErrCopyFailed, "cannot read source %s", path)
		}
		return err
	}

	if canonical.Path != path {
		e.logger.Debug().
			Str("path", path).
			Str("canonical", canonical.Path).
			Msg("Duplicate content, using canonical source")
	}

	if mode.Organized() {
		rel, err := filepath.Rel(e.LibraryRoot, canonical.Path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return errors.Newf(errors.ErrCopyFailed,
				"canonical source %s is outside the library root", canonical.Path)
		}
		dest := filepath.Join(e.OrganizedRoot, rel)
		if err := e.place(canonical.Path, dest, dests, stats); err != nil {
			return err
		}
	}

	if mode.Shuffled() {
		dest := filepath.Join(e.ShuffledRoot, ShuffledName(canonical.Path, canonical.Hash))
		if err := e.placeShuffled(canonical.Path, dest, dests, stats); err != nil {
			return err
		}
	}

	return nil
}

// ShuffledName flattens a source file into its shuffled basename:
// "<stem> - <8-hex-hash><ext>". Deterministic for fixed content and
// basename.
func ShuffledName(srcPath, hash string) string {
	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s - %s%s", stem, checksum.Fragment(hash), ext)
}

// place copies src to dest unless dest already exists.
func (e *Engine) place(src, dest string, dests DestinationSet, stats *Stats) error {
	if dests.Contains(dest) {
		return nil // another walked duplicate already handled it this run
	}

	if fsx.Exists(dest) {
		e.logger.Info().Str("dest", dest).Msg("Exists, skipping")
		dests.Add(dest)
		stats.Skipped++
		return nil
	}

	if e.DryRun {
		e.logger.Info().Str("src", src).Str("dest", dest).Msg("Would copy")
		dests.Add(dest)
		stats.Copied++
		return nil
	}

	e.logger.Info().Str("dest", dest).Msg("Copying")
	if err := fsx.CopyPreserving(src, dest); err != nil {
		return errors.Wrapf(err, errors.ErrCopyFailed, "copy to %s failed", dest)
	}
	dests.Add(dest)
	stats.Copied++
	return nil
}

// placeShuffled is place plus the hash-prefix collision guard: an
// existing shuffled destination whose size differs from the source
// holds different content under the same name, which the 40-bit
// fragment cannot distinguish. The existing file is kept (and kept
// out of pruning's reach), the new copy is reported as failed.
func (e *Engine) placeShuffled(src, dest string, dests DestinationSet, stats *Stats) error {
	if !dests.Contains(dest) && fsx.Exists(dest) {
		if srcSize := fsx.FileSize(src); srcSize >= 0 && fsx.FileSize(dest) != srcSize {
			dests.Add(dest)
			return errors.Newf(errors.ErrCopyFailed,
				"hash fragment collision at %s: existing file has different content", dest)
		}
	}
	return e.place(src, dest, dests, stats)
}
