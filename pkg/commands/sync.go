// Package commands implements mdrive's operations behind the CLI:
// options in, result out, cobra stays thin.
package commands

import (
	"os"
	"path/filepath"

	"github.com/calebhs/mdrive/pkg/checksum"
	"github.com/calebhs/mdrive/pkg/errors"
	"github.com/calebhs/mdrive/pkg/filter"
	"github.com/calebhs/mdrive/pkg/index"
	"github.com/calebhs/mdrive/pkg/logging"
	"github.com/calebhs/mdrive/pkg/paths"
	"github.com/calebhs/mdrive/pkg/prune"
	"github.com/calebhs/mdrive/pkg/sync"
)

// SyncOptions configures a sync run. Relative IncludeFile,
// OrganizedDir and ShuffledDir values are resolved against DriveRoot.
type SyncOptions struct {
	LibraryRoot    string
	DriveRoot      string
	IncludeFile    string
	OrganizedDir   string
	ShuffledDir    string
	IndexFile      string // empty selects the XDG default
	DeleteExcluded bool
	DryRun         bool
}

// SyncResult reports what a run did.
type SyncResult struct {
	Stats        sync.Stats
	Pruned       int
	Destinations int
	DryRun       bool
}

// Sync runs one full reconciliation: filter compile, library walk,
// idempotent copies, and (when enabled) the prune pass, strictly in
// that order.
func Sync(opts SyncOptions) (*SyncResult, error) {
	logger := logging.GetLogger("commands.sync")

	libraryRoot, err := filepath.Abs(opts.LibraryRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "bad library path %s", opts.LibraryRoot)
	}
	if fi, err := os.Stat(libraryRoot); err != nil || !fi.IsDir() {
		return nil, errors.Newf(errors.ErrLibraryMissing, "library root %s does not exist or is not a directory", libraryRoot)
	}

	includePath := resolveAgainst(opts.DriveRoot, opts.IncludeFile)
	organizedRoot := resolveAgainst(opts.DriveRoot, opts.OrganizedDir)
	shuffledRoot := resolveAgainst(opts.DriveRoot, opts.ShuffledDir)
	indexFile := opts.IndexFile
	if indexFile == "" {
		indexFile = paths.IndexFile()
	}

	// Rule problems must surface before anything is copied.
	filters, err := filter.Load(includePath)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Int("rules", len(filters.Rules())).
		Str("includeFile", includePath).
		Msg("Filters compiled")

	if !opts.DryRun {
		for _, root := range []string{organizedRoot, shuffledRoot} {
			if err := os.MkdirAll(root, 0755); err != nil {
				return nil, errors.Wrapf(err, errors.ErrDirCreate, "cannot create destination root %s", root)
			}
		}
	}

	hasher := checksum.NewHasher()
	var ix *index.Index
	if opts.DryRun {
		ix, err = index.OpenReadOnly(indexFile, hasher)
	} else {
		ix, err = index.Open(indexFile, hasher)
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ix.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close index")
		}
	}()

	engine := sync.New(filters, ix, libraryRoot, organizedRoot, shuffledRoot, opts.DryRun)
	dests, stats, err := engine.Run()
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		Stats:        stats,
		Destinations: len(dests),
		DryRun:       opts.DryRun,
	}

	if opts.DeleteExcluded {
		pruner := prune.New(opts.DryRun)
		pruned, err := pruner.Run(dests, organizedRoot, shuffledRoot)
		if err != nil {
			return nil, err
		}
		result.Pruned = pruned
	}

	return result, nil
}

func resolveAgainst(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
