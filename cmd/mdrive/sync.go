package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calebhs/mdrive/pkg/commands"
	"github.com/calebhs/mdrive/pkg/config"
	"github.com/calebhs/mdrive/pkg/style"
)

func newSyncCmd(dryRun *bool) *cobra.Command {
	var (
		includeFile    string
		organizedDir   string
		shuffledDir    string
		indexFile      string
		deleteExcluded bool
	)

	cmd := &cobra.Command{
		Use:   "sync <library> <drive-folder>",
		Short: "Reconcile the drive against the library and rule file",
		Long: `Walks the library, applies the rule file and copies every included
file into the organized and/or shuffled layout on the drive. Files
already on the drive are left alone. With --delete-excluded-files,
drive files no rule includes anymore are removed after all copies.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, drive := args[0], args[1]

			cfg, err := config.Load(drive)
			if err != nil {
				return err
			}

			// Flags beat the drive config only when actually set.
			opts := commands.SyncOptions{
				LibraryRoot:    library,
				DriveRoot:      drive,
				IncludeFile:    cfg.IncludeFile,
				OrganizedDir:   cfg.OrganizedDir,
				ShuffledDir:    cfg.ShuffledDir,
				IndexFile:      cfg.IndexFile,
				DeleteExcluded: cfg.DeleteExcluded,
				DryRun:         *dryRun,
			}
			if cmd.Flags().Changed("include-file") {
				opts.IncludeFile = includeFile
			}
			if cmd.Flags().Changed("organized-dir") {
				opts.OrganizedDir = organizedDir
			}
			if cmd.Flags().Changed("shuffled-dir") {
				opts.ShuffledDir = shuffledDir
			}
			if cmd.Flags().Changed("index-file") {
				opts.IndexFile = indexFile
			}
			if cmd.Flags().Changed("delete-excluded-files") {
				opts.DeleteExcluded = deleteExcluded
			}

			result, err := commands.Sync(opts)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), style.RenderSummary(result))
			return nil
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVar(&includeFile, "include-file", defaults.IncludeFile,
		"Rule file, relative to the drive folder")
	cmd.Flags().StringVar(&organizedDir, "organized-dir", defaults.OrganizedDir,
		"Directory for the library-mirroring layout, relative to the drive folder")
	cmd.Flags().StringVar(&shuffledDir, "shuffled-dir", defaults.ShuffledDir,
		"Directory for the flattened layout, relative to the drive folder")
	cmd.Flags().StringVar(&indexFile, "index-file", "",
		"Index database location (default: $XDG_DATA_HOME/mdrive/index.db)")
	cmd.Flags().BoolVar(&deleteExcluded, "delete-excluded-files", false,
		"Delete drive files that no rule includes anymore")

	return cmd
}
