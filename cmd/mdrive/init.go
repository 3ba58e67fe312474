package main

import (
	"github.com/spf13/cobra"

	"github.com/calebhs/mdrive/pkg/commands"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <drive-folder>",
		Short: "Prepare a drive folder with a default config and rule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.Init(args[0])
		},
	}
}
