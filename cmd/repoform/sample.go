package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Report the repository's dominant format",
	Long: `Sample the designated subdirectories and report the format that new
files should be created in. Ties and empty repositories resolve to the
property-list format.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}

		pterm.Info.Printf("preferred format for %s: %s\n", repo.Root(), repo.Sample())
		return nil
	},
}
