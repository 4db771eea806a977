package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/repoform/repoform/pkg/errors"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Load every document and summarize failures",
	Long: `Read every document in the designated subdirectories. Files that fail
to parse are collected and summarized instead of aborting the scan, so
one corrupt file never hides the rest of the repository.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}

		result, err := repo.Scan(cmd.Context())
		if err != nil {
			return err
		}

		pterm.Success.Printf("%d document(s) loaded\n", len(result.Documents))

		if len(result.Issues) == 0 {
			return nil
		}
		pterm.Warning.Printf("%d file(s) could not be read:\n", len(result.Issues))
		rows := pterm.TableData{{"File", "Error", "Detail"}}
		for _, issue := range result.Issues {
			rows = append(rows, []string{
				issue.Path,
				string(errors.GetErrorCode(issue.Err)),
				issue.Err.Error(),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}
