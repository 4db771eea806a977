package main

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/repoform/repoform/pkg/document"
)

var catCmd = &cobra.Command{
	Use:   "cat <file>",
	Short: "Print a document in canonical form",
	Long: `Read a repository document in either format and print its canonical
plist rendering on stdout. The detected format is reported on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}

		doc, err := repo.Read(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		pterm.Info.WithWriter(os.Stderr).Printf("%s (%s)\n", args[0], doc.Format())
		for _, warning := range doc.Warnings {
			pterm.Warning.WithWriter(os.Stderr).Println(warning)
		}

		out, err := document.SerializePlist(doc.Root)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}
