package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <source> <destination>",
	Short: "Convert a document between formats",
	Long: `Read a repository document and write it to a new path. The destination
format follows the destination file's extension, so converting
Firefox.plist to Firefox.yaml produces YAML. This is the explicit
conversion path; ordinary edits always keep a file's original format.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, dst := args[0], args[1]

		repo, err := openRepo()
		if err != nil {
			return err
		}

		doc, err := repo.Read(cmd.Context(), src)
		if err != nil {
			return err
		}

		target := repo.Detect(dst)
		if err := repo.Write(cmd.Context(), doc.Converted(target), dst, target); err != nil {
			return err
		}

		pterm.Success.Printf("%s (%s) -> %s (%s)\n", src, doc.Format(), dst, target)
		return nil
	},
}
