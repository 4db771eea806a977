package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/repoform/repoform/pkg/logging"
	"github.com/repoform/repoform/pkg/repository"
)

var (
	verbosity int
	repoRoot  string

	rootCmd = &cobra.Command{
		Use:   "repoform",
		Short: "Dual-format package repository tooling",
		Long: `repoform reads, writes and inspects the package-description and
manifest documents of a software repository that mixes property-list and
YAML files. Files keep the format they were found in; new files adopt
the repository's dominant format.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging based on verbosity
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVarP(&repoRoot, "repo", "r", ".", "Repository root directory")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(scanCmd)
}

// openRepo opens a repository session for the configured root.
func openRepo() (*repository.Repository, error) {
	logger := logging.GetLogger("repository")
	return repository.New(repository.Options{
		Root:   repoRoot,
		Logger: &logger,
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("repoform version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}
