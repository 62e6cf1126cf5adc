package main

import (
	"github.com/spf13/cobra"

	"github.com/shelfscan/shelfscan/internal/api"
	"github.com/shelfscan/shelfscan/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "shelfscan",
	Short: "Turn bookshelf photos into deduplicated book lists",
	Long: `Shelfscan extracts the books visible in a bookshelf photo using
vision-capable inference providers and reconciles their answers into a
single deduplicated (title, author) list.

The pipeline includes:
  - Concurrent multi-provider spine extraction
  - Swapped title/author correction and text normalization
  - Exact and fuzzy deduplication across providers
  - Optional Open Library augmentation and batched validation`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.shelfscan/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "shelfscan home directory (default: ~/.shelfscan)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
