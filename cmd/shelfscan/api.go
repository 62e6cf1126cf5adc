package main

import (
	"github.com/spf13/cobra"

	"github.com/shelfscan/shelfscan/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running shelfscan server via HTTP.

These commands require a running server (shelfscan serve).
Use --server to specify a custom server URL.

Examples:
  shelfscan api health              # Check server health
  shelfscan api scan shelf.jpg      # Scan a shelf photo
  shelfscan api llmcalls            # List recorded inference calls`,
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Persistent so all subcommands inherit it
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	for _, ep := range endpoints.All() {
		apiCmd.AddCommand(ep.Command(getServerURL))
	}

	rootCmd.AddCommand(apiCmd)
}
