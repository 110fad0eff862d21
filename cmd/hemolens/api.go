package main

import (
	"github.com/spf13/cobra"

	"github.com/hemolens/hemolens/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running hemolens server via HTTP.

These commands require a running server (hemolens serve).
Use --server to specify a custom server URL.

Examples:
  hemolens api health                    # Check server health
  hemolens api status                    # Detailed status
  hemolens api reports analyze scan.jpg  # Analyze a report image
  hemolens api reports download <name>   # Fetch a generated document`,
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	// The analyze endpoint contributes the whole "reports" command group,
	// including download.
	apiCmd.AddCommand((&endpoints.AnalyzeEndpoint{}).Command(getServerURL))

	rootCmd.AddCommand(apiCmd)
}
