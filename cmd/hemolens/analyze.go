package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hemolens/hemolens/internal/config"
	"github.com/hemolens/hemolens/internal/providers"
	"github.com/hemolens/hemolens/internal/report"
)

var analyzeOutput string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Analyze a blood test report image without a server",
	Long: `Analyze a blood test report image directly, without a running server.

The image is sent to the configured vision provider and the normalized
record is written as JSON to stdout or the --output file. A reply that
cannot be parsed produces the error-variant record instead of failing.

Examples:
  hemolens analyze scan.jpg                 # Record JSON to stdout
  hemolens analyze scan.jpg -o record.json  # Record JSON to file`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := buildVisionClient()
		if err != nil {
			return err
		}

		image, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}

		reply, err := client.Analyze(cmd.Context(), image, providers.MIMEForFilename(args[0]))
		if err != nil {
			return fmt.Errorf("model analysis failed: %w", err)
		}

		rec := report.NewNormalizer().Normalize(reply)
		raw, err := rec.JSON()
		if err != nil {
			return err
		}

		if analyzeOutput == "" {
			fmt.Println(string(raw))
			return nil
		}
		if err := os.WriteFile(analyzeOutput, raw, 0o644); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		fmt.Printf("Wrote %s\n", analyzeOutput)
		return nil
	},
}

// buildVisionClient resolves the active provider from configuration.
func buildVisionClient() (providers.VisionClient, error) {
	cfgMgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfgMgr.Get().Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}

	registry := providers.NewRegistry()
	registry.Reload(cfgMgr.Get().ToRegistryConfig())
	return registry.Default()
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output-file", "f", "", "Write the record JSON to this file")

	rootCmd.AddCommand(analyzeCmd)
}
