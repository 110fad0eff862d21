package main

import (
	"github.com/spf13/cobra"

	"github.com/hemolens/hemolens/internal/api"
	"github.com/hemolens/hemolens/version"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "hemolens",
	Short: "Blood test report analyzer powered by multimodal LLMs",
	Long: `Hemolens analyzes photographed blood test reports with a multimodal
LLM and produces a structured summary plus a downloadable PDF document.

The flow:
  - Upload a report image via the web form or CLI
  - The model extracts patient details, parameters, and a summary
  - Values outside their reference range are flagged as abnormal
  - A fixed-layout PDF report is generated for download`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.hemolens/config.yaml)",
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
