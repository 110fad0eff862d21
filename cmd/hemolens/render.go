package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hemolens/hemolens/internal/pdf"
	"github.com/hemolens/hemolens/internal/providers"
	"github.com/hemolens/hemolens/internal/report"
)

var (
	renderImage  string
	renderRecord string
	renderOutput string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an analysis record as a PDF document",
	Long: `Render a blood test analysis as a PDF document.

The input is either a record JSON file produced by a previous analyze
run (--record) or a report image to analyze first (--image). An
error-variant record cannot be rendered.

Examples:
  hemolens render --record record.json -f report.pdf
  hemolens render --image scan.jpg -f report.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (renderImage == "") == (renderRecord == "") {
			return fmt.Errorf("exactly one of --image or --record is required")
		}

		var rec *report.Record
		switch {
		case renderRecord != "":
			raw, err := os.ReadFile(renderRecord)
			if err != nil {
				return fmt.Errorf("failed to read record: %w", err)
			}
			rec, err = report.Parse(raw)
			if err != nil {
				return err
			}
		default:
			client, err := buildVisionClient()
			if err != nil {
				return err
			}
			image, err := os.ReadFile(renderImage)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			reply, err := client.Analyze(cmd.Context(), image, providers.MIMEForFilename(renderImage))
			if err != nil {
				return fmt.Errorf("model analysis failed: %w", err)
			}
			rec = report.NewNormalizer().Normalize(reply)
		}

		if info, ok := rec.ErrorInfo(); ok {
			return fmt.Errorf("cannot render an error record: %s", info.Error)
		}
		rep, err := rec.Report()
		if err != nil {
			return err
		}

		out, err := os.Create(renderOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", renderOutput, err)
		}
		defer out.Close()

		if err := pdf.NewRenderer().RenderTo(out, rep); err != nil {
			return fmt.Errorf("failed to render document: %w", err)
		}
		fmt.Printf("Wrote %s\n", renderOutput)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderImage, "image", "", "Report image to analyze and render")
	renderCmd.Flags().StringVar(&renderRecord, "record", "", "Record JSON file from a previous analyze run")
	renderCmd.Flags().StringVarP(&renderOutput, "output-file", "f", "analysis.pdf", "Destination PDF file")

	rootCmd.AddCommand(renderCmd)
}
