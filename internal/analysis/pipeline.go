// Package analysis wires the vision provider, the normalizer, and the PDF
// renderer into the single end-to-end pipeline behind both the HTTP endpoint
// and the CLI.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hemolens/hemolens/internal/pdf"
	"github.com/hemolens/hemolens/internal/providers"
	"github.com/hemolens/hemolens/internal/report"
	"github.com/hemolens/hemolens/internal/workdir"
)

// GuidanceMessage is returned when no image was provided. It is not an error;
// the model is never called in this case.
const GuidanceMessage = "Please upload a blood test report image."

// Result is the outcome of one pipeline run. Display is always populated;
// Record, ImagePath, and DocumentPath are set only when their stage ran.
type Result struct {
	// Display is the human-readable analysis text, the guidance message, or
	// an "Error: ..." line when a stage failed.
	Display string

	// Record is the normalized analysis record, nil when the run never
	// reached the model.
	Record *report.Record

	// ImagePath is where the uploaded image was saved.
	ImagePath string

	// DocumentPath is the generated PDF, empty when the record is the error
	// variant or rendering failed.
	DocumentPath string
}

// Failed reports whether the run ended at the error boundary.
func (r *Result) Failed() bool {
	return r.Record == nil && r.Display != GuidanceMessage
}

// Pipeline runs one image through analysis, normalization, and rendering.
type Pipeline struct {
	Client     providers.VisionClient
	Workdir    *workdir.Dir
	Normalizer *report.Normalizer
	Renderer   *pdf.Renderer
	Logger     *slog.Logger

	// Now keys the generated file names. Defaults to time.Now.
	Now func() time.Time
}

// New builds a Pipeline with default normalizer, renderer, and clock.
func New(client providers.VisionClient, wd *workdir.Dir, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Client:     client,
		Workdir:    wd,
		Normalizer: report.NewNormalizer(),
		Renderer:   pdf.NewRenderer(),
		Logger:     logger,
		Now:        time.Now,
	}
}

// Process analyzes one uploaded report image end to end.
//
// Process is the error boundary of the whole flow: it never returns an error.
// Whatever fails — disk, model, rendering — the failure is logged and folded
// into Result.Display as an "Error: ..." line, mirroring what the UI shows.
func (p *Pipeline) Process(ctx context.Context, image []byte, filename string) *Result {
	if len(image) == 0 {
		return &Result{Display: GuidanceMessage}
	}

	requestID := uuid.New().String()
	logger := p.Logger.With("request_id", requestID)
	logger.Info("analysis started", "filename", filename, "bytes", len(image))

	res, err := p.run(ctx, logger, image, filename)
	if err != nil {
		logger.Error("analysis failed", "error", err)
		return &Result{Display: fmt.Sprintf("Error: %v", err)}
	}

	logger.Info("analysis finished",
		"error_variant", res.Record.IsError(),
		"document", res.DocumentPath)
	return res
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, image []byte, filename string) (*Result, error) {
	now := p.now()

	if err := p.Workdir.EnsureExists(); err != nil {
		return nil, err
	}

	imagePath := p.Workdir.ImagePath(now, filename)
	if err := os.WriteFile(imagePath, image, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save uploaded image: %w", err)
	}

	reply, err := p.Client.Analyze(ctx, image, providers.MIMEForFilename(filename))
	if err != nil {
		return nil, fmt.Errorf("model analysis failed: %w", err)
	}

	rec := p.Normalizer.Normalize(reply)
	res := &Result{
		Display:   report.Display(rec),
		Record:    rec,
		ImagePath: imagePath,
	}

	// The error variant still reaches the caller as a record, but no
	// document is generated for it.
	if rec.IsError() {
		logger.Warn("model reply could not be normalized")
		return res, nil
	}

	rep, err := rec.Report()
	if err != nil {
		return nil, err
	}

	docPath := p.Workdir.DocumentPath(now)
	out, err := os.Create(docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	defer out.Close()

	if err := p.Renderer.RenderTo(out, rep); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}

	res.DocumentPath = docPath
	return res, nil
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
