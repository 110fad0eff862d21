package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hemolens/hemolens/internal/providers"
	"github.com/hemolens/hemolens/internal/report"
	"github.com/hemolens/hemolens/internal/workdir"
)

const wellFormedReply = `Here is the analysis you asked for:
{
  "patient_details": {"name": "Jane Roe", "age": "41", "gender": "F"},
  "test_date": "2025-03-01",
  "blood_parameters": [
    {"parameter": "Hemoglobin", "value": "13.5", "reference_range": "12.0-15.5", "status": "Normal"}
  ],
  "summary": ["All values within range."]
}`

func newTestPipeline(t *testing.T, client providers.VisionClient) *Pipeline {
	t.Helper()
	p := New(client, workdir.New(t.TempDir()), nil)
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	p.Now = func() time.Time { return fixed }
	p.Normalizer.Now = p.Now
	p.Renderer.Now = p.Now
	return p
}

func TestProcess_Success(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Reply = wellFormedReply
	p := newTestPipeline(t, mock)

	res := p.Process(context.Background(), []byte("fake-image"), "report.jpg")

	if res.Failed() {
		t.Fatalf("unexpected failure: %s", res.Display)
	}
	if mock.Calls() != 1 {
		t.Errorf("model calls = %d, want 1", mock.Calls())
	}
	if !strings.Contains(res.Display, "Jane Roe") {
		t.Errorf("display missing patient name:\n%s", res.Display)
	}

	if filepath.Base(res.ImagePath) != "blood_report_20250314092653.jpg" {
		t.Errorf("image path = %q", res.ImagePath)
	}
	if _, err := os.Stat(res.ImagePath); err != nil {
		t.Errorf("saved image missing: %v", err)
	}

	if filepath.Base(res.DocumentPath) != "blood_report_analysis_20250314092653.pdf" {
		t.Errorf("document path = %q", res.DocumentPath)
	}
	doc, err := os.ReadFile(res.DocumentPath)
	if err != nil {
		t.Fatalf("generated document missing: %v", err)
	}
	if !strings.HasPrefix(string(doc), "%PDF-") {
		t.Error("generated document is not a PDF")
	}
}

func TestProcess_EmptyImageReturnsGuidance(t *testing.T) {
	mock := providers.NewMockClient()
	p := newTestPipeline(t, mock)

	res := p.Process(context.Background(), nil, "")

	if res.Display != GuidanceMessage {
		t.Errorf("display = %q, want guidance message", res.Display)
	}
	if res.Failed() {
		t.Error("guidance is not a failure")
	}
	if mock.Calls() != 0 {
		t.Errorf("model called %d times for empty input", mock.Calls())
	}
}

func TestProcess_ModelErrorIsSwallowed(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Err = errors.New("quota exceeded")
	p := newTestPipeline(t, mock)

	res := p.Process(context.Background(), []byte("fake-image"), "report.jpg")

	if !res.Failed() {
		t.Fatal("expected a failed result")
	}
	if !strings.HasPrefix(res.Display, "Error: ") {
		t.Errorf("display = %q, want Error: prefix", res.Display)
	}
	if !strings.Contains(res.Display, "quota exceeded") {
		t.Errorf("display does not carry the cause: %q", res.Display)
	}
}

func TestProcess_UnparseableReplySkipsDocument(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Reply = "I could not read the image, sorry."
	p := newTestPipeline(t, mock)

	res := p.Process(context.Background(), []byte("fake-image"), "report.jpg")

	if res.Record == nil || !res.Record.IsError() {
		t.Fatal("expected an error-variant record")
	}
	if res.DocumentPath != "" {
		t.Errorf("no document should be generated, got %q", res.DocumentPath)
	}
	if !strings.Contains(res.Display, "Analysis Failed") {
		t.Errorf("display = %q", res.Display)
	}
	// The error variant is not a pipeline failure: the record reaches the UI.
	if res.Failed() {
		t.Error("error variant should not count as a pipeline failure")
	}
}

func TestProcess_RecordRoundTrip(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Reply = wellFormedReply
	p := newTestPipeline(t, mock)

	res := p.Process(context.Background(), []byte("fake-image"), "report.png")

	raw, err := res.Record.JSON()
	if err != nil {
		t.Fatal(err)
	}
	rec, err := report.Parse(raw)
	if err != nil {
		t.Fatalf("record JSON did not round-trip: %v", err)
	}
	rep, err := rec.Report()
	if err != nil {
		t.Fatal(err)
	}
	if rep.TestDate != "2025-03-01" {
		t.Errorf("test date = %q", rep.TestDate)
	}
	if len(rep.Disclaimer) != len(report.DefaultDisclaimer) {
		t.Errorf("default disclaimer not applied, got %d lines", len(rep.Disclaimer))
	}
}
