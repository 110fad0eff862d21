package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/hemolens/hemolens/internal/analysis"
	"github.com/hemolens/hemolens/internal/providers"
	"github.com/hemolens/hemolens/internal/server/endpoints"
	"github.com/hemolens/hemolens/internal/testutil"
)

const sampleReply = `{
  "patient_details": {"name": "Jane Roe", "age": "41", "gender": "F"},
  "test_date": "2025-03-01",
  "blood_parameters": [
    {"parameter": "Hemoglobin", "value": "10.1", "reference_range": "12.0-15.5", "status": "Abnormal"}
  ],
  "summary": ["Hemoglobin below reference range."]
}`

// startTestServer boots a server with a mock vision provider and waits for it
// to answer health checks.
func startTestServer(t *testing.T, mock *providers.MockClient) (*Server, string) {
	t.Helper()

	cfg := testutil.NewServerConfig(t)
	srv, err := New(Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		WorkdirPath: cfg.WorkdirPath,
		Logger:      cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	srv.Registry().Register(providers.MockName, mock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		if err := testutil.WaitForShutdown(done, 30*time.Second); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})

	if err := testutil.WaitForServer(ctx, cfg.URL(), 10*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	return srv, cfg.URL()
}

// postImage uploads image bytes to the analyze endpoint.
func postImage(t *testing.T, baseURL string, image []byte, filename string) endpoints.AnalyzeResponse {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if image != nil {
		part, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := testutil.HTTPClient().Post(baseURL+"/api/reports/analyze", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("analyze request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("analyze status = %d: %s", resp.StatusCode, raw)
	}

	var out endpoints.AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestServer_AnalyzeFlow(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Reply = sampleReply
	srv, baseURL := startTestServer(t, mock)

	t.Run("health_endpoint", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/health")
		if err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		defer resp.Body.Close()

		var health endpoints.HealthResponse
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if health.Status != "ok" {
			t.Errorf("health.Status = %q, want %q", health.Status, "ok")
		}
	})

	t.Run("status_lists_providers", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/status")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		defer resp.Body.Close()

		var status endpoints.StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(status.Providers) != 1 || status.Providers[0] != providers.MockName {
			t.Errorf("providers = %v", status.Providers)
		}
		if status.Workdir == "" {
			t.Error("status missing workdir")
		}
	})

	t.Run("upload_and_download", func(t *testing.T) {
		out := postImage(t, baseURL, []byte("fake-image-bytes"), "scan.jpg")

		if !strings.Contains(out.Display, "Jane Roe") {
			t.Errorf("display missing patient name:\n%s", out.Display)
		}
		if !strings.Contains(out.Display, "[ABNORMAL]") {
			t.Errorf("display missing abnormal marker:\n%s", out.Display)
		}
		if len(out.Record) == 0 {
			t.Error("response missing record")
		}
		if out.DocumentURL == "" {
			t.Fatal("response missing document URL")
		}

		resp, err := http.Get(baseURL + out.DocumentURL)
		if err != nil {
			t.Fatalf("download failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("download status = %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("content type = %q", ct)
		}
		doc, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(doc, []byte("%PDF-")) {
			t.Error("downloaded document is not a PDF")
		}
	})

	t.Run("missing_image_returns_guidance", func(t *testing.T) {
		out := postImage(t, baseURL, nil, "")

		if out.Display != analysis.GuidanceMessage {
			t.Errorf("display = %q, want guidance message", out.Display)
		}
		if out.DocumentURL != "" {
			t.Errorf("no document expected, got %q", out.DocumentURL)
		}
	})

	t.Run("download_rejects_unknown_names", func(t *testing.T) {
		for _, name := range []string{"other.pdf", "..%2Fconfig.yaml", "blood_report_analysis_20990101000000.pdf"} {
			resp, err := http.Get(baseURL + "/api/reports/download/" + name)
			if err != nil {
				t.Fatalf("download failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("download(%q) status = %d, want 404", name, resp.StatusCode)
			}
		}
	})

	t.Run("serves_upload_form", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/")
		if err != nil {
			t.Fatalf("form request failed: %v", err)
		}
		defer resp.Body.Close()
		page, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(page), "Blood Test Report Analyzer") {
			t.Error("upload form not served at /")
		}
	})

	t.Run("is_running", func(t *testing.T) {
		if !srv.IsRunning() {
			t.Error("IsRunning() = false, want true")
		}
	})
}

func TestServer_ModelFailureIsSwallowed(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Err = errors.New("model unavailable")
	_, baseURL := startTestServer(t, mock)

	out := postImage(t, baseURL, []byte("fake-image-bytes"), "scan.jpg")

	if !strings.HasPrefix(out.Display, "Error: ") {
		t.Errorf("display = %q, want Error: prefix", out.Display)
	}
	if out.DocumentURL != "" {
		t.Errorf("no document expected, got %q", out.DocumentURL)
	}
}

func TestServer_UnparseableReply(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Reply = "the image is too blurry to read"
	_, baseURL := startTestServer(t, mock)

	out := postImage(t, baseURL, []byte("fake-image-bytes"), "scan.jpg")

	if !strings.Contains(out.Display, "Analysis Failed") {
		t.Errorf("display = %q", out.Display)
	}
	if len(out.Record) == 0 {
		t.Error("error-variant record should still reach the client")
	}
	if out.DocumentURL != "" {
		t.Errorf("no document expected for error variant, got %q", out.DocumentURL)
	}
}

func TestServer_DoubleStart(t *testing.T) {
	mock := providers.NewMockClient()
	srv, _ := startTestServer(t, mock)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Start(ctx); err == nil {
		t.Error("second Start() should return error")
	}
}
