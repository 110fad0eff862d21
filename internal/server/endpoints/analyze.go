package endpoints

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hemolens/hemolens/internal/api"
	"github.com/hemolens/hemolens/internal/svcctx"
)

// AnalyzeResponse is the outcome of one analysis request. Record carries the
// full normalized record as raw JSON; DocumentURL is empty when no document
// was generated.
type AnalyzeResponse struct {
	Display     string          `json:"display"`
	Record      json.RawMessage `json:"record,omitempty"`
	DocumentURL string          `json:"document_url,omitempty"`
}

// AnalyzeEndpoint handles POST /api/reports/analyze with a multipart image
// upload.
type AnalyzeEndpoint struct{}

var _ api.Endpoint = (*AnalyzeEndpoint)(nil)

func (e *AnalyzeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/reports/analyze", e.handler
}

func (e *AnalyzeEndpoint) RequiresInit() bool { return true }

func (e *AnalyzeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	pipeline := svcctx.PipelineFrom(r.Context())
	if pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis pipeline not initialized")
		return
	}

	// Parse multipart form with 25MB max memory
	const maxMemory = 25 << 20
	var image []byte
	var filename string
	if err := r.ParseMultipartForm(maxMemory); err == nil {
		if file, header, ferr := r.FormFile("image"); ferr == nil {
			defer file.Close()
			data, rerr := io.ReadAll(file)
			if rerr != nil {
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read upload: %v", rerr))
				return
			}
			image = data
			filename = header.Filename
		}
		defer r.MultipartForm.RemoveAll()
	}

	// A request without an image still gets a 200 with the guidance message,
	// matching what the form shows when submitted empty.
	res := pipeline.Process(r.Context(), image, filename)

	resp := AnalyzeResponse{Display: res.Display}
	if res.Record != nil {
		if raw, err := res.Record.JSON(); err == nil {
			resp.Record = raw
		}
	}
	if res.DocumentPath != "" {
		resp.DocumentURL = "/api/reports/download/" + filepath.Base(res.DocumentPath)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *AnalyzeEndpoint) Command(getServerURL func() string) *cobra.Command {
	reportsCmd := &cobra.Command{
		Use:   "reports",
		Short: "Report analysis operations",
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze a blood test report image via the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp AnalyzeResponse
			if err := client.PostFile(cmd.Context(), "/api/reports/analyze", "image", args[0], &resp); err != nil {
				return err
			}
			fmt.Println(resp.Display)
			if resp.DocumentURL != "" {
				fmt.Printf("\nDocument: %s\n", resp.DocumentURL)
			}
			return nil
		},
	}

	reportsCmd.AddCommand(analyzeCmd)
	reportsCmd.AddCommand(downloadCommand(getServerURL))
	return reportsCmd
}
