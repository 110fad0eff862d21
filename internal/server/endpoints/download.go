package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/hemolens/hemolens/internal/api"
	"github.com/hemolens/hemolens/internal/svcctx"
)

// DownloadEndpoint handles GET /api/reports/download/{name}, serving a
// generated analysis document from the working directory.
type DownloadEndpoint struct{}

var _ api.Endpoint = (*DownloadEndpoint)(nil)

func (e *DownloadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/reports/download/{name}", e.handler
}

func (e *DownloadEndpoint) RequiresInit() bool { return true }

func (e *DownloadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	wd := svcctx.WorkdirFrom(r.Context())
	if wd == nil {
		writeError(w, http.StatusServiceUnavailable, "working directory not initialized")
		return
	}

	name := r.PathValue("name")
	path, err := wd.ResolveDocument(name)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("document not found: %s", name))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func (e *DownloadEndpoint) Command(_ func() string) *cobra.Command {
	// Grouped under "reports" by the analyze endpoint's command tree.
	return nil
}

// downloadCommand builds the CLI command for fetching a generated document.
func downloadCommand(getServerURL func() string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <name>",
		Short: "Download a generated analysis document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			dest := output
			if dest == "" {
				dest = name
			}
			client := api.NewClient(getServerURL())
			if err := client.Download(cmd.Context(), "/api/reports/download/"+name, dest); err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (defaults to the document name)")
	return cmd
}
