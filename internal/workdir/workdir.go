// Package workdir manages the ephemeral working directory where uploaded
// images and generated documents live. Files are keyed by timestamp, not by
// any stronger uniqueness guarantee, and are only cleaned up at process start.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultDirName is the fixed subdirectory of the system temp location.
	DefaultDirName = "blood_report_analyzer"

	imagePrefix    = "blood_report"
	documentPrefix = "blood_report_analysis"

	// timestampLayout yields the YYYYMMDDHHMMSS suffix used for both source
	// images and generated documents.
	timestampLayout = "20060102150405"
)

// Dir represents the working directory.
type Dir struct {
	path string
}

// New creates a Dir rooted at path. If path is empty, a fixed subdirectory
// of the system temp directory is used.
func New(path string) *Dir {
	if path == "" {
		path = filepath.Join(os.TempDir(), DefaultDirName)
	}
	return &Dir{path: path}
}

// Path returns the root path of the working directory.
func (d *Dir) Path() string {
	return d.path
}

// EnsureExists creates the working directory if it does not exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	return nil
}

// CleanOnStart wipes any leftover files from previous runs and recreates the
// directory. Called once at process start; per-request files are not cleaned
// up afterwards.
func (d *Dir) CleanOnStart() error {
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("failed to clear working directory: %w", err)
	}
	return d.EnsureExists()
}

// ImagePath returns the destination for an uploaded report image. The
// extension follows the uploaded filename; everything that is not a PNG is
// stored as JPEG.
func (d *Dir) ImagePath(now time.Time, filename string) string {
	ext := ".jpg"
	if strings.HasSuffix(strings.ToLower(filename), ".png") {
		ext = ".png"
	}
	return filepath.Join(d.path, fmt.Sprintf("%s_%s%s", imagePrefix, now.Format(timestampLayout), ext))
}

// DocumentPath returns the destination for a generated analysis document.
func (d *Dir) DocumentPath(now time.Time) string {
	return filepath.Join(d.path, fmt.Sprintf("%s_%s.pdf", documentPrefix, now.Format(timestampLayout)))
}

// ResolveDocument maps a bare document name back to a path inside the
// working directory. Only generated documents can be resolved; anything with
// path separators or an unexpected name is rejected.
func (d *Dir) ResolveDocument(name string) (string, error) {
	if name != filepath.Base(name) || name == "." || name == "" {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	if !strings.HasPrefix(name, documentPrefix+"_") || !strings.HasSuffix(name, ".pdf") {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	path := filepath.Join(d.path, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("document %q not found: %w", name, err)
	}
	return path, nil
}
