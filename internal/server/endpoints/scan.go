package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shelfscan/shelfscan/internal/api"
	"github.com/shelfscan/shelfscan/internal/books"
	"github.com/shelfscan/shelfscan/internal/pipeline"
	"github.com/shelfscan/shelfscan/internal/svcctx"
)

// maxUploadBytes bounds shelf photo uploads.
const maxUploadBytes = 32 << 20

// ScanResponse is the response for a shelf scan.
type ScanResponse struct {
	JobID     string                        `json:"job_id"`
	Books     []*books.Candidate            `json:"books"`
	Providers map[string]*books.Diagnostics `json:"providers"`
}

// ScanEndpoint handles POST /scan: a shelf photo in, a book list out.
type ScanEndpoint struct{}

func (e *ScanEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/scan", e.handler
}

func (e *ScanEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	scanner := svcctx.ScannerFrom(r.Context())
	if scanner == nil {
		writeError(w, http.StatusInternalServerError, "scanner not available")
		return
	}

	image, mimeType, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusBadRequest, "empty image upload")
		return
	}

	jobID := uuid.New().String()
	archiveScanImage(r, jobID, mimeType, image)

	result, err := scanner.Run(r.Context(), pipeline.ScanRequest{
		Image:    image,
		MIMEType: mimeType,
		JobID:    jobID,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrNoProviders) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ScanResponse{
		JobID:     jobID,
		Books:     result.Books,
		Providers: result.Providers,
	}
	archiveScanResult(r, jobID, resp)
	writeJSON(w, http.StatusOK, resp)
}

// readUpload extracts the photo from a multipart "image" field, falling
// back to the raw request body.
func readUpload(r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, "", fmt.Errorf("invalid multipart upload: %w", err)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			return nil, "", errors.New("missing image field")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read upload: %w", err)
		}
		return data, sniffMIME(data, header.Header.Get("Content-Type")), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body: %w", err)
	}
	return data, sniffMIME(data, contentType), nil
}

// sniffMIME prefers a declared image type and falls back to detection.
func sniffMIME(data []byte, declared string) string {
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	if detected := http.DetectContentType(data); strings.HasPrefix(detected, "image/") {
		return detected
	}
	return "image/jpeg"
}

// archiveScanImage stores the uploaded photo under the home directory.
// Best effort; scan processing does not depend on it.
func archiveScanImage(r *http.Request, jobID, mimeType string, image []byte) {
	dir := svcctx.HomeFrom(r.Context())
	if dir == nil {
		return
	}
	ext := ".jpg"
	if mimeType == "image/png" {
		ext = ".png"
	} else if mimeType == "image/webp" {
		ext = ".webp"
	}
	if err := os.WriteFile(dir.ScanImagePath(jobID, ext), image, 0o644); err != nil {
		if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
			logger.Debug("scan image archive failed", "job", jobID, "error", err)
		}
	}
}

// archiveScanResult stores the scan result JSON next to the photo.
func archiveScanResult(r *http.Request, jobID string, resp ScanResponse) {
	dir := svcctx.HomeFrom(r.Context())
	if dir == nil {
		return
	}
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(dir.ScanResultPath(jobID), data, 0o644); err != nil {
		if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
			logger.Debug("scan result archive failed", "job", jobID, "error", err)
		}
	}
}

func (e *ScanEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <image>",
		Short: "Scan a bookshelf photo for books",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("cannot read %s: %w", filepath.Base(path), err)
			}
			client := api.NewClient(getServerURL())
			var resp ScanResponse
			if err := client.PostFile(cmd.Context(), "/scan", "image", path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
