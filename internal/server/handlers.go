package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapcheck/internal/ingest"
	"github.com/leapstack-labs/leapcheck/internal/kb"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/section"
)

// MetaRequestID is the meta key carrying the request id of a validation.
const MetaRequestID = "request_id"

// Form field names used by the upload endpoints.
const (
	fieldFile       = "file"
	fieldGuidelines = "files"
)

// multipartMemory is the part of a multipart form kept in memory.
const multipartMemory = 32 << 20

var (
	errNoFile       = errors.New("No file provided")
	errEmptyFile    = errors.New("Empty file")
	errFileTooLarge = errors.New("File too large")
)

// uploadError carries the HTTP status for a failed upload.
type uploadError struct {
	status int
	err    error
}

func (e *uploadError) Error() string { return e.err.Error() }
func (e *uploadError) Unwrap() error { return e.err }

func statusOf(err error) int {
	var ue *uploadError
	if errors.As(err, &ue) {
		return ue.status
	}
	return http.StatusInternalServerError
}

type parseResponse struct {
	Meta     map[string]string `json:"meta"`
	Text     string            `json:"text"`
	Sections []core.Section    `json:"sections"`
}

type guidelinesResponse struct {
	OK    bool     `json:"ok,omitempty"`
	Files []string `json:"files"`
	Added []string `json:"added,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.renderHTML(w, http.StatusOK, "index.html", indexData{
		MaxUploadMB: s.maxUpload >> 20,
		Accept:      strings.Join(ingest.Extensions(), ","),
		Guidelines:  strings.Join(kb.GuidelineExtensions, ","),
	})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readUpload(w, r)
	if err != nil {
		s.metrics.uploads.WithLabelValues("parse", "rejected").Inc()
		writeError(w, statusOf(err), err)
		return
	}
	s.metrics.uploads.WithLabelValues("parse", "ok").Inc()

	sections := section.Split(doc.Text)
	s.logger.Info("document parsed",
		"filename", doc.Meta[ingest.MetaFilename],
		"parser", doc.Meta[ingest.MetaParser],
		"length", len(doc.Text),
		"sections", len(sections))

	if wantsHTML(r) {
		s.renderHTML(w, http.StatusOK, "parsed.html", parsedData{Meta: doc.Meta, Sections: sections})
		return
	}
	writeJSON(w, http.StatusOK, parseResponse{Meta: doc.Meta, Text: doc.Text, Sections: sections})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	result, err := s.validateUpload(w, r, "validate")
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleValidateHTML(w http.ResponseWriter, r *http.Request) {
	result, err := s.validateUpload(w, r, "validate_html")
	if err != nil {
		s.renderHTML(w, statusOf(err), "error.html", err.Error())
		return
	}
	s.renderHTML(w, http.StatusOK, "report.html", newReport(result))
}

// validateUpload parses the uploaded document and validates it.
func (s *Server) validateUpload(w http.ResponseWriter, r *http.Request, endpoint string) (*core.ValidationResult, error) {
	doc, err := s.readUpload(w, r)
	if err != nil {
		s.metrics.uploads.WithLabelValues(endpoint, "rejected").Inc()
		return nil, err
	}
	s.metrics.uploads.WithLabelValues(endpoint, "ok").Inc()

	requestID := uuid.NewString()
	meta := core.CopyMeta(doc.Meta)
	meta[MetaRequestID] = requestID
	w.Header().Set("X-Request-Id", requestID)

	_, v := s.current()
	start := time.Now()
	result, err := v.Validate(r.Context(), doc.Text, meta)
	if err != nil {
		s.logger.Error("validation failed", "request_id", requestID, "error", err)
		return nil, err
	}
	s.metrics.validationTime.Observe(time.Since(start).Seconds())
	s.metrics.observeResult(endpoint, result)

	s.logger.Info("document validated",
		"request_id", requestID,
		"filename", doc.Meta[ingest.MetaFilename],
		"score", result.Score,
		"findings", len(result.Findings))
	return result, nil
}

// readUpload reads and parses the "file" form field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*ingest.Document, error) {
	if r.ContentLength > s.maxUpload {
		return nil, &uploadError{http.StatusRequestEntityTooLarge, errFileTooLarge}
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, header, err := r.FormFile(fieldFile)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &uploadError{http.StatusRequestEntityTooLarge, errFileTooLarge}
		}
		return nil, &uploadError{http.StatusBadRequest, errNoFile}
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, &uploadError{http.StatusBadRequest, errEmptyFile}
	}

	name := uploadName(header.Filename)
	s.logger.Info("received file", "filename", name, "bytes", len(data))

	doc, err := ingest.Bytes(name, data)
	if errors.Is(err, ingest.ErrUnsupportedType) {
		return nil, &uploadError{http.StatusUnsupportedMediaType, err}
	}
	if err != nil {
		s.logger.Error("failed to parse upload", "filename", name, "error", err)
		return nil, err
	}
	return doc, nil
}

// uploadName returns the base name of an uploaded file, defaulting to
// "uploaded.txt" and to a .txt extension.
func uploadName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = "uploaded"
	}
	if filepath.Ext(name) == "" {
		name += ".txt"
	}
	return name
}

func (s *Server) handleListGuidelines(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, guidelinesResponse{Files: s.guidelineFiles()})
}

func (s *Server) handleUploadGuidelines(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, errFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, errNoFile)
		return
	}
	if s.guidelinesDir == "" {
		writeError(w, http.StatusInternalServerError, errors.New("no guidelines directory configured"))
		return
	}
	if err := os.MkdirAll(s.guidelinesDir, 0750); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to create guidelines directory: %w", err))
		return
	}

	var added []string
	for _, fh := range r.MultipartForm.File[fieldGuidelines] {
		name := filepath.Base(strings.TrimSpace(fh.Filename))
		if name == "" || name == "." {
			name = "guideline.txt"
		}
		if !kb.IsGuidelineFile(name) {
			s.logger.Warn("skipping guideline with unsupported extension", "filename", name)
			continue
		}
		data, err := readFormFile(fh)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if len(data) == 0 {
			continue
		}
		path := filepath.Join(s.guidelinesDir, name)
		if err := os.WriteFile(path, data, 0600); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to save guideline: %w", err))
			return
		}
		s.metrics.guidelineUploads.Inc()
		added = append(added, s.displayPath(path))
	}

	if len(added) > 0 {
		if err := s.Reload(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, guidelinesResponse{OK: true, Files: s.guidelineFiles(), Added: added})
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

// guidelineFiles lists the guideline files for display.
func (s *Server) guidelineFiles() []string {
	paths := s.GuidelinePaths()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, s.displayPath(p))
	}
	return out
}

// wantsHTML reports whether the client prefers an HTML page over JSON.
// Script clients mark themselves with X-Requested-With: fetch.
func wantsHTML(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "fetch" {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}
	first, _, _ := strings.Cut(accept, ",")
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(first))
	return err == nil && mediaType == "text/html"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
