package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/pdfswift/internal/delivery"
	"github.com/zombor/pdfswift/internal/document"
	"github.com/zombor/pdfswift/internal/library"
	"github.com/zombor/pdfswift/internal/ocr"
	"github.com/zombor/pdfswift/internal/optimize"
)

// maxUploadSize is large enough for high-resolution phone photos
const maxUploadSize = int64(50 << 20) // 50MB

// StatusClientClosedRequest reports an operation the user cancelled
const StatusClientClosedRequest = 499

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, code int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeJSONError writes {"error": message}
func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// writeOperationError maps an operation error to a status and user-facing message
func writeOperationError(w http.ResponseWriter, err error) {
	var (
		constructionErr *document.DocumentConstructionError
		parseErr        *optimize.DocumentParseError
		ocrFailure      *ocr.OcrFailure
	)

	switch {
	case errors.As(err, &ocrFailure):
		writeJSONError(w, http.StatusUnprocessableEntity, ocrFailure.Message)
	case errors.Is(err, ocr.ErrCancelled):
		writeJSONError(w, StatusClientClosedRequest, "Operation cancelled")
	case errors.As(err, &constructionErr):
		writeJSONError(w, http.StatusBadRequest, constructionErr.Error())
	case errors.As(err, &parseErr):
		writeJSONError(w, http.StatusBadRequest, "The file is not a readable PDF.")
	case errors.Is(err, ErrEmptyText):
		writeJSONError(w, http.StatusBadRequest, "Please enter some text first.")
	case errors.Is(err, ErrNoImages):
		writeJSONError(w, http.StatusBadRequest, "Please add at least one photo.")
	default:
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// parseMode reads the delivery mode from the query string
func parseMode(w http.ResponseWriter, r *http.Request) (delivery.Mode, bool) {
	mode, err := delivery.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return mode, true
}

// parseUploadForm parses a multipart form, writing the error response on failure
func parseUploadForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		writeJSONError(w, http.StatusBadRequest, errorMsg)
		return false
	}
	return true
}

// readUpload reads one form file into an Upload
func readUpload(header *multipart.FileHeader) (Upload, error) {
	f, err := header.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("opening %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, fmt.Errorf("reading %s: %w", header.Filename, err)
	}

	return Upload{
		Filename:    header.Filename,
		ContentType: contentTypeOf(header),
		Data:        data,
	}, nil
}

// contentTypeOf returns the declared content type, falling back to the extension
func contentTypeOf(header *multipart.FileHeader) string {
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// singleUpload reads the "file" form field
func singleUpload(w http.ResponseWriter, r *http.Request) (Upload, bool) {
	if !parseUploadForm(w, r) {
		return Upload{}, false
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeJSONError(w, http.StatusBadRequest, "No file was selected. Please choose a file to upload.")
		return Upload{}, false
	}

	upload, err := readUpload(files[0])
	if err != nil {
		slog.Error("Error reading file data", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return Upload{}, false
	}
	return upload, true
}

// handleScan runs the scanner: format=image builds a visual scan, format=text a
// searchable OCR document
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	mode, ok := parseMode(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "image" && format != "text" {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown scan format %q (valid: image, text)", format))
		return
	}

	upload, ok := singleUpload(w, r)
	if !ok {
		return
	}

	var (
		result *Result
		err    error
	)
	if format == "text" {
		result, err = s.service.ScanText(r.Context(), upload, mode, func(p float64) {
			slog.Debug("OCR progress", "filename", upload.Filename, "progress", p)
		})
	} else {
		result, err = s.service.ScanVisual(r.Context(), upload, mode)
	}
	if err != nil {
		slog.Error("Error scanning", "filename", upload.Filename, "format", format, "error", err)
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handlePhotos combines every "files" upload into one PDF
func (s *Server) handlePhotos(w http.ResponseWriter, r *http.Request) {
	mode, ok := parseMode(w, r)
	if !ok {
		return
	}
	if !parseUploadForm(w, r) {
		return
	}

	headers := r.MultipartForm.File["files"]
	uploads := make([]Upload, 0, len(headers))
	for _, header := range headers {
		upload, err := readUpload(header)
		if err != nil {
			slog.Error("Error reading file data", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
			return
		}
		uploads = append(uploads, upload)
	}

	result, err := s.service.PhotosToPDF(r.Context(), uploads, mode)
	if err != nil {
		slog.Error("Error converting photos", "count", len(uploads), "error", err)
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// textRequest is the body of POST /api/text
type textRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Mode  string `json:"mode"`
}

// handleText turns typed text into a PDF
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadSize)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	mode, err := delivery.ParseMode(req.Mode)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.TextToPDF(r.Context(), req.Text, req.Title, mode)
	if err != nil {
		slog.Error("Error converting text", "title", req.Title, "error", err)
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleCompress optimizes an uploaded PDF
func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	mode, ok := parseMode(w, r)
	if !ok {
		return
	}
	upload, ok := singleUpload(w, r)
	if !ok {
		return
	}

	result, err := s.service.Compress(r.Context(), upload, mode)
	if err != nil {
		slog.Error("Error compressing", "filename", upload.Filename, "error", err)
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleListDocuments returns all saved documents
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.service.ListDocuments()
	if err != nil {
		slog.Error("Error listing documents", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if docs == nil {
		docs = []*library.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleGetDocument returns a single saved document
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.GetDocument(r.PathValue("id"))
	if err != nil {
		writeDocumentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleGetDocumentFile returns the PDF of a saved document
func (s *Server) handleGetDocumentFile(w http.ResponseWriter, r *http.Request) {
	doc, data, err := s.service.DocumentFile(r.PathValue("id"))
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Write(data)
}

// handleDeleteDocument deletes a saved document
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteDocument(r.PathValue("id")); err != nil {
		writeDocumentError(w, err)
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

func writeDocumentError(w http.ResponseWriter, err error) {
	if errors.Is(err, library.ErrNotFound) {
		corsError(w, "Document not found", http.StatusNotFound)
		return
	}
	slog.Error("Error accessing document", "error", err)
	corsError(w, "Internal server error", http.StatusInternalServerError)
}
