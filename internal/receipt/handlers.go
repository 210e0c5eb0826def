package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	msgInternalError = "Internal server error"
	msgNotFound      = "No receipt found for that ID."
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// writeServiceError maps a service error to a status code and message
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		slog.Warn("Receipt rejected", "reason", verr.Reason, "detail", verr.Detail)
		writeError(w, http.StatusBadRequest, verr.Message())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	default:
		slog.Error("Error handling request", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
	}
}

// handleProcessReceipt scores a JSON receipt and returns its ID
func (s *Server) handleProcessReceipt(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReceiptBytes))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		slog.Warn("Error decoding receipt", "error", err)
		writeError(w, http.StatusBadRequest, ErrInvalidFormat.Message())
		return
	}

	record, err := s.service.ProcessReceipt(raw)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	slog.Info("Receipt processed", "id", record.ID, "points", record.Points)
	writeJSON(w, http.StatusOK, map[string]string{"id": record.ID})
}

// handleGetPoints returns the points awarded to a receipt
func (s *Server) handleGetPoints(w http.ResponseWriter, r *http.Request) {
	points, err := s.service.GetPoints(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"points": points})
}

// handleGetBreakdown returns the per-rule contributions for a receipt
func (s *Server) handleGetBreakdown(w http.ResponseWriter, r *http.Request) {
	record, err := s.service.GetScore(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleScanReceipt extracts a receipt from an uploaded image and scores it
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	if !s.service.ScanningEnabled() {
		writeError(w, http.StatusServiceUnavailable, "Receipt scanning is not enabled.")
		return
	}
	if !s.scanLimiter.Allow() {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "Too many scan requests. Please try again shortly.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		slog.Warn("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "File is too large. Please compress or resize your image."
		}
		writeError(w, http.StatusBadRequest, errorMsg)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Warn("Error getting file from form", "error", err)
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	contentType := uploadContentType(header.Header.Get("Content-Type"), header.Filename)

	record, receipt, err := s.service.ScanReceipt(r.Context(), header.Filename, data, contentType)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeServiceError(w, err)
			return
		}
		slog.Error("Error scanning receipt", "filename", header.Filename, "error", err)
		writeError(w, http.StatusBadGateway, "Could not read the receipt image.")
		return
	}

	slog.Info("Receipt scanned", "id", record.ID, "points", record.Points, "filename", header.Filename)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      record.ID,
		"points":  record.Points,
		"receipt": receipt,
	})
}

// uploadContentType falls back to the file extension when the client sent no useful type
func uploadContentType(declared, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
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

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
