package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"ieoms/backend/services/energy-service/internal/service"
	"ieoms/backend/services/energy-service/internal/upload"
)

// multipartOverhead allows for boundaries and part headers around the file.
const multipartOverhead = 64 << 10

// Ingestor stores uploaded batches.
type Ingestor interface {
	IngestUpload(ctx context.Context, householdID int64, r io.Reader) (*service.IngestionResult, error)
}

// UploadHandler accepts CSV uploads.
type UploadHandler struct {
	ingestor Ingestor
	maxBytes int64
	logger   *zap.Logger
}

// NewUploadHandler returns handler.
func NewUploadHandler(ingestor Ingestor, maxBytes int64, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{ingestor: ingestor, maxBytes: maxBytes, logger: logger}
}

// Upload handles POST /api/upload/{householdID} with a multipart "file" part.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	householdID, ok := householdFromPath(w, r)
	if !ok {
		return
	}
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart/form-data body")
		return
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "no file uploaded")
			return
		}
		if err != nil {
			writeServiceError(w, h.logger, errors.Join(upload.ErrMalformedCSV, err))
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		if !upload.IsCSVName(part.FileName(), part.Header.Get("Content-Type")) {
			writeServiceError(w, h.logger, upload.ErrUnsupportedFile)
			return
		}

		result, err := h.ingestor.IngestUpload(r.Context(), householdID, part)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "data uploaded and processed",
			"result":  result,
		})
		return
	}
}
