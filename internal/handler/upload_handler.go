package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"storefront/internal/model"
	"storefront/internal/upload"
)

// multipartOverhead is the slack allowed on top of the file size for the
// multipart envelope.
const multipartOverhead = 64 << 10

// UploadHandler accepts admin media uploads.
type UploadHandler struct {
	service  upload.Service
	maxBytes int64
	logger   zerolog.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(service upload.Service, maxBytes int64, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service:  service,
		maxBytes: maxBytes,
		logger:   logger.With().Str("handler", "upload").Logger(),
	}
}

// Upload handles POST /api/admin/uploads with a multipart "file" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, model.ErrFileTooLarge, h.logger)
			return
		}
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeValidation,
			Message: "A file is required",
			Fields:  map[string]string{"file": "required"},
		})
		return
	}
	defer file.Close()

	result, err := h.service.Upload(r.Context(), header.Filename, file)
	respond(w, http.StatusCreated, result, err, h.logger)
}

// Delete handles DELETE /api/admin/uploads/{key...}.
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("key")); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
