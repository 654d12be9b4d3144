package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
	"storefront/internal/security"
)

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadHandler_Upload(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")

	tests := []struct {
		name           string
		field          string
		content        []byte
		mockError      error
		expectService  bool
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			field:          "file",
			content:        png,
			expectService:  true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Missing file field",
			field:          "image",
			content:        png,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeValidation,
		},
		{
			name:           "Rejected media type",
			field:          "file",
			content:        []byte("#!/bin/sh"),
			mockError:      model.ErrUnsupportedMedia,
			expectService:  true,
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedCode:   model.ErrCodeUnsupportedMedia,
		},
		{
			name:           "Body over the limit",
			field:          "file",
			content:        bytes.Repeat([]byte("a"), 256<<10),
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedCode:   model.ErrCodeFileTooLarge,
		},
		{
			name:           "Storage failure",
			field:          "file",
			content:        png,
			mockError:      errors.New("bucket unavailable"),
			expectService:  true,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUploadService)
			h := NewUploadHandler(svc, 1024, zerolog.Nop())
			if tt.expectService {
				if tt.mockError != nil {
					svc.On("Upload", mock.Anything, "photo.png", mock.Anything).Return(nil, tt.mockError)
				} else {
					svc.On("Upload", mock.Anything, "photo.png", mock.Anything).
						Return(&model.UploadResult{Key: "products/2024/03/x.png", URL: "/uploads/products/2024/03/x.png"}, nil)
				}
			}

			w := serve("POST /api/admin/uploads", h.Upload, multipartRequest(t, tt.field, "photo.png", tt.content))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestUploadHandler_Delete(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		key            string
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			path:           "/api/admin/uploads/products/2024/03/x.png",
			key:            "products/2024/03/x.png",
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "Key outside uploads",
			path:           "/api/admin/uploads/banners/x.png",
			key:            "banners/x.png",
			mockError:      &model.ValidationError{Fields: map[string]string{"key": "invalid"}},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeValidation,
		},
		{
			name:           "Storage failure",
			path:           "/api/admin/uploads/products/x.png",
			key:            "products/x.png",
			mockError:      errors.New("bucket unavailable"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockUploadService)
			h := NewUploadHandler(svc, 1024, zerolog.Nop())
			svc.On("Delete", mock.Anything, tt.key).Return(tt.mockError)

			w := serve("DELETE /api/admin/uploads/{key...}", h.Delete, httptest.NewRequest(http.MethodDelete, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestSecurityHandler_Events(t *testing.T) {
	log := security.NewEventLog(10, zerolog.Nop())
	for i := 0; i < 3; i++ {
		log.Record(security.Event{Type: security.EventAuthFailure, Severity: security.SeverityLow, Time: time.Now()})
	}
	h := NewSecurityHandler(log, zerolog.Nop())

	t.Run("Limited", func(t *testing.T) {
		w := serve("GET /api/admin/security/events", h.Events, jsonRequest(http.MethodGet, "/api/admin/security/events?limit=2", ""))

		require.Equal(t, http.StatusOK, w.Code)
		var resp securityEventsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Events, 2)
		assert.Equal(t, 3, resp.Stats.Total)
		assert.Equal(t, 3, resp.Stats.ByType[security.EventAuthFailure])
	})

	t.Run("Invalid limit", func(t *testing.T) {
		w := serve("GET /api/admin/security/events", h.Events, jsonRequest(http.MethodGet, "/api/admin/security/events?limit=x", ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestHealthHandler(t *testing.T) {
	t.Run("Liveness", func(t *testing.T) {
		h := NewHealthHandler(stubPinger{err: errors.New("down")}, zerolog.Nop())

		w := serve("GET /health", h.Health, jsonRequest(http.MethodGet, "/health", ""))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Ready", func(t *testing.T) {
		h := NewHealthHandler(stubPinger{}, zerolog.Nop())

		w := serve("GET /ready", h.Ready, jsonRequest(http.MethodGet, "/ready", ""))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ready")
	})

	t.Run("Database down", func(t *testing.T) {
		h := NewHealthHandler(stubPinger{err: errors.New("down")}, zerolog.Nop())

		w := serve("GET /ready", h.Ready, jsonRequest(http.MethodGet, "/ready", ""))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
