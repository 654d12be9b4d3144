package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/model"
	"storefront/internal/security"
	"storefront/internal/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// statusByCode maps domain error codes to HTTP statuses.
var statusByCode = map[string]int{
	model.ErrCodeInvalidJSON:         http.StatusBadRequest,
	model.ErrCodeValidation:          http.StatusBadRequest,
	model.ErrCodeProductNotFound:     http.StatusNotFound,
	model.ErrCodeProductUnavailable:  http.StatusConflict,
	model.ErrCodeOutOfStock:          http.StatusConflict,
	model.ErrCodeInvalidQuantity:     http.StatusBadRequest,
	model.ErrCodeEmptyCart:           http.StatusBadRequest,
	model.ErrCodeOrderNotFound:       http.StatusNotFound,
	model.ErrCodeInvalidStatus:       http.StatusConflict,
	model.ErrCodeNotFound:            http.StatusNotFound,
	model.ErrCodeSlugTaken:           http.StatusConflict,
	model.ErrCodeEmailTaken:          http.StatusConflict,
	model.ErrCodeInvalidCredentials:  http.StatusUnauthorized,
	model.ErrCodeEmailNotVerified:    http.StatusForbidden,
	model.ErrCodeInvalidToken:        http.StatusBadRequest,
	model.ErrCodeAddressNotFound:     http.StatusNotFound,
	model.ErrCodeUnsupportedMedia:    http.StatusUnsupportedMediaType,
	model.ErrCodeFileTooLarge:        http.StatusRequestEntityTooLarge,
	model.ErrCodeTrackingNotFound:    http.StatusNotFound,
	model.ErrCodeInvalidTrackingCode: http.StatusBadRequest,
	model.ErrCodeUnauthorised:        http.StatusUnauthorized,
	model.ErrCodeForbidden:           http.StatusForbidden,
	model.ErrCodeSelfModification:    http.StatusForbidden,
	model.ErrCodeRateLimited:         http.StatusTooManyRequests,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful left to tell the client.
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	evt := logger.Warn()
	if status >= http.StatusInternalServerError {
		evt = logger.Error()
	}
	evt.Str("code", code).Int("status", status).Msg(message)
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError translates err into an HTTP response. Errors that are not
// part of the domain vocabulary become a generic 500 and only reach the log.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		logger.Debug().Interface("fields", validationErr.Fields).Msg("validation failed")
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeValidation,
			Message: "Request validation failed",
			Fields:  validationErr.Fields,
		})
		return
	}

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status, ok := statusByCode[domainErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		writeError(w, status, domainErr.Code, domainErr.Message, logger)
		return
	}

	logger.Error().Err(err).Msg("unhandled service error")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:   model.ErrCodeInternalError,
		Message: "An unexpected error occurred",
	})
}

// codec decodes, sanitizes and validates JSON request bodies.
type codec struct {
	validator *validation.Validator
	events    security.Recorder
	logger    zerolog.Logger
}

func newCodec(v *validation.Validator, events security.Recorder, logger zerolog.Logger) codec {
	return codec{validator: v, events: events, logger: logger}
}

// decode reads the body into dst. On failure it writes the response and
// returns false.
func (c codec) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "Request body is not valid JSON", c.logger)
		return false
	}

	if validation.SanitizeStruct(dst) && c.events != nil {
		c.events.RecordRequest(r, security.EventSuspiciousInput, security.SeverityMedium, "request body contained markup or script")
	}

	if err := c.validator.Validate(dst); err != nil {
		writeServiceError(w, err, c.logger)
		return false
	}
	return true
}

// pathID parses the named path wildcard as a UUID.
func pathID(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeValidation,
			Message: "Invalid identifier",
			Fields:  map[string]string{name: "must be a valid UUID"},
		})
		logger.Debug().Str("param", name).Str("value", r.PathValue(name)).Msg("invalid path identifier")
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads limit and offset query parameters.
func pagination(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (limit, offset int, ok bool) {
	limit, ok = queryInt(w, r, "limit", logger)
	if !ok {
		return 0, 0, false
	}
	offset, ok = queryInt(w, r, "offset", logger)
	return limit, offset, ok
}

func queryInt(w http.ResponseWriter, r *http.Request, key string, logger zerolog.Logger) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeValidation,
			Message: "Invalid query parameter",
			Fields:  map[string]string{key: "must be an integer"},
		})
		logger.Debug().Str("param", key).Str("value", raw).Msg("invalid query parameter")
		return 0, false
	}
	return n, true
}

// queryBool reads an optional boolean query parameter.
func queryBool(r *http.Request, key string) *bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(key))
	if err != nil {
		return nil
	}
	return &b
}

// respond writes data with status, or the mapped error when err is set.
func respond(w http.ResponseWriter, status int, data any, err error, logger zerolog.Logger) {
	if err != nil {
		writeServiceError(w, err, logger)
		return
	}
	writeJSON(w, status, data)
}

type idAction func(ctx context.Context, id uuid.UUID) error

// noContentByID runs fn for the {id} wildcard and answers 204 on success.
func noContentByID(w http.ResponseWriter, r *http.Request, fn idAction, logger zerolog.Logger) {
	id, ok := pathID(w, r, "id", logger)
	if !ok {
		return
	}
	if err := fn(r.Context(), id); err != nil {
		writeServiceError(w, err, logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
