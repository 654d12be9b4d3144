package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"storefront/internal/security"
)

const defaultEventLimit = 100

// EventSource exposes recorded security events.
type EventSource interface {
	Recent(limit int) []security.Event
	Stats() security.Stats
}

// SecurityHandler serves the admin view of the security event log.
type SecurityHandler struct {
	events EventSource
	logger zerolog.Logger
}

// NewSecurityHandler creates a new security handler.
func NewSecurityHandler(events EventSource, logger zerolog.Logger) *SecurityHandler {
	return &SecurityHandler{
		events: events,
		logger: logger.With().Str("handler", "security").Logger(),
	}
}

type securityEventsResponse struct {
	Events []security.Event `json:"events"`
	Stats  security.Stats   `json:"stats"`
}

// Events handles GET /api/admin/security/events.
func (h *SecurityHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", h.logger)
	if !ok {
		return
	}
	if limit <= 0 {
		limit = defaultEventLimit
	}

	writeJSON(w, http.StatusOK, securityEventsResponse{
		Events: h.events.Recent(limit),
		Stats:  h.events.Stats(),
	})
}
