package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/security"
	"storefront/internal/service"
	"storefront/internal/validation"
)

// OrderHandler handles checkout, order and tracking requests.
type OrderHandler struct {
	service service.OrderService
	codec   codec
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, v *validation.Validator, events security.Recorder, logger zerolog.Logger) *OrderHandler {
	logger = logger.With().Str("handler", "order").Logger()
	return &OrderHandler{
		service: service,
		codec:   newCodec(v, events, logger),
		logger:  logger,
	}
}

// Checkout handles POST /api/checkout. Signed-in customers get the order
// attached to their account; guests check out anonymously.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if !h.codec.decode(w, r, &req) {
		return
	}

	// API key sessions have no account, so they check out as guests.
	var userID *uuid.UUID
	if claims := auth.ClaimsFromContext(r.Context()); claims.HasAccount() {
		userID = &claims.UserID
	}

	resp, err := h.service.Checkout(r.Context(), userID, &req)
	if err != nil {
		// An unknown product is a bad cart, not a missing resource.
		if errors.Is(err, model.ErrProductNotFound) {
			writeError(w, http.StatusBadRequest, model.ErrCodeProductNotFound, model.ErrProductNotFound.Message, h.logger)
			return
		}
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// ListMine handles GET /api/orders.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if !claims.HasAccount() {
		writeServiceError(w, model.ErrUnauthorised, h.logger)
		return
	}

	limit, offset, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.service.ListMine(r.Context(), claims.UserID, limit, offset)
	respond(w, http.StatusOK, orders, err, h.logger)
}

// Get handles GET /api/orders/{id} and GET /api/admin/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	order, err := h.service.Get(r.Context(), id, auth.ClaimsFromContext(r.Context()))
	respond(w, http.StatusOK, order, err, h.logger)
}

// Lookup handles POST /api/orders/lookup.
func (h *OrderHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	var req model.OrderLookupRequest
	if !h.codec.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Lookup(r.Context(), &req)
	respond(w, http.StatusOK, resp, err, h.logger)
}

// Track handles GET /api/tracking/{code}.
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))
	if !validation.ValidTrackingCode(code) {
		writeServiceError(w, model.ErrInvalidTrackingCode, h.logger)
		return
	}

	info, err := h.service.Track(r.Context(), code)
	respond(w, http.StatusOK, info, err, h.logger)
}

// AdminList handles GET /api/admin/orders?status=&limit=&offset=.
func (h *OrderHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	page, err := h.service.List(r.Context(), model.OrderFilter{
		Status: model.OrderStatus(strings.ToLower(r.URL.Query().Get("status"))),
		Limit:  limit,
		Offset: offset,
	})
	respond(w, http.StatusOK, page, err, h.logger)
}

// UpdateStatus handles PATCH /api/admin/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var update model.OrderStatusUpdate
	if !h.codec.decode(w, r, &update) {
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, &update)
	respond(w, http.StatusOK, order, err, h.logger)
}
