package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/model"
	"storefront/internal/security"
	"storefront/internal/service"
	"storefront/internal/validation"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	codec   codec
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, v *validation.Validator, events security.Recorder, logger zerolog.Logger) *ProductHandler {
	logger = logger.With().Str("handler", "product").Logger()
	return &ProductHandler{
		service: service,
		codec:   newCodec(v, events, logger),
		logger:  logger,
	}
}

// List handles GET /api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// AdminList handles GET /api/admin/products; inactive products are included.
func (h *ProductHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, includeInactive bool) {
	limit, offset, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := model.ProductFilter{
		Search:          validation.Sanitize(q.Get("q")),
		CategorySlug:    q.Get("category"),
		BrandSlug:       q.Get("brand"),
		Featured:        queryBool(r, "featured"),
		IncludeInactive: includeInactive,
		Sort:            q.Get("sort"),
		Limit:           limit,
		Offset:          offset,
	}
	if raw := q.Get("model"); raw != "" {
		modelID, err := uuid.Parse(raw)
		if err != nil {
			writeServiceError(w, model.NewValidationError("model", "must be a valid UUID"), h.logger)
			return
		}
		filter.ModelID = &modelID
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/products/{id}. The wildcard may also be a product
// slug so storefront URLs can stay readable.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.getBySlug(w, r, raw)
		return
	}

	product, err := h.service.GetByID(r.Context(), id, false)
	respond(w, http.StatusOK, product, err, h.logger)
}

// AdminGet handles GET /api/admin/products/{id}; inactive products are visible.
func (h *ProductHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	product, err := h.service.GetByID(r.Context(), id, true)
	respond(w, http.StatusOK, product, err, h.logger)
}

func (h *ProductHandler) getBySlug(w http.ResponseWriter, r *http.Request, slug string) {
	if !validation.ValidSlug(slug) {
		writeServiceError(w, model.ErrProductNotFound, h.logger)
		return
	}

	product, err := h.service.GetBySlug(r.Context(), slug)
	respond(w, http.StatusOK, product, err, h.logger)
}

// Create handles POST /api/admin/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ProductInput
	if !h.codec.decode(w, r, &in) {
		return
	}

	product, err := h.service.Create(r.Context(), &in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/admin/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var in model.ProductInput
	if !h.codec.decode(w, r, &in) {
		return
	}

	product, err := h.service.Update(r.Context(), id, &in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/admin/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
