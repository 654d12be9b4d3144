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

// CatalogHandler serves brands, categories and product models.
type CatalogHandler struct {
	service service.CatalogService
	codec   codec
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service service.CatalogService, v *validation.Validator, events security.Recorder, logger zerolog.Logger) *CatalogHandler {
	logger = logger.With().Str("handler", "catalog").Logger()
	return &CatalogHandler{
		service: service,
		codec:   newCodec(v, events, logger),
		logger:  logger,
	}
}

func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.ListBrands(r.Context())
	respond(w, http.StatusOK, brands, err, h.logger)
}

func (h *CatalogHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var in model.BrandInput
	if !h.codec.decode(w, r, &in) {
		return
	}
	brand, err := h.service.CreateBrand(r.Context(), &in)
	respond(w, http.StatusCreated, brand, err, h.logger)
}

func (h *CatalogHandler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var in model.BrandInput
	if !h.codec.decode(w, r, &in) {
		return
	}
	brand, err := h.service.UpdateBrand(r.Context(), id, &in)
	respond(w, http.StatusOK, brand, err, h.logger)
}

func (h *CatalogHandler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	noContentByID(w, r, h.service.DeleteBrand, h.logger)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	respond(w, http.StatusOK, categories, err, h.logger)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in model.CategoryInput
	if !h.codec.decode(w, r, &in) {
		return
	}
	category, err := h.service.CreateCategory(r.Context(), &in)
	respond(w, http.StatusCreated, category, err, h.logger)
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var in model.CategoryInput
	if !h.codec.decode(w, r, &in) {
		return
	}
	category, err := h.service.UpdateCategory(r.Context(), id, &in)
	respond(w, http.StatusOK, category, err, h.logger)
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	noContentByID(w, r, h.service.DeleteCategory, h.logger)
}

// ListModels handles GET /api/models with an optional ?brand=<uuid> filter.
func (h *CatalogHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	var brandID *uuid.UUID
	if raw := r.URL.Query().Get("brand"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeServiceError(w, model.NewValidationError("brand", "must be a valid UUID"), h.logger)
			return
		}
		brandID = &id
	}
	models, err := h.service.ListModels(r.Context(), brandID)
	respond(w, http.StatusOK, models, err, h.logger)
}

func (h *CatalogHandler) CreateModel(w http.ResponseWriter, r *http.Request) {
	var in model.ProductModelInput
	if !h.codec.decode(w, r, &in) {
		return
	}
	m, err := h.service.CreateModel(r.Context(), &in)
	respond(w, http.StatusCreated, m, err, h.logger)
}

func (h *CatalogHandler) UpdateModel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var in model.ProductModelInput
	if !h.codec.decode(w, r, &in) {
		return
	}
	m, err := h.service.UpdateModel(r.Context(), id, &in)
	respond(w, http.StatusOK, m, err, h.logger)
}

func (h *CatalogHandler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	noContentByID(w, r, h.service.DeleteModel, h.logger)
}
