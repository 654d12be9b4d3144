package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/security"
	"storefront/internal/service"
	"storefront/internal/validation"
)

// ContentHandler handles reviews, testimonials, banners, settings and the
// landing page.
type ContentHandler struct {
	service service.ContentService
	codec   codec
	logger  zerolog.Logger
}

// NewContentHandler creates a new content handler.
func NewContentHandler(service service.ContentService, v *validation.Validator, events security.Recorder, logger zerolog.Logger) *ContentHandler {
	logger = logger.With().Str("handler", "content").Logger()
	return &ContentHandler{
		service: service,
		codec:   newCodec(v, events, logger),
		logger:  logger,
	}
}

// Home handles GET /api/home.
func (h *ContentHandler) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Home(r.Context())
	respond(w, http.StatusOK, page, err, h.logger)
}

// ProductReviews handles GET /api/products/{id}/reviews.
func (h *ContentHandler) ProductReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	summary, err := h.service.ProductReviews(r.Context(), id)
	respond(w, http.StatusOK, summary, err, h.logger)
}

// CreateReview handles POST /api/products/{id}/reviews.
func (h *ContentHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if !claims.HasAccount() {
		writeServiceError(w, model.ErrUnauthorised, h.logger)
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var in model.ReviewInput
	if !h.codec.decode(w, r, &in) {
		return
	}

	review, err := h.service.CreateReview(r.Context(), claims.UserID, id, &in)
	respond(w, http.StatusCreated, review, err, h.logger)
}

// PendingReviews handles GET /api/admin/reviews.
func (h *ContentHandler) PendingReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.PendingReviews(r.Context())
	respond(w, http.StatusOK, reviews, err, h.logger)
}

// ApproveReview handles POST /api/admin/reviews/{id}/approve.
func (h *ContentHandler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	noContentByID(w, r, h.service.ApproveReview, h.logger)
}

// DeleteReview handles DELETE /api/admin/reviews/{id}.
func (h *ContentHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	noContentByID(w, r, h.service.DeleteReview, h.logger)
}

// Testimonials handles GET /api/testimonials.
func (h *ContentHandler) Testimonials(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListTestimonials(r.Context(), true)
	respond(w, http.StatusOK, items, err, h.logger)
}

// AdminTestimonials handles GET /api/admin/testimonials. ?active=true limits
// the list to published entries.
func (h *ContentHandler) AdminTestimonials(w http.ResponseWriter, r *http.Request) {
	active := queryBool(r, "active")
	items, err := h.service.ListTestimonials(r.Context(), active != nil && *active)
	respond(w, http.StatusOK, items, err, h.logger)
}

// CreateTestimonial handles POST /api/admin/testimonials.
func (h *ContentHandler) CreateTestimonial(w http.ResponseWriter, r *http.Request) {
	var in model.TestimonialInput
	if !h.codec.decode(w, r, &in) {
		return
	}

	item, err := h.service.CreateTestimonial(r.Context(), &in)
	respond(w, http.StatusCreated, item, err, h.logger)
}

// UpdateTestimonial handles PUT /api/admin/testimonials/{id}.
func (h *ContentHandler) UpdateTestimonial(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var in model.TestimonialInput
	if !h.codec.decode(w, r, &in) {
		return
	}

	item, err := h.service.UpdateTestimonial(r.Context(), id, &in)
	respond(w, http.StatusOK, item, err, h.logger)
}

// DeleteTestimonial handles DELETE /api/admin/testimonials/{id}.
func (h *ContentHandler) DeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	noContentByID(w, r, h.service.DeleteTestimonial, h.logger)
}

// Banners handles GET /api/banners.
func (h *ContentHandler) Banners(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListBanners(r.Context(), true)
	respond(w, http.StatusOK, items, err, h.logger)
}

// AdminBanners handles GET /api/admin/banners.
func (h *ContentHandler) AdminBanners(w http.ResponseWriter, r *http.Request) {
	active := queryBool(r, "active")
	items, err := h.service.ListBanners(r.Context(), active != nil && *active)
	respond(w, http.StatusOK, items, err, h.logger)
}

// CreateBanner handles POST /api/admin/banners.
func (h *ContentHandler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	var in model.BannerInput
	if !h.codec.decode(w, r, &in) {
		return
	}

	item, err := h.service.CreateBanner(r.Context(), &in)
	respond(w, http.StatusCreated, item, err, h.logger)
}

// UpdateBanner handles PUT /api/admin/banners/{id}.
func (h *ContentHandler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var in model.BannerInput
	if !h.codec.decode(w, r, &in) {
		return
	}

	item, err := h.service.UpdateBanner(r.Context(), id, &in)
	respond(w, http.StatusOK, item, err, h.logger)
}

// DeleteBanner handles DELETE /api/admin/banners/{id}.
func (h *ContentHandler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	noContentByID(w, r, h.service.DeleteBanner, h.logger)
}

// Settings handles GET /api/settings.
func (h *ContentHandler) Settings(w http.ResponseWriter, r *http.Request) {
	values, err := h.service.Settings(r.Context())
	respond(w, http.StatusOK, values, err, h.logger)
}

// UpdateSettings handles PUT /api/admin/settings.
func (h *ContentHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in model.SettingsUpdate
	if !h.codec.decode(w, r, &in) {
		return
	}

	values, err := h.service.UpdateSettings(r.Context(), in.Values)
	respond(w, http.StatusOK, values, err, h.logger)
}
