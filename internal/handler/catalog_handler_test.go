package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
	"storefront/internal/validation"
)

func newCatalogHandler() (*CatalogHandler, *MockCatalogService) {
	svc := new(MockCatalogService)
	return NewCatalogHandler(svc, validation.New(), &recordingEvents{}, zerolog.Nop()), svc
}

func TestCatalogHandler_ListBrands(t *testing.T) {
	h, svc := newCatalogHandler()
	brands := []model.Brand{{ID: uuid.New(), Name: "Apple", Slug: "apple"}}
	svc.On("ListBrands", mock.Anything).Return(brands, nil)

	w := serve("GET /api/brands", h.ListBrands, jsonRequest(http.MethodGet, "/api/brands", ""))

	require.Equal(t, http.StatusOK, w.Code)
	var got []model.Brand
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, brands, got)
}

func TestCatalogHandler_CreateBrand(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockError      error
		expectService  bool
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			body:           `{"name": "Samsung"}`,
			expectService:  true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Slug taken",
			body:           `{"name": "Samsung", "slug": "samsung"}`,
			mockError:      model.ErrSlugTaken,
			expectService:  true,
			expectedStatus: http.StatusConflict,
			expectedCode:   model.ErrCodeSlugTaken,
		},
		{
			name:           "Missing name",
			body:           `{"slug": "samsung"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeValidation,
		},
		{
			name:           "Invalid slug",
			body:           `{"name": "Samsung", "slug": "Sam Sung"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newCatalogHandler()
			if tt.expectService {
				if tt.mockError != nil {
					svc.On("CreateBrand", mock.Anything, mock.AnythingOfType("*model.BrandInput")).Return(nil, tt.mockError)
				} else {
					svc.On("CreateBrand", mock.Anything, mock.AnythingOfType("*model.BrandInput")).
						Return(&model.Brand{ID: uuid.New(), Name: "Samsung", Slug: "samsung"}, nil)
				}
			}

			w := serve("POST /api/admin/brands", h.CreateBrand, jsonRequest(http.MethodPost, "/api/admin/brands", tt.body))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestCatalogHandler_UpdateCategory(t *testing.T) {
	id := uuid.New()
	parent := uuid.New()

	h, svc := newCatalogHandler()
	svc.On("UpdateCategory", mock.Anything, id, mock.MatchedBy(func(in *model.CategoryInput) bool {
		return in.Name == "Capas" && in.ParentID != nil && *in.ParentID == parent
	})).Return(&model.Category{ID: id, Name: "Capas", Slug: "capas", ParentID: &parent}, nil)

	body := `{"name": "Capas", "parentId": "` + parent.String() + `"}`
	w := serve("PUT /api/admin/categories/{id}", h.UpdateCategory,
		jsonRequest(http.MethodPut, "/api/admin/categories/"+id.String(), body))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestCatalogHandler_UpdateCategory_InvalidID(t *testing.T) {
	h, svc := newCatalogHandler()

	w := serve("PUT /api/admin/categories/{id}", h.UpdateCategory,
		jsonRequest(http.MethodPut, "/api/admin/categories/nope", `{"name": "Capas"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "UpdateCategory", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogHandler_ListModels(t *testing.T) {
	brandID := uuid.New()

	tests := []struct {
		name           string
		query          string
		brandID        *uuid.UUID
		expectService  bool
		expectedStatus int
	}{
		{name: "All models", expectService: true, expectedStatus: http.StatusOK},
		{name: "Filtered by brand", query: "?brand=" + brandID.String(), brandID: &brandID, expectService: true, expectedStatus: http.StatusOK},
		{name: "Invalid brand", query: "?brand=apple", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newCatalogHandler()
			if tt.expectService {
				svc.On("ListModels", mock.Anything, tt.brandID).Return([]model.ProductModel{}, nil)
			}

			w := serve("GET /api/models", h.ListModels, jsonRequest(http.MethodGet, "/api/models"+tt.query, ""))

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestCatalogHandler_CreateModel_RequiresBrand(t *testing.T) {
	h, svc := newCatalogHandler()

	w := serve("POST /api/admin/models", h.CreateModel,
		jsonRequest(http.MethodPost, "/api/admin/models", `{"name": "iPhone 15"}`))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Fields, "brandId")
	svc.AssertNotCalled(t, "CreateModel", mock.Anything, mock.Anything)
}

func TestCatalogHandler_DeleteModel(t *testing.T) {
	tests := []struct {
		name           string
		mockError      error
		expectedStatus int
	}{
		{name: "Success", expectedStatus: http.StatusNoContent},
		{name: "Not found", mockError: model.ErrNotFound, expectedStatus: http.StatusNotFound},
		{name: "Service error", mockError: errors.New("database error"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uuid.New()
			h, svc := newCatalogHandler()
			svc.On("DeleteModel", mock.Anything, id).Return(tt.mockError)

			w := serve("DELETE /api/admin/models/{id}", h.DeleteModel,
				jsonRequest(http.MethodDelete, "/api/admin/models/"+id.String(), ""))

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
