package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/security"
)

// MockProductService is a mock implementation of service.ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductPage), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*model.Product, error) {
	args := m.Called(ctx, id, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, in *model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id uuid.UUID, in *model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockCatalogService is a mock implementation of service.CatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListBrands(ctx context.Context) ([]model.Brand, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Brand), args.Error(1)
}

func (m *MockCatalogService) CreateBrand(ctx context.Context, in *model.BrandInput) (*model.Brand, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Brand), args.Error(1)
}

func (m *MockCatalogService) UpdateBrand(ctx context.Context, id uuid.UUID, in *model.BrandInput) (*model.Brand, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Brand), args.Error(1)
}

func (m *MockCatalogService) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCatalogService) CreateCategory(ctx context.Context, in *model.CategoryInput) (*model.Category, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, in *model.CategoryInput) (*model.Category, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogService) ListModels(ctx context.Context, brandID *uuid.UUID) ([]model.ProductModel, error) {
	args := m.Called(ctx, brandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductModel), args.Error(1)
}

func (m *MockCatalogService) CreateModel(ctx context.Context, in *model.ProductModelInput) (*model.ProductModel, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductModel), args.Error(1)
}

func (m *MockCatalogService) UpdateModel(ctx context.Context, id uuid.UUID, in *model.ProductModelInput) (*model.ProductModel, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductModel), args.Error(1)
}

func (m *MockCatalogService) DeleteModel(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockOrderService is a mock implementation of service.OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, userID *uuid.UUID, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, id uuid.UUID, viewer *auth.Claims) (*model.OrderDetail, error) {
	args := m.Called(ctx, id, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderDetail), args.Error(1)
}

func (m *MockOrderService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, filter model.OrderFilter) (*model.OrderPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderPage), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, update *model.OrderStatusUpdate) (*model.Order, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) Lookup(ctx context.Context, req *model.OrderLookupRequest) (*model.OrderLookupResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderLookupResponse), args.Error(1)
}

func (m *MockOrderService) Track(ctx context.Context, code string) (*model.TrackingInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrackingInfo), args.Error(1)
}

// MockUserService is a mock implementation of service.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) VerifyEmail(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockUserService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockUserService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockUserService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockUserService) Profile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, in *model.ProfileUpdate) (*model.User, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, id uuid.UUID, in *model.PasswordChange) error {
	return m.Called(ctx, id, in).Error(0)
}

func (m *MockUserService) List(ctx context.Context, limit, offset int) (*model.UserPage, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserPage), args.Error(1)
}

func (m *MockUserService) SetRole(ctx context.Context, actorID, id uuid.UUID, role model.Role) error {
	return m.Called(ctx, actorID, id, role).Error(0)
}

func (m *MockUserService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	return m.Called(ctx, actorID, id).Error(0)
}

// MockAddressService is a mock implementation of service.AddressService.
type MockAddressService struct {
	mock.Mock
}

func (m *MockAddressService) List(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Address), args.Error(1)
}

func (m *MockAddressService) Create(ctx context.Context, userID uuid.UUID, in *model.AddressInput) (*model.Address, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

func (m *MockAddressService) Update(ctx context.Context, userID, id uuid.UUID, in *model.AddressInput) (*model.Address, error) {
	args := m.Called(ctx, userID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

func (m *MockAddressService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockAddressService) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

// MockContentService is a mock implementation of service.ContentService.
type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) CreateReview(ctx context.Context, userID, productID uuid.UUID, in *model.ReviewInput) (*model.Review, error) {
	args := m.Called(ctx, userID, productID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockContentService) ProductReviews(ctx context.Context, productID uuid.UUID) (*model.ReviewSummary, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReviewSummary), args.Error(1)
}

func (m *MockContentService) PendingReviews(ctx context.Context) ([]model.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockContentService) ApproveReview(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContentService) DeleteReview(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContentService) ListTestimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Testimonial), args.Error(1)
}

func (m *MockContentService) CreateTestimonial(ctx context.Context, in *model.TestimonialInput) (*model.Testimonial, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Testimonial), args.Error(1)
}

func (m *MockContentService) UpdateTestimonial(ctx context.Context, id uuid.UUID, in *model.TestimonialInput) (*model.Testimonial, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Testimonial), args.Error(1)
}

func (m *MockContentService) DeleteTestimonial(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContentService) ListBanners(ctx context.Context, activeOnly bool) ([]model.Banner, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Banner), args.Error(1)
}

func (m *MockContentService) CreateBanner(ctx context.Context, in *model.BannerInput) (*model.Banner, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Banner), args.Error(1)
}

func (m *MockContentService) UpdateBanner(ctx context.Context, id uuid.UUID, in *model.BannerInput) (*model.Banner, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Banner), args.Error(1)
}

func (m *MockContentService) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContentService) Settings(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockContentService) UpdateSettings(ctx context.Context, values map[string]string) (map[string]string, error) {
	args := m.Called(ctx, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockContentService) Home(ctx context.Context) (*model.HomePage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HomePage), args.Error(1)
}

// MockUploadService is a mock implementation of upload.Service.
type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) Upload(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error) {
	args := m.Called(ctx, filename, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadResult), args.Error(1)
}

func (m *MockUploadService) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// recordingEvents captures security events raised by handlers.
type recordingEvents struct {
	events []security.Event
}

func (r *recordingEvents) Record(evt security.Event) {
	r.events = append(r.events, evt)
}

func (r *recordingEvents) RecordRequest(req *http.Request, typ security.EventType, severity security.Severity, detail string) {
	r.Record(security.Event{Type: typ, Severity: severity, Path: req.URL.Path, Detail: detail})
}

// serve routes req through a mux holding the single pattern so path
// wildcards resolve as they do in production.
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withClaims(req *http.Request, userID uuid.UUID, role model.Role) *http.Request {
	return req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{UserID: userID, Role: role}))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
