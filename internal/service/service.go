package service

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/auth"
	"storefront/internal/model"
)

// ProductService defines operations for the product catalogue.
type ProductService interface {
	// List returns a page of products. Public callers never see inactive products.
	List(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error)

	// GetByID retrieves a single product. Inactive products are hidden unless includeInactive.
	GetByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*model.Product, error)

	// GetBySlug retrieves an active product by its slug.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	Create(ctx context.Context, in *model.ProductInput) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, in *model.ProductInput) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CatalogService defines operations for brands, categories and product models.
type CatalogService interface {
	ListBrands(ctx context.Context) ([]model.Brand, error)
	CreateBrand(ctx context.Context, in *model.BrandInput) (*model.Brand, error)
	UpdateBrand(ctx context.Context, id uuid.UUID, in *model.BrandInput) (*model.Brand, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, in *model.CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, in *model.CategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListModels(ctx context.Context, brandID *uuid.UUID) ([]model.ProductModel, error)
	CreateModel(ctx context.Context, in *model.ProductModelInput) (*model.ProductModel, error)
	UpdateModel(ctx context.Context, id uuid.UUID, in *model.ProductModelInput) (*model.ProductModel, error)
	DeleteModel(ctx context.Context, id uuid.UUID) error
}

// OrderService defines operations for checkout and order management.
type OrderService interface {
	// Checkout prices the cart from the catalogue, places the order and opens
	// a hosted payment session. userID is nil for guest checkouts.
	Checkout(ctx context.Context, userID *uuid.UUID, req *model.CheckoutRequest) (*model.CheckoutResponse, error)

	// Get returns an order visible to viewer: its owner or an administrator.
	Get(ctx context.Context, id uuid.UUID, viewer *auth.Claims) (*model.OrderDetail, error)

	ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) (*model.OrderPage, error)

	// UpdateStatus moves an order through its lifecycle. Cancelling restocks its items.
	UpdateStatus(ctx context.Context, id uuid.UUID, update *model.OrderStatusUpdate) (*model.Order, error)

	// Lookup finds a guest order by number and customer email.
	Lookup(ctx context.Context, req *model.OrderLookupRequest) (*model.OrderLookupResponse, error)

	Track(ctx context.Context, code string) (*model.TrackingInfo, error)
}

// UserService defines account operations.
type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)

	// ForgotPassword sends a reset link when the account exists. It never
	// reports whether it does.
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error

	Profile(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in *model.ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, in *model.PasswordChange) error

	List(ctx context.Context, limit, offset int) (*model.UserPage, error)
	SetRole(ctx context.Context, actorID, id uuid.UUID, role model.Role) error
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

// AddressService manages a user's address book.
type AddressService interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	Create(ctx context.Context, userID uuid.UUID, in *model.AddressInput) (*model.Address, error)
	Update(ctx context.Context, userID, id uuid.UUID, in *model.AddressInput) (*model.Address, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) error
}

// ContentService manages reviews and storefront content.
type ContentService interface {
	// CreateReview stores a pending review written by userID.
	CreateReview(ctx context.Context, userID, productID uuid.UUID, in *model.ReviewInput) (*model.Review, error)

	// ProductReviews returns approved reviews with their average rating.
	ProductReviews(ctx context.Context, productID uuid.UUID) (*model.ReviewSummary, error)
	PendingReviews(ctx context.Context) ([]model.Review, error)
	ApproveReview(ctx context.Context, id uuid.UUID) error
	DeleteReview(ctx context.Context, id uuid.UUID) error

	ListTestimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error)
	CreateTestimonial(ctx context.Context, in *model.TestimonialInput) (*model.Testimonial, error)
	UpdateTestimonial(ctx context.Context, id uuid.UUID, in *model.TestimonialInput) (*model.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id uuid.UUID) error

	ListBanners(ctx context.Context, activeOnly bool) ([]model.Banner, error)
	CreateBanner(ctx context.Context, in *model.BannerInput) (*model.Banner, error)
	UpdateBanner(ctx context.Context, id uuid.UUID, in *model.BannerInput) (*model.Banner, error)
	DeleteBanner(ctx context.Context, id uuid.UUID) error

	Settings(ctx context.Context) (map[string]string, error)
	UpdateSettings(ctx context.Context, values map[string]string) (map[string]string, error)

	// Home aggregates the storefront landing page.
	Home(ctx context.Context) (*model.HomePage, error)
}
