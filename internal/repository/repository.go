package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront/internal/model"
)

// Lookups return (nil, nil) when the row does not exist.

// TxBeginner starts database transactions.
type TxBeginner interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// List returns one page of products matching filter and the total match count.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetBySlug retrieves a single product by its slug.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DecrementStock removes qty units within tx. Returns model.ErrOutOfStock
	// when fewer than qty units remain.
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) error

	// IncrementStock returns qty units to stock within tx.
	IncrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) error
}

// CatalogRepository defines data access for brands, categories and product models.
type CatalogRepository interface {
	ListBrands(ctx context.Context) ([]model.Brand, error)
	GetBrand(ctx context.Context, id uuid.UUID) (*model.Brand, error)
	CreateBrand(ctx context.Context, b *model.Brand) error
	UpdateBrand(ctx context.Context, b *model.Brand) error
	DeleteBrand(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error)
	CreateCategory(ctx context.Context, c *model.Category) error
	UpdateCategory(ctx context.Context, c *model.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	// ListModels returns product models, optionally restricted to one brand.
	ListModels(ctx context.Context, brandID *uuid.UUID) ([]model.ProductModel, error)
	GetModel(ctx context.Context, id uuid.UUID) (*model.ProductModel, error)
	CreateModel(ctx context.Context, m *model.ProductModel) error
	UpdateModel(ctx context.Context, m *model.ProductModel) error
	DeleteModel(ctx context.Context, id uuid.UUID) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	TxBeginner

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// GetByNumber retrieves an order by its public order number along with its items.
	GetByNumber(ctx context.Context, number string) (*model.Order, []model.OrderItem, error)

	// GetForUpdate locks an order row within tx.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)

	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, trackingCode *string) error
	SetPaymentReference(ctx context.Context, id uuid.UUID, reference string) error
}

// UserRepository defines data access for user accounts.
type UserRepository interface {
	TxBeginner

	// Create inserts u. Returns model.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, int, error)

	UpdateProfile(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, tx pgx.Tx, id uuid.UUID, hash string) error
	SetEmailVerified(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	SetRole(ctx context.Context, id uuid.UUID, role model.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TokenRepository stores one-time verification and reset tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *model.UserToken) error

	// Consume marks the unexpired, unused token with hash as used within tx
	// and returns it. Returns (nil, nil) when no such token exists.
	Consume(ctx context.Context, tx pgx.Tx, kind model.TokenKind, hash string) (*model.UserToken, error)

	// InvalidateUser marks all outstanding tokens of kind for userID as used.
	InvalidateUser(ctx context.Context, userID uuid.UUID, kind model.TokenKind) error
}

// AddressRepository defines data access for user address books.
type AddressRepository interface {
	TxBeginner

	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Address, error)

	// Get returns the address only when it belongs to userID.
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Address, error)
	CountByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)

	Create(ctx context.Context, tx pgx.Tx, a *model.Address) error
	Update(ctx context.Context, a *model.Address) error
	Delete(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) error

	// ClearDefault unsets the default flag on every address of userID.
	ClearDefault(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error
	SetDefault(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) error

	// PromoteLatest makes the newest remaining address the default.
	PromoteLatest(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error
}

// ContentRepository defines data access for reviews, testimonials, banners and settings.
type ContentRepository interface {
	CreateReview(ctx context.Context, r *model.Review) error
	ListReviews(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]model.Review, error)
	ListPendingReviews(ctx context.Context) ([]model.Review, error)
	// ReviewStats returns the average rating and count of approved reviews.
	ReviewStats(ctx context.Context, productID uuid.UUID) (float64, int, error)
	ApproveReview(ctx context.Context, id uuid.UUID) error
	DeleteReview(ctx context.Context, id uuid.UUID) error

	ListTestimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error)
	CreateTestimonial(ctx context.Context, t *model.Testimonial) error
	UpdateTestimonial(ctx context.Context, t *model.Testimonial) error
	DeleteTestimonial(ctx context.Context, id uuid.UUID) error

	ListBanners(ctx context.Context, activeOnly bool) ([]model.Banner, error)
	CreateBanner(ctx context.Context, b *model.Banner) error
	UpdateBanner(ctx context.Context, b *model.Banner) error
	DeleteBanner(ctx context.Context, id uuid.UUID) error

	GetSettings(ctx context.Context) (map[string]string, error)
	UpsertSettings(ctx context.Context, values map[string]string) error
}
