package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/payment"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Product), args.Int(1), args.Error(2)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p *model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, p *model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) error {
	return m.Called(ctx, tx, id, qty).Error(0)
}

func (m *MockProductRepository) IncrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) error {
	return m.Called(ctx, tx, id, qty).Error(0)
}

// MockCatalogRepository is a mock implementation of CatalogRepository.
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListBrands(ctx context.Context) ([]model.Brand, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Brand), args.Error(1)
}

func (m *MockCatalogRepository) GetBrand(ctx context.Context, id uuid.UUID) (*model.Brand, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Brand), args.Error(1)
}

func (m *MockCatalogRepository) CreateBrand(ctx context.Context, b *model.Brand) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockCatalogRepository) UpdateBrand(ctx context.Context, b *model.Brand) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockCatalogRepository) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCatalogRepository) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCatalogRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCatalogRepository) UpdateCategory(ctx context.Context, c *model.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCatalogRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogRepository) ListModels(ctx context.Context, brandID *uuid.UUID) ([]model.ProductModel, error) {
	args := m.Called(ctx, brandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductModel), args.Error(1)
}

func (m *MockCatalogRepository) GetModel(ctx context.Context, id uuid.UUID) (*model.ProductModel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductModel), args.Error(1)
}

func (m *MockCatalogRepository) CreateModel(ctx context.Context, pm *model.ProductModel) error {
	return m.Called(ctx, pm).Error(0)
}

func (m *MockCatalogRepository) UpdateModel(ctx context.Context, pm *model.ProductModel) error {
	return m.Called(ctx, pm).Error(0)
}

func (m *MockCatalogRepository) DeleteModel(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *MockOrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	return m.Called(ctx, tx, items).Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).([]model.OrderItem), args.Error(2)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, []model.OrderItem, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).([]model.OrderItem), args.Error(2)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).([]model.OrderItem), args.Error(2)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, trackingCode *string) error {
	return m.Called(ctx, tx, id, status, trackingCode).Error(0)
}

func (m *MockOrderRepository) SetPaymentReference(ctx context.Context, id uuid.UUID, reference string) error {
	return m.Called(ctx, id, reference).Error(0)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, u *model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, u *model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, tx pgx.Tx, id uuid.UUID, hash string) error {
	return m.Called(ctx, tx, id, hash).Error(0)
}

func (m *MockUserRepository) SetEmailVerified(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *MockUserRepository) SetRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockTokenRepository is a mock implementation of TokenRepository.
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token *model.UserToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockTokenRepository) Consume(ctx context.Context, tx pgx.Tx, kind model.TokenKind, hash string) (*model.UserToken, error) {
	args := m.Called(ctx, tx, kind, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserToken), args.Error(1)
}

func (m *MockTokenRepository) InvalidateUser(ctx context.Context, userID uuid.UUID, kind model.TokenKind) error {
	return m.Called(ctx, userID, kind).Error(0)
}

// MockAddressRepository is a mock implementation of AddressRepository.
type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Address), args.Error(1)
}

func (m *MockAddressRepository) Get(ctx context.Context, userID, id uuid.UUID) (*model.Address, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

func (m *MockAddressRepository) CountByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockAddressRepository) Create(ctx context.Context, tx pgx.Tx, a *model.Address) error {
	return m.Called(ctx, tx, a).Error(0)
}

func (m *MockAddressRepository) Update(ctx context.Context, a *model.Address) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAddressRepository) Delete(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) error {
	return m.Called(ctx, tx, userID, id).Error(0)
}

func (m *MockAddressRepository) ClearDefault(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	return m.Called(ctx, tx, userID).Error(0)
}

func (m *MockAddressRepository) SetDefault(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) error {
	return m.Called(ctx, tx, userID, id).Error(0)
}

func (m *MockAddressRepository) PromoteLatest(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	return m.Called(ctx, tx, userID).Error(0)
}

// MockContentRepository is a mock implementation of ContentRepository.
type MockContentRepository struct {
	mock.Mock
}

func (m *MockContentRepository) CreateReview(ctx context.Context, r *model.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockContentRepository) ListReviews(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]model.Review, error) {
	args := m.Called(ctx, productID, approvedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockContentRepository) ListPendingReviews(ctx context.Context) ([]model.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockContentRepository) ReviewStats(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

func (m *MockContentRepository) ApproveReview(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContentRepository) DeleteReview(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContentRepository) ListTestimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Testimonial), args.Error(1)
}

func (m *MockContentRepository) CreateTestimonial(ctx context.Context, t *model.Testimonial) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockContentRepository) UpdateTestimonial(ctx context.Context, t *model.Testimonial) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockContentRepository) DeleteTestimonial(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContentRepository) ListBanners(ctx context.Context, activeOnly bool) ([]model.Banner, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Banner), args.Error(1)
}

func (m *MockContentRepository) CreateBanner(ctx context.Context, b *model.Banner) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockContentRepository) UpdateBanner(ctx context.Context, b *model.Banner) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockContentRepository) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContentRepository) GetSettings(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockContentRepository) UpsertSettings(ctx context.Context, values map[string]string) error {
	return m.Called(ctx, values).Error(0)
}

// MockGateway is a mock implementation of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckout(ctx context.Context, order *model.OrderDetail) (*payment.Session, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

// MockTracker is a mock implementation of tracking.Tracker.
type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Track(ctx context.Context, code string) (*model.TrackingInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrackingInfo), args.Error(1)
}

// MockNotifier is a mock implementation of email.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Welcome(ctx context.Context, to, name, verifyToken string) error {
	return m.Called(ctx, to, name, verifyToken).Error(0)
}

func (m *MockNotifier) PasswordReset(ctx context.Context, to, name, resetToken string) error {
	return m.Called(ctx, to, name, resetToken).Error(0)
}

func (m *MockNotifier) OrderConfirmation(ctx context.Context, order *model.OrderDetail) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockNotifier) OrderStatusChanged(ctx context.Context, order *model.Order) error {
	return m.Called(ctx, order).Error(0)
}

// MockHasher is a mock implementation of auth.PasswordHasher.
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Check(password, hash string) bool {
	return m.Called(password, hash).Bool(0)
}

// MockTokenService is a mock implementation of auth.TokenService.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Issue(userID uuid.UUID, role model.Role) (string, time.Time, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) Parse(token string) (*auth.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// newCommittingTx returns a MockTx that expects a successful commit.
func newCommittingTx(ctx context.Context) *MockTx {
	tx := new(MockTx)
	tx.On("Commit", ctx).Return(nil)
	return tx
}

// newRollbackTx returns a MockTx that expects a rollback.
func newRollbackTx(ctx context.Context) *MockTx {
	tx := new(MockTx)
	tx.On("Rollback", ctx).Return(nil)
	return tx
}
