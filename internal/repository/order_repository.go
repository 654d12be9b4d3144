package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"storefront/internal/fieldcrypt"
	"storefront/internal/model"
)

const orderColumns = `
	id, number, user_id, customer_name, customer_email, customer_cpf, customer_phone,
	shipping_address, subtotal, shipping_fee, total, status, payment_method,
	payment_reference, tracking_code, notes, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
// Customer details and the shipping address are encrypted at rest.
type orderRepository struct {
	pool   *pgxpool.Pool
	cipher *fieldcrypt.Cipher
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, cipher *fieldcrypt.Cipher, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		cipher: cipher,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	name, email, cpf, phone := order.CustomerName, order.CustomerEmail, order.CustomerCPF, order.CustomerPhone
	if err := r.cipher.EncryptFields(&name, &email, &cpf, &phone); err != nil {
		return fmt.Errorf("failed to encrypt customer details: %w", err)
	}
	address, err := sealJSON(r.cipher, order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to encrypt shipping address: %w", err)
	}

	query := `
		INSERT INTO orders (id, number, user_id, customer_name, customer_email, customer_cpf,
			customer_phone, shipping_address, subtotal, shipping_fee, total, status,
			payment_method, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = tx.Exec(ctx, query,
		order.ID, order.Number, order.UserID, name, email, cpf, phone, address,
		order.Subtotal, order.ShippingFee, order.Total, order.Status,
		order.PaymentMethod, order.Notes, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.Number).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, product_name, unit_price, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.ProductName,
			item.UnitPrice, item.Quantity, item.LineTotal)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	return r.getOne(ctx, r.pool, "SELECT"+orderColumns+" FROM orders WHERE id = $1", id)
}

// GetByNumber retrieves an order by its public number along with its items.
func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, []model.OrderItem, error) {
	return r.getOne(ctx, r.pool, "SELECT"+orderColumns+" FROM orders WHERE number = $1", strings.ToUpper(number))
}

// GetForUpdate locks the order row until tx ends.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	return r.getOne(ctx, tx, "SELECT"+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id)
}

func (r *orderRepository) getOne(ctx context.Context, q querier, query string, arg any) (*model.Order, []model.OrderItem, error) {
	order, err := r.scanOrder(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Interface("key", arg).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Interface("key", arg).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.items(ctx, q, order.ID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

func (r *orderRepository) items(ctx context.Context, q querier, orderID uuid.UUID) ([]model.OrderItem, error) {
	itemsQuery := `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, line_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_name, id
	`

	rows, err := q.Query(ctx, itemsQuery, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.UnitPrice, &item.Quantity, &item.LineTotal)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// ListByUser returns a user's orders, newest first, without items.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	limit, offset = pageBounds(limit, offset, 20, 100)
	rows, err := r.pool.Query(ctx,
		"SELECT"+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3",
		userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query user orders")
		return nil, fmt.Errorf("failed to query user orders: %w", err)
	}
	return r.collect(rows)
}

// List returns one page of orders for the back office and the total match count.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	var status *string
	if filter.Status != "" {
		s := string(filter.Status)
		status = &s
	}

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE $1::text IS NULL OR status = $1`, status).Scan(&total)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset, 50, 200)
	rows, err := r.pool.Query(ctx,
		"SELECT"+orderColumns+` FROM orders WHERE $1::text IS NULL OR status = $1
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}

	orders, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus sets status and, when trackingCode is non-nil, the tracking code.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, trackingCode *string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, tracking_code = COALESCE($3, tracking_code), updated_at = NOW()
		WHERE id = $1
	`, id, status, trackingCode)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return notFoundUnlessAffected(tag, model.ErrOrderNotFound)
}

func (r *orderRepository) SetPaymentReference(ctx context.Context, id uuid.UUID, reference string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_reference = $2, updated_at = NOW() WHERE id = $1`, id, reference)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to set payment reference")
		return fmt.Errorf("failed to set payment reference: %w", err)
	}
	return notFoundUnlessAffected(tag, model.ErrOrderNotFound)
}

func (r *orderRepository) collect(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o       model.Order
		address string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.UserID, &o.CustomerName, &o.CustomerEmail, &o.CustomerCPF, &o.CustomerPhone,
		&address, &o.Subtotal, &o.ShippingFee, &o.Total, &o.Status, &o.PaymentMethod,
		&o.PaymentReference, &o.TrackingCode, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := r.cipher.DecryptFields(&o.CustomerName, &o.CustomerEmail, &o.CustomerCPF, &o.CustomerPhone); err != nil {
		return nil, fmt.Errorf("failed to decrypt customer details: %w", err)
	}
	if err := openJSON(r.cipher, address, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to decrypt shipping address: %w", err)
	}
	return &o, nil
}
