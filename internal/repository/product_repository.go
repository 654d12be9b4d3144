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

	"storefront/internal/model"
)

const productSlugConstraint = "products_slug_key"

const productColumns = `
	p.id, p.name, p.slug, p.description, p.price, p.compare_at_price, p.stock, p.images,
	p.brand_id, p.category_id, p.model_id, b.name, c.name, m.name,
	p.active, p.featured, p.created_at, p.updated_at`

const productFrom = `
	FROM products p
	LEFT JOIN brands b ON b.id = p.brand_id
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN product_models m ON m.id = p.model_id`

var productSorts = map[string]string{
	"":           "p.created_at DESC, p.id",
	"newest":     "p.created_at DESC, p.id",
	"price_asc":  "p.price ASC, p.id",
	"price_desc": "p.price DESC, p.id",
	"name":       "p.name ASC, p.id",
}

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.CompareAtPrice, &p.Stock, &p.Images,
		&p.BrandID, &p.CategoryID, &p.ModelID, &p.BrandName, &p.CategoryName, &p.ModelName,
		&p.Active, &p.Featured, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

func (r *productRepository) collect(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// List returns one page of products matching filter and the total match count.
func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludeInactive {
		conds = append(conds, "p.active")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := arg("%" + escapeLike(s) + "%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", p, p))
	}
	if filter.CategorySlug != "" {
		conds = append(conds, "c.slug = "+arg(filter.CategorySlug))
	}
	if filter.BrandSlug != "" {
		conds = append(conds, "b.slug = "+arg(filter.BrandSlug))
	}
	if filter.ModelID != nil {
		conds = append(conds, "p.model_id = "+arg(*filter.ModelID))
	}
	if filter.Featured != nil {
		conds = append(conds, "p.featured = "+arg(*filter.Featured))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+productFrom+where, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	order, ok := productSorts[filter.Sort]
	if !ok {
		order = productSorts[""]
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset, 20, 100)
	query := "SELECT" + productColumns + productFrom + where +
		" ORDER BY " + order + " LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, "SELECT"+productColumns+productFrom+" WHERE p.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

// GetBySlug retrieves a single product by its slug.
func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, "SELECT"+productColumns+productFrom+" WHERE p.slug = $1", slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("slug", slug).Msg("failed to query product by slug")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	rows, err := r.pool.Query(ctx, "SELECT"+productColumns+productFrom+" WHERE p.id = ANY($1) ORDER BY p.name", ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}
	return r.collect(rows)
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (name, slug, description, price, compare_at_price, stock, images,
			brand_id, category_id, model_id, active, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.Name, p.Slug, p.Description, p.Price, p.CompareAtPrice, p.Stock, nonNilStrings(p.Images),
		p.BrandID, p.CategoryID, p.ModelID, p.Active, p.Featured,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if mapped := mapWriteError(err, productSlugConstraint); mapped != err {
			return mapped
		}
		r.logger.Error().Err(err).Str("slug", p.Slug).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5, compare_at_price = $6, stock = $7,
			images = $8, brand_id = $9, category_id = $10, model_id = $11, active = $12,
			featured = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.CompareAtPrice, p.Stock, nonNilStrings(p.Images),
		p.BrandID, p.CategoryID, p.ModelID, p.Active, p.Featured,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrProductNotFound
		}
		if mapped := mapWriteError(err, productSlugConstraint); mapped != err {
			return mapped
		}
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return notFoundUnlessAffected(tag, model.ErrProductNotFound)
}

// DecrementStock removes qty units within tx; the guard keeps stock non-negative.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`, id, qty)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to decrement stock")
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("product_id", id.String()).Int("quantity", qty).Msg("insufficient stock")
		return model.ErrOutOfStock
	}
	return nil
}

func (r *productRepository) IncrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) error {
	_, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`, id, qty)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to increment stock")
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
