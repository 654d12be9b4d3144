package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"storefront/internal/model"
)

// catalogRepository implements CatalogRepository using PostgreSQL.
type catalogRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCatalogRepository creates a new PostgreSQL-backed catalog repository.
func NewCatalogRepository(pool *pgxpool.Pool, logger zerolog.Logger) CatalogRepository {
	return &catalogRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "catalog").Logger(),
	}
}

// Brands

func (r *catalogRepository) ListBrands(ctx context.Context) ([]model.Brand, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug, logo_url, created_at FROM brands ORDER BY name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query brands")
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	brands, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.Brand])
	if err != nil {
		return nil, fmt.Errorf("failed to scan brands: %w", err)
	}
	return brands, nil
}

func (r *catalogRepository) GetBrand(ctx context.Context, id uuid.UUID) (*model.Brand, error) {
	var b model.Brand
	err := r.pool.QueryRow(ctx, `SELECT id, name, slug, logo_url, created_at FROM brands WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Slug, &b.LogoURL, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query brand: %w", err)
	}
	return &b, nil
}

func (r *catalogRepository) CreateBrand(ctx context.Context, b *model.Brand) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO brands (name, slug, logo_url) VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, b.Name, b.Slug, b.LogoURL).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return r.writeErr(err, "brands_slug_key", "failed to create brand")
	}
	return nil
}

func (r *catalogRepository) UpdateBrand(ctx context.Context, b *model.Brand) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE brands SET name = $2, slug = $3, logo_url = $4 WHERE id = $1
		RETURNING created_at
	`, b.ID, b.Name, b.Slug, b.LogoURL).Scan(&b.CreatedAt)
	if err != nil {
		return r.writeErr(err, "brands_slug_key", "failed to update brand")
	}
	return nil
}

func (r *catalogRepository) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return r.delete(ctx, "DELETE FROM brands WHERE id = $1", id)
}

// Categories

func (r *catalogRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug, parent_id, created_at FROM categories ORDER BY name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.Category])
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}
	return categories, nil
}

func (r *catalogRepository) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var c model.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, slug, parent_id, created_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &c, nil
}

func (r *catalogRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO categories (name, slug, parent_id) VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, c.Name, c.Slug, c.ParentID).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return r.writeErr(err, "categories_slug_key", "failed to create category")
	}
	return nil
}

func (r *catalogRepository) UpdateCategory(ctx context.Context, c *model.Category) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE categories SET name = $2, slug = $3, parent_id = $4 WHERE id = $1
		RETURNING created_at
	`, c.ID, c.Name, c.Slug, c.ParentID).Scan(&c.CreatedAt)
	if err != nil {
		return r.writeErr(err, "categories_slug_key", "failed to update category")
	}
	return nil
}

func (r *catalogRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.delete(ctx, "DELETE FROM categories WHERE id = $1", id)
}

// Product models

func (r *catalogRepository) ListModels(ctx context.Context, brandID *uuid.UUID) ([]model.ProductModel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, brand_id, name, slug, created_at FROM product_models
		WHERE $1::uuid IS NULL OR brand_id = $1
		ORDER BY name
	`, brandID)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query product models")
		return nil, fmt.Errorf("failed to query product models: %w", err)
	}
	models, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.ProductModel])
	if err != nil {
		return nil, fmt.Errorf("failed to scan product models: %w", err)
	}
	return models, nil
}

func (r *catalogRepository) GetModel(ctx context.Context, id uuid.UUID) (*model.ProductModel, error) {
	var m model.ProductModel
	err := r.pool.QueryRow(ctx, `SELECT id, brand_id, name, slug, created_at FROM product_models WHERE id = $1`, id).
		Scan(&m.ID, &m.BrandID, &m.Name, &m.Slug, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query product model: %w", err)
	}
	return &m, nil
}

func (r *catalogRepository) CreateModel(ctx context.Context, m *model.ProductModel) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO product_models (brand_id, name, slug) VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, m.BrandID, m.Name, m.Slug).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return r.writeErr(err, "product_models_slug_key", "failed to create product model")
	}
	return nil
}

func (r *catalogRepository) UpdateModel(ctx context.Context, m *model.ProductModel) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE product_models SET brand_id = $2, name = $3, slug = $4 WHERE id = $1
		RETURNING created_at
	`, m.ID, m.BrandID, m.Name, m.Slug).Scan(&m.CreatedAt)
	if err != nil {
		return r.writeErr(err, "product_models_slug_key", "failed to update product model")
	}
	return nil
}

func (r *catalogRepository) DeleteModel(ctx context.Context, id uuid.UUID) error {
	return r.delete(ctx, "DELETE FROM product_models WHERE id = $1", id)
}

func (r *catalogRepository) writeErr(err error, slugConstraint, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	if mapped := mapWriteError(err, slugConstraint); mapped != err {
		return mapped
	}
	r.logger.Error().Err(err).Msg(msg)
	return fmt.Errorf("%s: %w", msg, err)
}

func (r *catalogRepository) delete(ctx context.Context, query string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("id", id.String()).Msg("failed to delete catalog entry")
		return fmt.Errorf("failed to delete: %w", err)
	}
	return notFoundUnlessAffected(tag, model.ErrNotFound)
}
