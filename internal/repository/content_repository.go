package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"storefront/internal/model"
)

// contentRepository implements ContentRepository using PostgreSQL.
type contentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewContentRepository creates a new PostgreSQL-backed content repository.
func NewContentRepository(pool *pgxpool.Pool, logger zerolog.Logger) ContentRepository {
	return &contentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "content").Logger(),
	}
}

const reviewColumns = `id, product_id, user_id, author_name, rating, comment, approved, created_at`

func (r *contentRepository) CreateReview(ctx context.Context, rv *model.Review) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (product_id, user_id, author_name, rating, comment, approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, rv.ProductID, rv.UserID, rv.AuthorName, rv.Rating, rv.Comment, rv.Approved).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		if foreignKeyViolation(err) {
			return model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Str("product_id", rv.ProductID.String()).Msg("failed to create review")
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *contentRepository) ListReviews(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+reviewColumns+` FROM reviews
		WHERE product_id = $1 AND (approved OR NOT $2)
		ORDER BY created_at DESC, id`, productID, approvedOnly)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query reviews")
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	return collectStructs[model.Review](rows, "reviews")
}

func (r *contentRepository) ListPendingReviews(ctx context.Context) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+reviewColumns+` FROM reviews
		WHERE NOT approved ORDER BY created_at, id`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query pending reviews")
		return nil, fmt.Errorf("failed to query pending reviews: %w", err)
	}
	return collectStructs[model.Review](rows, "reviews")
}

func (r *contentRepository) ReviewStats(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	var (
		avg   float64
		count int
	)
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
		FROM reviews WHERE product_id = $1 AND approved
	`, productID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query review stats: %w", err)
	}
	return avg, count, nil
}

func (r *contentRepository) ApproveReview(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `UPDATE reviews SET approved = TRUE WHERE id = $1`, id)
}

func (r *contentRepository) DeleteReview(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
}

// Testimonials

const testimonialColumns = `id, author_name, content, rating, avatar_url, position, active, created_at`

func (r *contentRepository) ListTestimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+testimonialColumns+` FROM testimonials
		WHERE active OR NOT $1 ORDER BY position, created_at`, activeOnly)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query testimonials")
		return nil, fmt.Errorf("failed to query testimonials: %w", err)
	}
	return collectStructs[model.Testimonial](rows, "testimonials")
}

func (r *contentRepository) CreateTestimonial(ctx context.Context, t *model.Testimonial) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO testimonials (author_name, content, rating, avatar_url, position, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, t.AuthorName, t.Content, t.Rating, t.AvatarURL, t.Position, t.Active).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create testimonial: %w", err)
	}
	return nil
}

func (r *contentRepository) UpdateTestimonial(ctx context.Context, t *model.Testimonial) error {
	return r.exec(ctx, `
		UPDATE testimonials
		SET author_name = $2, content = $3, rating = $4, avatar_url = $5, position = $6, active = $7
		WHERE id = $1
	`, t.ID, t.AuthorName, t.Content, t.Rating, t.AvatarURL, t.Position, t.Active)
}

func (r *contentRepository) DeleteTestimonial(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
}

// Banners

const bannerColumns = `id, title, subtitle, image_url, link_url, position, active, created_at`

func (r *contentRepository) ListBanners(ctx context.Context, activeOnly bool) ([]model.Banner, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+bannerColumns+` FROM banners
		WHERE active OR NOT $1 ORDER BY position, created_at`, activeOnly)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query banners")
		return nil, fmt.Errorf("failed to query banners: %w", err)
	}
	return collectStructs[model.Banner](rows, "banners")
}

func (r *contentRepository) CreateBanner(ctx context.Context, b *model.Banner) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO banners (title, subtitle, image_url, link_url, position, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, b.Title, b.Subtitle, b.ImageURL, b.LinkURL, b.Position, b.Active).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create banner: %w", err)
	}
	return nil
}

func (r *contentRepository) UpdateBanner(ctx context.Context, b *model.Banner) error {
	return r.exec(ctx, `
		UPDATE banners
		SET title = $2, subtitle = $3, image_url = $4, link_url = $5, position = $6, active = $7
		WHERE id = $1
	`, b.ID, b.Title, b.Subtitle, b.ImageURL, b.LinkURL, b.Position, b.Active)
}

func (r *contentRepository) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM banners WHERE id = $1`, id)
}

// Settings

func (r *contentRepository) GetSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM site_settings`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query settings")
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}
	return settings, nil
}

// UpsertSettings writes all values atomically.
func (r *contentRepository) UpsertSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := beginTx(ctx, r.pool, r.logger)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for k, v := range values {
		batch.Queue(`
			INSERT INTO site_settings (key, value, updated_at) VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		`, k, v)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < len(values); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			r.logger.Error().Err(err).Msg("failed to upsert setting")
			return fmt.Errorf("failed to upsert setting: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

func (r *contentRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to write content")
		return fmt.Errorf("failed to write content: %w", err)
	}
	return notFoundUnlessAffected(tag, model.ErrNotFound)
}

func collectStructs[T any](rows pgx.Rows, what string) ([]T, error) {
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", what, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
