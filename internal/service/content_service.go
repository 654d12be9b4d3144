package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"storefront/internal/model"
	"storefront/internal/repository"
)

// homeFeaturedLimit caps the featured products shown on the landing page.
const homeFeaturedLimit = 8

// contentService implements ContentService.
type contentService struct {
	content  repository.ContentRepository
	products repository.ProductRepository
	users    repository.UserRepository
	logger   zerolog.Logger
}

// NewContentService creates a new content service.
func NewContentService(
	content repository.ContentRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	logger zerolog.Logger,
) ContentService {
	return &contentService{
		content:  content,
		products: products,
		users:    users,
		logger:   logger.With().Str("service", "content").Logger(),
	}
}

// CreateReview stores a review that stays hidden until an admin approves it.
func (s *contentService) CreateReview(ctx context.Context, userID, productID uuid.UUID, in *model.ReviewInput) (*model.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, model.NewValidationError("rating", "must be between 1 and 5")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, s.fail(err, "load product")
	}
	if product == nil || !product.Active {
		return nil, model.ErrProductNotFound
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.fail(err, "load user")
	}
	if user == nil {
		return nil, model.ErrUnauthorised
	}

	review := &model.Review{
		ProductID:  productID,
		UserID:     userID,
		AuthorName: user.Name,
		Rating:     in.Rating,
		Comment:    in.Comment,
	}
	if err := s.content.CreateReview(ctx, review); err != nil {
		return nil, s.fail(err, "create review")
	}

	s.logger.Info().
		Str("review_id", review.ID.String()).
		Str("product_id", productID.String()).
		Msg("review submitted for moderation")
	return review, nil
}

// ProductReviews loads approved reviews and their rating summary concurrently.
func (s *contentService) ProductReviews(ctx context.Context, productID uuid.UUID) (*model.ReviewSummary, error) {
	summary := &model.ReviewSummary{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reviews, err := s.content.ListReviews(gctx, productID, true)
		summary.Reviews = reviews
		return err
	})
	g.Go(func() error {
		avg, count, err := s.content.ReviewStats(gctx, productID)
		summary.Average, summary.Count = roundRating(avg), count
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, s.fail(err, "load reviews")
	}
	return summary, nil
}

func (s *contentService) PendingReviews(ctx context.Context) ([]model.Review, error) {
	reviews, err := s.content.ListPendingReviews(ctx)
	if err != nil {
		return nil, s.fail(err, "list pending reviews")
	}
	return reviews, nil
}

func (s *contentService) ApproveReview(ctx context.Context, id uuid.UUID) error {
	if err := s.content.ApproveReview(ctx, id); err != nil {
		return s.fail(err, "approve review")
	}
	s.logger.Info().Str("review_id", id.String()).Msg("review approved")
	return nil
}

func (s *contentService) DeleteReview(ctx context.Context, id uuid.UUID) error {
	if err := s.content.DeleteReview(ctx, id); err != nil {
		return s.fail(err, "delete review")
	}
	return nil
}

func (s *contentService) ListTestimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error) {
	testimonials, err := s.content.ListTestimonials(ctx, activeOnly)
	if err != nil {
		return nil, s.fail(err, "list testimonials")
	}
	return testimonials, nil
}

func (s *contentService) CreateTestimonial(ctx context.Context, in *model.TestimonialInput) (*model.Testimonial, error) {
	t := testimonialFromInput(in)
	if err := s.content.CreateTestimonial(ctx, t); err != nil {
		return nil, s.fail(err, "create testimonial")
	}
	return t, nil
}

func (s *contentService) UpdateTestimonial(ctx context.Context, id uuid.UUID, in *model.TestimonialInput) (*model.Testimonial, error) {
	t := testimonialFromInput(in)
	t.ID = id
	if err := s.content.UpdateTestimonial(ctx, t); err != nil {
		return nil, s.fail(err, "update testimonial")
	}
	return t, nil
}

func (s *contentService) DeleteTestimonial(ctx context.Context, id uuid.UUID) error {
	if err := s.content.DeleteTestimonial(ctx, id); err != nil {
		return s.fail(err, "delete testimonial")
	}
	return nil
}

func (s *contentService) ListBanners(ctx context.Context, activeOnly bool) ([]model.Banner, error) {
	banners, err := s.content.ListBanners(ctx, activeOnly)
	if err != nil {
		return nil, s.fail(err, "list banners")
	}
	return banners, nil
}

func (s *contentService) CreateBanner(ctx context.Context, in *model.BannerInput) (*model.Banner, error) {
	b := bannerFromInput(in)
	if err := s.content.CreateBanner(ctx, b); err != nil {
		return nil, s.fail(err, "create banner")
	}
	return b, nil
}

func (s *contentService) UpdateBanner(ctx context.Context, id uuid.UUID, in *model.BannerInput) (*model.Banner, error) {
	b := bannerFromInput(in)
	b.ID = id
	if err := s.content.UpdateBanner(ctx, b); err != nil {
		return nil, s.fail(err, "update banner")
	}
	return b, nil
}

func (s *contentService) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	if err := s.content.DeleteBanner(ctx, id); err != nil {
		return s.fail(err, "delete banner")
	}
	return nil
}

func (s *contentService) Settings(ctx context.Context) (map[string]string, error) {
	settings, err := s.content.GetSettings(ctx)
	if err != nil {
		return nil, s.fail(err, "load settings")
	}
	return settings, nil
}

// UpdateSettings upserts values and returns the full settings map.
func (s *contentService) UpdateSettings(ctx context.Context, values map[string]string) (map[string]string, error) {
	if err := s.content.UpsertSettings(ctx, values); err != nil {
		return nil, s.fail(err, "update settings")
	}
	s.logger.Info().Int("count", len(values)).Msg("settings updated")
	return s.Settings(ctx)
}

// Home fetches the landing page sections concurrently.
func (s *contentService) Home(ctx context.Context) (*model.HomePage, error) {
	home := &model.HomePage{}
	featured := true

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		banners, err := s.content.ListBanners(gctx, true)
		home.Banners = banners
		return err
	})
	g.Go(func() error {
		products, _, err := s.products.List(gctx, model.ProductFilter{Featured: &featured, Limit: homeFeaturedLimit})
		home.Featured = products
		return err
	})
	g.Go(func() error {
		testimonials, err := s.content.ListTestimonials(gctx, true)
		home.Testimonials = testimonials
		return err
	})
	g.Go(func() error {
		settings, err := s.content.GetSettings(gctx)
		home.Settings = settings
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, s.fail(err, "load home page")
	}
	return home, nil
}

func (s *contentService) fail(err error, op string) error {
	if isDomainError(err) {
		return err
	}
	s.logger.Error().Err(err).Msg("failed to " + op)
	return fmt.Errorf("failed to %s: %w", op, err)
}

func testimonialFromInput(in *model.TestimonialInput) *model.Testimonial {
	return &model.Testimonial{
		AuthorName: in.AuthorName,
		Content:    in.Content,
		Rating:     in.Rating,
		AvatarURL:  in.AvatarURL,
		Position:   in.Position,
		Active:     in.Active,
	}
}

func bannerFromInput(in *model.BannerInput) *model.Banner {
	return &model.Banner{
		Title:    in.Title,
		Subtitle: in.Subtitle,
		ImageURL: in.ImageURL,
		LinkURL:  in.LinkURL,
		Position: in.Position,
		Active:   in.Active,
	}
}

func roundRating(v float64) float64 {
	return roundMoney(v)
}
