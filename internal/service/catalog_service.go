package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/model"
	"storefront/internal/repository"
)

// catalogService implements CatalogService.
type catalogService struct {
	repo   repository.CatalogRepository
	logger zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.CatalogRepository, logger zerolog.Logger) CatalogService {
	return &catalogService{
		repo:   repo,
		logger: logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) ListBrands(ctx context.Context) ([]model.Brand, error) {
	brands, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, s.fail(err, "list brands")
	}
	return brands, nil
}

func (s *catalogService) CreateBrand(ctx context.Context, in *model.BrandInput) (*model.Brand, error) {
	slug, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	brand := &model.Brand{Name: in.Name, Slug: slug, LogoURL: in.LogoURL}
	if err := s.repo.CreateBrand(ctx, brand); err != nil {
		return nil, s.fail(err, "create brand")
	}
	s.logger.Info().Str("brand_id", brand.ID.String()).Msg("brand created")
	return brand, nil
}

func (s *catalogService) UpdateBrand(ctx context.Context, id uuid.UUID, in *model.BrandInput) (*model.Brand, error) {
	slug, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	brand := &model.Brand{ID: id, Name: in.Name, Slug: slug, LogoURL: in.LogoURL}
	if err := s.repo.UpdateBrand(ctx, brand); err != nil {
		return nil, s.fail(err, "update brand")
	}
	return brand, nil
}

func (s *catalogService) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteBrand(ctx, id); err != nil {
		return s.fail(err, "delete brand")
	}
	s.logger.Info().Str("brand_id", id.String()).Msg("brand deleted")
	return nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, s.fail(err, "list categories")
	}
	return categories, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, in *model.CategoryInput) (*model.Category, error) {
	slug, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	category := &model.Category{Name: in.Name, Slug: slug, ParentID: in.ParentID}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, s.fail(err, "create category")
	}
	s.logger.Info().Str("category_id", category.ID.String()).Msg("category created")
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, in *model.CategoryInput) (*model.Category, error) {
	if in.ParentID != nil && *in.ParentID == id {
		return nil, model.NewValidationError("parentId", "a category cannot be its own parent")
	}
	slug, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	category := &model.Category{ID: id, Name: in.Name, Slug: slug, ParentID: in.ParentID}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, s.fail(err, "update category")
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return s.fail(err, "delete category")
	}
	s.logger.Info().Str("category_id", id.String()).Msg("category deleted")
	return nil
}

func (s *catalogService) ListModels(ctx context.Context, brandID *uuid.UUID) ([]model.ProductModel, error) {
	models, err := s.repo.ListModels(ctx, brandID)
	if err != nil {
		return nil, s.fail(err, "list product models")
	}
	return models, nil
}

func (s *catalogService) CreateModel(ctx context.Context, in *model.ProductModelInput) (*model.ProductModel, error) {
	slug, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	m := &model.ProductModel{BrandID: in.BrandID, Name: in.Name, Slug: slug}
	if err := s.repo.CreateModel(ctx, m); err != nil {
		return nil, s.fail(err, "create product model")
	}
	s.logger.Info().Str("model_id", m.ID.String()).Msg("product model created")
	return m, nil
}

func (s *catalogService) UpdateModel(ctx context.Context, id uuid.UUID, in *model.ProductModelInput) (*model.ProductModel, error) {
	slug, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	m := &model.ProductModel{ID: id, BrandID: in.BrandID, Name: in.Name, Slug: slug}
	if err := s.repo.UpdateModel(ctx, m); err != nil {
		return nil, s.fail(err, "update product model")
	}
	return m, nil
}

func (s *catalogService) DeleteModel(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteModel(ctx, id); err != nil {
		return s.fail(err, "delete product model")
	}
	s.logger.Info().Str("model_id", id.String()).Msg("product model deleted")
	return nil
}

// fail passes domain errors through and wraps everything else.
func (s *catalogService) fail(err error, op string) error {
	if isDomainError(err) {
		return err
	}
	s.logger.Error().Err(err).Msg("failed to " + op)
	return fmt.Errorf("failed to %s: %w", op, err)
}
