package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/validation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List returns a page of products matching filter.
func (s *productService) List(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error) {
	filter.Limit, filter.Offset = pageBounds(filter.Limit, filter.Offset)

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("total", total).
		Msg("retrieved products")

	return &model.ProductPage{
		Items:  products,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil || (!product.Active && !includeInactive) {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// GetBySlug retrieves an active product by its slug.
func (s *productService) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	product, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", slug).Msg("failed to get product by slug")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil || !product.Active {
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

func (s *productService) Create(ctx context.Context, in *model.ProductInput) (*model.Product, error) {
	product, err := productFromInput(in)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, s.writeError(err, "create", product.Slug)
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("slug", product.Slug).
		Msg("product created")

	return s.reload(ctx, product)
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, in *model.ProductInput) (*model.Product, error) {
	product, err := productFromInput(in)
	if err != nil {
		return nil, err
	}
	product.ID = id

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, s.writeError(err, "update", product.Slug)
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product updated")

	return s.reload(ctx, product)
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

// reload fetches the stored product so joined brand/category names are populated.
func (s *productService) reload(ctx context.Context, product *model.Product) (*model.Product, error) {
	stored, err := s.productRepo.GetByID(ctx, product.ID)
	if err != nil || stored == nil {
		return product, nil
	}
	return stored, nil
}

func (s *productService) writeError(err error, op, slug string) error {
	if isDomainError(err) {
		return err
	}
	s.logger.Error().Err(err).Str("slug", slug).Msgf("failed to %s product", op)
	return fmt.Errorf("failed to %s product: %w", op, err)
}

func productFromInput(in *model.ProductInput) (*model.Product, error) {
	slug, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	return &model.Product{
		Name:           in.Name,
		Slug:           slug,
		Description:    in.Description,
		Price:          roundMoney(in.Price),
		CompareAtPrice: in.CompareAtPrice,
		Stock:          in.Stock,
		Images:         in.Images,
		BrandID:        in.BrandID,
		CategoryID:     in.CategoryID,
		ModelID:        in.ModelID,
		Active:         in.Active,
		Featured:       in.Featured,
	}, nil
}

// resolveSlug returns slug, or derives one from name when slug is empty.
func resolveSlug(slug, name string) (string, error) {
	if slug != "" {
		return slug, nil
	}
	derived := validation.Slugify(name)
	if derived == "" {
		return "", model.NewValidationError("slug", "could not be derived from name")
	}
	return derived, nil
}

// isDomainError reports whether err should reach the client unchanged.
func isDomainError(err error) bool {
	var domainErr *model.DomainError
	var validationErr *model.ValidationError
	return errors.As(err, &domainErr) || errors.As(err, &validationErr)
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
