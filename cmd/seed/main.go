// Command seed prepares a fresh database: it applies the schema, creates the
// first admin account and loads a small demo catalogue. Running it twice is
// harmless; rows that already exist are skipped.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/fieldcrypt"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	cipher := fieldcrypt.New(cfg.Encryption.Key, cfg.Encryption.Iterations)
	users := repository.NewUserRepository(pool, cipher, logger)

	if err := seedAdmin(ctx, users, os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"), logger); err != nil {
		return err
	}

	catalog := service.NewCatalogService(repository.NewCatalogRepository(pool, logger), logger)
	products := service.NewProductService(repository.NewProductRepository(pool, logger), logger)
	if err := seedCatalog(ctx, catalog, products, logger); err != nil {
		return err
	}

	logger.Info().Msg("seed completed")
	return nil
}

// seedAdmin creates a verified admin account. It is skipped when no
// credentials are given or the email is already registered.
func seedAdmin(ctx context.Context, users repository.UserRepository, email, password string, logger zerolog.Logger) error {
	if email == "" || password == "" {
		logger.Warn().Msg("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin account")
		return nil
	}

	hash, err := auth.NewBcryptHasher(0).Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &model.User{
		Email:         email,
		Name:          "Administrador",
		Role:          model.RoleAdmin,
		EmailVerified: true,
		PasswordHash:  hash,
	}
	switch err := users.Create(ctx, admin); {
	case errors.Is(err, model.ErrEmailTaken):
		logger.Info().Str("email", email).Msg("admin account already exists")
	case err != nil:
		return fmt.Errorf("failed to create admin account: %w", err)
	default:
		logger.Info().Str("user_id", admin.ID.String()).Msg("admin account created")
	}
	return nil
}

type demoProduct struct {
	name     string
	price    float64
	stock    int
	featured bool
}

var demoCatalogue = map[string][]demoProduct{
	"Capas": {
		{"Capa Silicone Aveludada", 49.90, 40, true},
		{"Capa Anti-Impacto Transparente", 39.90, 60, false},
		{"Capa Couro Legitimo", 129.90, 15, true},
	},
	"Peliculas": {
		{"Pelicula Vidro 3D", 29.90, 120, true},
		{"Pelicula Privacidade", 49.90, 35, false},
	},
	"Carregadores": {
		{"Carregador Turbo 20W USB-C", 89.90, 25, true},
		{"Cabo USB-C Trancado 2m", 34.90, 80, false},
	},
}

func seedCatalog(ctx context.Context, catalog service.CatalogService, products service.ProductService, logger zerolog.Logger) error {
	brand, err := catalog.CreateBrand(ctx, &model.BrandInput{Name: "Storefront"})
	if errors.Is(err, model.ErrSlugTaken) {
		logger.Info().Msg("demo catalogue already present, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create demo brand: %w", err)
	}

	created := 0
	for categoryName, items := range demoCatalogue {
		category, err := catalog.CreateCategory(ctx, &model.CategoryInput{Name: categoryName})
		if err != nil {
			return fmt.Errorf("failed to create category %q: %w", categoryName, err)
		}

		for _, item := range items {
			_, err := products.Create(ctx, &model.ProductInput{
				Name:       item.name,
				Price:      item.price,
				Stock:      item.stock,
				BrandID:    &brand.ID,
				CategoryID: &category.ID,
				Active:     true,
				Featured:   item.featured,
			})
			if err != nil {
				return fmt.Errorf("failed to create product %q: %w", item.name, err)
			}
			created++
		}
	}

	logger.Info().Int("products", created).Msg("demo catalogue created")
	return nil
}
