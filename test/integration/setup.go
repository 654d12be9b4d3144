package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"storefront/internal/config"
	"storefront/internal/database"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and the
// application schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	logger := zerolog.Nop()
	pool, err := database.NewPoolFromURL(ctx, connStr, config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// Fixture holds the IDs of seeded catalogue rows.
type Fixture struct {
	BrandID    uuid.UUID
	CategoryID uuid.UUID
	Products   map[string]uuid.UUID // by slug
}

// SeedCatalog inserts one brand, one category and five products. The last
// product is inactive and "capa-esgotada" has no stock.
func SeedCatalog(t *testing.T, pool *pgxpool.Pool) *Fixture {
	t.Helper()

	ctx := context.Background()
	fx := &Fixture{Products: make(map[string]uuid.UUID)}

	if err := pool.QueryRow(ctx,
		"INSERT INTO brands (name, slug) VALUES ('Apple', 'apple') RETURNING id",
	).Scan(&fx.BrandID); err != nil {
		t.Fatalf("failed to seed brand: %v", err)
	}
	if err := pool.QueryRow(ctx,
		"INSERT INTO categories (name, slug) VALUES ('Capas', 'capas') RETURNING id",
	).Scan(&fx.CategoryID); err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	products := []struct {
		name     string
		slug     string
		price    float64
		stock    int
		active   bool
		featured bool
	}{
		{"Capa Silicone", "capa-silicone", 49.90, 10, true, true},
		{"Capa Couro", "capa-couro", 129.90, 5, true, false},
		{"Pelicula Vidro", "pelicula-vidro", 29.90, 100, true, true},
		{"Capa Esgotada", "capa-esgotada", 59.90, 0, true, false},
		{"Capa Antiga", "capa-antiga", 19.90, 3, false, false},
	}

	for _, p := range products {
		var id uuid.UUID
		err := pool.QueryRow(ctx, `
			INSERT INTO products (name, slug, price, stock, brand_id, category_id, active, featured)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			p.name, p.slug, p.price, p.stock, fx.BrandID, fx.CategoryID, p.active, p.featured,
		).Scan(&id)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.slug, err)
		}
		fx.Products[p.slug] = id
	}

	return fx
}

// ProductStock reads the current stock of a product.
func ProductStock(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) int {
	t.Helper()

	var stock int
	if err := pool.QueryRow(context.Background(), "SELECT stock FROM products WHERE id = $1", id).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return stock
}

// CleanupDB removes every row from the application tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE order_items, orders, reviews, addresses, user_tokens, users,
			products, product_models, categories, brands, testimonials, banners, site_settings
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}
