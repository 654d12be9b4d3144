package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/email"
	"storefront/internal/fieldcrypt"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/security"
	"storefront/internal/service"
	"storefront/internal/storage"
	"storefront/internal/tracking"
	"storefront/internal/upload"
	"storefront/internal/validation"
)

const (
	emailWorkers   = 2
	emailQueueSize = 256
	emailTimeout   = 30 * time.Second
	paymentTimeout = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	cipher := fieldcrypt.New(cfg.Encryption.Key, cfg.Encryption.Iterations)
	if !cipher.Enabled() {
		logger.Warn().Msg("ENCRYPTION_KEY not set, personal data is stored in plaintext")
	}

	events := security.NewEventLog(cfg.Security.LogCapacity, logger)

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	catalogRepo := repository.NewCatalogRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, cipher, logger)
	userRepo := repository.NewUserRepository(pool, cipher, logger)
	tokenRepo := repository.NewTokenRepository(pool, logger)
	addressRepo := repository.NewAddressRepository(pool, cipher, logger)
	contentRepo := repository.NewContentRepository(pool, logger)

	// Outbound email is queued so requests never wait on SMTP
	dispatcher := email.NewDispatcher(email.NewSMTPSender(email.SMTPOptions{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, logger), emailWorkers, emailQueueSize, emailTimeout, logger)
	defer dispatcher.Close()

	notifier, err := email.NewNotifier(dispatcher, cfg.Server.StoreName, cfg.Server.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize email templates: %w", err)
	}

	store, err := newMediaStore(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize media storage: %w", err)
	}
	uploads := upload.NewService(store, cfg.Storage.MaxBytes, func(ctx context.Context, filename, reason string) {
		events.Record(security.Event{
			Type:     security.EventUploadRejected,
			Severity: security.SeverityMedium,
			Detail:   filename + ": " + reason,
		})
	}, logger)

	tokens, err := auth.NewJWTService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTTTLMinutes)*time.Minute)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	payments := payment.NewClient(payment.Options{
		APIURL:      cfg.Payment.APIURL,
		AccessToken: cfg.Payment.AccessToken,
		SuccessURL:  cfg.Payment.SuccessURL,
		FailureURL:  cfg.Payment.FailureURL,
		Timeout:     paymentTimeout,
	}, logger)
	tracker := tracking.NewClient(tracking.Options{
		APIURL:   cfg.Tracking.APIURL,
		APIToken: cfg.Tracking.APIToken,
		Timeout:  cfg.Tracking.Timeout(),
	}, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	catalogService := service.NewCatalogService(catalogRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, payments, tracker, notifier, service.ShippingRule{
		FlatFee:       cfg.Shipping.FlatFee,
		FreeThreshold: cfg.Shipping.FreeShippingThreshold,
	}, logger)
	userService := service.NewUserService(userRepo, tokenRepo, auth.NewBcryptHasher(0), tokens, notifier, logger)
	addressService := service.NewAddressService(addressRepo, logger)
	contentService := service.NewContentService(contentRepo, productRepo, userRepo, logger)

	// Initialize HTTP handlers
	v := validation.New()
	handlers := router.Handlers{
		Health:   handler.NewHealthHandler(pool, logger),
		Product:  handler.NewProductHandler(productService, v, events, logger),
		Catalog:  handler.NewCatalogHandler(catalogService, v, events, logger),
		Order:    handler.NewOrderHandler(orderService, v, events, logger),
		Account:  handler.NewAccountHandler(userService, addressService, v, events, logger),
		Content:  handler.NewContentHandler(contentService, v, events, logger),
		Upload:   handler.NewUploadHandler(uploads, cfg.Storage.MaxBytes, logger),
		Security: handler.NewSecurityHandler(events, logger),
	}

	trusted, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("failed to parse trusted proxies: %w", err)
	}

	opts := router.Options{
		Auth:           middleware.NewAuthenticator(tokens, userRepo, cfg.Auth.APIKey, events, logger),
		Limiter:        middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, logger),
		AuthLimiter:    middleware.NewRateLimiter(cfg.RateLimit.AuthPerMinute, cfg.RateLimit.AuthBurst, logger),
		Events:         events,
		TrustedProxies: trusted,
		// Fallback writes land in LocalDir, so it is served in S3 mode too.
		UploadDir:  cfg.Storage.LocalDir,
		UploadPath: cfg.Storage.PublicURL,
	}

	// Initialize router
	mux := router.New(handlers, opts, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newMediaStore returns the local disk store, fronted by S3 when enabled. A
// failed S3 setup degrades to local storage instead of aborting startup.
func newMediaStore(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.Store, error) {
	local, err := storage.NewLocalStore(cfg.LocalDir, cfg.PublicURL, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.S3Enabled {
		logger.Info().Str("dir", cfg.LocalDir).Msg("using local file system for uploads (S3 disabled)")
		return local, nil
	}

	s3Store, err := storage.NewS3Store(ctx, storage.S3Options{
		Bucket: cfg.Bucket,
		Region: cfg.Region,
		Prefix: cfg.Prefix,
	}, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 store, falling back to local file system only")
		return local, nil
	}

	return storage.NewFallbackStore(s3Store, local, logger), nil
}
