package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Encryption EncryptionConfig
	SMTP       SMTPConfig
	Storage    StorageConfig
	Shipping   ShippingConfig
	Payment    PaymentConfig
	Tracking   TrackingConfig
	Security   SecurityConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
	// PublicBaseURL is the storefront origin used in email links.
	PublicBaseURL string
	StoreName     string
	// TrustedProxies lists the CIDRs or addresses whose forwarded headers
	// are believed. Empty means client addresses come from the socket only.
	TrustedProxies []string
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	AutoMigrate     bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey        string
	JWTSecret     string
	JWTTTLMinutes int
}

// EncryptionConfig holds field-level encryption configuration.
// An empty Key disables encryption.
type EncryptionConfig struct {
	Key        string
	Iterations int
}

// SMTPConfig holds outbound email configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether SMTP credentials are configured.
func (c *SMTPConfig) Enabled() bool {
	return c.User != "" && c.Password != ""
}

// StorageConfig holds media upload storage configuration.
type StorageConfig struct {
	S3Enabled bool
	Bucket    string
	Region    string
	Prefix    string // Path prefix within bucket (e.g., "media/")
	LocalDir  string
	PublicURL string
	MaxBytes  int64
}

// ShippingConfig holds the flat-fee / free-shipping rule.
type ShippingConfig struct {
	FlatFee               float64
	FreeShippingThreshold float64
}

// PaymentConfig holds the hosted checkout provider configuration.
type PaymentConfig struct {
	APIURL      string
	AccessToken string
	SuccessURL  string
	FailureURL  string
}

// TrackingConfig holds the carrier tracking API configuration.
type TrackingConfig struct {
	APIURL         string
	APIToken       string
	TimeoutSeconds int
}

// Timeout returns the tracking request timeout.
func (c *TrackingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SecurityConfig holds security event log configuration.
type SecurityConfig struct {
	LogCapacity int
}

// RateLimitConfig bounds request rates per client IP. The auth budget applies
// to login, registration and password recovery routes.
type RateLimitConfig struct {
	PerMinute     int
	Burst         int
	AuthPerMinute int
	AuthBurst     int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
			StoreName:      getEnv("STORE_NAME", "Storefront"),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "storefront"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 2),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey:        getEnv("API_KEY", ""),
			JWTSecret:     getEnv("JWT_SECRET", ""),
			JWTTTLMinutes: getEnvAsInt("JWT_TTL_MINUTES", 60*24),
		},
		Encryption: EncryptionConfig{
			Key:        getEnv("ENCRYPTION_KEY", ""),
			Iterations: getEnvAsInt("ENCRYPTION_ITERATIONS", 100_000),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@storefront.local"),
		},
		Storage: StorageConfig{
			S3Enabled: getEnvAsBool("UPLOAD_S3_ENABLED", false),
			Bucket:    getEnv("UPLOAD_S3_BUCKET", ""),
			Region:    getEnv("UPLOAD_S3_REGION", "us-east-1"),
			Prefix:    getEnv("UPLOAD_S3_PREFIX", "media/"),
			LocalDir:  getEnv("UPLOAD_LOCAL_DIR", "data/uploads"),
			PublicURL: getEnv("UPLOAD_PUBLIC_URL", "/uploads"),
			MaxBytes:  int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
		},
		Shipping: ShippingConfig{
			FlatFee:               getEnvAsFloat("SHIPPING_FLAT_FEE", 19.90),
			FreeShippingThreshold: getEnvAsFloat("FREE_SHIPPING_THRESHOLD", 299.00),
		},
		Payment: PaymentConfig{
			APIURL:      getEnv("PAYMENT_API_URL", "https://api.mercadopago.com/checkout/preferences"),
			AccessToken: getEnv("PAYMENT_ACCESS_TOKEN", ""),
			SuccessURL:  getEnv("PAYMENT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
			FailureURL:  getEnv("PAYMENT_FAILURE_URL", "http://localhost:3000/checkout/failure"),
		},
		Tracking: TrackingConfig{
			APIURL:         getEnv("TRACKING_API_URL", "https://api.linketrack.com/track"),
			APIToken:       getEnv("TRACKING_API_TOKEN", ""),
			TimeoutSeconds: getEnvAsInt("TRACKING_TIMEOUT_SECONDS", 10),
		},
		Security: SecurityConfig{
			LogCapacity: getEnvAsInt("SECURITY_LOG_CAPACITY", 1000),
		},
		RateLimit: RateLimitConfig{
			PerMinute:     getEnvAsInt("RATE_LIMIT_PER_MINUTE", 300),
			Burst:         getEnvAsInt("RATE_LIMIT_BURST", 60),
			AuthPerMinute: getEnvAsInt("AUTH_RATE_LIMIT_PER_MINUTE", 10),
			AuthBurst:     getEnvAsInt("AUTH_RATE_LIMIT_BURST", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	for _, proxy := range c.Server.TrustedProxies {
		if _, err := netip.ParsePrefix(proxy); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(proxy); err != nil {
			return fmt.Errorf("invalid trusted proxy: %s", proxy)
		}
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Auth.JWTTTLMinutes < 1 {
		return fmt.Errorf("JWT TTL must be at least 1 minute")
	}

	if c.Encryption.Key != "" && c.Encryption.Iterations < 1000 {
		return fmt.Errorf("encryption iterations must be at least 1000")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Storage.S3Enabled {
		if c.Storage.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 uploads are enabled")
		}
		if c.Storage.Region == "" {
			return fmt.Errorf("S3 region is required when S3 uploads are enabled")
		}
	}

	if c.Storage.MaxBytes < 1 {
		return fmt.Errorf("upload max bytes must be positive")
	}

	if c.Shipping.FlatFee < 0 || c.Shipping.FreeShippingThreshold < 0 {
		return fmt.Errorf("shipping values cannot be negative")
	}

	if c.Security.LogCapacity < 1 {
		return fmt.Errorf("security log capacity must be at least 1")
	}

	if c.RateLimit.PerMinute < 1 || c.RateLimit.Burst < 1 ||
		c.RateLimit.AuthPerMinute < 1 || c.RateLimit.AuthBurst < 1 {
		return fmt.Errorf("rate limits must be at least 1")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
