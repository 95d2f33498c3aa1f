package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
	MinIO      MinIOConfig
	JWT        JWTConfig
	RateLimit  RateLimitConfig
	Worker     WorkerConfig
	Log        LogConfig
	Sentry     SentryConfig
	Storefront StorefrontConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Env  string `mapstructure:"env"`
	// DashboardURL is the tenant dashboard base URL used in webhook deep links
	DashboardURL string `mapstructure:"dashboard_url"`
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// DSN returns the PostgreSQL connection string
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	HTTPPort int    `mapstructure:"http_port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MinIOConfig holds MinIO object storage configuration
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	ExpiryHours       int           `mapstructure:"expiry_hours"`
	RefreshExpiryDays int           `mapstructure:"refresh_expiry_days"`
	Expiry            time.Duration `mapstructure:"-"`
	RefreshExpiry     time.Duration `mapstructure:"-"`
	Issuer            string        `mapstructure:"issuer"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerSecond int  `mapstructure:"requests_per_second"`
	Burst             int  `mapstructure:"burst"`
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	Concurrency            int    `mapstructure:"concurrency"`
	QueueCritical          string `mapstructure:"queue_critical"`
	QueueDefault           string `mapstructure:"queue_default"`
	QueueLow               string `mapstructure:"queue_low"`
	DispatchEnabled        bool   `mapstructure:"dispatch_enabled"`
	DispatchBatchSize      int    `mapstructure:"dispatch_batch_size"`
	LowStockEnabled        bool   `mapstructure:"low_stock_enabled"`
	LowStockThresholdGrams int    `mapstructure:"low_stock_threshold_grams"`
	CleanupEnabled         bool   `mapstructure:"cleanup_enabled"`
	RetentionDays          int    `mapstructure:"retention_days"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SentryConfig holds Sentry error reporting configuration
type SentryConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	DSN              string  `mapstructure:"dsn"`
	Environment      string  `mapstructure:"environment"`
	Release          string  `mapstructure:"release"`
	Debug            bool    `mapstructure:"debug"`
	SampleRate       float64 `mapstructure:"sample_rate"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate"`
}

// StorefrontConfig holds public storefront API configuration
type StorefrontConfig struct {
	OrderNumberPrefix string `mapstructure:"order_number_prefix"`
	MaxUploadSizeMB   int    `mapstructure:"max_upload_size_mb"`
	ReviewAutoPublish bool   `mapstructure:"review_auto_publish"`
}

// IsDevelopment returns true if running in development mode
func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}
