package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Optionally read from config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/printforge")

	// Ignore error if config file not found
	_ = v.ReadInConfig()

	var cfg Config

	// Server
	cfg.Server.Host = v.GetString("server_host")
	cfg.Server.Port = v.GetInt("server_port")
	cfg.Server.Env = v.GetString("server_env")
	cfg.Server.DashboardURL = v.GetString("server_dashboard_url")

	// PostgreSQL
	cfg.Postgres.Host = v.GetString("postgres_host")
	cfg.Postgres.Port = v.GetInt("postgres_port")
	cfg.Postgres.User = v.GetString("postgres_user")
	cfg.Postgres.Password = v.GetString("postgres_password")
	cfg.Postgres.Database = v.GetString("postgres_db")
	cfg.Postgres.SSLMode = v.GetString("postgres_ssl_mode")
	cfg.Postgres.MaxConns = int32(v.GetInt("postgres_max_conns"))
	cfg.Postgres.MinConns = int32(v.GetInt("postgres_min_conns"))

	// ClickHouse
	cfg.ClickHouse.Host = v.GetString("clickhouse_host")
	cfg.ClickHouse.Port = v.GetInt("clickhouse_port")
	cfg.ClickHouse.HTTPPort = v.GetInt("clickhouse_http_port")
	cfg.ClickHouse.User = v.GetString("clickhouse_user")
	cfg.ClickHouse.Password = v.GetString("clickhouse_password")
	cfg.ClickHouse.Database = v.GetString("clickhouse_db")

	// Redis
	cfg.Redis.Host = v.GetString("redis_host")
	cfg.Redis.Port = v.GetInt("redis_port")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Redis.DB = v.GetInt("redis_db")

	// MinIO
	cfg.MinIO.Endpoint = v.GetString("minio_endpoint")
	cfg.MinIO.AccessKey = v.GetString("minio_access_key")
	cfg.MinIO.SecretKey = v.GetString("minio_secret_key")
	cfg.MinIO.UseSSL = v.GetBool("minio_use_ssl")
	cfg.MinIO.Bucket = v.GetString("minio_bucket")

	// JWT
	cfg.JWT.Secret = v.GetString("jwt_secret")
	cfg.JWT.ExpiryHours = v.GetInt("jwt_expiry_hours")
	cfg.JWT.RefreshExpiryDays = v.GetInt("jwt_refresh_expiry_days")
	cfg.JWT.Issuer = v.GetString("jwt_issuer")
	cfg.JWT.Expiry = time.Duration(cfg.JWT.ExpiryHours) * time.Hour
	cfg.JWT.RefreshExpiry = time.Duration(cfg.JWT.RefreshExpiryDays) * 24 * time.Hour

	// Rate Limiting
	cfg.RateLimit.Enabled = v.GetBool("rate_limit_enabled")
	cfg.RateLimit.RequestsPerSecond = v.GetInt("rate_limit_requests_per_second")
	cfg.RateLimit.Burst = v.GetInt("rate_limit_burst")

	// Worker
	cfg.Worker.Concurrency = v.GetInt("worker_concurrency")
	cfg.Worker.QueueCritical = v.GetString("worker_queue_critical")
	cfg.Worker.QueueDefault = v.GetString("worker_queue_default")
	cfg.Worker.QueueLow = v.GetString("worker_queue_low")
	cfg.Worker.DispatchEnabled = v.GetBool("dispatch_worker_enabled")
	cfg.Worker.DispatchBatchSize = v.GetInt("dispatch_worker_batch_size")
	cfg.Worker.LowStockEnabled = v.GetBool("low_stock_worker_enabled")
	cfg.Worker.LowStockThresholdGrams = v.GetInt("low_stock_threshold_grams")
	cfg.Worker.CleanupEnabled = v.GetBool("cleanup_worker_enabled")
	cfg.Worker.RetentionDays = v.GetInt("retention_days")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	// Sentry
	cfg.Sentry.Enabled = v.GetBool("sentry_enabled")
	cfg.Sentry.DSN = v.GetString("sentry_dsn")
	cfg.Sentry.Environment = v.GetString("sentry_environment")
	cfg.Sentry.Release = v.GetString("sentry_release")
	cfg.Sentry.Debug = v.GetBool("sentry_debug")
	cfg.Sentry.SampleRate = v.GetFloat64("sentry_sample_rate")
	cfg.Sentry.TracesSampleRate = v.GetFloat64("sentry_traces_sample_rate")

	// Storefront
	cfg.Storefront.OrderNumberPrefix = v.GetString("storefront_order_number_prefix")
	cfg.Storefront.MaxUploadSizeMB = v.GetInt("storefront_max_upload_size_mb")
	cfg.Storefront.ReviewAutoPublish = v.GetBool("storefront_review_auto_publish")

	// Validate required fields
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_env", "development")
	v.SetDefault("server_dashboard_url", "http://localhost:3000")

	// PostgreSQL defaults
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "printforge")
	v.SetDefault("postgres_password", "printforge")
	v.SetDefault("postgres_db", "printforge")
	v.SetDefault("postgres_ssl_mode", "disable")
	v.SetDefault("postgres_max_conns", 25)
	v.SetDefault("postgres_min_conns", 5)

	// ClickHouse defaults
	v.SetDefault("clickhouse_host", "localhost")
	v.SetDefault("clickhouse_port", 9000)
	v.SetDefault("clickhouse_http_port", 8123)
	v.SetDefault("clickhouse_user", "printforge")
	v.SetDefault("clickhouse_password", "printforge")
	v.SetDefault("clickhouse_db", "printforge")

	// Redis defaults
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	// MinIO defaults
	v.SetDefault("minio_endpoint", "localhost:9002")
	v.SetDefault("minio_access_key", "printforge")
	v.SetDefault("minio_secret_key", "printforge123")
	v.SetDefault("minio_use_ssl", false)
	v.SetDefault("minio_bucket", "printforge-models")

	// JWT defaults
	v.SetDefault("jwt_secret", "change-me-in-production")
	v.SetDefault("jwt_expiry_hours", 24)
	v.SetDefault("jwt_refresh_expiry_days", 7)
	v.SetDefault("jwt_issuer", "printforge")

	// Rate limiting defaults
	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_requests_per_second", 100)
	v.SetDefault("rate_limit_burst", 200)

	// Worker defaults
	v.SetDefault("worker_concurrency", 10)
	v.SetDefault("worker_queue_critical", "critical")
	v.SetDefault("worker_queue_default", "default")
	v.SetDefault("worker_queue_low", "low")
	v.SetDefault("dispatch_worker_enabled", true)
	v.SetDefault("dispatch_worker_batch_size", 50)
	v.SetDefault("low_stock_worker_enabled", true)
	v.SetDefault("low_stock_threshold_grams", 100)
	v.SetDefault("cleanup_worker_enabled", true)
	v.SetDefault("retention_days", 90)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Sentry defaults
	v.SetDefault("sentry_enabled", false)
	v.SetDefault("sentry_dsn", "")
	v.SetDefault("sentry_environment", "")
	v.SetDefault("sentry_release", "")
	v.SetDefault("sentry_debug", false)
	v.SetDefault("sentry_sample_rate", 1.0)
	v.SetDefault("sentry_traces_sample_rate", 0.1)

	// Storefront defaults
	v.SetDefault("storefront_order_number_prefix", "PF")
	v.SetDefault("storefront_max_upload_size_mb", 64)
	v.SetDefault("storefront_review_auto_publish", false)
}

func validate(cfg *Config) error {
	if cfg.JWT.Secret == "change-me-in-production" && cfg.IsProduction() {
		return fmt.Errorf("JWT secret must be changed in production")
	}
	return nil
}
