package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// PayStubConfig tunes the generation pipeline and query service.
type PayStubConfig struct {
	StorageDir          string
	PublicBaseURL       string
	ComplianceVersion   string
	GenerationWorkers   int
	ExternalCallTimeout time.Duration
	IdempotencyLockTTL  time.Duration
	MetricsCacheTTL     time.Duration
	DownloadRatePerSec  float64
	DownloadBurst       int
}

type Config struct {
	Port               string
	JWTSecret          string
	RedisAddr          string
	KafkaBroker        string
	OutboxPollInterval time.Duration
	ConnectRetries     int
	Database           DatabaseConfig
	PayStub            PayStubConfig
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "3000")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("CONNECT_RETRIES", 5)
	v.SetDefault("OUTBOX_POLL_INTERVAL", "3s")
	v.SetDefault("PAYSTUB_STORAGE_DIR", "storage/paystubs")
	v.SetDefault("PAYSTUB_PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("PAYSTUB_COMPLIANCE_VERSION", "2026.1")
	v.SetDefault("PAYSTUB_GENERATION_CONCURRENCY", 4)
	v.SetDefault("PAYSTUB_EXTERNAL_CALL_TIMEOUT", "15s")
	v.SetDefault("PAYSTUB_IDEMPOTENCY_LOCK_TTL", "10m")
	v.SetDefault("PAYSTUB_METRICS_CACHE_TTL", "5m")
	v.SetDefault("PAYSTUB_DOWNLOAD_RATE_PER_SEC", 5)
	v.SetDefault("PAYSTUB_DOWNLOAD_BURST", 10)
	v.AutomaticEnv()

	cfg := &Config{
		Port:               v.GetString("PORT"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		KafkaBroker:        v.GetString("KAFKA_BROKER"),
		OutboxPollInterval: v.GetDuration("OUTBOX_POLL_INTERVAL"),
		ConnectRetries:     v.GetInt("CONNECT_RETRIES"),
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			Port:     v.GetString("DB_PORT"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		PayStub: PayStubConfig{
			StorageDir:          v.GetString("PAYSTUB_STORAGE_DIR"),
			PublicBaseURL:       v.GetString("PAYSTUB_PUBLIC_BASE_URL"),
			ComplianceVersion:   v.GetString("PAYSTUB_COMPLIANCE_VERSION"),
			GenerationWorkers:   v.GetInt("PAYSTUB_GENERATION_CONCURRENCY"),
			ExternalCallTimeout: v.GetDuration("PAYSTUB_EXTERNAL_CALL_TIMEOUT"),
			IdempotencyLockTTL:  v.GetDuration("PAYSTUB_IDEMPOTENCY_LOCK_TTL"),
			MetricsCacheTTL:     v.GetDuration("PAYSTUB_METRICS_CACHE_TTL"),
			DownloadRatePerSec:  v.GetFloat64("PAYSTUB_DOWNLOAD_RATE_PER_SEC"),
			DownloadBurst:       v.GetInt("PAYSTUB_DOWNLOAD_BURST"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.PayStub.GenerationWorkers < 1 {
		cfg.PayStub.GenerationWorkers = 1
	}

	return cfg, nil
}
