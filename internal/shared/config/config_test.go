package config_test

import (
	"testing"
	"time"

	"go-paystub/internal/shared/config"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PAYSTUB_GENERATION_CONCURRENCY", "0")

	cfg, err := config.Load()

	assert.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.PayStub.ExternalCallTimeout)
	assert.Equal(t, 5*time.Minute, cfg.PayStub.MetricsCacheTTL)
	assert.Equal(t, 10*time.Minute, cfg.PayStub.IdempotencyLockTTL)
	assert.Equal(t, 1, cfg.PayStub.GenerationWorkers)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()

	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	dsn := config.DatabaseConfig{Host: "db", User: "u", Password: "p", Name: "paystub", Port: "5432", SSLMode: "disable"}.DSN()
	assert.Equal(t, "host=db user=u password=p dbname=paystub port=5432 sslmode=disable", dsn)
}
