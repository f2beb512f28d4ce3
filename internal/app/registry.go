package app

import (
	"database/sql"

	"go-paystub/internal/middleware"
	"go-paystub/internal/paystub"
	"go-paystub/internal/shared/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) (func(), error) {
	logger := zap.L()

	router.Use(middleware.RequestID())

	// --- Services ---
	payStubs := newPayStubModule(cfg, db, gormDB, rdb, logger)
	payStubService := payStubs.service(cfg, logger)

	// --- Handlers ---
	payStubHandler := paystub.NewHandlerWithRedis(payStubService, rdb)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		paystub.RegisterRoutes(api, payStubHandler, paystub.RouteConfig{
			JWTSecret:          cfg.JWTSecret,
			DownloadRatePerSec: cfg.PayStub.DownloadRatePerSec,
			DownloadBurst:      cfg.PayStub.DownloadBurst,
			IdempotencyLockTTL: cfg.PayStub.IdempotencyLockTTL,
		}, logger, rdb)
	}

	// pending ledger writes are flushed once the server stops taking requests
	return payStubs.ledger.Wait, nil
}
