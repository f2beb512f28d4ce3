package app

import (
	"go-paystub/internal/shared/config"
	"go-paystub/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp wires the api. The returned func drains background work and is
// called after the server has shut down.
func BuildApp(router *gin.Engine, cfg *config.Config) (func(), error) {
	logger := zap.L().Named("app.api")

	// 1. Setup Infrastructure
	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database, cfg.ConnectRetries)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.ConnectRetries)
	if err != nil {
		return nil, err
	}
	logger.Info("redis connection established")

	// 2. Register Modules & Routes
	return registerModules(router, cfg, sqlDB, gormDB, redisClient)
}
