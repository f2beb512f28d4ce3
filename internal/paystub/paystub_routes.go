package paystub

import (
	"time"

	"go-paystub/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RouteConfig struct {
	JWTSecret          string
	DownloadRatePerSec float64
	DownloadBurst      int
	IdempotencyLockTTL time.Duration
}

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	cfg RouteConfig,
	logger *zap.Logger,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	downloadLimit := middleware.RateLimitByUser(rate.Limit(cfg.DownloadRatePerSec), cfg.DownloadBurst)

	paystubs := r.Group("/paystubs")
	paystubs.Use(
		middleware.AuthMiddleware(cfg.JWTSecret),
		middleware.ExtractUserID(),
		middleware.ContextLogger(logger),
	)
	{
		paystubs.GET("", handler.Search)
		paystubs.GET("/metrics", handler.Metrics)
		if redisClient != nil {
			paystubs.POST("/generate", middleware.Idempotency(redisClient, cfg.IdempotencyLockTTL), handler.Generate)
		} else {
			paystubs.POST("/generate", handler.Generate)
		}
		paystubs.POST("/batch", handler.Batch)
		paystubs.GET("/:id", handler.GetByID)
		paystubs.GET("/:id/compliance", handler.CheckCompliance)
		paystubs.GET("/:id/download", downloadLimit, handler.Download)
		paystubs.GET("/:id/access-log", handler.AccessLog)
		paystubs.POST("/:id/regenerate", handler.Regenerate)
	}
}
