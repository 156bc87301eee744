package app

import (
	"context"
	"net/http"
	"time"

	"performa/internal/bootstrap"
	"performa/internal/config"
	"performa/internal/middleware"
	"performa/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const connectRetries = 5

// BuildApp connects the infrastructure, migrates when asked to and registers
// every route on router. The returned func releases the connections.
func BuildApp(router *gin.Engine, cfg config.Config) (func(), error) {
	logger := zap.L()

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, connectRetries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := bootstrap.Migrate(gormDB); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, connectRetries)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	cleanup := func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("close redis failed", zap.Error(err))
		}
		if err := sqlDB.Close(); err != nil {
			logger.Warn("close database failed", zap.Error(err))
		}
	}

	router.Use(middleware.RequestID())
	router.GET("/healthz", healthz(sqlDB.PingContext, rdb))

	if err := registerModules(router, cfg, sqlDB, gormDB, rdb, logger); err != nil {
		cleanup()
		return nil, err
	}
	return cleanup, nil
}

// healthz reports 200 only when both postgres and redis answer.
func healthz(pingDB func(context.Context) error, rdb redis.Cmdable) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"database": "ok", "redis": "ok"}
		status := http.StatusOK
		if err := pingDB(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"success": status == http.StatusOK, "data": checks})
	}
}
