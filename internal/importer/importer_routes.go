package importer

import (
	"time"

	"performa/internal/middleware"
	"performa/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyTTL = 24 * time.Hour

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	imports := r.Group("/admin/import")
	imports.Use(middleware.AuthMiddleware())
	imports.Use(middleware.ContextLogger(logger))
	{
		imports.POST("/users",
			middleware.RateLimitByUser(0.2, 2),
			middleware.RBACAuthorize(rbacService, "import", "create"),
			middleware.Idempotency(rdb, idempotencyTTL),
			handler.ImportUsers,
		)
	}
}
