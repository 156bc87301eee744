package cycle

import (
	"performa/internal/middleware"
	"performa/internal/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	logger *zap.Logger,
) {
	cycles := r.Group("/cycles")
	cycles.Use(middleware.AuthMiddleware())
	cycles.Use(middleware.ContextLogger(logger))
	{
		cycles.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "cycle", "read"),
			handler.GetAll,
		)

		cycles.GET("/active",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "cycle", "read"),
			handler.GetActive,
		)

		cycles.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "cycle", "read"),
			handler.GetByID,
		)

		cycles.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "cycle", "create"),
			handler.Create,
		)

		cycles.PUT("/:id",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "cycle", "update"),
			handler.Update,
		)

		cycles.PATCH("/:id/status",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "cycle", "update"),
			handler.UpdateStatus,
		)

		cycles.DELETE("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "cycle", "delete"),
			handler.Delete,
		)
	}
}
