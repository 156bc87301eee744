package user

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
	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware())
	users.Use(middleware.ContextLogger(logger))
	{
		users.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "user", "read"),
			handler.GetAll,
		)

		users.POST("/me/password",
			middleware.RateLimitByUser(0.2, 2),
			handler.ChangePassword,
		)

		users.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "user", "read"),
			handler.GetByID,
		)

		users.GET("/:id/team",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "user", "read"),
			handler.GetTeam,
		)

		users.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "user", "create"),
			handler.Create,
		)

		users.PUT("/:id",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "user", "update"),
			handler.Update,
		)

		users.DELETE("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "user", "delete"),
			handler.Delete,
		)

		users.POST("/:id/reset-password",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "user", "update"),
			handler.ResetPassword,
		)
	}
}
