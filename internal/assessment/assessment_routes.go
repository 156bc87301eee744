package assessment

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
	assessments := r.Group("/partial-assessments")
	assessments.Use(middleware.AuthMiddleware())
	assessments.Use(middleware.ContextLogger(logger))
	{
		assessments.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "assessment", "read"),
			handler.GetActive,
		)

		assessments.GET("/history",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "assessment", "read"),
			handler.GetHistory,
		)

		assessments.POST("",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "assessment", "write"),
			handler.Create,
		)
	}
}
