package evaluation

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
	evaluations := r.Group("/evaluations")
	evaluations.Use(middleware.AuthMiddleware())
	evaluations.Use(middleware.ContextLogger(logger))
	{
		evaluations.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "evaluation", "read"),
			handler.GetAll,
		)

		evaluations.POST("",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "evaluation", "write"),
			handler.Save,
		)

		evaluations.POST("/improve-text",
			middleware.RateLimitByUser(0.2, 3),
			middleware.RBACAuthorize(rbacService, "llm", "use"),
			handler.ImproveText,
		)

		evaluations.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "evaluation", "read"),
			handler.GetByID,
		)

		evaluations.GET("/:id/pdf",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, "evaluation", "read"),
			handler.ExportPDF,
		)

		evaluations.POST("/:id/approve",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "evaluation", "write"),
			handler.Approve,
		)

		evaluations.POST("/:id/complete",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "evaluation", "write"),
			handler.Complete,
		)
	}
}
