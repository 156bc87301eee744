package evaluationitem

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
	items := r.Group("/evaluation-items")
	items.Use(middleware.AuthMiddleware())
	items.Use(middleware.ContextLogger(logger))
	{
		items.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "evaluation_item", "read"),
			handler.GetAll,
		)

		items.GET("/employees/:employeeId",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "evaluation_item", "read"),
			handler.GetForEmployee,
		)

		items.GET("/employees/:employeeId/count",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "evaluation_item", "create"),
			handler.CountForEmployee,
		)

		items.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "evaluation_item", "read"),
			handler.GetByID,
		)

		items.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "evaluation_item", "create"),
			handler.Create,
		)

		items.PUT("/:id",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "evaluation_item", "update"),
			handler.Update,
		)

		items.POST("/:id/deadline",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "evaluation_item", "update"),
			handler.SetDeadline,
		)

		items.POST("/:id/deactivate",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "evaluation_item", "update"),
			handler.Deactivate,
		)

		items.POST("/:id/reactivate",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "evaluation_item", "update"),
			handler.Reactivate,
		)

		items.POST("/:id/assignments",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "evaluation_item", "assign"),
			handler.Assign,
		)

		items.DELETE("/:id/assignments/:employeeId",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "evaluation_item", "assign"),
			handler.Unassign,
		)
	}
}
