package company

import (
	"performa/internal/middleware"
	"performa/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	company := r.Group("/company")
	company.Use(middleware.AuthMiddleware())
	{
		company.GET("",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "company", "read"),
			handler.GetMe,
		)

		company.PUT("",
			middleware.RateLimitByUser(0.1, 1),
			middleware.RBACAuthorize(rbacService, "company", "update"),
			handler.UpdateMe,
		)
	}
}
