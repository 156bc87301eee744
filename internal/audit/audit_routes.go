package audit

import (
	"performa/internal/middleware"
	"performa/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	logs := r.Group("/audit-logs")
	logs.Use(middleware.AuthMiddleware(), middleware.RateLimitByUser(5, 10))
	{
		logs.GET("", middleware.RBACAuthorize(rbacService, "audit", "read"), handler.Query)
		logs.GET("/entity/:entityType/:entityId", middleware.RBACAuthorize(rbacService, "audit", "read"), handler.EntityTrail)
		logs.GET("/users/:userId/activity", middleware.RBACAuthorize(rbacService, "audit", "read"), handler.UserActivity)
		logs.GET("/report", middleware.RBACAuthorize(rbacService, "audit", "read"), handler.Report)
		logs.GET("/export", middleware.RBACAuthorize(rbacService, "audit", "export"), handler.Export)
	}
}
