package auth

import (
	"performa/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", middleware.RateLimitByIP(0.08, 5), handler.Login)
		auth.POST("/refresh", middleware.RateLimitByIP(0.2, 5), handler.Refresh)
		auth.POST("/logout", middleware.OptionalAuthMiddleware(), handler.Logout)
		auth.GET("/me", middleware.AuthMiddleware(), middleware.RateLimitByUser(2, 5), handler.Me)
	}
}
