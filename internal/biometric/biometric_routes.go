package biometric

import (
	"performa/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, logger *zap.Logger) {
	bio := r.Group("/auth/biometric")
	{
		bio.POST("/login/begin", middleware.RateLimitByIP(0.2, 5), handler.LoginBegin)
		bio.POST("/login/finish", middleware.RateLimitByIP(0.2, 5), handler.LoginFinish)
	}

	own := bio.Group("")
	own.Use(middleware.AuthMiddleware())
	own.Use(middleware.ContextLogger(logger))
	{
		own.POST("/register/begin", middleware.RateLimitByUser(0.5, 3), handler.RegisterBegin)
		own.POST("/register/finish", middleware.RateLimitByUser(0.5, 3), handler.RegisterFinish)
		own.GET("/credentials", middleware.RateLimitByUser(2, 5), handler.ListCredentials)
		own.DELETE("/credentials/:id", middleware.RateLimitByUser(0.5, 3), handler.RevokeCredential)
	}
}
