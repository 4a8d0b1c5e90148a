package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accounthub/internal/handlers"
	"accounthub/internal/middleware"
	"accounthub/internal/services"
)

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tokens services.TokenService,
) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/verify-email/:id/:hash", authHandler.VerifyEmail)
		auth.POST("/resend-verification", authHandler.ResendVerification)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	user := router.Group("/api/user")
	user.Use(middleware.AuthMiddleware(tokens))
	{
		user.GET("/profile", userHandler.Profile)
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(tokens), middleware.AdminMiddleware())
	{
		admin.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})
	}
}
