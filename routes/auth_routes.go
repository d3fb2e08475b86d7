package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterAuthRoutes(rg *gin.RouterGroup, jwtSecret string, authController *controllers.AuthController) {
	auth := rg.Group("/auth")
	{
		auth.POST("/signup", authController.Signup)
		auth.POST("/login", authController.Login)
		auth.GET("/me", middleware.AuthMiddleware(jwtSecret), authController.Profile)
	}
}
