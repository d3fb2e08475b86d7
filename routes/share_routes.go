package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterShareRoutes(rg *gin.RouterGroup, jwtSecret string, shareController *controllers.ShareController) {
	// Token resolution stays public: holding the link is the credential.
	rg.GET("/shares/token/:token", shareController.ResolveToken)

	shares := rg.Group("/shares")
	shares.Use(middleware.AuthMiddleware(jwtSecret))
	{
		shares.POST("/", shareController.CreateShare)
		shares.PATCH("/:shareId", shareController.UpdateShare)
		shares.DELETE("/:shareId", shareController.DeleteShare)
		shares.GET("/:resourceType/:resourceId", shareController.GetShareDetails)
	}
}
