package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterLogsRoutes(rg *gin.RouterGroup, jwtSecret string, logsController *controllers.LogsController) {
	logs := rg.Group("/logs")
	logs.Use(middleware.AuthMiddleware(jwtSecret))
	{
		logs.GET("/", logsController.ListLogs)
	}
}
