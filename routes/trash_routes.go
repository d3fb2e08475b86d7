package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterTrashRoutes(rg *gin.RouterGroup, jwtSecret string, trashController *controllers.TrashController) {
	authed := middleware.AuthMiddleware(jwtSecret)

	rg.DELETE("/files/:fileId", authed, trashController.DeleteFile)
	rg.DELETE("/folders/:folderId", authed, trashController.DeleteFolder)
	rg.POST("/delete", authed, trashController.DeleteMany)

	trash := rg.Group("/trash")
	trash.Use(authed)
	{
		trash.GET("/", trashController.ListTrash)
		trash.POST("/restore", trashController.RestoreFiles)
		trash.POST("/purge", trashController.PurgeFiles)
		trash.POST("/:fileId/restore", trashController.RestoreFile)
		trash.DELETE("/:fileId", trashController.PurgeFile)
	}
}
