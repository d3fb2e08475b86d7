package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterFolderRoutes(rg *gin.RouterGroup, jwtSecret string, folderController *controllers.FolderController) {
	folders := rg.Group("/folders")
	folders.Use(middleware.AuthMiddleware(jwtSecret))
	{
		folders.POST("/", folderController.CreateFolder)
		folders.GET("/", folderController.ListRoot)
		folders.GET("/:folderId", folderController.GetContents)
		folders.PATCH("/:folderId/rename", folderController.RenameFolder)
		folders.PATCH("/:folderId/move", folderController.MoveFolder)
		folders.POST("/bulk-move", folderController.BulkMove)
		folders.GET("/search", folderController.Search)
	}
}
