package routes

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/middleware"
)

func RegisterFileRoutes(rg *gin.RouterGroup, jwtSecret string, fileController *controllers.FileController) {
	files := rg.Group("/files")
	files.Use(middleware.AuthMiddleware(jwtSecret))
	{
		files.POST("/", fileController.UploadFile)
		files.GET("/:fileId", fileController.GetFile)
		files.PUT("/:fileId/content", fileController.ReplaceFile)
		files.PATCH("/:fileId/rename", fileController.RenameFile)
		files.PATCH("/:fileId/move", fileController.MoveFile)
		files.GET("/:fileId/download", fileController.DownloadFile)
	}
}
