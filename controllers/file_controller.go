package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"nimbusdrive/services"
	"nimbusdrive/utils"
)

type FileController struct {
	fileService *services.FileService
	maxFileSize int64
}

func NewFileController(fileService *services.FileService, maxFileSize int64) *FileController {
	return &FileController{fileService: fileService, maxFileSize: maxFileSize}
}

// UploadFile accepts multipart form data: the "file" part plus an optional
// "parent_id" field.
func (fc *FileController) UploadFile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "File is required", err.Error())
		return
	}
	if fc.maxFileSize > 0 && header.Size > fc.maxFileSize {
		utils.BadRequestResponse(c, "File exceeds the maximum upload size", nil)
		return
	}

	raw := c.PostForm("parent_id")
	var rawPtr *string
	if raw != "" {
		rawPtr = &raw
	}
	parentID, err := optionalID(rawPtr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid parent folder ID format", nil)
		return
	}

	src, err := header.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read uploaded file", err.Error())
		return
	}
	defer src.Close()

	file, err := fc.fileService.Upload(c.Request.Context(), actor, parentID, header.Filename, src, header.Size)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.CreatedResponse(c, "File uploaded successfully", file)
}

// ReplaceFile overwrites an existing file's content.
func (fc *FileController) ReplaceFile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileId")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "File is required", err.Error())
		return
	}
	if fc.maxFileSize > 0 && header.Size > fc.maxFileSize {
		utils.BadRequestResponse(c, "File exceeds the maximum upload size", nil)
		return
	}

	src, err := header.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read uploaded file", err.Error())
		return
	}
	defer src.Close()

	file, err := fc.fileService.Replace(c.Request.Context(), actor, fileID, src, header.Size)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "File replaced successfully", file)
}

func (fc *FileController) GetFile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileId")
	if !ok {
		return
	}

	file, err := fc.fileService.Metadata(c.Request.Context(), actor, fileID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "File retrieved", file)
}

func (fc *FileController) RenameFile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileId")
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,min=1,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	file, err := fc.fileService.RenameFile(c.Request.Context(), actor, fileID, req.Name)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "File renamed successfully", file)
}

func (fc *FileController) MoveFile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileId")
	if !ok {
		return
	}

	var req struct {
		NewParentID *string `json:"new_parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}
	newParentID, err := optionalID(req.NewParentID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid destination folder ID format", nil)
		return
	}

	file, err := fc.fileService.MoveFile(c.Request.Context(), actor, fileID, newParentID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "File moved successfully", file)
}

// DownloadFile hands back a short-lived signed URL rather than proxying
// the bytes.
func (fc *FileController) DownloadFile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileId")
	if !ok {
		return
	}

	url, err := fc.fileService.DownloadURL(c.Request.Context(), actor, fileID, 15*time.Minute)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Download URL generated", gin.H{"download_url": url})
}
