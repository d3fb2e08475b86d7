package controllers

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/models"
	"nimbusdrive/services"
	"nimbusdrive/utils"
)

type TrashController struct {
	trashService *services.TrashService
}

func NewTrashController(trashService *services.TrashService) *TrashController {
	return &TrashController{trashService: trashService}
}

func (tc *TrashController) DeleteFile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileId")
	if !ok {
		return
	}

	if err := tc.trashService.SoftDelete(c.Request.Context(), actor, models.FileTarget(fileID)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "File moved to recycle bin", nil)
}

func (tc *TrashController) DeleteFolder(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	folderID, ok := pathID(c, "folderId")
	if !ok {
		return
	}

	if err := tc.trashService.SoftDelete(c.Request.Context(), actor, models.FolderTarget(folderID)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Folder deleted", nil)
}

// DeleteMany bins a mixed batch of folders and files in one request.
func (tc *TrashController) DeleteMany(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		FolderIDs []string `json:"folder_ids"`
		FileIDs   []string `json:"file_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}
	folderIDs, err := parseIDs(req.FolderIDs)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid folder ID format", nil)
		return
	}
	fileIDs, err := parseIDs(req.FileIDs)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid file ID format", nil)
		return
	}
	if len(folderIDs) == 0 && len(fileIDs) == 0 {
		utils.BadRequestResponse(c, "Nothing to delete", nil)
		return
	}

	if err := tc.trashService.SoftDeleteMany(c.Request.Context(), actor, folderIDs, fileIDs); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Items moved to recycle bin", nil)
}

func (tc *TrashController) ListTrash(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	files, err := tc.trashService.List(c.Request.Context(), actor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Recycle bin retrieved", files)
}

func (tc *TrashController) RestoreFile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileId")
	if !ok {
		return
	}

	file, err := tc.trashService.Restore(c.Request.Context(), actor, fileID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "File restored", file)
}

func (tc *TrashController) RestoreFiles(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		FileIDs []string `json:"file_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}
	fileIDs, err := parseIDs(req.FileIDs)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid file ID format", nil)
		return
	}

	files, err := tc.trashService.RestoreMany(c.Request.Context(), actor, fileIDs)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Files restored", files)
}

func (tc *TrashController) PurgeFiles(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		FileIDs []string `json:"file_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}
	fileIDs, err := parseIDs(req.FileIDs)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid file ID format", nil)
		return
	}

	if err := tc.trashService.PermanentDeleteMany(c.Request.Context(), actor, fileIDs); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Files permanently deleted", nil)
}

func (tc *TrashController) PurgeFile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	fileID, ok := pathID(c, "fileId")
	if !ok {
		return
	}

	if err := tc.trashService.PermanentDelete(c.Request.Context(), actor, fileID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "File permanently deleted", nil)
}
