package controllers

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/services"
	"nimbusdrive/utils"
)

type FolderController struct {
	folderService *services.FolderService
}

func NewFolderController(folderService *services.FolderService) *FolderController {
	return &FolderController{folderService: folderService}
}

func (fc *FolderController) CreateFolder(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		Name     string  `json:"name" binding:"required,min=1,max=255"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}
	parentID, err := optionalID(req.ParentID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid parent folder ID format", nil)
		return
	}

	folder, err := fc.folderService.CreateFolder(c.Request.Context(), actor, parentID, req.Name)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Folder created successfully", folder)
}

func (fc *FolderController) ListRoot(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	contents, err := fc.folderService.ListRoot(c.Request.Context(), actor)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Root contents retrieved", contents)
}

func (fc *FolderController) GetContents(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	folderID, ok := pathID(c, "folderId")
	if !ok {
		return
	}

	contents, err := fc.folderService.Contents(c.Request.Context(), actor, folderID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Folder contents retrieved", contents)
}

func (fc *FolderController) RenameFolder(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	folderID, ok := pathID(c, "folderId")
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

	folder, err := fc.folderService.RenameFolder(c.Request.Context(), actor, folderID, req.Name)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Folder renamed successfully", folder)
}

func (fc *FolderController) MoveFolder(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	folderID, ok := pathID(c, "folderId")
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

	folder, err := fc.folderService.MoveFolder(c.Request.Context(), actor, folderID, newParentID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Folder moved successfully", folder)
}

func (fc *FolderController) BulkMove(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		FolderIDs   []string `json:"folder_ids"`
		FileIDs     []string `json:"file_ids"`
		NewParentID *string  `json:"new_parent_id,omitempty"`
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
	newParentID, err := optionalID(req.NewParentID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid destination folder ID format", nil)
		return
	}

	if err := fc.folderService.BulkMove(c.Request.Context(), actor, folderIDs, fileIDs, newParentID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Items moved successfully", nil)
}

func (fc *FolderController) Search(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		utils.BadRequestResponse(c, "Search query is required", nil)
		return
	}

	results, err := fc.folderService.Search(c.Request.Context(), actor, query)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Search completed", results)
}
