package controllers

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/models"
	"nimbusdrive/services"
	"nimbusdrive/utils"
)

type ShareController struct {
	shareService *services.ShareService
}

func NewShareController(shareService *services.ShareService) *ShareController {
	return &ShareController{shareService: shareService}
}

type shareRequest struct {
	ResourceType string   `json:"resource_type" binding:"required,oneof=file folder"`
	ResourceID   string   `json:"resource_id" binding:"required"`
	Permission   string   `json:"permission" binding:"required,oneof=view edit"`
	IsPublic     bool     `json:"is_public"`
	Emails       []string `json:"emails"`
}

func (sc *ShareController) CreateShare(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	target, ok := sc.parseTarget(c, req.ResourceType, req.ResourceID)
	if !ok {
		return
	}

	share, err := sc.shareService.Create(c.Request.Context(), actor, target,
		models.SharePermission(req.Permission), req.IsPublic, req.Emails)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.CreatedResponse(c, "Share created successfully", share)
}

func (sc *ShareController) UpdateShare(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	shareID, ok := pathID(c, "shareId")
	if !ok {
		return
	}

	var req struct {
		Permission string   `json:"permission" binding:"required,oneof=view edit"`
		IsPublic   bool     `json:"is_public"`
		Emails     []string `json:"emails"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	share, err := sc.shareService.Update(c.Request.Context(), actor, shareID,
		models.SharePermission(req.Permission), req.IsPublic, req.Emails)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Share updated successfully", share)
}

func (sc *ShareController) DeleteShare(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	shareID, ok := pathID(c, "shareId")
	if !ok {
		return
	}

	if err := sc.shareService.Delete(c.Request.Context(), actor, shareID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Share revoked", nil)
}

// ResolveToken is the one unauthenticated share endpoint: it maps a link
// token to the node behind it.
func (sc *ShareController) ResolveToken(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		utils.BadRequestResponse(c, "Share token is required", nil)
		return
	}

	node, err := sc.shareService.ResolveToken(c.Request.Context(), token)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Share resolved", node)
}

func (sc *ShareController) GetShareDetails(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	target, ok := sc.parseTarget(c, c.Param("resourceType"), c.Param("resourceId"))
	if !ok {
		return
	}

	details, err := sc.shareService.Details(c.Request.Context(), actor, target)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Share details retrieved", details)
}

func (sc *ShareController) parseTarget(c *gin.Context, resourceType, resourceID string) (models.Target, bool) {
	raw := resourceID
	id, err := optionalID(&raw)
	if err != nil || id == nil {
		utils.BadRequestResponse(c, "Invalid resource ID format", nil)
		return models.Target{}, false
	}

	switch models.ResourceType(resourceType) {
	case models.ResourceFile:
		return models.FileTarget(*id), true
	case models.ResourceFolder:
		return models.FolderTarget(*id), true
	}
	utils.BadRequestResponse(c, "Resource type must be file or folder", nil)
	return models.Target{}, false
}
