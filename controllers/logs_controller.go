package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"nimbusdrive/models"
	"nimbusdrive/services"
	"nimbusdrive/store"
	"nimbusdrive/utils"
)

// LogsController serves the owner's activity feed. Entries are keyed by
// resource owner, so the feed includes collaborator actions on the owner's
// resources.
type LogsController struct {
	auditService *services.AuditService
}

func NewLogsController(auditService *services.AuditService) *LogsController {
	return &LogsController{auditService: auditService}
}

func (lc *LogsController) ListLogs(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	filter := store.AuditFilter{
		Action:       c.Query("action"),
		ResourceType: models.ResourceType(c.Query("resource_type")),
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid 'from' timestamp, expected RFC3339", nil)
			return
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid 'to' timestamp, expected RFC3339", nil)
			return
		}
		filter.To = &t
	}

	entries, err := lc.auditService.List(c.Request.Context(), actor, filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Activity log retrieved", entries)
}
