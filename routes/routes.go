package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"nimbusdrive/controllers"
	"nimbusdrive/services"
	"nimbusdrive/store"
)

// Deps carries everything the route tree needs; main builds it once from
// config and the connected store.
type Deps struct {
	Store             store.Store
	Content           services.ContentStore
	JWTSecret         string
	JWTIssuer         string
	JWTExpiration     time.Duration
	DefaultMaxStorage int64
	MaxFileSize       int64
}

// SetupRoutes wires services and registers every route group under api.
func SetupRoutes(api *gin.RouterGroup, deps Deps) {
	auditService := services.NewAuditService(deps.Store)
	permissionService := services.NewPermissionService(deps.Store)
	folderService := services.NewFolderService(deps.Store, permissionService, auditService)
	fileService := services.NewFileService(deps.Store, deps.Content, permissionService, auditService)
	trashService := services.NewTrashService(deps.Store, deps.Content, folderService, auditService)
	shareService := services.NewShareService(deps.Store, permissionService, auditService)
	authService := services.NewAuthService(deps.Store, deps.JWTSecret, deps.JWTIssuer, deps.JWTExpiration, deps.DefaultMaxStorage)

	RegisterAuthRoutes(api, deps.JWTSecret, controllers.NewAuthController(authService))
	RegisterFolderRoutes(api, deps.JWTSecret, controllers.NewFolderController(folderService))
	RegisterFileRoutes(api, deps.JWTSecret, controllers.NewFileController(fileService, deps.MaxFileSize))
	RegisterTrashRoutes(api, deps.JWTSecret, controllers.NewTrashController(trashService))
	RegisterShareRoutes(api, deps.JWTSecret, controllers.NewShareController(shareService))
	RegisterLogsRoutes(api, deps.JWTSecret, controllers.NewLogsController(auditService))
}
