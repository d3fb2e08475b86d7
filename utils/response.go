package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nimbusdrive/errtypes"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string, err interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Message: message,
		Error:   err,
	})
}

func BadRequestResponse(c *gin.Context, message string, err interface{}) {
	ErrorResponse(c, http.StatusBadRequest, message, err)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message, nil)
}

// RespondError maps a service error to an HTTP status. Storage failures are
// reported generically; their internal detail stays in the server log.
func RespondError(c *gin.Context, err error) {
	switch {
	case errtypes.IsNotFound(err):
		ErrorResponse(c, http.StatusNotFound, err.Error(), nil)
	case errtypes.IsPermissionDenied(err):
		ErrorResponse(c, http.StatusForbidden, err.Error(), nil)
	case errtypes.IsConflict(err):
		ErrorResponse(c, http.StatusConflict, err.Error(), nil)
	case errtypes.IsInvalidOperation(err):
		ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
	case errtypes.IsQuotaExceeded(err):
		ErrorResponse(c, http.StatusInsufficientStorage, err.Error(), nil)
	case errtypes.IsStorageFailure(err):
		LogError("storage failure", err)
		ErrorResponse(c, http.StatusServiceUnavailable, "storage temporarily unavailable", nil)
	default:
		LogError("unhandled error", err)
		ErrorResponse(c, http.StatusInternalServerError, "internal error", nil)
	}
}
