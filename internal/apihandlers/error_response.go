package apihandlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"dubber/internal/models"
)

// APIError defines the standard error body.
// Example: { "error": { "kind": "NOT_FOUND", "code": "JOB_NOT_FOUND", "message": "job 42 not found" } }
type APIError struct {
	Kind    string            `json:"kind"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// JSONError sends a structured error response.
func JSONError(ctx *gin.Context, status int, apiErr APIError) {
	ctx.AbortWithStatusJSON(status, errorResponse{Error: apiErr})
}

// WriteError classifies err and writes the matching status and envelope.
// Unclassified errors are logged and reported as INTERNAL without detail.
func WriteError(ctx *gin.Context, err error) {
	kind := models.KindOf(err)
	apiErr := APIError{Kind: kind, Code: models.CodeOf(err, kind), Message: err.Error()}

	var appErr *models.Error
	if errors.As(err, &appErr) {
		apiErr.Message = appErr.Message
		apiErr.Details = appErr.Details
	}

	status := statusFor(kind, apiErr.Code)
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{"path": ctx.FullPath(), "error": err}).Error("Request failed")
		apiErr.Message = "internal error"
	}
	JSONError(ctx, status, apiErr)
}

func statusFor(kind, code string) int {
	switch kind {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindInvalidTransition:
		return http.StatusConflict
	case models.KindValidation:
		if code == models.CodeFileTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case models.KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// BadRequest is a shortcut for request-shape problems caught before the service.
func BadRequest(ctx *gin.Context, code, msg string) {
	JSONError(ctx, http.StatusBadRequest, APIError{Kind: models.KindValidation, Code: code, Message: msg})
}
