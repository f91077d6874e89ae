package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/tasktracker/internal/apperr"
)

// ErrorResponse is the uniform error payload: a short error label plus a
// field -> message map.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

// respondError classifies a domain error into a response. Validation maps
// to 422, not-found to 404, anything else to a generic 500.
func (h *TaskHandler) respondError(c *gin.Context, err error) {
	if verr, ok := apperr.AsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Validation Failed",
			Details: verr.Fields,
		})
		return
	}
	if nerr, ok := apperr.AsNotFound(err); ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Not Found",
			Details: map[string]string{nerr.Resource: nerr.Error()},
		})
		return
	}

	h.log.Error("request failed",
		"error", err,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "Internal Server Error",
		Details: map[string]string{"message": "Unexpected error occurred"},
	})
}
