// Package api wires the task service into a gin HTTP surface: routing,
// request parsing, and classification of domain errors into responses.
package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/nhle/tasktracker/internal/service"
	"github.com/nhle/tasktracker/internal/store"
)

// NewRouter assembles the gin engine with middleware and task routes.
func NewRouter(svc *service.TaskService, st store.Store, logger *log.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		RequestID(),
		RequestLogger(logger),
		gin.CustomRecovery(func(c *gin.Context, err any) {
			logger.Error("panic recovered", "error", err, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "Internal Server Error",
				Details: map[string]string{"message": "Unexpected error occurred"},
			})
		}),
	)

	h := NewTaskHandler(svc, logger)

	tasks := r.Group("/tasks")
	tasks.POST("", h.Create)
	tasks.GET("", h.List)
	tasks.GET("/:id", h.Get)
	tasks.PATCH("/:id", h.Patch)
	tasks.DELETE("/:id", h.Delete)

	r.GET("/healthz", func(c *gin.Context) {
		if err := st.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
