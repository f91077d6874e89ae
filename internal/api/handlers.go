package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/nhle/tasktracker/internal/apperr"
	"github.com/nhle/tasktracker/internal/model"
	"github.com/nhle/tasktracker/internal/service"
	"github.com/nhle/tasktracker/internal/store"
)

// Pagination bounds for task listing.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// TaskHandler exposes the task service over HTTP.
type TaskHandler struct {
	svc *service.TaskService
	log *log.Logger
}

// NewTaskHandler builds a TaskHandler.
func NewTaskHandler(svc *service.TaskService, logger *log.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, log: logger}
}

// taskCreateRequest is the POST /tasks body.
type taskCreateRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Priority    *int     `json:"priority"`
	DueDate     string   `json:"due_date"`
	Tags        []string `json:"tags"`
}

// taskPatchRequest is the PATCH /tasks/:id body. Pointer fields
// distinguish supplied values from omitted ones.
type taskPatchRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Priority    *int      `json:"priority"`
	DueDate     *string   `json:"due_date"`
	Completed   *bool     `json:"completed"`
	Tags        *[]string `json:"tags"`
}

// taskResponse is the wire shape of a task.
type taskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Priority    int       `json:"priority"`
	DueDate     string    `json:"due_date"`
	Completed   bool      `json:"completed"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// paginatedTasksResponse is the GET /tasks envelope.
type paginatedTasksResponse struct {
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Items  []taskResponse `json:"items"`
}

func newTaskResponse(t *model.Task) taskResponse {
	tags := t.TagNames()
	if tags == nil {
		tags = []string{}
	}
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		DueDate:     t.DueDate.Format(time.DateOnly),
		Completed:   t.Completed,
		Tags:        tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(c *gin.Context) {
	var req taskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.NewValidation("body", "Invalid request payload"))
		return
	}

	in, err := req.toInput()
	if err != nil {
		h.respondError(c, err)
		return
	}

	task, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTaskResponse(task))
}

// List handles GET /tasks.
func (h *TaskHandler) List(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	total, items, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	responses := make([]taskResponse, len(items))
	for i := range items {
		responses[i] = newTaskResponse(&items[i])
	}
	c.JSON(http.StatusOK, paginatedTasksResponse{
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Items:  responses,
	})
}

// Get handles GET /tasks/:id.
func (h *TaskHandler) Get(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	task, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task))
}

// Patch handles PATCH /tasks/:id.
func (h *TaskHandler) Patch(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req taskPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.NewValidation("body", "Invalid request payload"))
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		h.respondError(c, err)
		return
	}

	task, err := h.svc.Patch(c.Request.Context(), id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task))
}

// Delete handles DELETE /tasks/:id.
func (h *TaskHandler) Delete(c *gin.Context) {
	id, err := parseTaskID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// toInput validates the create request, collecting every field failure
// into one ValidationError.
func (r taskCreateRequest) toInput() (model.TaskCreate, error) {
	details := make(map[string]string)

	title := strings.TrimSpace(r.Title)
	if title == "" {
		details["title"] = "Title cannot be empty"
	} else if len(title) > model.MaxTitleLength {
		details["title"] = "Title must be at most 200 characters"
	}

	if r.Priority == nil {
		details["priority"] = "Priority is required"
	} else if *r.Priority < model.PriorityMin || *r.Priority > model.PriorityMax {
		details["priority"] = "Priority must be between 1 and 5"
	}

	var due time.Time
	if r.DueDate == "" {
		details["due_date"] = "Due date is required"
	} else {
		parsed, err := time.Parse(time.DateOnly, r.DueDate)
		if err != nil {
			details["due_date"] = "Due date must be in YYYY-MM-DD format"
		} else {
			due = parsed
		}
	}

	if len(details) > 0 {
		return model.TaskCreate{}, &apperr.ValidationError{Fields: details}
	}

	return model.TaskCreate{
		Title:       title,
		Description: r.Description,
		Priority:    *r.Priority,
		DueDate:     due,
		Tags:        r.Tags,
	}, nil
}

// toPatch validates the supplied fields of a patch request. Presence
// checks belong to the service; this only vets the values that are there.
func (r taskPatchRequest) toPatch() (model.TaskPatch, error) {
	details := make(map[string]string)
	patch := model.TaskPatch{
		Description: r.Description,
		Completed:   r.Completed,
		Tags:        r.Tags,
	}

	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			details["title"] = "Title cannot be empty"
		} else if len(title) > model.MaxTitleLength {
			details["title"] = "Title must be at most 200 characters"
		} else {
			patch.Title = &title
		}
	}

	if r.Priority != nil {
		if *r.Priority < model.PriorityMin || *r.Priority > model.PriorityMax {
			details["priority"] = "Priority must be between 1 and 5"
		} else {
			patch.Priority = r.Priority
		}
	}

	if r.DueDate != nil {
		parsed, err := time.Parse(time.DateOnly, *r.DueDate)
		if err != nil {
			details["due_date"] = "Due date must be in YYYY-MM-DD format"
		} else {
			patch.DueDate = &parsed
		}
	}

	if len(details) > 0 {
		return model.TaskPatch{}, &apperr.ValidationError{Fields: details}
	}
	return patch, nil
}

// parseListFilter reads the list query parameters, applying pagination
// defaults and bounds.
func parseListFilter(c *gin.Context) (store.TaskFilter, error) {
	details := make(map[string]string)
	filter := store.TaskFilter{Limit: DefaultLimit}

	if raw := c.Query("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			details["completed"] = "Completed must be a boolean"
		} else {
			filter.Completed = &completed
		}
	}

	if raw := c.Query("priority"); raw != "" {
		priority, err := strconv.Atoi(raw)
		if err != nil || priority < model.PriorityMin || priority > model.PriorityMax {
			details["priority"] = "Priority must be between 1 and 5"
		} else {
			filter.Priority = &priority
		}
	}

	filter.Tags = parseCSVTags(c.Query("tags"))

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxLimit {
			details["limit"] = "Limit must be between 1 and 100"
		} else {
			filter.Limit = limit
		}
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			details["offset"] = "Offset must be zero or greater"
		} else {
			filter.Offset = offset
		}
	}

	if len(details) > 0 {
		return store.TaskFilter{}, &apperr.ValidationError{Fields: details}
	}
	return filter, nil
}

// parseCSVTags splits a comma-separated tag parameter, dropping blank
// parts. Normalization happens in the service.
func parseCSVTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// parseTaskID reads the :id path parameter.
func parseTaskID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.NewValidation("task_id", "Task id must be an integer")
	}
	return id, nil
}
