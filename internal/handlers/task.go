package handlers

import (
	"net/http"

	"github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type TaskHandler struct {
	taskService TaskServiceInterface
	log         *zap.Logger
}

func NewTaskHandler(taskService TaskServiceInterface, log *zap.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, log: log}
}

func (h *TaskHandler) Create(c *drift.Context) {
	projectID, ok := uuidParam(c, "projectId", "project")
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !bind(c, &req) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), middleware.GetOrganizationID(c), projectID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     parseDate(req.DueDate),
		AssigneeIDs: parseUUIDs(req.AssigneeIDs),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusCreated, "task created", task)
}

// List accepts ?status=, ?priority= and ?assignee_id= filters.
func (h *TaskHandler) List(c *drift.Context) {
	projectID, ok := uuidParam(c, "projectId", "project")
	if !ok {
		return
	}

	filter := services.TaskFilter{
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
	}
	if raw := c.QueryParam("assignee_id"); raw != "" {
		assigneeID, err := uuid.Parse(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid assignee id")
			return
		}
		filter.AssigneeID = &assigneeID
	}

	tasks, err := h.taskService.List(c.Request.Context(), middleware.GetOrganizationID(c), projectID, filter, pageFromQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "tasks retrieved", tasks)
}

func (h *TaskHandler) Get(c *drift.Context) {
	taskID, ok := uuidParam(c, "taskId", "task")
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), middleware.GetOrganizationID(c), taskID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "task retrieved", task)
}

func (h *TaskHandler) Update(c *drift.Context) {
	taskID, ok := uuidParam(c, "taskId", "task")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !bind(c, &req) {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), middleware.GetOrganizationID(c), taskID, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     parseDate(req.DueDate),
		AssigneeIDs: parseUUIDs(req.AssigneeIDs),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "task updated", task)
}

func (h *TaskHandler) Delete(c *drift.Context) {
	taskID, ok := uuidParam(c, "taskId", "task")
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), middleware.GetOrganizationID(c), taskID); err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "task deleted", nil)
}
