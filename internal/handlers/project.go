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

type ProjectHandler struct {
	projectService ProjectServiceInterface
	log            *zap.Logger
}

func NewProjectHandler(projectService ProjectServiceInterface, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, log: log}
}

func (h *ProjectHandler) Create(c *drift.Context) {
	var req dto.CreateProjectRequest
	if !bind(c, &req) {
		return
	}

	input := services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   parseDate(req.StartDate),
		DueDate:     parseDate(req.DueDate),
	}
	if req.ClientID != nil && *req.ClientID != "" {
		clientID := uuid.MustParse(*req.ClientID)
		input.ClientID = &clientID
	}

	project, err := h.projectService.Create(c.Request.Context(), middleware.GetOrganizationID(c), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusCreated, "project created", project)
}

// List accepts an optional ?status= filter.
func (h *ProjectHandler) List(c *drift.Context) {
	projects, err := h.projectService.List(c.Request.Context(), middleware.GetOrganizationID(c),
		c.QueryParam("status"), pageFromQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "projects retrieved", projects)
}

func (h *ProjectHandler) UpdateStatus(c *drift.Context) {
	projectID, ok := uuidParam(c, "projectId", "project")
	if !ok {
		return
	}

	var req dto.UpdateProjectStatusRequest
	if !bind(c, &req) {
		return
	}

	project, err := h.projectService.UpdateStatus(c.Request.Context(), middleware.GetOrganizationID(c), projectID, req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "project status updated", project)
}

func (h *ProjectHandler) Stats(c *drift.Context) {
	stats, err := h.projectService.Stats(c.Request.Context(), middleware.GetOrganizationID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "project stats retrieved", stats)
}
