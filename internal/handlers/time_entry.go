package handlers

import (
	"net/http"

	"github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/internal/sse"
	"github.com/dimitrije/orbit-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type TimeEntryHandler struct {
	timeEntryService TimeEntryServiceInterface
	events           EventPublisher
	log              *zap.Logger
}

func NewTimeEntryHandler(timeEntryService TimeEntryServiceInterface, events EventPublisher, log *zap.Logger) *TimeEntryHandler {
	return &TimeEntryHandler{timeEntryService: timeEntryService, events: events, log: log}
}

func (h *TimeEntryHandler) Start(c *drift.Context) {
	taskID, ok := uuidParam(c, "taskId", "task")
	if !ok {
		return
	}

	var req dto.StartTimerRequest
	if !bindOptional(c, &req) {
		return
	}

	orgID := middleware.GetOrganizationID(c)
	entry, err := h.timeEntryService.StartTimer(c.Request.Context(), orgID, middleware.GetUserID(c), taskID, services.StartTimerInput{
		Description: req.Description,
		IsBillable:  req.IsBillable,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.events.Publish(orgID, sse.EventTimerStarted, entry)

	respond(c, http.StatusCreated, "timer started", entry)
}

func (h *TimeEntryHandler) Stop(c *drift.Context) {
	entryID, ok := uuidParam(c, "entryId", "time entry")
	if !ok {
		return
	}

	orgID := middleware.GetOrganizationID(c)
	entry, err := h.timeEntryService.StopTimer(c.Request.Context(), orgID, middleware.GetUserID(c), entryID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.events.Publish(orgID, sse.EventTimerStopped, entry)

	respond(c, http.StatusOK, "timer stopped", entry)
}

// Running returns the caller's open entry, or null data when none runs.
func (h *TimeEntryHandler) Running(c *drift.Context) {
	entry, err := h.timeEntryService.GetRunningTimer(c.Request.Context(), middleware.GetOrganizationID(c), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if entry == nil {
		respond(c, http.StatusOK, "no running timer", nil)
		return
	}
	respond(c, http.StatusOK, "running timer retrieved", entry)
}

func (h *TimeEntryHandler) ListMine(c *drift.Context) {
	entries, err := h.timeEntryService.ListMine(c.Request.Context(), middleware.GetOrganizationID(c), middleware.GetUserID(c), pageFromQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "time entries retrieved", entries)
}
