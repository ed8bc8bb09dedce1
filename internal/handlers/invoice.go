package handlers

import (
	"net/http"
	"time"

	"github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/internal/sse"
	"github.com/dimitrije/orbit-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	invoiceService InvoiceServiceInterface
	events         EventPublisher
	log            *zap.Logger
}

func NewInvoiceHandler(invoiceService InvoiceServiceInterface, events EventPublisher, log *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, events: events, log: log}
}

func (h *InvoiceHandler) Create(c *drift.Context) {
	var req dto.CreateInvoiceRequest
	if !bind(c, &req) {
		return
	}

	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		fail(c, http.StatusBadRequest, "due_date: must be a date in YYYY-MM-DD format")
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), middleware.GetOrganizationID(c), middleware.GetUserID(c), services.CreateInvoiceInput{
		ClientID: uuid.MustParse(req.ClientID),
		DueDate:  dueDate,
		TaxRate:  req.TaxRate,
		Currency: req.Currency,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusCreated, "invoice created", invoice)
}

func (h *InvoiceHandler) List(c *drift.Context) {
	invoices, err := h.invoiceService.List(c.Request.Context(), middleware.GetOrganizationID(c), pageFromQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "invoices retrieved", invoices)
}

func (h *InvoiceHandler) Get(c *drift.Context) {
	invoiceID, ok := uuidParam(c, "invoiceId", "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), middleware.GetOrganizationID(c), invoiceID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "invoice retrieved", invoice)
}

func (h *InvoiceHandler) AddItem(c *drift.Context) {
	invoiceID, ok := uuidParam(c, "invoiceId", "invoice")
	if !ok {
		return
	}

	var req dto.AddInvoiceItemRequest
	if !bind(c, &req) {
		return
	}

	orgID := middleware.GetOrganizationID(c)
	invoice, err := h.invoiceService.AddItem(c.Request.Context(), orgID, invoiceID, services.AddItemInput{
		Description: req.Description,
		Quantity:    *req.Quantity,
		UnitPrice:   *req.UnitPrice,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.events.Publish(orgID, sse.EventInvoiceUpdated, invoice)

	respond(c, http.StatusCreated, "item added", invoice)
}

func (h *InvoiceHandler) AddTimeEntries(c *drift.Context) {
	invoiceID, ok := uuidParam(c, "invoiceId", "invoice")
	if !ok {
		return
	}

	var req dto.AddTimeEntriesRequest
	if !bind(c, &req) {
		return
	}

	orgID := middleware.GetOrganizationID(c)
	invoice, err := h.invoiceService.AddTimeEntries(c.Request.Context(), orgID, invoiceID, parseUUIDs(req.TimeEntryIDs))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.events.Publish(orgID, sse.EventInvoiceUpdated, invoice)

	respond(c, http.StatusCreated, "time entries billed", invoice)
}

func (h *InvoiceHandler) UpdateStatus(c *drift.Context) {
	invoiceID, ok := uuidParam(c, "invoiceId", "invoice")
	if !ok {
		return
	}

	var req dto.UpdateInvoiceStatusRequest
	if !bind(c, &req) {
		return
	}

	orgID := middleware.GetOrganizationID(c)
	invoice, err := h.invoiceService.UpdateStatus(c.Request.Context(), orgID, invoiceID, req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.events.Publish(orgID, sse.EventInvoiceUpdated, invoice)

	respond(c, http.StatusOK, "invoice status updated", invoice)
}
