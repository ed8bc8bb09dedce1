package handlers

import (
	"net/http"

	"github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type ClientHandler struct {
	clientService ClientServiceInterface
	log           *zap.Logger
}

func NewClientHandler(clientService ClientServiceInterface, log *zap.Logger) *ClientHandler {
	return &ClientHandler{clientService: clientService, log: log}
}

func (h *ClientHandler) Create(c *drift.Context) {
	var req dto.CreateClientRequest
	if !bind(c, &req) {
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), middleware.GetOrganizationID(c), services.CreateClientInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Currency: req.Currency,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusCreated, "client created", client)
}

func (h *ClientHandler) List(c *drift.Context) {
	clients, err := h.clientService.List(c.Request.Context(), middleware.GetOrganizationID(c), pageFromQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "clients retrieved", clients)
}

func (h *ClientHandler) Get(c *drift.Context) {
	clientID, ok := uuidParam(c, "clientId", "client")
	if !ok {
		return
	}

	client, err := h.clientService.Get(c.Request.Context(), middleware.GetOrganizationID(c), clientID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "client retrieved", client)
}
