package handlers

import (
	"net/http"

	"github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type StreamHub interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
}

type SSEHandler struct {
	hub StreamHub
	log *zap.Logger
}

func NewSSEHandler(hub StreamHub, log *zap.Logger) *SSEHandler {
	return &SSEHandler{hub: hub, log: log}
}

// Connect streams the organization's activity events until the client goes away.
func (h *SSEHandler) Connect(c *drift.Context) {
	userID := middleware.GetUserID(c)
	orgID := middleware.GetOrganizationID(c)
	if userID == uuid.Nil || orgID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	sseCtx := c.SSE()

	client := &sse.Client{
		ID:             uuid.New().String(),
		UserID:         userID,
		OrganizationID: orgID,
		Send:           make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": client.ID,
	}, "system", ""); err != nil {
		return
	}

	h.log.Debug("event stream opened",
		zap.String("client_id", client.ID),
		zap.String("organization_id", orgID.String()),
	)

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
