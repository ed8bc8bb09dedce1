package sse

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

const (
	EventTimerStarted   = "timer_started"
	EventTimerStopped   = "timer_stopped"
	EventInvoiceUpdated = "invoice_updated"
	EventMemberJoined   = "member_joined"
	EventMemberRemoved  = "member_removed"
)

type Event struct {
	Type           string      `json:"type"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	Data           interface{} `json:"data"`
}

// Client is one open event stream. It receives the events of a single organization.
type Client struct {
	ID             string
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Send           chan []byte
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				if client.OrganizationID != event.OrganizationID {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// slow client, drop
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends Run and closes every client stream. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds the client. After Stop the client's Send channel is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected streams for the organization.
func (h *Hub) ClientCount(orgID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, client := range h.clients {
		if client.OrganizationID == orgID {
			n++
		}
	}
	return n
}

// Publish queues an event for the organization's streams. It never blocks:
// when the queue is full the event is dropped and Publish returns false.
func (h *Hub) Publish(orgID uuid.UUID, eventType string, data interface{}) bool {
	select {
	case h.broadcast <- Event{Type: eventType, OrganizationID: orgID, Data: data}:
		return true
	default:
		return false
	}
}
