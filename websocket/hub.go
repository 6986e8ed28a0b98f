package websocket

import (
	"log"
	"sync"
	"time"

	"releasegate/types"
)

// AllJobs is the subscription key of clients following every job
const AllJobs = "all"

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	BroadcastProgress(msg types.ProgressMessage)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
	ClientCount(jobID string) int
}

// hub maintains the set of active clients and broadcasts messages to them
type hub struct {
	// Registered clients mapped by job ID
	clients map[string]map[*Client]bool

	broadcast  chan types.ProgressMessage
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *log.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger *log.Logger) Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan types.ProgressMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.jobID] == nil {
				h.clients[client.jobID] = make(map[*Client]bool)
			}
			h.clients[client.jobID][client] = true
			h.mu.Unlock()
			h.logger.Printf("WebSocket client connected for job %s", client.jobID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			h.logger.Printf("WebSocket client disconnected for job %s", client.jobID)

		case message := <-h.broadcast:
			// deliveries may drop slow clients, so this takes the write lock
			h.mu.Lock()
			h.deliver(message.JobID, message)
			h.deliver(AllJobs, message)
			h.mu.Unlock()
		}
	}
}

func (h *hub) deliver(key string, message types.ProgressMessage) {
	for client := range h.clients[key] {
		select {
		case client.send <- message:
		default:
			h.remove(client)
		}
	}
}

// remove must be called with mu held
func (h *hub) remove(client *Client) {
	clients, ok := h.clients[client.jobID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.jobID)
	}
}

// BroadcastProgress sends a progress message to the clients of its job and to AllJobs clients
func (h *hub) BroadcastProgress(msg types.ProgressMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Printf("WebSocket broadcast channel full, dropping message for job %s", msg.JobID)
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// ClientCount returns the number of clients subscribed to jobID
func (h *hub) ClientCount(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[jobID])
}
