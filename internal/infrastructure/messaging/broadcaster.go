// Package messaging provides the websocket broadcaster that streams batch
// progress and freshly generated insights to connected dashboard clients.
package messaging

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/gorilla/websocket"
)

// Event is one message pushed to connected clients.
type Event struct {
	Kind      string    `json:"kind"` // "batch_progress", "insight", "batch_complete"
	TenantID  string    `json:"tenantId"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Client represents a single connected websocket client.
type Client struct {
	ID       string
	TenantID string
	Conn     *websocket.Conn
	Send     chan []byte
}

// Broadcaster manages connected clients and fans events out per tenant.
type Broadcaster struct {
	logger        *logging.ChanneledLogger
	tenantClients map[string]map[*Client]bool
	mu            sync.RWMutex
}

// NewBroadcaster creates a new broadcaster instance.
func NewBroadcaster(logger *logging.ChanneledLogger) *Broadcaster {
	return &Broadcaster{
		logger:        logger,
		tenantClients: make(map[string]map[*Client]bool),
	}
}

// Register adds a client and starts its write pump.
func (b *Broadcaster) Register(client *Client) {
	b.mu.Lock()
	if b.tenantClients[client.TenantID] == nil {
		b.tenantClients[client.TenantID] = make(map[*Client]bool)
	}
	b.tenantClients[client.TenantID][client] = true
	b.mu.Unlock()

	b.logger.Stream().Info("Stream client connected", "clientId", client.ID, "tenantId", client.TenantID)
	go b.writePump(client)
}

// Unregister removes a client and closes its channel.
func (b *Broadcaster) Unregister(client *Client) {
	b.mu.Lock()
	if clients, exists := b.tenantClients[client.TenantID]; exists {
		if _, registered := clients[client]; registered {
			delete(clients, client)
			close(client.Send)
		}
		if len(clients) == 0 {
			delete(b.tenantClients, client.TenantID)
		}
	}
	b.mu.Unlock()

	b.logger.Stream().Info("Stream client disconnected", "clientId", client.ID, "tenantId", client.TenantID)
}

// Broadcast sends an event to every client of the event's tenant. Slow
// clients are skipped rather than blocking the sender.
func (b *Broadcaster) Broadcast(event Event) {
	event.Timestamp = time.Now().UTC()
	raw, err := json.Marshal(event)
	if err != nil {
		b.logger.Stream().Error("Failed to marshal stream event", "error", err.Error(), "kind", event.Kind)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.tenantClients[event.TenantID] {
		select {
		case client.Send <- raw:
		default:
			b.logger.Stream().Warn("Dropping event for slow stream client", "clientId", client.ID)
		}
	}
}

// ClientCount returns the number of connected clients for a tenant.
func (b *Broadcaster) ClientCount(tenantID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tenantClients[tenantID])
}

func (b *Broadcaster) writePump(client *Client) {
	defer client.Conn.Close()
	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			b.logger.Stream().Debug("Stream write failed", "clientId", client.ID, "error", err.Error())
			return
		}
	}
}
