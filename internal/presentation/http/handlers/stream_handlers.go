package handlers

import (
	"net/http"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/messaging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/security"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// clientSendBuffer bounds the per-client outbound queue; events beyond it
// are dropped rather than blocking the broadcaster.
const clientSendBuffer = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set custom headers on websocket connects, so origin
	// filtering happens at the CORS layer for the rest of the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandlers contains the live event stream HTTP handlers
type StreamHandlers struct {
	broadcaster *messaging.Broadcaster
	logger      *logging.ChanneledLogger
}

// NewStreamHandlers creates stream handlers with injected dependencies
func NewStreamHandlers(broadcaster *messaging.Broadcaster, logger *logging.ChanneledLogger) *StreamHandlers {
	return &StreamHandlers{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Stream upgrades the connection and subscribes it to the tenant's events
func (h *StreamHandlers) Stream(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Stream().Error("Websocket upgrade failed",
			"tenantId", tenantCtx.TenantID, "error", err.Error())
		return
	}

	client := &messaging.Client{
		ID:       security.GenerateULID(),
		TenantID: tenantCtx.TenantID,
		Conn:     conn,
		Send:     make(chan []byte, clientSendBuffer),
	}
	h.broadcaster.Register(client)

	// Reads are only consumed to detect disconnects.
	go func() {
		defer h.broadcaster.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
