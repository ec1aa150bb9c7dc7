package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
	"github.com/gin-gonic/gin"
)

// RegisterTenantRequest is the request body for provisioning a tenant.
type RegisterTenantRequest struct {
	TenantID string `json:"tenantId" binding:"required"`
}

// LogLevelRequest is the request body for changing a channel's log level.
type LogLevelRequest struct {
	Channel string `json:"channel" binding:"required"`
	Level   string `json:"level" binding:"required"`
}

// SystemHandlers contains health, performance, and operations handlers
type SystemHandlers struct {
	tenantManager *tenant.Manager
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
	startedAt     time.Time
}

// NewSystemHandlers creates system handlers with injected dependencies
func NewSystemHandlers(tenantManager *tenant.Manager, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SystemHandlers {
	return &SystemHandlers{
		tenantManager: tenantManager,
		logger:        logger,
		perfTracker:   perfTracker,
		startedAt:     time.Now().UTC(),
	}
}

// Health reports liveness and active tenant count
func (h *SystemHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"uptime":        time.Since(h.startedAt).String(),
		"activeTenants": h.tenantManager.ActiveTenantCount(),
	})
}

// PerfStats returns aggregated operation timings
func (h *SystemHandlers) PerfStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime": h.perfTracker.Uptime().String(),
		"stats":  h.perfTracker.Stats(),
	})
}

// RegisterTenant provisions a new tenant with a default sqlite database
func (h *SystemHandlers) RegisterTenant(c *gin.Context) {
	var req RegisterTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := tenant.RegisterTenant(req.TenantID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err := h.tenantManager.Reload(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.tenantManager.ActivateAll(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Tenant().Info("Tenant registered", "tenantId", req.TenantID)
	c.JSON(http.StatusCreated, gin.H{"tenantId": req.TenantID, "status": "active"})
}

// SetLogLevel adjusts one logging channel's level at runtime
func (h *SystemHandlers) SetLogLevel(c *gin.Context) {
	var req LogLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var level slog.Level
	switch strings.ToUpper(req.Level) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "level must be DEBUG, INFO, WARN, or ERROR"})
		return
	}

	if err := h.logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": req.Channel, "level": strings.ToUpper(req.Level)})
}
