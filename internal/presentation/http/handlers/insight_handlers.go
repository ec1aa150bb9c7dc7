package handlers

import (
	"net/http"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/application/services"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/insights"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/email"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// DigestRequest is the request body for sending an insight digest email.
type DigestRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// InsightHandlers contains the insight feed HTTP handlers
type InsightHandlers struct {
	insightService *services.InsightService
	emailService   email.Service
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewInsightHandlers creates insight handlers with injected dependencies.
// emailService may be nil when no email provider is configured.
func NewInsightHandlers(insightService *services.InsightService, emailService email.Service, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *InsightHandlers {
	return &InsightHandlers{
		insightService: insightService,
		emailService:   emailService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// GenerateInsights regenerates and persists the insight feed for an owner
func (h *InsightHandlers) GenerateInsights(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	feed, err := h.insightService.GenerateAndSave(tenantCtx, c.Param("ownerId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": feed, "count": len(feed)})
}

// PreviewInsights computes the insight feed for an owner without saving it
func (h *InsightHandlers) PreviewInsights(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	feed, err := h.insightService.Generate(tenantCtx, c.Param("ownerId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": feed, "count": len(feed)})
}

// GetRecentInsights returns the most recently generated insights for an owner
func (h *InsightHandlers) GetRecentInsights(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	limit, ok := intQuery(c, "limit", 50)
	if !ok {
		return
	}

	feed, err := h.insightService.Recent(tenantCtx, c.Param("ownerId"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": feed, "count": len(feed)})
}

// SendDigest emails the owner's high-priority insights to an address
func (h *InsightHandlers) SendDigest(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}
	if h.emailService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery is not configured"})
		return
	}

	var req DigestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownerID := c.Param("ownerId")
	feed, err := h.insightService.Recent(tenantCtx, ownerID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var urgent []*insights.Insight
	for _, insight := range feed {
		if insight.Priority == insights.PriorityHigh {
			urgent = append(urgent, insight)
		}
	}
	if len(urgent) == 0 {
		c.JSON(http.StatusOK, gin.H{"sent": false, "reason": "no high-priority insights to send"})
		return
	}

	if err := h.emailService.SendInsightDigest(req.Email, ownerID, urgent); err != nil {
		h.logger.Email().Error("Digest delivery failed",
			"tenantId", tenantCtx.TenantID, "ownerId", ownerID, "error", err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "digest delivery failed"})
		return
	}

	h.logger.Email().Info("Insight digest sent",
		"tenantId", tenantCtx.TenantID, "ownerId", ownerID, "insights", len(urgent))
	c.JSON(http.StatusOK, gin.H{"sent": true, "insights": len(urgent)})
}
