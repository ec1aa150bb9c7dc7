package handlers

import (
	"net/http"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/application/services"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// BatchHandlers contains the tenant-wide recompute HTTP handlers
type BatchHandlers struct {
	batchService *services.BatchService
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
}

// NewBatchHandlers creates batch handlers with injected dependencies
func NewBatchHandlers(batchService *services.BatchService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *BatchHandlers {
	return &BatchHandlers{
		batchService: batchService,
		logger:       logger,
		perfTracker:  perfTracker,
	}
}

// RecomputeAll refreshes scores and insights for every owner of the tenant
func (h *BatchHandlers) RecomputeAll(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	result, err := h.batchService.RecomputeAll(tenantCtx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if result.Failed > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}
