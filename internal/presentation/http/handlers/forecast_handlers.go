package handlers

import (
	"net/http"
	"strconv"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/application/services"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// ForecastHandlers contains the revenue forecasting HTTP handlers
type ForecastHandlers struct {
	forecastService *services.ForecastService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewForecastHandlers creates forecast handlers with injected dependencies
func NewForecastHandlers(forecastService *services.ForecastService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ForecastHandlers {
	return &ForecastHandlers{
		forecastService: forecastService,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// GetRevenueForecast projects monthly revenue for an owner
func (h *ForecastHandlers) GetRevenueForecast(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	monthsAhead, ok := intQuery(c, "monthsAhead", 0)
	if !ok {
		return
	}
	historicalMonths, ok := intQuery(c, "historicalMonths", 0)
	if !ok {
		return
	}

	records, err := h.forecastService.ForecastOwner(tenantCtx, c.Param("ownerId"), monthsAhead, historicalMonths)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forecast": records, "months": len(records)})
}

// intQuery parses an optional non-negative integer query parameter. Writes
// the error response itself when the value is malformed.
func intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a non-negative integer"})
		return 0, false
	}
	return parsed, true
}
