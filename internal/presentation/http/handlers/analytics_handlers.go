// Package handlers provides HTTP handlers for the analytics endpoints
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/application/services"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// AnalyticsHandlers contains the per-customer and per-owner scoring handlers
type AnalyticsHandlers struct {
	loyaltyService      *services.LoyaltyService
	churnService        *services.ChurnService
	rfmService          *services.RFMService
	clvService          *services.CLVService
	segmentationService *services.SegmentationService
	logger              *logging.ChanneledLogger
	perfTracker         *performance.Tracker
}

// NewAnalyticsHandlers creates analytics handlers with injected dependencies
func NewAnalyticsHandlers(
	loyaltyService *services.LoyaltyService,
	churnService *services.ChurnService,
	rfmService *services.RFMService,
	clvService *services.CLVService,
	segmentationService *services.SegmentationService,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		loyaltyService:      loyaltyService,
		churnService:        churnService,
		rfmService:          rfmService,
		clvService:          clvService,
		segmentationService: segmentationService,
		logger:              logger,
		perfTracker:         perfTracker,
	}
}

// GetLoyaltyScore returns the loyalty breakdown for one customer
func (h *AnalyticsHandlers) GetLoyaltyScore(c *gin.Context) {
	tenantCtx, customer, ok := h.loadCustomer(c)
	if !ok {
		return
	}

	breakdown := h.loyaltyService.ComputeEnhancedScore(customer, time.Now().UTC())
	h.logger.Analytics().Debug("Loyalty score served",
		"tenantId", tenantCtx.TenantID, "customerId", customer.ID, "score", breakdown.Score)
	c.JSON(http.StatusOK, breakdown)
}

// RefreshLoyaltyScore recomputes and persists one customer's loyalty score
func (h *AnalyticsHandlers) RefreshLoyaltyScore(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	customerID := c.Param("customerId")
	score, err := h.loyaltyService.RefreshScore(tenantCtx, customerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customerId": customerID, "score": score})
}

// GetChurnRisk returns the churn assessment for one customer
func (h *AnalyticsHandlers) GetChurnRisk(c *gin.Context) {
	_, customer, ok := h.loadCustomer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.churnService.Assess(customer, time.Now().UTC()))
}

// GetHighRiskCustomers lists an owner's customers at or above a risk level
func (h *AnalyticsHandlers) GetHighRiskCustomers(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	minLevel := services.RiskLevel(c.DefaultQuery("minLevel", string(services.RiskHigh)))
	switch minLevel {
	case services.RiskLow, services.RiskMedium, services.RiskHigh, services.RiskCritical:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "minLevel must be LOW, MEDIUM, HIGH, or CRITICAL"})
		return
	}

	results, err := h.churnService.HighRiskCustomers(tenantCtx, c.Param("ownerId"), minLevel)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": results, "count": len(results)})
}

// GetRFMAnalysis returns the RFM classification for one customer
func (h *AnalyticsHandlers) GetRFMAnalysis(c *gin.Context) {
	_, customer, ok := h.loadCustomer(c)
	if !ok {
		return
	}

	analysis, err := h.rfmService.Analyze(customer, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// GetAllCustomersRFM classifies every customer of an owner
func (h *AnalyticsHandlers) GetAllCustomersRFM(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	results, err := h.rfmService.AnalyzeAll(tenantCtx, c.Param("ownerId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": results, "count": len(results)})
}

// GetCustomerCLV returns the lifetime value projection for one customer
func (h *AnalyticsHandlers) GetCustomerCLV(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	acquisitionCost := 0.0
	if raw := c.Query("acquisitionCost"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "acquisitionCost must be a non-negative number"})
			return
		}
		acquisitionCost = parsed
	}

	result, err := h.clvService.EstimateByID(tenantCtx, c.Param("customerId"), acquisitionCost)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAverageCLV summarizes lifetime value across an owner's customers
func (h *AnalyticsHandlers) GetAverageCLV(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	summary, err := h.clvService.AverageCLV(tenantCtx, c.Param("ownerId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetSegments returns the behavioral segmentation for an owner
func (h *AnalyticsHandlers) GetSegments(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	result, err := h.segmentationService.SegmentOwner(tenantCtx, c.Param("ownerId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// loadCustomer resolves the tenant context and the :customerId path param.
// Writes the error response itself when resolution fails.
func (h *AnalyticsHandlers) loadCustomer(c *gin.Context) (*tenant.Context, *retail.Customer, bool) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return nil, nil, false
	}

	customer, err := tenantCtx.CustomerRepo().FindByID(c.Param("customerId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	if customer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return nil, nil, false
	}
	return tenantCtx, customer, true
}
