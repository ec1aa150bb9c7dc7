package services

import (
	"fmt"
	"math"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
	"github.com/ShopmetricsHQ/shopmetrics-go/pkg/config"
)

// ValueTier buckets customers by projected lifetime value.
type ValueTier string

const (
	TierHigh   ValueTier = "HIGH"
	TierMedium ValueTier = "MEDIUM"
	TierLow    ValueTier = "LOW"
)

// CLVResult is the lifetime value projection for one customer.
type CLVResult struct {
	CustomerID        string    `json:"customerId"`
	CustomerName      string    `json:"customerName,omitempty"`
	CLV               float64   `json:"clv"`
	AverageOrderValue float64   `json:"averageOrderValue"`
	PurchaseFrequency float64   `json:"purchaseFrequency"` // per month
	PredictedLifespan float64   `json:"predictedLifespan"` // months
	TwelveMonthValue  float64   `json:"twelveMonthValue"`
	Tier              ValueTier `json:"tier"`
	Recommendations   []string  `json:"recommendations"`
}

// CLVSummary aggregates lifetime value across an owner's customer base.
type CLVSummary struct {
	AverageCLV float64           `json:"averageCLV"`
	TotalCLV   float64           `json:"totalCLV"`
	TierCounts map[ValueTier]int `json:"tierCounts"`
	Customers  int               `json:"customers"`
}

// CLVService projects customer lifetime value from purchase history.
type CLVService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewCLVService creates the lifetime value estimator.
func NewCLVService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *CLVService {
	return &CLVService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Estimate projects lifetime value for one customer snapshot. Pure; a
// customer with no completed sales projects to zero.
func (s *CLVService) Estimate(customer *retail.Customer, acquisitionCost float64, now time.Time) *CLVResult {
	result := &CLVResult{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Tier:         TierLow,
	}

	completed := customer.CompletedSales()
	paidCount := len(completed)
	if paidCount == 0 {
		result.Recommendations = []string{"No completed purchases yet; focus on converting the first sale"}
		return result
	}

	paidTotal := 0.0
	for _, sale := range completed {
		paidTotal += sale.TotalAmount
	}

	ageDays := customer.DaysSinceFirstVisit(now)
	ageMonths := float64(ageDays) / 30.0
	if ageMonths < 1 {
		ageMonths = 1
	}

	result.AverageOrderValue = paidTotal / float64(paidCount)
	result.PurchaseFrequency = float64(paidCount) / ageMonths
	result.PredictedLifespan = s.predictedLifespan(customer, paidCount, ageDays, now)

	clv := result.AverageOrderValue*result.PurchaseFrequency*result.PredictedLifespan - acquisitionCost
	if clv < 0 {
		clv = 0
	}
	result.CLV = clv

	horizon := math.Min(result.PredictedLifespan, 12)
	result.TwelveMonthValue = result.AverageOrderValue * result.PurchaseFrequency * horizon

	result.Tier = tierFor(result.CLV)
	result.Recommendations = s.buildRecommendations(result)
	return result
}

// AverageCLV summarizes lifetime value across all of an owner's customers.
func (s *CLVService) AverageCLV(tenantCtx *tenant.Context, ownerID string) (*CLVSummary, error) {
	start := time.Now()
	marker := s.perfTracker.StartOperation("clv_summary", tenantCtx.TenantID)
	defer marker.Complete()

	customers, err := tenantCtx.CustomerRepo().FindByOwner(ownerID)
	if err != nil {
		marker.SetSuccess(false)
		return nil, err
	}

	now := time.Now().UTC()
	summary := &CLVSummary{TierCounts: map[ValueTier]int{}, Customers: len(customers)}
	for _, customer := range customers {
		result := s.Estimate(customer, 0, now)
		summary.TotalCLV += result.CLV
		summary.TierCounts[result.Tier]++
	}
	if len(customers) > 0 {
		summary.AverageCLV = summary.TotalCLV / float64(len(customers))
	}

	s.logger.Analytics().Info("CLV summary computed",
		"tenantId", tenantCtx.TenantID, "ownerId", ownerID, "customers", len(customers), "duration", time.Since(start))
	return summary, nil
}

// EstimateByID loads one customer and projects their lifetime value.
func (s *CLVService) EstimateByID(tenantCtx *tenant.Context, customerID string, acquisitionCost float64) (*CLVResult, error) {
	marker := s.perfTracker.StartOperation("clv_estimate", tenantCtx.TenantID)
	defer marker.Complete()

	customer, err := tenantCtx.CustomerRepo().FindByID(customerID)
	if err != nil {
		marker.SetSuccess(false)
		return nil, err
	}
	if customer == nil {
		marker.SetSuccess(false)
		return nil, fmt.Errorf("customer not found: %s", customerID)
	}
	return s.Estimate(customer, acquisitionCost, time.Now().UTC()), nil
}

// predictedLifespan estimates remaining months of relationship. Young
// accounts get a fixed optimistic figure; otherwise recency drives a
// monthly churn probability whose inverse is the expected lifespan.
func (s *CLVService) predictedLifespan(customer *retail.Customer, paidCount, ageDays int, now time.Time) float64 {
	if ageDays < 90 {
		return 24
	}

	churnProbability := 0.1
	if days, ok := customer.DaysSinceLastVisit(now); ok {
		switch {
		case days > 90:
			churnProbability = 0.5
		case days > 60:
			churnProbability = 0.3
		}
	} else {
		churnProbability = 0.5
	}

	lifespan := 1 / churnProbability
	multiplier := math.Min(2, 1+float64(paidCount)/20)
	lifespan *= multiplier

	if lifespan < 6 {
		lifespan = 6
	}
	if lifespan > 60 {
		lifespan = 60
	}
	return lifespan
}

func (s *CLVService) buildRecommendations(result *CLVResult) []string {
	var recs []string
	switch result.Tier {
	case TierHigh:
		recs = append(recs, "Protect this relationship with white-glove service and early access")
	case TierMedium:
		recs = append(recs, "Grow value with targeted cross-sell campaigns")
	default:
		recs = append(recs, "Increase engagement before investing in retention spend")
	}

	if result.PurchaseFrequency < 1 {
		recs = append(recs, "Purchase frequency is below monthly; add repeat-purchase incentives")
	}
	if result.AverageOrderValue < config.CLVLowAOVThreshold {
		recs = append(recs, "Average order value is low; promote bundles or premium options")
	}
	if result.PredictedLifespan < 12 {
		recs = append(recs, "Predicted lifespan under a year; prioritize retention outreach")
	}
	return recs
}

func tierFor(clv float64) ValueTier {
	switch {
	case clv >= config.CLVHighValueThreshold:
		return TierHigh
	case clv >= config.CLVMediumValueThreshold:
		return TierMedium
	default:
		return TierLow
	}
}
