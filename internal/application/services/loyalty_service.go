// Package services contains the customer intelligence engine: stateless
// singletons that turn customer and sale snapshots into decision-support
// signals. All scoring methods are pure over their inputs; orchestration
// entry points fetch snapshots through the tenant context.
package services

import (
	"fmt"
	"math"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/analytics"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
	"github.com/ShopmetricsHQ/shopmetrics-go/pkg/config"
)

// LoyaltyBreakdown is a loyalty score with its four weighted sub-scores.
type LoyaltyBreakdown struct {
	Score          int     `json:"score"`
	SpendScore     float64 `json:"spendScore"`     // max 40
	FrequencyScore float64 `json:"frequencyScore"` // max 30
	RecencyScore   float64 `json:"recencyScore"`   // max 20
	PaymentScore   float64 `json:"paymentScore"`   // max 10
	RFMBonus       int     `json:"rfmBonus,omitempty"`
}

// LoyaltyService computes 0-100 loyalty scores from customer snapshots.
type LoyaltyService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	rfmService  *RFMService
}

// NewLoyaltyService creates the loyalty scorer.
func NewLoyaltyService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, rfmService *RFMService) *LoyaltyService {
	return &LoyaltyService{
		logger:      logger,
		perfTracker: perfTracker,
		rfmService:  rfmService,
	}
}

// ComputeScore maps a customer snapshot to a loyalty breakdown. Pure; a
// customer with no history gets spend/frequency/recency 0 and payment 10.
func (s *LoyaltyService) ComputeScore(customer *retail.Customer, now time.Time) LoyaltyBreakdown {
	breakdown := LoyaltyBreakdown{
		SpendScore:     s.spendScore(customer),
		FrequencyScore: s.frequencyScore(customer, now),
		RecencyScore:   s.recencyScore(customer, now),
		PaymentScore:   s.paymentScore(customer),
	}

	total := breakdown.SpendScore + breakdown.FrequencyScore + breakdown.RecencyScore + breakdown.PaymentScore
	breakdown.Score = int(analytics.Clamp(math.Round(total), 0, 100))
	return breakdown
}

// ComputeEnhancedScore blends up to 10 bonus points derived from the
// customer's RFM triple into the base score. The bonus is an optional
// decorator: if the RFM computation fails the base score stands.
func (s *LoyaltyService) ComputeEnhancedScore(customer *retail.Customer, now time.Time) LoyaltyBreakdown {
	breakdown := s.ComputeScore(customer, now)

	rfm, err := s.rfmService.Analyze(customer, now)
	if err != nil {
		s.logger.Analytics().Warn("RFM bonus unavailable, using base loyalty score",
			"customerId", customer.ID, "error", err.Error())
		return breakdown
	}

	avg := float64(rfm.RecencyScore+rfm.FrequencyScore+rfm.MonetaryScore) / 3.0
	bonus := int(math.Round((avg - 1) / 4 * 10)) // triple average 1..5 -> 0..10
	breakdown.RFMBonus = bonus
	breakdown.Score = int(analytics.Clamp(float64(breakdown.Score+bonus), 0, 100))
	return breakdown
}

// RefreshScore fetches a customer, computes their loyalty score, writes it
// back through the repository, and returns the new score. A write-back
// failure does not invalidate the computed score.
func (s *LoyaltyService) RefreshScore(tenantCtx *tenant.Context, customerID string) (int, error) {
	marker := s.perfTracker.StartOperation("refresh_loyalty_score", tenantCtx.TenantID)
	defer marker.Complete()

	customerRepo := tenantCtx.CustomerRepo()
	customer, err := customerRepo.FindByID(customerID)
	if err != nil {
		marker.SetSuccess(false)
		return 0, err
	}
	if customer == nil {
		marker.SetSuccess(false)
		return 0, fmt.Errorf("customer not found: %s", customerID)
	}

	breakdown := s.ComputeEnhancedScore(customer, time.Now().UTC())

	if err := customerRepo.UpdateLoyaltyScore(customerID, breakdown.Score); err != nil {
		s.logger.Analytics().Error("Loyalty score write-back failed, returning computed score",
			"customerId", customerID, "score", breakdown.Score, "error", err.Error())
	}

	s.logger.Analytics().Info("Loyalty score refreshed",
		"tenantId", tenantCtx.TenantID, "customerId", customerID, "score", breakdown.Score)
	return breakdown.Score, nil
}

// spendScore caps cumulative spend against the configured ceiling (max 40).
func (s *LoyaltyService) spendScore(customer *retail.Customer) float64 {
	score := customer.TotalSpent / config.LoyaltySpendCeiling * 40
	return analytics.Clamp(score, 0, 40)
}

// frequencyScore normalizes visits-per-month against the target rate (max 30).
func (s *LoyaltyService) frequencyScore(customer *retail.Customer, now time.Time) float64 {
	days := customer.DaysSinceFirstVisit(now)
	if days == 0 || customer.TotalVisits == 0 {
		return 0
	}
	visitsPerMonth := float64(customer.TotalVisits) / float64(days) * 30
	score := visitsPerMonth / config.LoyaltyTargetVisitsMonth * 30
	return analytics.Clamp(score, 0, 30)
}

// recencyScore is a step function on days since last visit (max 20).
func (s *LoyaltyService) recencyScore(customer *retail.Customer, now time.Time) float64 {
	days, ok := customer.DaysSinceLastVisit(now)
	if !ok {
		return 0
	}
	switch {
	case days <= 7:
		return 20
	case days <= 30:
		return 15
	case days <= 90:
		return 10
	case days <= 180:
		return 5
	default:
		return 0
	}
}

// paymentScore penalizes the share of overdue or pending sales (max 10).
// No sales means benefit of the doubt: full marks.
func (s *LoyaltyService) paymentScore(customer *retail.Customer) float64 {
	total := len(customer.Sales)
	if total == 0 {
		return 10
	}
	score := 10 - float64(customer.PaymentIssueCount())/float64(total)*10
	return analytics.Clamp(score, 0, 10)
}
