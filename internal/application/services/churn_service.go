package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/analytics"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
)

// RiskLevel grades churn risk.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Rank orders risk levels, CRITICAL first.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskCritical:
		return 0
	case RiskHigh:
		return 1
	case RiskMedium:
		return 2
	default:
		return 3
	}
}

// recentWindowDays is the lookback used for decline comparisons.
const recentWindowDays = 90

// ChurnRiskAnalysis is the assessment of one customer.
type ChurnRiskAnalysis struct {
	CustomerID         string     `json:"customerId"`
	CustomerName       string     `json:"customerName,omitempty"`
	RiskLevel          RiskLevel  `json:"riskLevel"`
	RiskScore          int        `json:"riskScore"` // 0-100
	Factors            []string   `json:"factors"`
	PredictedChurnDate *time.Time `json:"predictedChurnDate,omitempty"`
	Recommendations    []string   `json:"recommendations"`
}

// CustomerChurnRisk pairs a customer with their analysis for list endpoints.
type CustomerChurnRisk struct {
	Customer *retail.Customer   `json:"customer"`
	Analysis *ChurnRiskAnalysis `json:"analysis"`
}

// ChurnService assesses churn risk from customer snapshots.
type ChurnService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewChurnService creates the churn risk assessor.
func NewChurnService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ChurnService {
	return &ChurnService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Assess computes the churn risk for one customer snapshot. Pure; a
// customer with no history degrades to the no-visits contribution alone.
func (s *ChurnService) Assess(customer *retail.Customer, now time.Time) *ChurnRiskAnalysis {
	analysis := &ChurnRiskAnalysis{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
	}

	score := 0.0
	score += s.recencyRisk(customer, now, analysis)
	score += s.frequencyDeclineRisk(customer, now, analysis)
	score += s.spendingDeclineRisk(customer, now, analysis)
	score += s.paymentIssueRisk(customer, analysis)

	analysis.RiskScore = int(analytics.Clamp(score, 0, 100))
	analysis.RiskLevel = riskLevelFor(analysis.RiskScore)

	if analysis.RiskLevel == RiskCritical || analysis.RiskLevel == RiskHigh {
		days, ok := customer.DaysSinceLastVisit(now)
		if !ok {
			days = 60
		}
		// Heuristic extrapolation, not a statistical estimate.
		predicted := now.AddDate(0, 0, days+30)
		analysis.PredictedChurnDate = &predicted
	}

	if len(analysis.Factors) == 0 {
		analysis.Factors = append(analysis.Factors, "No significant churn indicators")
	}
	return analysis
}

// HighRiskCustomers returns all of an owner's customers at or above the
// given risk level, ordered most critical first.
func (s *ChurnService) HighRiskCustomers(tenantCtx *tenant.Context, ownerID string, minLevel RiskLevel) ([]CustomerChurnRisk, error) {
	start := time.Now()
	marker := s.perfTracker.StartOperation("churn_high_risk", tenantCtx.TenantID)
	defer marker.Complete()

	customers, err := tenantCtx.CustomerRepo().FindByOwner(ownerID)
	if err != nil {
		marker.SetSuccess(false)
		return nil, err
	}

	now := time.Now().UTC()
	var out []CustomerChurnRisk
	for _, customer := range customers {
		analysis := s.Assess(customer, now)
		if analysis.RiskLevel.Rank() <= minLevel.Rank() {
			out = append(out, CustomerChurnRisk{Customer: customer, Analysis: analysis})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Analysis.RiskLevel.Rank() != out[j].Analysis.RiskLevel.Rank() {
			return out[i].Analysis.RiskLevel.Rank() < out[j].Analysis.RiskLevel.Rank()
		}
		return out[i].Analysis.RiskScore > out[j].Analysis.RiskScore
	})

	s.logger.Analytics().Info("High churn risk scan completed",
		"tenantId", tenantCtx.TenantID, "ownerId", ownerID, "minLevel", string(minLevel),
		"matches", len(out), "duration", time.Since(start))
	return out, nil
}

// recencyRisk contributes up to 40 points based on days since last visit.
func (s *ChurnService) recencyRisk(customer *retail.Customer, now time.Time, analysis *ChurnRiskAnalysis) float64 {
	days, ok := customer.DaysSinceLastVisit(now)
	if !ok {
		analysis.Factors = append(analysis.Factors, "No recorded visits")
		analysis.Recommendations = append(analysis.Recommendations, "Reach out with a first-purchase incentive")
		return 40
	}

	switch {
	case days > 180:
		analysis.Factors = append(analysis.Factors, fmt.Sprintf("Last visit %d days ago", days))
		analysis.Recommendations = append(analysis.Recommendations, "Launch an aggressive win-back campaign")
		return 40
	case days > 90:
		analysis.Factors = append(analysis.Factors, fmt.Sprintf("Last visit %d days ago", days))
		analysis.Recommendations = append(analysis.Recommendations, "Send a personalized re-engagement offer")
		return 30
	case days > 60:
		analysis.Factors = append(analysis.Factors, fmt.Sprintf("Last visit %d days ago", days))
		analysis.Recommendations = append(analysis.Recommendations, "Remind the customer of new arrivals")
		return 20
	case days > 30:
		analysis.Factors = append(analysis.Factors, fmt.Sprintf("Last visit %d days ago", days))
		analysis.Recommendations = append(analysis.Recommendations, "Schedule a light-touch follow-up")
		return 10
	default:
		return 0
	}
}

// frequencyDeclineRisk contributes up to 30 points when the recent visit
// rate falls well below the lifetime average.
func (s *ChurnService) frequencyDeclineRisk(customer *retail.Customer, now time.Time, analysis *ChurnRiskAnalysis) float64 {
	days := customer.DaysSinceFirstVisit(now)
	if days == 0 || customer.TotalVisits == 0 {
		return 0
	}

	averageMonthly := float64(customer.TotalVisits) / float64(days) * 30
	if averageMonthly <= 0 {
		return 0
	}

	cutoff := now.AddDate(0, 0, -recentWindowDays)
	recentCount := 0
	for _, sale := range customer.Sales {
		if !sale.SaleDate.Before(cutoff) {
			recentCount++
		}
	}
	recentMonthly := float64(recentCount) / float64(recentWindowDays) * 30

	switch {
	case recentMonthly < averageMonthly*0.5:
		analysis.Factors = append(analysis.Factors, "Visit frequency dropped below half the lifetime average")
		analysis.Recommendations = append(analysis.Recommendations, "Investigate what changed; offer a frequency-based reward")
		return 30
	case recentMonthly < averageMonthly*0.7:
		analysis.Factors = append(analysis.Factors, "Visit frequency is declining")
		analysis.Recommendations = append(analysis.Recommendations, "Nudge with a time-limited repeat offer")
		return 15
	default:
		return 0
	}
}

// spendingDeclineRisk contributes up to 20 points when recent average sale
// amounts fall well below the prior average. Needs at least three sales and
// one sale inside the recent window to be meaningful.
func (s *ChurnService) spendingDeclineRisk(customer *retail.Customer, now time.Time, analysis *ChurnRiskAnalysis) float64 {
	if len(customer.Sales) < 3 {
		return 0
	}

	cutoff := now.AddDate(0, 0, -recentWindowDays)
	var recentSum, priorSum float64
	var recentCount, priorCount int
	for _, sale := range customer.Sales {
		if sale.SaleDate.Before(cutoff) {
			priorSum += sale.TotalAmount
			priorCount++
		} else {
			recentSum += sale.TotalAmount
			recentCount++
		}
	}
	if recentCount == 0 || priorCount == 0 || priorSum == 0 {
		return 0
	}

	recentAvg := recentSum / float64(recentCount)
	priorAvg := priorSum / float64(priorCount)

	switch {
	case recentAvg < priorAvg*0.5:
		analysis.Factors = append(analysis.Factors, "Average sale amount dropped below half the historical average")
		analysis.Recommendations = append(analysis.Recommendations, "Offer bundles to restore basket size")
		return 20
	case recentAvg < priorAvg*0.7:
		analysis.Factors = append(analysis.Factors, "Average sale amount is declining")
		analysis.Recommendations = append(analysis.Recommendations, "Suggest complementary products at checkout")
		return 10
	default:
		return 0
	}
}

// paymentIssueRisk contributes up to 10 points, 2 per unsettled sale.
func (s *ChurnService) paymentIssueRisk(customer *retail.Customer, analysis *ChurnRiskAnalysis) float64 {
	issues := customer.PaymentIssueCount()
	if issues == 0 {
		return 0
	}
	analysis.Factors = append(analysis.Factors, fmt.Sprintf("%d sales with overdue or pending payment", issues))
	analysis.Recommendations = append(analysis.Recommendations, "Resolve outstanding payments before upselling")
	score := float64(issues * 2)
	if score > 10 {
		score = 10
	}
	return score
}

func riskLevelFor(score int) RiskLevel {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 50:
		return RiskHigh
	case score >= 30:
		return RiskMedium
	default:
		return RiskLow
	}
}
