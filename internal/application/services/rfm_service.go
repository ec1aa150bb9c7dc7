package services

import (
	"fmt"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
)

// noVisitRecencyDays is the sentinel for customers without a recorded visit;
// it lands in the worst recency bucket.
const noVisitRecencyDays = 999

// RFM segment names, in cascade order.
const (
	SegmentChampions          = "Champions"
	SegmentLoyalCustomers     = "Loyal Customers"
	SegmentPotentialLoyalists = "Potential Loyalists"
	SegmentNewCustomers       = "New Customers"
	SegmentPromising          = "Promising"
	SegmentNeedAttention      = "Need Attention"
	SegmentAboutToSleep       = "About to Sleep"
	SegmentAtRisk             = "At Risk"
	SegmentCannotLoseThem     = "Cannot Lose Them"
	SegmentHibernating        = "Hibernating"
	SegmentLost               = "Lost"
	SegmentRegular            = "Regular"
)

// RFMAnalysis is the classification of one customer.
type RFMAnalysis struct {
	CustomerID      string   `json:"customerId"`
	CustomerName    string   `json:"customerName,omitempty"`
	RecencyScore    int      `json:"recencyScore"`   // 1-5
	FrequencyScore  int      `json:"frequencyScore"` // 1-5
	MonetaryScore   int      `json:"monetaryScore"`  // 1-5
	Code            string   `json:"code"`           // e.g. "543"
	Segment         string   `json:"segment"`
	Recommendations []string `json:"recommendations"`
}

// rfmRule is one predicate -> segment pair. Rules are evaluated in order;
// the first match wins.
type rfmRule struct {
	segment string
	matches func(r, f, m int) bool
}

// segmentRules is the ordered classification cascade. "At Risk" and
// "Cannot Lose Them" carry identical predicates, so under first-match
// evaluation "Cannot Lose Them" never fires and "At Risk" wins. The
// tests pin that ordering.
var segmentRules = []rfmRule{
	{SegmentChampions, func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 }},
	{SegmentLoyalCustomers, func(r, f, m int) bool { return r >= 3 && f >= 4 && m >= 3 }},
	{SegmentPotentialLoyalists, func(r, f, m int) bool { return r >= 4 && f >= 2 && m >= 2 }},
	{SegmentNewCustomers, func(r, f, m int) bool { return r >= 4 && f <= 1 }},
	{SegmentPromising, func(r, f, m int) bool { return r == 3 && f <= 1 }},
	{SegmentNeedAttention, func(r, f, m int) bool { return r == 3 && f >= 2 && m >= 2 }},
	{SegmentAboutToSleep, func(r, f, m int) bool { return r == 2 && f <= 3 }},
	{SegmentAtRisk, func(r, f, m int) bool { return r <= 2 && f >= 4 && m >= 4 }},
	{SegmentCannotLoseThem, func(r, f, m int) bool { return r <= 2 && f >= 4 && m >= 4 }},
	{SegmentHibernating, func(r, f, m int) bool { return r <= 2 && f >= 2 && m >= 2 }},
	{SegmentLost, func(r, f, m int) bool { return r == 1 }},
}

// segmentRecommendations is the static playbook per segment.
var segmentRecommendations = map[string][]string{
	SegmentChampions:          {"Reward them with early access and exclusives", "Ask for reviews and referrals"},
	SegmentLoyalCustomers:     {"Offer a loyalty program upgrade", "Recommend complementary products"},
	SegmentPotentialLoyalists: {"Offer a membership or subscription", "Personalize the next offer"},
	SegmentNewCustomers:       {"Send an onboarding offer", "Follow up after the first purchase"},
	SegmentPromising:          {"Create brand awareness with light-touch offers"},
	SegmentNeedAttention:      {"Reactivate with limited-time promotions"},
	SegmentAboutToSleep:       {"Share popular products and renewal discounts"},
	SegmentAtRisk:             {"Send a personalized win-back campaign", "Offer a meaningful discount"},
	SegmentCannotLoseThem:     {"Win them back with a high-touch outreach", "Do not lose them to competition"},
	SegmentHibernating:        {"Offer a steep reactivation discount"},
	SegmentLost:               {"Attempt a final win-back, otherwise ignore"},
	SegmentRegular:            {"Maintain steady engagement"},
}

// RFMService classifies customers by Recency/Frequency/Monetary quintiles.
type RFMService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewRFMService creates the RFM classifier.
func NewRFMService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *RFMService {
	return &RFMService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Analyze computes the RFM classification for one customer snapshot.
// Only PAID sales count toward the frequency and monetary components.
func (s *RFMService) Analyze(customer *retail.Customer, now time.Time) (*RFMAnalysis, error) {
	if customer == nil {
		return nil, fmt.Errorf("rfm analysis requires a customer snapshot")
	}

	completed := customer.CompletedSales()
	paidTotal := 0.0
	for _, sale := range completed {
		paidTotal += sale.TotalAmount
	}

	r := recencyQuintile(customer, now)
	f := frequencyQuintile(len(completed))
	m := monetaryQuintile(paidTotal)

	analysis := &RFMAnalysis{
		CustomerID:     customer.ID,
		CustomerName:   customer.Name,
		RecencyScore:   r,
		FrequencyScore: f,
		MonetaryScore:  m,
		Code:           fmt.Sprintf("%d%d%d", r, f, m),
		Segment:        classifySegment(r, f, m),
	}
	analysis.Recommendations = buildRFMRecommendations(analysis)
	return analysis, nil
}

// AnalyzeAll classifies every customer of an owner from current snapshots.
func (s *RFMService) AnalyzeAll(tenantCtx *tenant.Context, ownerID string) ([]*RFMAnalysis, error) {
	start := time.Now()
	marker := s.perfTracker.StartOperation("rfm_analyze_all", tenantCtx.TenantID)
	defer marker.Complete()

	customers, err := tenantCtx.CustomerRepo().FindByOwner(ownerID)
	if err != nil {
		marker.SetSuccess(false)
		return nil, err
	}

	now := time.Now().UTC()
	results := make([]*RFMAnalysis, 0, len(customers))
	for _, customer := range customers {
		analysis, err := s.Analyze(customer, now)
		if err != nil {
			return nil, err
		}
		results = append(results, analysis)
	}

	s.logger.Analytics().Info("RFM analysis completed",
		"tenantId", tenantCtx.TenantID, "ownerId", ownerID, "customers", len(results), "duration", time.Since(start))
	return results, nil
}

func recencyQuintile(customer *retail.Customer, now time.Time) int {
	days, ok := customer.DaysSinceLastVisit(now)
	if !ok {
		days = noVisitRecencyDays
	}
	switch {
	case days <= 30:
		return 5
	case days <= 60:
		return 4
	case days <= 90:
		return 3
	case days <= 180:
		return 2
	default:
		return 1
	}
}

func frequencyQuintile(completedSales int) int {
	switch {
	case completedSales >= 20:
		return 5
	case completedSales >= 10:
		return 4
	case completedSales >= 5:
		return 3
	case completedSales >= 2:
		return 2
	default:
		return 1
	}
}

func monetaryQuintile(paidTotal float64) int {
	switch {
	case paidTotal >= 1_000_000:
		return 5
	case paidTotal >= 500_000:
		return 4
	case paidTotal >= 200_000:
		return 3
	case paidTotal >= 50_000:
		return 2
	default:
		return 1
	}
}

// classifySegment walks the rule cascade top to bottom, first match wins.
func classifySegment(r, f, m int) string {
	for _, rule := range segmentRules {
		if rule.matches(r, f, m) {
			return rule.segment
		}
	}
	return SegmentRegular
}

// buildRFMRecommendations combines the segment playbook with notes for any
// individually weak component.
func buildRFMRecommendations(analysis *RFMAnalysis) []string {
	recs := append([]string{}, segmentRecommendations[analysis.Segment]...)
	if analysis.RecencyScore <= 2 {
		recs = append(recs, "Customer has not purchased recently; schedule a win-back touchpoint")
	}
	if analysis.FrequencyScore <= 2 {
		recs = append(recs, "Low purchase frequency; consider repeat-purchase incentives")
	}
	if analysis.MonetaryScore <= 2 {
		recs = append(recs, "Low spend; look for upsell or bundle opportunities")
	}
	return recs
}
