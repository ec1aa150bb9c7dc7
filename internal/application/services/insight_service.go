package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/insights"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/messaging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/security"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
	"github.com/ShopmetricsHQ/shopmetrics-go/pkg/config"
)

// trendSwingThreshold is the month-over-month revenue change that counts
// as a notable trend.
const trendSwingThreshold = 0.10

// InsightService synthesizes the prioritized insight feed from the other
// analyzers. Each insight type generates independently so one failing
// computation never suppresses the rest of the feed.
type InsightService struct {
	logger              *logging.ChanneledLogger
	perfTracker         *performance.Tracker
	churnService        *ChurnService
	clvService          *CLVService
	rfmService          *RFMService
	segmentationService *SegmentationService
	forecastService     *ForecastService
	broadcaster         *messaging.Broadcaster
}

// NewInsightService creates the insight synthesizer.
func NewInsightService(
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	churnService *ChurnService,
	clvService *CLVService,
	rfmService *RFMService,
	segmentationService *SegmentationService,
	forecastService *ForecastService,
	broadcaster *messaging.Broadcaster,
) *InsightService {
	return &InsightService{
		logger:              logger,
		perfTracker:         perfTracker,
		churnService:        churnService,
		clvService:          clvService,
		rfmService:          rfmService,
		segmentationService: segmentationService,
		forecastService:     forecastService,
		broadcaster:         broadcaster,
	}
}

// Generate runs every insight generator for an owner and returns the feed
// sorted by priority, without persisting anything. Generator failures are
// logged and skipped rather than aborting the feed.
func (s *InsightService) Generate(tenantCtx *tenant.Context, ownerID string) ([]*insights.Insight, error) {
	start := time.Now()
	marker := s.perfTracker.StartOperation("generate_insights", tenantCtx.TenantID)
	defer marker.Complete()

	customers, err := tenantCtx.CustomerRepo().FindByOwner(ownerID)
	if err != nil {
		marker.SetSuccess(false)
		return nil, err
	}

	now := time.Now().UTC()
	since := now.AddDate(0, -config.DefaultHistoricalMonths, 0)
	sales, err := tenantCtx.SaleRepo().CompletedByOwnerSince(ownerID, since)
	if err != nil {
		marker.SetSuccess(false)
		return nil, err
	}

	type generator struct {
		name string
		run  func() []*insights.Insight
	}
	generators := []generator{
		{"top_customer", func() []*insights.Insight { return s.topCustomerInsight(ownerID, customers) }},
		{"churn_alerts", func() []*insights.Insight { return s.churnInsights(ownerID, customers, now) }},
		{"sales_trend", func() []*insights.Insight { return s.salesTrendInsight(ownerID, sales, now) }},
		{"forecast_warning", func() []*insights.Insight { return s.forecastWarningInsight(ownerID, sales, now) }},
		{"segment_alerts", func() []*insights.Insight { return s.segmentInsights(ownerID, customers, now) }},
		{"best_seller", func() []*insights.Insight { return s.bestSellerInsight(ownerID, sales) }},
		{"average_clv", func() []*insights.Insight { return s.averageCLVInsight(ownerID, customers, now) }},
		{"rfm_cohorts", func() []*insights.Insight { return s.rfmCohortInsights(ownerID, customers, now) }},
	}

	var feed []*insights.Insight
	for _, g := range generators {
		items := s.runIsolated(g.name, ownerID, g.run)
		feed = append(feed, items...)
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Priority.Rank() < feed[j].Priority.Rank()
	})

	s.logger.Insights().Info("Insight feed generated",
		"tenantId", tenantCtx.TenantID, "ownerId", ownerID,
		"insights", len(feed), "duration", time.Since(start))
	return feed, nil
}

// GenerateAndSave generates the feed, persists every insight, and pushes
// each one to connected stream clients. Persistence failures are logged
// per insight rather than aborting the batch.
func (s *InsightService) GenerateAndSave(tenantCtx *tenant.Context, ownerID string) ([]*insights.Insight, error) {
	feed, err := s.Generate(tenantCtx, ownerID)
	if err != nil {
		return nil, err
	}

	repo := tenantCtx.InsightRepo()
	for _, insight := range feed {
		if err := repo.Store(insight); err != nil {
			s.logger.Insights().Error("Failed to persist insight",
				"ownerId", ownerID, "type", insight.Type, "error", err.Error())
		}
		if s.broadcaster != nil {
			s.broadcaster.Broadcast(messaging.Event{
				Kind:     "insight",
				TenantID: tenantCtx.TenantID,
				Payload:  insight,
			})
		}
	}
	return feed, nil
}

// Recent returns the most recently generated insights for an owner.
func (s *InsightService) Recent(tenantCtx *tenant.Context, ownerID string, limit int) ([]*insights.Insight, error) {
	if limit <= 0 {
		limit = 50
	}
	return tenantCtx.InsightRepo().FindRecentByOwner(ownerID, limit)
}

// runIsolated runs one generator, recovering from panics so a single
// broken computation cannot take down the whole feed.
func (s *InsightService) runIsolated(name, ownerID string, run func() []*insights.Insight) (items []*insights.Insight) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Insights().Error("Insight generator panicked, skipping",
				"generator", name, "ownerId", ownerID, "panic", fmt.Sprint(r))
			items = nil
		}
	}()
	return run()
}

func (s *InsightService) newInsight(ownerID, insightType string, priority insights.Priority, title, description string) *insights.Insight {
	return &insights.Insight{
		ID:          security.GenerateULID(),
		OwnerID:     ownerID,
		Type:        insightType,
		Priority:    priority,
		Title:       title,
		Description: description,
		Data:        map[string]any{},
		GeneratedAt: time.Now().UTC(),
	}
}

func (s *InsightService) topCustomerInsight(ownerID string, customers []*retail.Customer) []*insights.Insight {
	var top *retail.Customer
	for _, customer := range customers {
		if top == nil || customer.TotalSpent > top.TotalSpent {
			top = customer
		}
	}
	if top == nil || top.TotalSpent == 0 {
		return nil
	}

	insight := s.newInsight(ownerID, insights.TypeTopCustomer, insights.PriorityMedium,
		fmt.Sprintf("%s is your top customer", top.Name),
		fmt.Sprintf("%s has spent %.0f across %d visits.", top.Name, top.TotalSpent, top.TotalVisits))
	insight.Data["customerId"] = top.ID
	insight.Data["totalSpent"] = top.TotalSpent
	insight.Recommendations = []string{"Recognize them with a personal thank-you or exclusive perk"}
	return []*insights.Insight{insight}
}

func (s *InsightService) churnInsights(ownerID string, customers []*retail.Customer, now time.Time) []*insights.Insight {
	var atRisk, critical []string
	for _, customer := range customers {
		analysis := s.churnService.Assess(customer, now)
		switch analysis.RiskLevel {
		case RiskCritical:
			critical = append(critical, customer.Name)
		case RiskHigh:
			atRisk = append(atRisk, customer.Name)
		}
	}

	var out []*insights.Insight
	if len(critical) > 0 {
		insight := s.newInsight(ownerID, insights.TypeChurnCritical, insights.PriorityHigh,
			fmt.Sprintf("%d customers at critical churn risk", len(critical)),
			fmt.Sprintf("Immediate attention needed for: %s.", joinNames(critical, 5)))
		insight.Actionable = true
		insight.Data["count"] = len(critical)
		insight.Recommendations = []string{"Contact these customers personally this week"}
		out = append(out, insight)
	}
	if len(atRisk) > 0 {
		insight := s.newInsight(ownerID, insights.TypeChurnAlert, insights.PriorityHigh,
			fmt.Sprintf("%d customers at high churn risk", len(atRisk)),
			fmt.Sprintf("Showing early churn signals: %s.", joinNames(atRisk, 5)))
		insight.Actionable = true
		insight.Data["count"] = len(atRisk)
		insight.Recommendations = []string{"Send a targeted win-back offer"}
		out = append(out, insight)
	}
	return out
}

func (s *InsightService) salesTrendInsight(ownerID string, sales []retail.Sale, now time.Time) []*insights.Insight {
	series := BuildMonthlySeries(sales, now, 3)
	if len(series) < 2 {
		return nil
	}
	previous := series[len(series)-2].Revenue
	current := series[len(series)-1].Revenue
	if previous == 0 {
		return nil
	}

	change := (current - previous) / previous
	if math.Abs(change) <= trendSwingThreshold {
		return nil
	}

	var insight *insights.Insight
	if change > 0 {
		insight = s.newInsight(ownerID, insights.TypeSalesTrend, insights.PriorityMedium,
			fmt.Sprintf("Sales up %.0f%% month over month", change*100),
			fmt.Sprintf("Revenue grew from %.0f to %.0f.", previous, current))
		insight.Recommendations = []string{"Double down on whatever drove the growth"}
	} else {
		insight = s.newInsight(ownerID, insights.TypeSalesTrend, insights.PriorityHigh,
			fmt.Sprintf("Sales down %.0f%% month over month", -change*100),
			fmt.Sprintf("Revenue fell from %.0f to %.0f.", previous, current))
		insight.Actionable = true
		insight.Recommendations = []string{"Review recent pricing, stock, and promotion changes"}
	}
	insight.Data["previousMonth"] = previous
	insight.Data["currentMonth"] = current
	insight.Data["changePercent"] = change * 100
	return []*insights.Insight{insight}
}

func (s *InsightService) forecastWarningInsight(ownerID string, sales []retail.Sale, now time.Time) []*insights.Insight {
	history := BuildMonthlySeries(sales, now, config.DefaultHistoricalMonths)
	records := s.forecastService.Forecast(history, config.DefaultForecastMonths, now)
	if len(records) == 0 {
		return nil
	}

	total := 0.0
	for _, r := range records {
		total += r.Forecast
	}
	average := total / float64(len(records))
	next := records[0]
	if average == 0 || next.Forecast >= average*0.8 {
		return nil
	}

	insight := s.newInsight(ownerID, insights.TypeForecastWarning, insights.PriorityHigh,
		"Next month is forecast below trend",
		fmt.Sprintf("Projected revenue of %.0f for %s is more than 20%% under the %.0f forecast average.",
			next.Forecast, next.Month, average))
	insight.Actionable = true
	insight.Data["nextMonth"] = next.Month
	insight.Data["nextForecast"] = next.Forecast
	insight.Data["forecastAverage"] = average
	insight.Recommendations = []string{"Plan a promotion or outreach push for the soft month"}
	return []*insights.Insight{insight}
}

func (s *InsightService) segmentInsights(ownerID string, customers []*retail.Customer, now time.Time) []*insights.Insight {
	result := s.segmentationService.Segment(customers, now)

	var out []*insights.Insight
	for _, segment := range result.Segments {
		switch segment.Name {
		case BehaviorAtRisk:
			insight := s.newInsight(ownerID, insights.TypeSegmentAlert, insights.PriorityHigh,
				fmt.Sprintf("%d customers in the at-risk segment", segment.Count),
				fmt.Sprintf("They represent %.0f in historical spend.", segment.TotalValue))
			insight.Actionable = true
			insight.Data["segment"] = segment.Name
			insight.Data["count"] = segment.Count
			insight.Recommendations = []string{"Run a retention campaign for this group"}
			out = append(out, insight)
		case BehaviorInactive:
			insight := s.newInsight(ownerID, insights.TypeSegmentAlert, insights.PriorityMedium,
				fmt.Sprintf("%d customers have gone inactive", segment.Count),
				fmt.Sprintf("No visits in over six months; %.0f in historical spend is dormant.", segment.TotalValue))
			insight.Data["segment"] = segment.Name
			insight.Data["count"] = segment.Count
			insight.Recommendations = []string{"Try a one-time reactivation offer before writing them off"}
			out = append(out, insight)
		}
	}
	return out
}

func (s *InsightService) bestSellerInsight(ownerID string, sales []retail.Sale) []*insights.Insight {
	quantities := make(map[string]int)
	for _, sale := range sales {
		for _, item := range sale.Items {
			quantities[item.ProductName] += item.Quantity
		}
	}

	bestName, bestQty := "", 0
	for name, qty := range quantities {
		if qty > bestQty {
			bestName, bestQty = name, qty
		}
	}
	if bestName == "" {
		return nil
	}

	insight := s.newInsight(ownerID, insights.TypeBestSeller, insights.PriorityLow,
		fmt.Sprintf("%s is your best seller", bestName),
		fmt.Sprintf("%d units sold over the analysis window.", bestQty))
	insight.Data["productName"] = bestName
	insight.Data["unitsSold"] = bestQty
	insight.Recommendations = []string{"Keep it stocked and feature it prominently"}
	return []*insights.Insight{insight}
}

func (s *InsightService) averageCLVInsight(ownerID string, customers []*retail.Customer, now time.Time) []*insights.Insight {
	if len(customers) == 0 {
		return nil
	}

	total := 0.0
	tierCounts := map[ValueTier]int{}
	for _, customer := range customers {
		result := s.clvService.Estimate(customer, 0, now)
		total += result.CLV
		tierCounts[result.Tier]++
	}
	average := total / float64(len(customers))

	insight := s.newInsight(ownerID, insights.TypeAverageCLV, insights.PriorityLow,
		fmt.Sprintf("Average customer lifetime value is %.0f", average),
		fmt.Sprintf("%d high-value, %d medium-value, and %d low-value customers.",
			tierCounts[TierHigh], tierCounts[TierMedium], tierCounts[TierLow]))
	insight.Data["averageCLV"] = average
	insight.Data["totalCLV"] = total
	return []*insights.Insight{insight}
}

func (s *InsightService) rfmCohortInsights(ownerID string, customers []*retail.Customer, now time.Time) []*insights.Insight {
	var lost, champions []string
	for _, customer := range customers {
		analysis, err := s.rfmService.Analyze(customer, now)
		if err != nil {
			continue
		}
		switch analysis.Segment {
		case SegmentLost:
			lost = append(lost, customer.Name)
		case SegmentChampions:
			champions = append(champions, customer.Name)
		}
	}

	var out []*insights.Insight
	if len(lost) > 0 {
		insight := s.newInsight(ownerID, insights.TypeRFMCohort, insights.PriorityMedium,
			fmt.Sprintf("%d customers classified as Lost", len(lost)),
			fmt.Sprintf("Long-inactive customers: %s.", joinNames(lost, 5)))
		insight.Data["segment"] = SegmentLost
		insight.Data["count"] = len(lost)
		insight.Recommendations = []string{"One final win-back attempt, then stop spending on them"}
		out = append(out, insight)
	}
	if len(champions) > 0 {
		insight := s.newInsight(ownerID, insights.TypeRFMCohort, insights.PriorityLow,
			fmt.Sprintf("%d customers are Champions", len(champions)),
			fmt.Sprintf("Your most engaged cohort: %s.", joinNames(champions, 5)))
		insight.Data["segment"] = SegmentChampions
		insight.Data["count"] = len(champions)
		insight.Recommendations = []string{"Ask for referrals and reviews while engagement is high"}
		out = append(out, insight)
	}
	return out
}

// joinNames renders up to max names, eliding the rest.
func joinNames(names []string, max int) string {
	if len(names) <= max {
		out := ""
		for i, name := range names {
			if i > 0 {
				out += ", "
			}
			out += name
		}
		return out
	}
	out := ""
	for i := 0; i < max; i++ {
		if i > 0 {
			out += ", "
		}
		out += names[i]
	}
	return fmt.Sprintf("%s and %d more", out, len(names)-max)
}
