package services

import (
	"sort"
	"sync"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/analytics"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
)

// Behavioral segment names, in fixed priority order.
const (
	BehaviorVIP      = "VIP"
	BehaviorLoyal    = "LOYAL"
	BehaviorRegular  = "REGULAR"
	BehaviorNew      = "NEW"
	BehaviorAtRisk   = "AT_RISK"
	BehaviorInactive = "INACTIVE"
)

// segmentOrder fixes the output ordering of non-empty buckets.
var segmentOrder = []string{BehaviorVIP, BehaviorLoyal, BehaviorRegular, BehaviorNew, BehaviorAtRisk, BehaviorInactive}

// SegmentMember is one customer inside a behavioral segment.
type SegmentMember struct {
	CustomerID   string  `json:"customerId"`
	CustomerName string  `json:"customerName,omitempty"`
	TotalSpent   float64 `json:"totalSpent"`
	LoyaltyScore int     `json:"loyaltyScore"`
}

// Segment is one behavioral bucket with its aggregates.
type Segment struct {
	Name         string          `json:"name"`
	Count        int             `json:"count"`
	TotalValue   float64         `json:"totalValue"`
	AverageValue float64         `json:"averageValue"`
	Members      []SegmentMember `json:"members"`
}

// SegmentationResult carries the non-empty buckets and the population
// thresholds they were computed against.
type SegmentationResult struct {
	Segments       []Segment `json:"segments"`
	Top10Threshold float64   `json:"top10Threshold"`
	Top25Threshold float64   `json:"top25Threshold"`
	Customers      int       `json:"customers"`
}

// SegmentationService groups an owner's customers into behavioral buckets
// using population-relative spend thresholds. This is a different lens from
// RFM classification and the two may disagree for the same customer.
type SegmentationService struct {
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
	loyaltyService *LoyaltyService
}

// NewSegmentationService creates the behavioral segmenter.
func NewSegmentationService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, loyaltyService *LoyaltyService) *SegmentationService {
	return &SegmentationService{
		logger:         logger,
		perfTracker:    perfTracker,
		loyaltyService: loyaltyService,
	}
}

// SegmentOwner fetches an owner's customers and segments them.
func (s *SegmentationService) SegmentOwner(tenantCtx *tenant.Context, ownerID string) (*SegmentationResult, error) {
	start := time.Now()
	marker := s.perfTracker.StartOperation("segment_owner", tenantCtx.TenantID)
	defer marker.Complete()

	customers, err := tenantCtx.CustomerRepo().FindByOwner(ownerID)
	if err != nil {
		marker.SetSuccess(false)
		return nil, err
	}

	result := s.Segment(customers, time.Now().UTC())
	s.logger.Analytics().Info("Behavioral segmentation completed",
		"tenantId", tenantCtx.TenantID, "ownerId", ownerID,
		"customers", len(customers), "segments", len(result.Segments), "duration", time.Since(start))
	return result, nil
}

// Segment partitions customer snapshots into behavioral buckets. Each
// customer lands in exactly one bucket; empty buckets are omitted. Pure
// over its inputs aside from the per-customer loyalty fan-out.
func (s *SegmentationService) Segment(customers []*retail.Customer, now time.Time) *SegmentationResult {
	result := &SegmentationResult{Customers: len(customers)}
	if len(customers) == 0 {
		return result
	}

	spends := make([]float64, len(customers))
	for i, customer := range customers {
		spends[i] = customer.TotalSpent
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(spends)))
	result.Top10Threshold = analytics.PercentileValue(spends, 0.10)
	result.Top25Threshold = analytics.PercentileValue(spends, 0.25)

	loyalty := s.scoreAll(customers, now)

	buckets := make(map[string][]SegmentMember, len(segmentOrder))
	for i, customer := range customers {
		name := classifyBehavior(customer, loyalty[i], result.Top10Threshold, now)
		buckets[name] = append(buckets[name], SegmentMember{
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			TotalSpent:   customer.TotalSpent,
			LoyaltyScore: loyalty[i],
		})
	}

	for _, name := range segmentOrder {
		members := buckets[name]
		if len(members) == 0 {
			continue
		}
		segment := Segment{Name: name, Count: len(members), Members: members}
		for _, member := range members {
			segment.TotalValue += member.TotalSpent
		}
		segment.AverageValue = segment.TotalValue / float64(segment.Count)
		result.Segments = append(result.Segments, segment)
	}
	return result
}

// scoreAll computes enhanced loyalty scores for every customer. Per-customer
// scoring is independent, so it fans out across a small worker pool.
func (s *SegmentationService) scoreAll(customers []*retail.Customer, now time.Time) []int {
	scores := make([]int, len(customers))

	const workers = 8
	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scores[i] = s.loyaltyService.ComputeEnhancedScore(customers[i], now).Score
			}
		}()
	}
	for i := range customers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return scores
}

// classifyBehavior walks the bucket rules in order, first match wins.
func classifyBehavior(customer *retail.Customer, loyaltyScore int, top10 float64, now time.Time) string {
	daysSinceLast, hasVisit := customer.DaysSinceLastVisit(now)

	if customer.TotalSpent >= top10 && loyaltyScore >= 80 {
		return BehaviorVIP
	}
	if loyaltyScore >= 70 && hasVisit && daysSinceLast <= 60 {
		return BehaviorLoyal
	}
	if !hasVisit || daysSinceLast > 180 {
		return BehaviorInactive
	}
	if daysSinceLast > 90 || loyaltyScore < 40 || hasOverdueSale(customer) {
		return BehaviorAtRisk
	}
	if customer.FirstVisit != nil && customer.DaysSinceFirstVisit(now) <= 90 {
		return BehaviorNew
	}
	return BehaviorRegular
}

func hasOverdueSale(customer *retail.Customer) bool {
	for _, sale := range customer.Sales {
		if sale.PaymentStatus == retail.PaymentOverdue {
			return true
		}
	}
	return false
}
