package services

import (
	"math"
	"testing"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
)

func newCLVService(t *testing.T) *CLVService {
	t.Helper()
	return NewCLVService(newTestLogger(t), newTestTracker())
}

func TestEstimateEmptyHistory(t *testing.T) {
	svc := newCLVService(t)

	result := svc.Estimate(&retail.Customer{ID: "cust-empty"}, 0, time.Now().UTC())

	if result.CLV != 0 {
		t.Errorf("clv = %v, want 0", result.CLV)
	}
	if result.Tier != TierLow {
		t.Errorf("tier = %s, want LOW", result.Tier)
	}
	if len(result.Recommendations) == 0 {
		t.Error("expected a first-purchase recommendation for an empty history")
	}
}

func TestEstimateYoungCustomerFixedLifespan(t *testing.T) {
	svc := newCLVService(t)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	customer := &retail.Customer{
		ID:         "cust-young",
		FirstVisit: daysAgo(now, 30),
		LastVisit:  daysAgo(now, 2),
		Sales:      paidSales(now, 3, 40_000, 2),
	}

	result := svc.Estimate(customer, 0, now)

	if result.PredictedLifespan != 24 {
		t.Errorf("predicted lifespan = %v, want the fixed 24 months for accounts under 90 days", result.PredictedLifespan)
	}
}

func TestEstimateInactiveCustomerFloorsLifespan(t *testing.T) {
	svc := newCLVService(t)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Inactive for 100 days: monthly churn probability 0.5 makes the raw
	// lifespan 2 * 1.2 = 2.4 months, floored to 6.
	customer := &retail.Customer{
		ID:         "cust-idle",
		FirstVisit: daysAgo(now, 300),
		LastVisit:  daysAgo(now, 100),
		Sales:      paidSales(now, 4, 60_000, 100),
	}

	result := svc.Estimate(customer, 0, now)

	if result.PredictedLifespan != 6 {
		t.Errorf("predicted lifespan = %v, want 6 (clamped floor)", result.PredictedLifespan)
	}
}

func TestEstimateHighValueCustomer(t *testing.T) {
	svc := newCLVService(t)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Eight paid sales of 100k over four months, last visit fresh:
	// AOV 100k, 2 purchases/month, lifespan 10 * 1.4 = 14 months.
	customer := &retail.Customer{
		ID:         "cust-vip",
		FirstVisit: daysAgo(now, 120),
		LastVisit:  daysAgo(now, 3),
		Sales:      paidSales(now, 8, 100_000, 3),
	}

	result := svc.Estimate(customer, 0, now)

	if result.AverageOrderValue != 100_000 {
		t.Errorf("aov = %v, want 100000", result.AverageOrderValue)
	}
	if math.Abs(result.PurchaseFrequency-2) > 0.001 {
		t.Errorf("purchase frequency = %v, want 2/month", result.PurchaseFrequency)
	}
	if math.Abs(result.PredictedLifespan-14) > 0.001 {
		t.Errorf("predicted lifespan = %v, want 14", result.PredictedLifespan)
	}
	if result.Tier != TierHigh {
		t.Errorf("tier = %s (clv %v), want HIGH", result.Tier, result.CLV)
	}
}

func TestEstimateAcquisitionCostFloorsAtZero(t *testing.T) {
	svc := newCLVService(t)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	customer := &retail.Customer{
		ID:         "cust-cheap",
		FirstVisit: daysAgo(now, 120),
		LastVisit:  daysAgo(now, 3),
		Sales:      paidSales(now, 2, 10_000, 3),
	}

	result := svc.Estimate(customer, 100_000_000, now)
	if result.CLV != 0 {
		t.Errorf("clv = %v, want 0 when acquisition cost exceeds projected value", result.CLV)
	}
}

func TestTierThresholds(t *testing.T) {
	tests := []struct {
		clv  float64
		want ValueTier
	}{
		{0, TierLow},
		{99_999, TierLow},
		{100_000, TierMedium},
		{499_999, TierMedium},
		{500_000, TierHigh},
	}
	for _, tt := range tests {
		if got := tierFor(tt.clv); got != tt.want {
			t.Errorf("tierFor(%v) = %s, want %s", tt.clv, got, tt.want)
		}
	}
}

func TestLowValueRecommendations(t *testing.T) {
	svc := newCLVService(t)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Sparse low-ticket history trips all three conditional add-ons.
	customer := &retail.Customer{
		ID:         "cust-small",
		FirstVisit: daysAgo(now, 300),
		LastVisit:  daysAgo(now, 95),
		Sales:      paidSales(now, 2, 20_000, 95),
	}

	result := svc.Estimate(customer, 0, now)

	if !containsSubstring(result.Recommendations, "repeat-purchase") {
		t.Errorf("recommendations = %v, want a frequency add-on", result.Recommendations)
	}
	if !containsSubstring(result.Recommendations, "bundles") {
		t.Errorf("recommendations = %v, want a low-AOV add-on", result.Recommendations)
	}
	if !containsSubstring(result.Recommendations, "retention") {
		t.Errorf("recommendations = %v, want a short-lifespan add-on", result.Recommendations)
	}
}
