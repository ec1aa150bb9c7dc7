package services

import (
	"testing"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
)

func newLoyaltyService(t *testing.T) *LoyaltyService {
	t.Helper()
	logger := newTestLogger(t)
	tracker := newTestTracker()
	return NewLoyaltyService(logger, tracker, NewRFMService(logger, tracker))
}

func TestComputeScoreHighValueRegular(t *testing.T) {
	svc := newLoyaltyService(t)
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	customer := &retail.Customer{
		ID:          "cust-1",
		Name:        "Alice",
		TotalSpent:  2_000_000,
		TotalVisits: 8,
		FirstVisit:  daysAgo(now, 60),
		LastVisit:   daysAgo(now, 3),
	}

	breakdown := svc.ComputeScore(customer, now)

	if breakdown.SpendScore != 40 {
		t.Errorf("spend score = %v, want 40 (capped)", breakdown.SpendScore)
	}
	if breakdown.FrequencyScore != 30 {
		t.Errorf("frequency score = %v, want 30 (4 visits/month capped)", breakdown.FrequencyScore)
	}
	if breakdown.RecencyScore != 20 {
		t.Errorf("recency score = %v, want 20", breakdown.RecencyScore)
	}
	if breakdown.PaymentScore != 10 {
		t.Errorf("payment score = %v, want 10", breakdown.PaymentScore)
	}
	if breakdown.Score != 100 {
		t.Errorf("total score = %d, want 100", breakdown.Score)
	}
}

func TestComputeScoreEmptyHistory(t *testing.T) {
	svc := newLoyaltyService(t)
	now := time.Now().UTC()

	customer := &retail.Customer{ID: "cust-empty", Name: "Nobody"}

	breakdown := svc.ComputeScore(customer, now)

	if breakdown.SpendScore != 0 || breakdown.FrequencyScore != 0 || breakdown.RecencyScore != 0 {
		t.Errorf("empty history sub-scores = %v/%v/%v, want 0/0/0",
			breakdown.SpendScore, breakdown.FrequencyScore, breakdown.RecencyScore)
	}
	if breakdown.PaymentScore != 10 {
		t.Errorf("payment score = %v, want 10 for a customer with no sales", breakdown.PaymentScore)
	}
	if breakdown.Score != 10 {
		t.Errorf("total score = %d, want 10", breakdown.Score)
	}
}

func TestComputeEnhancedScoreAddsRFMBonus(t *testing.T) {
	svc := newLoyaltyService(t)
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	// 21 paid sales of 50k inside the last month: R=5, F=5, M=5.
	customer := &retail.Customer{
		ID:          "cust-champ",
		Name:        "Big Spender",
		TotalSpent:  500_000,
		TotalVisits: 21,
		FirstVisit:  daysAgo(now, 365),
		LastVisit:   daysAgo(now, 2),
		Sales:       paidSales(now, 21, 50_000, 2),
	}
	// Spread the sales within the recency window so R stays 5.
	for i := range customer.Sales {
		customer.Sales[i].SaleDate = now.AddDate(0, 0, -(2 + i))
	}

	breakdown := svc.ComputeEnhancedScore(customer, now)

	if breakdown.RFMBonus != 10 {
		t.Errorf("rfm bonus = %d, want 10 for a 555 customer", breakdown.RFMBonus)
	}
	base := svc.ComputeScore(customer, now)
	want := base.Score + 10
	if want > 100 {
		want = 100
	}
	if breakdown.Score != want {
		t.Errorf("enhanced score = %d, want %d", breakdown.Score, want)
	}
}

func TestComputeEnhancedScoreEmptyHistoryNoBonus(t *testing.T) {
	svc := newLoyaltyService(t)
	now := time.Now().UTC()

	breakdown := svc.ComputeEnhancedScore(&retail.Customer{ID: "cust-empty"}, now)

	if breakdown.RFMBonus != 0 {
		t.Errorf("rfm bonus = %d, want 0 for a 111 customer", breakdown.RFMBonus)
	}
	if breakdown.Score != 10 {
		t.Errorf("enhanced score = %d, want 10", breakdown.Score)
	}
}

func TestComputeScoreIdempotent(t *testing.T) {
	svc := newLoyaltyService(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	customer := &retail.Customer{
		ID:          "cust-2",
		TotalSpent:  320_000,
		TotalVisits: 5,
		FirstVisit:  daysAgo(now, 120),
		LastVisit:   daysAgo(now, 14),
		Sales:       paidSales(now, 5, 64_000, 14),
	}

	first := svc.ComputeScore(customer, now)
	second := svc.ComputeScore(customer, now)
	if first != second {
		t.Errorf("repeated scoring differs: %+v vs %+v", first, second)
	}
}

func TestPaymentScorePenalizesIssueShare(t *testing.T) {
	svc := newLoyaltyService(t)
	now := time.Now().UTC()

	sales := paidSales(now, 4, 10_000, 5)
	sales[0].PaymentStatus = retail.PaymentOverdue
	sales[1].PaymentStatus = retail.PaymentPending

	customer := &retail.Customer{ID: "cust-3", Sales: sales}

	got := svc.paymentScore(customer)
	if got != 5 {
		t.Errorf("payment score = %v, want 5 (half the sales unsettled)", got)
	}
}

func TestRecencyScoreSteps(t *testing.T) {
	svc := newLoyaltyService(t)
	now := time.Now().UTC()

	tests := []struct {
		days int
		want float64
	}{
		{3, 20},
		{7, 20},
		{8, 15},
		{30, 15},
		{31, 10},
		{90, 10},
		{91, 5},
		{180, 5},
		{181, 0},
	}
	for _, tt := range tests {
		customer := &retail.Customer{LastVisit: daysAgo(now, tt.days)}
		if got := svc.recencyScore(customer, now); got != tt.want {
			t.Errorf("recencyScore(%d days) = %v, want %v", tt.days, got, tt.want)
		}
	}
}
