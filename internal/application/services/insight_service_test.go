package services

import (
	"testing"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/insights"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
)

func newInsightService(t *testing.T) *InsightService {
	t.Helper()
	logger := newTestLogger(t)
	tracker := newTestTracker()
	rfm := NewRFMService(logger, tracker)
	loyalty := NewLoyaltyService(logger, tracker, rfm)
	return NewInsightService(
		logger, tracker,
		NewChurnService(logger, tracker),
		NewCLVService(logger, tracker),
		rfm,
		NewSegmentationService(logger, tracker, loyalty),
		NewForecastService(logger, tracker),
		nil,
	)
}

func TestTopCustomerInsight(t *testing.T) {
	svc := newInsightService(t)

	customers := []*retail.Customer{
		{ID: "a", Name: "Small", TotalSpent: 10_000},
		{ID: "b", Name: "Big", TotalSpent: 900_000, TotalVisits: 12},
	}

	items := svc.topCustomerInsight("owner-1", customers)
	if len(items) != 1 {
		t.Fatalf("insights = %d, want 1", len(items))
	}
	insight := items[0]
	if insight.Type != insights.TypeTopCustomer {
		t.Errorf("type = %q, want %q", insight.Type, insights.TypeTopCustomer)
	}
	if insight.Data["customerId"] != "b" {
		t.Errorf("top customer = %v, want b", insight.Data["customerId"])
	}
	if insight.ID == "" || insight.OwnerID != "owner-1" {
		t.Errorf("identity fields missing: id=%q owner=%q", insight.ID, insight.OwnerID)
	}
}

func TestTopCustomerInsightSkipsZeroSpend(t *testing.T) {
	svc := newInsightService(t)

	items := svc.topCustomerInsight("owner-1", []*retail.Customer{{ID: "a", Name: "Nobody"}})
	if len(items) != 0 {
		t.Errorf("insights = %v, want none when nobody has spent", items)
	}
}

func TestSalesTrendInsightThreshold(t *testing.T) {
	svc := newInsightService(t)
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	buildSales := func(prev, curr float64) []retail.Sale {
		return []retail.Sale{
			{TotalAmount: prev, SaleDate: time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC), PaymentStatus: retail.PaymentPaid},
			{TotalAmount: curr, SaleDate: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), PaymentStatus: retail.PaymentPaid},
		}
	}

	// 5% swing stays quiet.
	if items := svc.salesTrendInsight("owner-1", buildSales(100_000, 105_000), now); len(items) != 0 {
		t.Errorf("5%% swing produced %d insights, want 0", len(items))
	}

	// 30% growth is a MEDIUM insight.
	items := svc.salesTrendInsight("owner-1", buildSales(100_000, 130_000), now)
	if len(items) != 1 {
		t.Fatalf("30%% growth produced %d insights, want 1", len(items))
	}
	if items[0].Priority != insights.PriorityMedium {
		t.Errorf("growth priority = %s, want MEDIUM", items[0].Priority)
	}

	// 30% decline is a HIGH, actionable insight.
	items = svc.salesTrendInsight("owner-1", buildSales(100_000, 70_000), now)
	if len(items) != 1 {
		t.Fatalf("30%% decline produced %d insights, want 1", len(items))
	}
	if items[0].Priority != insights.PriorityHigh || !items[0].Actionable {
		t.Errorf("decline insight = priority %s actionable %v, want HIGH actionable", items[0].Priority, items[0].Actionable)
	}
}

func TestBestSellerInsight(t *testing.T) {
	svc := newInsightService(t)
	now := time.Now().UTC()

	sales := []retail.Sale{
		{
			SaleDate:      now,
			PaymentStatus: retail.PaymentPaid,
			Items: []retail.SaleItem{
				{ProductName: "Espresso", Quantity: 40},
				{ProductName: "Croissant", Quantity: 15},
			},
		},
		{
			SaleDate:      now,
			PaymentStatus: retail.PaymentPaid,
			Items:         []retail.SaleItem{{ProductName: "Croissant", Quantity: 30}},
		},
	}

	items := svc.bestSellerInsight("owner-1", sales)
	if len(items) != 1 {
		t.Fatalf("insights = %d, want 1", len(items))
	}
	if items[0].Data["productName"] != "Croissant" {
		t.Errorf("best seller = %v, want Croissant (45 units)", items[0].Data["productName"])
	}
	if items[0].Data["unitsSold"] != 45 {
		t.Errorf("units sold = %v, want 45", items[0].Data["unitsSold"])
	}
}

func TestRunIsolatedRecoversPanics(t *testing.T) {
	svc := newInsightService(t)

	items := svc.runIsolated("exploding", "owner-1", func() []*insights.Insight {
		panic("boom")
	})
	if items != nil {
		t.Errorf("items = %v, want nil after panic", items)
	}

	ok := svc.runIsolated("fine", "owner-1", func() []*insights.Insight {
		return []*insights.Insight{{ID: "x"}}
	})
	if len(ok) != 1 {
		t.Errorf("healthy generator returned %d items, want 1", len(ok))
	}
}

func TestJoinNamesElides(t *testing.T) {
	if got := joinNames([]string{"a", "b"}, 5); got != "a, b" {
		t.Errorf("joinNames short = %q", got)
	}
	got := joinNames([]string{"a", "b", "c", "d"}, 2)
	if got != "a, b and 2 more" {
		t.Errorf("joinNames elided = %q", got)
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	if insights.PriorityHigh.Rank() >= insights.PriorityMedium.Rank() {
		t.Error("HIGH must rank before MEDIUM")
	}
	if insights.PriorityMedium.Rank() >= insights.PriorityLow.Rank() {
		t.Error("MEDIUM must rank before LOW")
	}
}
