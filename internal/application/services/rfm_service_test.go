package services

import (
	"testing"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
)

func newRFMService(t *testing.T) *RFMService {
	t.Helper()
	return NewRFMService(newTestLogger(t), newTestTracker())
}

func TestAnalyzeEmptyHistory(t *testing.T) {
	svc := newRFMService(t)
	now := time.Now().UTC()

	analysis, err := svc.Analyze(&retail.Customer{ID: "cust-empty", Name: "Nobody"}, now)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if analysis.Code != "111" {
		t.Errorf("code = %q, want \"111\" for an empty history", analysis.Code)
	}
	if analysis.Segment != SegmentLost {
		t.Errorf("segment = %q, want %q", analysis.Segment, SegmentLost)
	}
}

func TestAnalyzeNilCustomer(t *testing.T) {
	svc := newRFMService(t)
	if _, err := svc.Analyze(nil, time.Now().UTC()); err == nil {
		t.Fatal("Analyze(nil) returned no error")
	}
}

func TestAtRiskWinsOverCannotLoseThem(t *testing.T) {
	svc := newRFMService(t)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Twelve paid sales totalling 600k with a 120-day-old last visit:
	// R=2, F=4, M=4. Both the At Risk and Cannot Lose Them rules match
	// this triple; the cascade resolves it to At Risk.
	customer := &retail.Customer{
		ID:         "cust-fading",
		LastVisit:  daysAgo(now, 120),
		FirstVisit: daysAgo(now, 700),
		Sales:      paidSales(now, 12, 50_000, 120),
	}

	analysis, err := svc.Analyze(customer, now)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if analysis.Code != "244" {
		t.Fatalf("code = %q, want \"244\"", analysis.Code)
	}
	if analysis.Segment != SegmentAtRisk {
		t.Errorf("segment = %q, want %q", analysis.Segment, SegmentAtRisk)
	}
}

func TestSegmentCascadeOrder(t *testing.T) {
	tests := []struct {
		r, f, m int
		want    string
	}{
		{5, 5, 5, SegmentChampions},
		{4, 4, 4, SegmentChampions},
		{3, 4, 3, SegmentLoyalCustomers},
		{4, 2, 2, SegmentPotentialLoyalists},
		{5, 1, 1, SegmentNewCustomers},
		{3, 1, 1, SegmentPromising},
		{3, 2, 2, SegmentNeedAttention},
		{2, 3, 2, SegmentAboutToSleep},
		{2, 4, 4, SegmentAtRisk},
		{1, 4, 4, SegmentAtRisk},
		{2, 2, 2, SegmentAboutToSleep},
		{1, 2, 2, SegmentHibernating},
		{1, 1, 1, SegmentLost},
		{3, 2, 1, SegmentRegular},
	}
	for _, tt := range tests {
		if got := classifySegment(tt.r, tt.f, tt.m); got != tt.want {
			t.Errorf("classifySegment(%d,%d,%d) = %q, want %q", tt.r, tt.f, tt.m, got, tt.want)
		}
	}
}

func TestRecencyQuintileBuckets(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		days int
		want int
	}{
		{10, 5},
		{30, 5},
		{31, 4},
		{60, 4},
		{61, 3},
		{90, 3},
		{91, 2},
		{180, 2},
		{181, 1},
	}
	for _, tt := range tests {
		customer := &retail.Customer{LastVisit: daysAgo(now, tt.days)}
		if got := recencyQuintile(customer, now); got != tt.want {
			t.Errorf("recencyQuintile(%d days) = %d, want %d", tt.days, got, tt.want)
		}
	}

	if got := recencyQuintile(&retail.Customer{}, now); got != 1 {
		t.Errorf("recencyQuintile(no visit) = %d, want 1", got)
	}
}

func TestFrequencyAndMonetaryQuintiles(t *testing.T) {
	freq := []struct {
		count int
		want  int
	}{
		{0, 1}, {1, 1}, {2, 2}, {4, 2}, {5, 3}, {9, 3}, {10, 4}, {19, 4}, {20, 5},
	}
	for _, tt := range freq {
		if got := frequencyQuintile(tt.count); got != tt.want {
			t.Errorf("frequencyQuintile(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}

	money := []struct {
		total float64
		want  int
	}{
		{0, 1}, {49_999, 1}, {50_000, 2}, {199_999, 2}, {200_000, 3},
		{499_999, 3}, {500_000, 4}, {999_999, 4}, {1_000_000, 5},
	}
	for _, tt := range money {
		if got := monetaryQuintile(tt.total); got != tt.want {
			t.Errorf("monetaryQuintile(%v) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestOnlyPaidSalesCount(t *testing.T) {
	svc := newRFMService(t)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	sales := paidSales(now, 6, 100_000, 10)
	for i := 3; i < 6; i++ {
		sales[i].PaymentStatus = retail.PaymentPending
	}
	customer := &retail.Customer{
		ID:        "cust-mixed",
		LastVisit: daysAgo(now, 10),
		Sales:     sales,
	}

	analysis, err := svc.Analyze(customer, now)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	// Three paid sales totalling 300k: F=2, M=3.
	if analysis.FrequencyScore != 2 {
		t.Errorf("frequency score = %d, want 2 (pending sales excluded)", analysis.FrequencyScore)
	}
	if analysis.MonetaryScore != 3 {
		t.Errorf("monetary score = %d, want 3 (pending sales excluded)", analysis.MonetaryScore)
	}
}

func TestWeakComponentRecommendations(t *testing.T) {
	svc := newRFMService(t)
	now := time.Now().UTC()

	analysis, err := svc.Analyze(&retail.Customer{ID: "cust-empty"}, now)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if !containsSubstring(analysis.Recommendations, "win-back") {
		t.Errorf("recommendations = %v, want a recency note", analysis.Recommendations)
	}
	if !containsSubstring(analysis.Recommendations, "frequency") {
		t.Errorf("recommendations = %v, want a frequency note", analysis.Recommendations)
	}
	if !containsSubstring(analysis.Recommendations, "upsell") {
		t.Errorf("recommendations = %v, want a monetary note", analysis.Recommendations)
	}
}
