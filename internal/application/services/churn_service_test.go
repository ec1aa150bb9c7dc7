package services

import (
	"strings"
	"testing"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
)

func newChurnService(t *testing.T) *ChurnService {
	t.Helper()
	return NewChurnService(newTestLogger(t), newTestTracker())
}

func TestAssessCriticalAfterLongAbsence(t *testing.T) {
	svc := newChurnService(t)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Ten lifetime visits, none in the last 200 days: maximum recency risk
	// plus a full frequency-decline contribution.
	customer := &retail.Customer{
		ID:          "cust-gone",
		Name:        "Ghost",
		TotalVisits: 10,
		FirstVisit:  daysAgo(now, 400),
		LastVisit:   daysAgo(now, 200),
	}

	analysis := svc.Assess(customer, now)

	if analysis.RiskScore != 70 {
		t.Errorf("risk score = %d, want 70 (40 recency + 30 frequency decline)", analysis.RiskScore)
	}
	if analysis.RiskLevel != RiskCritical {
		t.Errorf("risk level = %s, want CRITICAL", analysis.RiskLevel)
	}
	if !containsSubstring(analysis.Factors, "Last visit 200 days ago") {
		t.Errorf("factors = %v, want a 200-days-ago recency factor", analysis.Factors)
	}

	if analysis.PredictedChurnDate == nil {
		t.Fatal("predicted churn date missing for CRITICAL customer")
	}
	want := now.AddDate(0, 0, 230)
	if !analysis.PredictedChurnDate.Equal(want) {
		t.Errorf("predicted churn date = %v, want %v (now + 230 days)", analysis.PredictedChurnDate, want)
	}
}

func TestAssessEmptyHistory(t *testing.T) {
	svc := newChurnService(t)
	now := time.Now().UTC()

	analysis := svc.Assess(&retail.Customer{ID: "cust-empty"}, now)

	if analysis.RiskScore != 40 {
		t.Errorf("risk score = %d, want 40 (no-visits contribution only)", analysis.RiskScore)
	}
	if analysis.RiskLevel != RiskMedium {
		t.Errorf("risk level = %s, want MEDIUM", analysis.RiskLevel)
	}
	if !containsSubstring(analysis.Factors, "No recorded visits") {
		t.Errorf("factors = %v, want a no-recorded-visits factor", analysis.Factors)
	}
	if analysis.PredictedChurnDate != nil {
		t.Errorf("predicted churn date = %v, want nil for MEDIUM", analysis.PredictedChurnDate)
	}
}

func TestAssessHealthyCustomer(t *testing.T) {
	svc := newChurnService(t)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Weekly visits, steady spend, everything settled.
	customer := &retail.Customer{
		ID:          "cust-fine",
		TotalVisits: 12,
		FirstVisit:  daysAgo(now, 90),
		LastVisit:   daysAgo(now, 5),
		Sales:       paidSales(now, 12, 25_000, 5),
	}

	analysis := svc.Assess(customer, now)

	if analysis.RiskLevel != RiskLow {
		t.Errorf("risk level = %s (score %d), want LOW", analysis.RiskLevel, analysis.RiskScore)
	}
	if !containsSubstring(analysis.Factors, "No significant churn indicators") {
		t.Errorf("factors = %v, want the no-indicators placeholder", analysis.Factors)
	}
}

func TestPaymentIssuesAddCappedRisk(t *testing.T) {
	svc := newChurnService(t)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	base := &retail.Customer{
		ID:          "cust-paid",
		TotalVisits: 12,
		FirstVisit:  daysAgo(now, 90),
		LastVisit:   daysAgo(now, 5),
		Sales:       paidSales(now, 12, 25_000, 5),
	}
	flagged := &retail.Customer{
		ID:          "cust-owing",
		TotalVisits: 12,
		FirstVisit:  daysAgo(now, 90),
		LastVisit:   daysAgo(now, 5),
		Sales:       paidSales(now, 12, 25_000, 5),
	}
	for i := 0; i < 3; i++ {
		flagged.Sales[i].PaymentStatus = retail.PaymentOverdue
	}

	diff := svc.Assess(flagged, now).RiskScore - svc.Assess(base, now).RiskScore
	if diff != 6 {
		t.Errorf("3 overdue sales added %d risk points, want 6", diff)
	}

	// Eight issues would be 16 points uncapped; the contribution caps at 10.
	for i := 0; i < 8; i++ {
		flagged.Sales[i].PaymentStatus = retail.PaymentOverdue
	}
	diff = svc.Assess(flagged, now).RiskScore - svc.Assess(base, now).RiskScore
	if diff != 10 {
		t.Errorf("8 overdue sales added %d risk points, want 10 (capped)", diff)
	}
}

func TestRiskLevelThresholds(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow},
		{29, RiskLow},
		{30, RiskMedium},
		{49, RiskMedium},
		{50, RiskHigh},
		{69, RiskHigh},
		{70, RiskCritical},
		{100, RiskCritical},
	}
	for _, tt := range tests {
		if got := riskLevelFor(tt.score); got != tt.want {
			t.Errorf("riskLevelFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func containsSubstring(items []string, substr string) bool {
	for _, item := range items {
		if strings.Contains(item, substr) {
			return true
		}
	}
	return false
}
