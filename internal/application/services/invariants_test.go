package services

import (
	"testing"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property-based checks of the range invariants every scorer must hold
// for arbitrary customer histories.

func genCustomer(now time.Time) gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(0, 5_000_000),
		gen.IntRange(0, 200),
		gen.IntRange(0, 1000), // first visit days ago, 0 means never
		gen.IntRange(0, 1000), // last visit days ago
		gen.IntRange(0, 30),   // sale count
		gen.Float64Range(100, 300_000),
		gen.IntRange(0, 4), // payment status selector
	).Map(func(vals []interface{}) *retail.Customer {
		totalSpent := vals[0].(float64)
		visits := vals[1].(int)
		firstDays := vals[2].(int)
		lastDays := vals[3].(int)
		saleCount := vals[4].(int)
		amount := vals[5].(float64)
		statusIdx := vals[6].(int)

		customer := &retail.Customer{
			ID:          "cust-gen",
			TotalSpent:  totalSpent,
			TotalVisits: visits,
		}
		if firstDays > 0 {
			customer.FirstVisit = daysAgo(now, firstDays)
			if lastDays <= firstDays {
				customer.LastVisit = daysAgo(now, lastDays)
			}
		}

		statuses := []retail.PaymentStatus{
			retail.PaymentPaid, retail.PaymentPending, retail.PaymentPartial,
			retail.PaymentOverdue, retail.PaymentRefunded,
		}
		for i := 0; i < saleCount; i++ {
			customer.Sales = append(customer.Sales, retail.Sale{
				TotalAmount:   amount,
				SaleDate:      now.AddDate(0, 0, -(i*11)%400),
				PaymentStatus: statuses[(statusIdx+i)%len(statuses)],
			})
		}
		return customer
	})
}

func TestScorerRangeInvariants(t *testing.T) {
	logger := newTestLogger(t)
	tracker := newTestTracker()
	rfm := NewRFMService(logger, tracker)
	loyalty := NewLoyaltyService(logger, tracker, rfm)
	churn := NewChurnService(logger, tracker)
	clv := NewCLVService(logger, tracker)

	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("loyalty score stays in [0,100]", prop.ForAll(
		func(customer *retail.Customer) bool {
			score := loyalty.ComputeEnhancedScore(customer, now).Score
			return score >= 0 && score <= 100
		},
		genCustomer(now),
	))

	properties.Property("churn risk score stays in [0,100]", prop.ForAll(
		func(customer *retail.Customer) bool {
			score := churn.Assess(customer, now).RiskScore
			return score >= 0 && score <= 100
		},
		genCustomer(now),
	))

	properties.Property("rfm component scores stay in {1..5}", prop.ForAll(
		func(customer *retail.Customer) bool {
			analysis, err := rfm.Analyze(customer, now)
			if err != nil {
				return false
			}
			inRange := func(v int) bool { return v >= 1 && v <= 5 }
			return inRange(analysis.RecencyScore) && inRange(analysis.FrequencyScore) && inRange(analysis.MonetaryScore)
		},
		genCustomer(now),
	))

	properties.Property("clv never goes negative", prop.ForAll(
		func(customer *retail.Customer) bool {
			return clv.Estimate(customer, 50_000, now).CLV >= 0
		},
		genCustomer(now),
	))

	properties.Property("scoring is idempotent", prop.ForAll(
		func(customer *retail.Customer) bool {
			return loyalty.ComputeScore(customer, now) == loyalty.ComputeScore(customer, now)
		},
		genCustomer(now),
	))

	properties.Property("spend sub-score is monotone in total spent", prop.ForAll(
		func(customer *retail.Customer, extra float64) bool {
			before := loyalty.ComputeScore(customer, now).SpendScore
			richer := *customer
			richer.TotalSpent += extra
			after := loyalty.ComputeScore(&richer, now).SpendScore
			return after >= before
		},
		genCustomer(now),
		gen.Float64Range(0, 1_000_000),
	))

	properties.TestingRun(t)
}

func TestForecastLowerBoundInvariant(t *testing.T) {
	forecast := NewForecastService(newTestLogger(t), newTestTracker())
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genHistory := gen.SliceOfN(12, gen.Float64Range(0, 2_000_000)).Map(func(values []float64) []MonthlyRevenue {
		history := make([]MonthlyRevenue, len(values))
		for i, v := range values {
			month := now.AddDate(0, -(len(values) - 1 - i), 0)
			history[i] = MonthlyRevenue{Month: month.Format("2006-01"), Revenue: v}
		}
		return history
	})

	properties.Property("forecast lower bounds never go negative", prop.ForAll(
		func(history []MonthlyRevenue) bool {
			for _, record := range forecast.Forecast(history, 6, now) {
				if record.LowerBound < 0 {
					return false
				}
			}
			return true
		},
		genHistory,
	))

	properties.TestingRun(t)
}
