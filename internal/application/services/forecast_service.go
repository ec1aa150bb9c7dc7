package services

import (
	"fmt"
	"math"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/analytics"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
	"github.com/ShopmetricsHQ/shopmetrics-go/pkg/config"
)

// ConfidenceLevel grades how trustworthy a forecast month is.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// smoothingAlpha is the exponential smoothing weight for the newest sample.
const smoothingAlpha = 0.3

// MonthlyRevenue is one bucket of the historical revenue series.
type MonthlyRevenue struct {
	Month   string  `json:"month"` // "2026-01"
	Revenue float64 `json:"revenue"`
}

// ForecastRecord is the projection for one future month.
type ForecastRecord struct {
	Month      string          `json:"month"`
	Forecast   float64         `json:"forecast"`
	LowerBound float64         `json:"lowerBound"`
	UpperBound float64         `json:"upperBound"`
	Confidence ConfidenceLevel `json:"confidence"`
	Factors    []string        `json:"factors"`
}

// ForecastService projects monthly revenue with a weighted ensemble of
// smoothing, regression, and averaging signals plus seasonal adjustment.
type ForecastService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewForecastService creates the revenue forecaster.
func NewForecastService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *ForecastService {
	return &ForecastService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// ForecastOwner fetches an owner's completed sales and forecasts revenue.
// Zero or negative arguments fall back to the configured defaults.
func (s *ForecastService) ForecastOwner(tenantCtx *tenant.Context, ownerID string, monthsAhead, historicalMonths int) ([]ForecastRecord, error) {
	start := time.Now()
	marker := s.perfTracker.StartOperation("forecast_owner", tenantCtx.TenantID)
	defer marker.Complete()

	if monthsAhead <= 0 {
		monthsAhead = config.DefaultForecastMonths
	}
	if monthsAhead > config.MaxForecastMonths {
		monthsAhead = config.MaxForecastMonths
	}
	if historicalMonths <= 0 {
		historicalMonths = config.DefaultHistoricalMonths
	}

	now := time.Now().UTC()
	since := now.AddDate(0, -historicalMonths, 0)
	sales, err := tenantCtx.SaleRepo().CompletedByOwnerSince(ownerID, since)
	if err != nil {
		marker.SetSuccess(false)
		return nil, err
	}

	history := BuildMonthlySeries(sales, now, historicalMonths)
	records := s.Forecast(history, monthsAhead, now)

	s.logger.Forecast().Info("Revenue forecast generated",
		"tenantId", tenantCtx.TenantID, "ownerId", ownerID,
		"historicalMonths", historicalMonths, "monthsAhead", monthsAhead,
		"sales", len(sales), "duration", time.Since(start))
	return records, nil
}

// BuildMonthlySeries buckets completed sales into calendar-month revenue
// totals over the trailing window, oldest first. Months with no sales are
// explicit zeros.
func BuildMonthlySeries(sales []retail.Sale, now time.Time, historicalMonths int) []MonthlyRevenue {
	series := make([]MonthlyRevenue, historicalMonths)
	index := make(map[string]int, historicalMonths)
	for i := 0; i < historicalMonths; i++ {
		month := now.AddDate(0, -(historicalMonths - 1 - i), 0)
		key := month.Format("2006-01")
		series[i] = MonthlyRevenue{Month: key}
		index[key] = i
	}
	for _, sale := range sales {
		if i, ok := index[sale.SaleDate.Format("2006-01")]; ok {
			series[i].Revenue += sale.TotalAmount
		}
	}
	return series
}

// Forecast projects monthsAhead future months from the historical series.
// Pure over its inputs.
func (s *ForecastService) Forecast(history []MonthlyRevenue, monthsAhead int, now time.Time) []ForecastRecord {
	values := make([]float64, len(history))
	total := 0.0
	for i, m := range history {
		values[i] = m.Revenue
		total += m.Revenue
	}

	if len(values) == 0 || total == 0 {
		return emptyHistoryForecast(monthsAhead, now)
	}

	shortTermAvg := analytics.MovingAverage(tail(values, 3))
	longTermAvg := analytics.MovingAverage(values)
	trendSlope, _ := analytics.LinearRegression(tail(values, 6))
	smoothed := analytics.ExponentialSmoothing(values, smoothingAlpha)
	regressionForecast := analytics.LinearForecast(values)

	stddev := analytics.StdDev(values)
	cv := 0.0
	if longTermAvg > 0 {
		cv = stddev / longTermAvg
	}
	seasonal := seasonalFactors(history, longTermAvg)

	records := make([]ForecastRecord, 0, monthsAhead)
	for i := 1; i <= monthsAhead; i++ {
		futureMonth := now.AddDate(0, i, 0)
		record := ForecastRecord{Month: futureMonth.Format("2006-01")}

		forecast := 0.30*smoothed +
			0.25*(regressionForecast+trendSlope*float64(i)) +
			0.25*shortTermAvg +
			0.20*longTermAvg

		if factor, ok := seasonal[int(futureMonth.Month())]; ok {
			forecast *= factor
			record.Factors = append(record.Factors,
				fmt.Sprintf("Seasonal adjustment of %+.0f%% for %s", (factor-1)*100, futureMonth.Month()))
		}

		decay := math.Max(0.5, 1-float64(i)*0.1)
		forecast *= 1 + trendSlope*decay*0.01

		if forecast < 0 {
			forecast = 0
		}

		record.Confidence = confidenceFor(cv, i)
		margin := (1.5 + float64(i)*0.2) * stddev
		record.Forecast = math.Round(forecast)
		record.LowerBound = math.Round(math.Max(0, forecast-margin))
		record.UpperBound = math.Round(forecast + margin)
		record.Factors = append(record.Factors, describeSignals(trendSlope, shortTermAvg, longTermAvg, i, record.Confidence)...)

		records = append(records, record)
	}
	return records
}

// emptyHistoryForecast degrades gracefully when there is nothing to learn
// from: all-zero projections at LOW confidence.
func emptyHistoryForecast(monthsAhead int, now time.Time) []ForecastRecord {
	records := make([]ForecastRecord, 0, monthsAhead)
	for i := 1; i <= monthsAhead; i++ {
		records = append(records, ForecastRecord{
			Month:      now.AddDate(0, i, 0).Format("2006-01"),
			Confidence: ConfidenceLow,
			Factors:    []string{"Insufficient historical data"},
		})
	}
	return records
}

// seasonalFactors derives per-calendar-month multipliers from the history.
// A month only gets a factor when it has at least two samples and deviates
// more than 10% from the overall average.
func seasonalFactors(history []MonthlyRevenue, overallAvg float64) map[int]float64 {
	if overallAvg <= 0 {
		return nil
	}
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, m := range history {
		parsed, err := time.Parse("2006-01", m.Month)
		if err != nil {
			continue
		}
		month := int(parsed.Month())
		sums[month] += m.Revenue
		counts[month]++
	}

	factors := make(map[int]float64)
	for month, count := range counts {
		if count < 2 {
			continue
		}
		factor := (sums[month] / float64(count)) / overallAvg
		if math.Abs(factor-1) > 0.10 {
			factors[month] = factor
		}
	}
	return factors
}

func confidenceFor(cv float64, monthsOut int) ConfidenceLevel {
	adjusted := cv + float64(monthsOut)*0.05
	switch {
	case adjusted < 0.2 && monthsOut <= 3:
		return ConfidenceHigh
	case adjusted < 0.4 && monthsOut <= 6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func describeSignals(trend, shortTermAvg, longTermAvg float64, monthsOut int, confidence ConfidenceLevel) []string {
	var factors []string

	switch {
	case trend > 0:
		factors = append(factors, "Upward revenue trend")
	case trend < 0:
		factors = append(factors, "Downward revenue trend")
	default:
		factors = append(factors, "Flat revenue trend")
	}

	if longTermAvg > 0 {
		deviation := (shortTermAvg - longTermAvg) / longTermAvg
		if deviation > 0.1 {
			factors = append(factors, "Recent months running above the historical average")
		} else if deviation < -0.1 {
			factors = append(factors, "Recent months running below the historical average")
		}
	}

	if confidence == ConfidenceLow && monthsOut > 6 {
		factors = append(factors, "Long horizon reduces forecast reliability")
	}
	return factors
}

// tail returns the last n values of the series.
func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
