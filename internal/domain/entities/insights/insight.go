// Package insights defines the generated findings the engine emits.
package insights

import "time"

// Priority orders insights in the generated feed.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Rank maps a priority to its sort order; lower sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Insight types emitted by the synthesizer.
const (
	TypeTopCustomer     = "top_customer"
	TypeChurnAlert      = "churn_alert"
	TypeChurnCritical   = "churn_critical"
	TypeSalesTrend      = "sales_trend"
	TypeForecastWarning = "forecast_warning"
	TypeSegmentAlert    = "segment_alert"
	TypeBestSeller      = "best_seller"
	TypeAverageCLV      = "average_clv"
	TypeRFMCohort       = "rfm_cohort"
)

// Insight is one generated finding. Insights are computation outputs;
// persistence is the caller's choice.
type Insight struct {
	ID              string         `json:"id"`
	OwnerID         string         `json:"ownerId"`
	Type            string         `json:"type"`
	Priority        Priority       `json:"priority"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Actionable      bool           `json:"actionable"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
	GeneratedAt     time.Time      `json:"generatedAt"`
}
