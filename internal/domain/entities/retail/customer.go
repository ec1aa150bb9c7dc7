// Package retail holds the read views of customers and sales the
// intelligence engine consumes. Persistence owns the authoritative records.
package retail

import "time"

// Customer is a snapshot of one customer with their sales history
// (ordered by sale date descending when loaded through the repository).
type Customer struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"ownerId"`
	Name         string     `json:"name"`
	Email        string     `json:"email,omitempty"`
	TotalSpent   float64    `json:"totalSpent"`
	TotalVisits  int        `json:"totalVisits"`
	LoyaltyScore int        `json:"loyaltyScore"`
	FirstVisit   *time.Time `json:"firstVisit,omitempty"`
	LastVisit    *time.Time `json:"lastVisit,omitempty"`
	Sales        []Sale     `json:"sales,omitempty"`
}

// DaysSinceFirstVisit returns whole days since the first visit, never
// less than 1 so rate computations stay defined. Returns 0 when the
// customer has never visited.
func (c *Customer) DaysSinceFirstVisit(now time.Time) int {
	if c.FirstVisit == nil {
		return 0
	}
	days := int(now.Sub(*c.FirstVisit).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// DaysSinceLastVisit returns whole days since the last visit and whether
// a last visit exists.
func (c *Customer) DaysSinceLastVisit(now time.Time) (int, bool) {
	if c.LastVisit == nil {
		return 0, false
	}
	days := int(now.Sub(*c.LastVisit).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, true
}

// CompletedSales returns the subset of sales that settled as PAID.
func (c *Customer) CompletedSales() []Sale {
	var out []Sale
	for _, s := range c.Sales {
		if s.IsCompleted() {
			out = append(out, s)
		}
	}
	return out
}

// PaymentIssueCount counts sales that are overdue or still pending.
func (c *Customer) PaymentIssueCount() int {
	count := 0
	for _, s := range c.Sales {
		if s.HasPaymentIssue() {
			count++
		}
	}
	return count
}
