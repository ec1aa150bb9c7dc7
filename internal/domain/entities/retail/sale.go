package retail

import "time"

// PaymentStatus is the settlement state of a sale.
type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "PAID"
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPartial  PaymentStatus = "PARTIAL"
	PaymentOverdue  PaymentStatus = "OVERDUE"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// SaleItem is one line of a sale.
type SaleItem struct {
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	TotalPrice  float64 `json:"totalPrice"`
}

// Sale is a read view of one transaction. The engine never mutates sales.
type Sale struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customerId"`
	OwnerID       string        `json:"ownerId"`
	TotalAmount   float64       `json:"totalAmount"`
	SaleDate      time.Time     `json:"saleDate"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Items         []SaleItem    `json:"items,omitempty"`
}

// IsCompleted reports whether the sale counts toward revenue and
// frequency/monetary analysis.
func (s *Sale) IsCompleted() bool {
	return s.PaymentStatus == PaymentPaid
}

// HasPaymentIssue reports whether the sale is unsettled.
func (s *Sale) HasPaymentIssue() bool {
	return s.PaymentStatus == PaymentOverdue || s.PaymentStatus == PaymentPending
}
