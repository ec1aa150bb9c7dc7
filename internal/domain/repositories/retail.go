// Package repositories defines the persistence contracts the intelligence
// engine requires from its collaborator store. Implementations live in the
// infrastructure layer; a missing entity is returned as (nil, nil).
package repositories

import (
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/insights"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
)

// CustomerRepository loads customer snapshots and writes back computed
// loyalty scores.
type CustomerRepository interface {
	// FindByID returns the customer with sales ordered by date descending,
	// or (nil, nil) when the customer does not exist.
	FindByID(id string) (*retail.Customer, error)

	// FindByOwner returns all customers for an owner, each with their sales.
	FindByOwner(ownerID string) ([]*retail.Customer, error)

	// ListOwnerIDs returns the distinct owner IDs present in the store.
	ListOwnerIDs() ([]string, error)

	// UpdateLoyaltyScore persists a freshly computed loyalty score.
	UpdateLoyaltyScore(customerID string, score int) error
}

// SaleRepository loads completed sales for revenue analysis.
type SaleRepository interface {
	// CompletedByOwnerSince returns an owner's PAID sales with a sale date
	// at or after the given time, ordered by date ascending.
	CompletedByOwnerSince(ownerID string, since time.Time) ([]retail.Sale, error)
}

// InsightRepository persists generated insights.
type InsightRepository interface {
	Store(insight *insights.Insight) error
	FindRecentByOwner(ownerID string, limit int) ([]*insights.Insight, error)
}
