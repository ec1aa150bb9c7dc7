package retail

import (
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/persistence/database"
	"github.com/ShopmetricsHQ/shopmetrics-go/pkg/config"
)

// SQLSaleRepository is the SQL-based implementation of the SaleRepository.
type SQLSaleRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLSaleRepository creates a new instance of the repository.
func NewSQLSaleRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLSaleRepository {
	return &SQLSaleRepository{
		db:     db,
		logger: logger,
	}
}

// CompletedByOwnerSince returns an owner's PAID sales with a sale date at or
// after the given time, ordered by date ascending.
func (r *SQLSaleRepository) CompletedByOwnerSince(ownerID string, since time.Time) ([]retail.Sale, error) {
	const query = `
		SELECT id, customer_id, owner_id, total_amount, sale_date, payment_status
		FROM sales
		WHERE owner_id = ? AND payment_status = 'PAID' AND sale_date >= ?
		ORDER BY sale_date ASC`

	start := time.Now()
	r.logger.Database().Debug("Loading completed sales by owner", "ownerId", ownerID, "since", since)

	rows, err := r.db.Query(query, ownerID, since.UTC().Format(time.RFC3339))
	if err != nil {
		r.logger.Database().Error("Failed to load completed sales", "error", err.Error(), "ownerId", ownerID)
		return nil, err
	}
	defer rows.Close()

	sales, err := scanSales(rows)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Completed sales loaded", "ownerId", ownerID, "count", len(sales), "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "system")
	}
	return sales, nil
}
