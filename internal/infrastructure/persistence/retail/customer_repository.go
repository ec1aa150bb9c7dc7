// Package retail provides the concrete SQL-based implementations of the
// retail domain repositories (Customer, Sale, Insight).
package retail

import (
	"database/sql"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/entities/retail"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/persistence/database"
	"github.com/ShopmetricsHQ/shopmetrics-go/pkg/config"
)

// SQLCustomerRepository is the SQL-based implementation of the CustomerRepository.
type SQLCustomerRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLCustomerRepository creates a new instance of the repository.
func NewSQLCustomerRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLCustomerRepository {
	return &SQLCustomerRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID retrieves a customer with their sales ordered by date descending.
// Returns (nil, nil) when the customer does not exist.
func (r *SQLCustomerRepository) FindByID(id string) (*retail.Customer, error) {
	const query = `
		SELECT id, owner_id, name, email, total_spent, total_visits,
		       loyalty_score, first_visit, last_visit
		FROM customers
		WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading customer by ID", "id", id)

	row := r.db.QueryRow(query, id)
	customer, err := r.scanCustomer(row)
	if err != nil {
		r.logger.Database().Error("Failed to load customer by ID", "error", err.Error(), "id", id)
		return nil, err
	}
	if customer == nil {
		r.logger.Database().Debug("Customer not found by ID", "id", id)
		return nil, nil
	}

	sales, err := r.loadSalesForCustomer(customer.ID)
	if err != nil {
		r.logger.Database().Error("Failed to load sales for customer", "error", err.Error(), "id", id)
		return nil, err
	}
	customer.Sales = sales

	duration := time.Since(start)
	r.logger.Database().Info("Customer loaded by ID", "id", id, "saleCount", len(sales), "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "system")
	}
	return customer, nil
}

// FindByOwner retrieves all customers for an owner, each with their sales.
func (r *SQLCustomerRepository) FindByOwner(ownerID string) ([]*retail.Customer, error) {
	const query = `
		SELECT id, owner_id, name, email, total_spent, total_visits,
		       loyalty_score, first_visit, last_visit
		FROM customers
		WHERE owner_id = ?
		ORDER BY total_spent DESC`

	start := time.Now()
	r.logger.Database().Debug("Loading customers by owner", "ownerId", ownerID)

	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		r.logger.Database().Error("Failed to load customers by owner", "error", err.Error(), "ownerId", ownerID)
		return nil, err
	}
	defer rows.Close()

	var customers []*retail.Customer
	for rows.Next() {
		customer, err := r.scanCustomerRows(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	salesByCustomer, err := r.loadSalesForOwner(ownerID)
	if err != nil {
		r.logger.Database().Error("Failed to load sales for owner", "error", err.Error(), "ownerId", ownerID)
		return nil, err
	}
	for _, customer := range customers {
		customer.Sales = salesByCustomer[customer.ID]
	}

	duration := time.Since(start)
	r.logger.Database().Info("Customers loaded by owner", "ownerId", ownerID, "count", len(customers), "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "system")
	}
	return customers, nil
}

// ListOwnerIDs returns the distinct owner IDs present in the store.
func (r *SQLCustomerRepository) ListOwnerIDs() ([]string, error) {
	const query = `SELECT DISTINCT owner_id FROM customers ORDER BY owner_id`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Database().Error("Failed to list owner IDs", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	var ownerIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ownerIDs = append(ownerIDs, id)
	}
	return ownerIDs, rows.Err()
}

// UpdateLoyaltyScore persists a freshly computed loyalty score.
func (r *SQLCustomerRepository) UpdateLoyaltyScore(customerID string, score int) error {
	const query = `UPDATE customers SET loyalty_score = ? WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Updating loyalty score", "id", customerID, "score", score)

	_, err := r.db.Exec(query, score, customerID)
	if err != nil {
		r.logger.Database().Error("Loyalty score update failed", "error", err.Error(), "id", customerID)
		return err
	}

	r.logger.Database().Info("Loyalty score updated", "id", customerID, "score", score, "duration", time.Since(start))
	return nil
}

// loadSalesForCustomer returns one customer's sales ordered by date descending.
func (r *SQLCustomerRepository) loadSalesForCustomer(customerID string) ([]retail.Sale, error) {
	const query = `
		SELECT id, customer_id, owner_id, total_amount, sale_date, payment_status
		FROM sales
		WHERE customer_id = ?
		ORDER BY sale_date DESC`

	rows, err := r.db.Query(query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales, err := scanSales(rows)
	if err != nil {
		return nil, err
	}
	return r.attachItems(sales)
}

// loadSalesForOwner returns all of an owner's sales grouped by customer,
// each customer's list ordered by date descending.
func (r *SQLCustomerRepository) loadSalesForOwner(ownerID string) (map[string][]retail.Sale, error) {
	const query = `
		SELECT id, customer_id, owner_id, total_amount, sale_date, payment_status
		FROM sales
		WHERE owner_id = ?
		ORDER BY customer_id, sale_date DESC`

	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales, err := scanSales(rows)
	if err != nil {
		return nil, err
	}
	sales, err = r.attachItems(sales)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]retail.Sale)
	for _, sale := range sales {
		grouped[sale.CustomerID] = append(grouped[sale.CustomerID], sale)
	}
	return grouped, nil
}

// attachItems loads line items for the given sales in a single query.
func (r *SQLCustomerRepository) attachItems(sales []retail.Sale) ([]retail.Sale, error) {
	if len(sales) == 0 {
		return sales, nil
	}

	index := make(map[string]int, len(sales))
	placeholders := ""
	args := make([]any, 0, len(sales))
	for i, sale := range sales {
		index[sale.ID] = i
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, sale.ID)
	}

	query := `SELECT sale_id, product_name, quantity, total_price FROM sale_items WHERE sale_id IN (` + placeholders + `)`
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var saleID string
		var item retail.SaleItem
		if err := rows.Scan(&saleID, &item.ProductName, &item.Quantity, &item.TotalPrice); err != nil {
			return nil, err
		}
		if i, ok := index[saleID]; ok {
			sales[i].Items = append(sales[i].Items, item)
		}
	}
	return sales, rows.Err()
}

func (r *SQLCustomerRepository) scanCustomer(row *sql.Row) (*retail.Customer, error) {
	var customer retail.Customer
	var email sql.NullString
	var firstVisit, lastVisit sql.NullString

	err := row.Scan(
		&customer.ID,
		&customer.OwnerID,
		&customer.Name,
		&email,
		&customer.TotalSpent,
		&customer.TotalVisits,
		&customer.LoyaltyScore,
		&firstVisit,
		&lastVisit,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	applyCustomerNullables(&customer, email, firstVisit, lastVisit)
	return &customer, nil
}

func (r *SQLCustomerRepository) scanCustomerRows(rows *sql.Rows) (*retail.Customer, error) {
	var customer retail.Customer
	var email sql.NullString
	var firstVisit, lastVisit sql.NullString

	err := rows.Scan(
		&customer.ID,
		&customer.OwnerID,
		&customer.Name,
		&email,
		&customer.TotalSpent,
		&customer.TotalVisits,
		&customer.LoyaltyScore,
		&firstVisit,
		&lastVisit,
	)
	if err != nil {
		return nil, err
	}

	applyCustomerNullables(&customer, email, firstVisit, lastVisit)
	return &customer, nil
}

func applyCustomerNullables(customer *retail.Customer, email, firstVisit, lastVisit sql.NullString) {
	if email.Valid {
		customer.Email = email.String
	}
	if firstVisit.Valid {
		if t, err := parseTimestamp(firstVisit.String); err == nil {
			customer.FirstVisit = &t
		}
	}
	if lastVisit.Valid {
		if t, err := parseTimestamp(lastVisit.String); err == nil {
			customer.LastVisit = &t
		}
	}
}

func scanSales(rows *sql.Rows) ([]retail.Sale, error) {
	var sales []retail.Sale
	for rows.Next() {
		var sale retail.Sale
		var saleDateStr, status string
		if err := rows.Scan(&sale.ID, &sale.CustomerID, &sale.OwnerID, &sale.TotalAmount, &saleDateStr, &status); err != nil {
			return nil, err
		}
		saleDate, err := parseTimestamp(saleDateStr)
		if err != nil {
			return nil, err
		}
		sale.SaleDate = saleDate
		sale.PaymentStatus = retail.PaymentStatus(status)
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// parseTimestamp accepts RFC3339 and the legacy space-separated format.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t.UTC(), nil
}
