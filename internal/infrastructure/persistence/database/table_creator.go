package database

import (
	"database/sql"
	"fmt"
)

// TableCreator handles the creation of the database schema for a new shop.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		total_spent REAL NOT NULL DEFAULT 0,
		total_visits INTEGER NOT NULL DEFAULT 0,
		loyalty_score INTEGER NOT NULL DEFAULT 0,
		first_visit TEXT,
		last_visit TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		total_amount REAL NOT NULL DEFAULT 0,
		sale_date TEXT NOT NULL,
		payment_status TEXT NOT NULL DEFAULT 'PAID',
		FOREIGN KEY (customer_id) REFERENCES customers(id)
	)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		total_price REAL NOT NULL DEFAULT 0,
		FOREIGN KEY (sale_id) REFERENCES sales(id)
	)`,
	`CREATE TABLE IF NOT EXISTS insights (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		type TEXT NOT NULL,
		priority TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		actionable INTEGER NOT NULL DEFAULT 0,
		recommendations TEXT,
		data TEXT,
		generated_at TEXT NOT NULL
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_customers_owner ON customers(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_owner_date ON sales(owner_id, sale_date)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id)`,
	`CREATE INDEX IF NOT EXISTS idx_insights_owner ON insights(owner_id, generated_at)`,
}

// CreateSchema executes all necessary queries to build the shop's tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}
