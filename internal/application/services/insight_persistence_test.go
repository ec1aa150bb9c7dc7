package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/persistence/database"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
)

func newTestTenantContext(t *testing.T) *tenant.Context {
	t.Helper()

	db, err := database.NewConnection("sqlite3", filepath.Join(t.TempDir(), "tenant.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.NewTableCreator().CreateSchema(db.DB); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return &tenant.Context{
		TenantID: "test-tenant",
		Database: db,
		Logger:   newTestLogger(t),
	}
}

func seedOwner(t *testing.T, tenantCtx *tenant.Context, ownerID string) {
	t.Helper()
	now := time.Now().UTC()

	_, err := tenantCtx.Database.Exec(
		`INSERT INTO customers (id, owner_id, name, email, total_spent, total_visits,
		                        loyalty_score, first_visit, last_visit, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		"cust-1", ownerID, "Maria Lopez", "maria@example.com",
		900_000.0, 12, 0,
		now.AddDate(0, 0, -300).Format(time.RFC3339),
		now.AddDate(0, 0, -120).Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}

	for i, amount := range []float64{120_000, 95_000, 80_000} {
		_, err := tenantCtx.Database.Exec(
			`INSERT INTO sales (id, customer_id, owner_id, total_amount, sale_date, payment_status)
			 VALUES (?, ?, ?, ?, ?, 'PAID')`,
			"sale-"+string(rune('a'+i)), "cust-1", ownerID, amount,
			now.AddDate(0, -i, -5).Format(time.RFC3339),
		)
		if err != nil {
			t.Fatalf("failed to seed sale: %v", err)
		}
	}
}

func countInsightRows(t *testing.T, tenantCtx *tenant.Context) int {
	t.Helper()
	var n int
	if err := tenantCtx.Database.QueryRow(`SELECT COUNT(*) FROM insights`).Scan(&n); err != nil {
		t.Fatalf("failed to count insights: %v", err)
	}
	return n
}

func TestGenerateDoesNotPersist(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	seedOwner(t, tenantCtx, "owner-1")
	svc := newInsightService(t)

	feed, err := svc.Generate(tenantCtx, "owner-1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(feed) == 0 {
		t.Fatal("expected a non-empty feed from the seeded owner")
	}

	if n := countInsightRows(t, tenantCtx); n != 0 {
		t.Errorf("insights table has %d rows after Generate, want 0", n)
	}
}

func TestGenerateAndSavePersistsFeed(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	seedOwner(t, tenantCtx, "owner-1")
	svc := newInsightService(t)

	feed, err := svc.GenerateAndSave(tenantCtx, "owner-1")
	if err != nil {
		t.Fatalf("GenerateAndSave returned error: %v", err)
	}
	if len(feed) == 0 {
		t.Fatal("expected a non-empty feed from the seeded owner")
	}

	if n := countInsightRows(t, tenantCtx); n != len(feed) {
		t.Errorf("insights table has %d rows, want %d", n, len(feed))
	}

	recent, err := svc.Recent(tenantCtx, "owner-1", 50)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(recent) != len(feed) {
		t.Errorf("Recent returned %d insights, want %d", len(recent), len(feed))
	}
}
