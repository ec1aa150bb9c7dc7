package tenant

import (
	"testing"
)

func TestLoadRegistryMissingFile(t *testing.T) {
	t.Setenv("SHOPMETRICS_HOME", t.TempDir())

	registry, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if len(registry.Tenants) != 0 {
		t.Errorf("tenants = %d, want an empty registry", len(registry.Tenants))
	}
}

func TestRegisterTenantRoundTrip(t *testing.T) {
	t.Setenv("SHOPMETRICS_HOME", t.TempDir())

	if err := RegisterTenant("shop-a"); err != nil {
		t.Fatalf("RegisterTenant returned error: %v", err)
	}
	// Registering twice is a no-op, not an error.
	if err := RegisterTenant("shop-a"); err != nil {
		t.Fatalf("second RegisterTenant returned error: %v", err)
	}

	registry, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}

	cfg, exists := registry.Tenants["shop-a"]
	if !exists {
		t.Fatal("registered tenant missing from reloaded registry")
	}
	if cfg.Status != "active" {
		t.Errorf("status = %q, want active", cfg.Status)
	}
	if cfg.DBDriver != "sqlite3" {
		t.Errorf("driver = %q, want sqlite3", cfg.DBDriver)
	}
}
