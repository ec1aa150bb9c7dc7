// Package tenant provides shop-level context management. Each tenant is one
// shop with its own database; owner scoping within a shop stays in the data.
package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds one tenant's connection settings.
type Config struct {
	TenantID string `json:"tenantId"`
	Status   string `json:"status"`
	DBDriver string `json:"dbDriver"`
	DBDsn    string `json:"dbDsn"`
}

// Registry is the on-disk index of known tenants.
type Registry struct {
	Tenants map[string]*Config `json:"tenants"`
}

// registryPath resolves the tenant registry location.
func registryPath() string {
	home := os.Getenv("SHOPMETRICS_HOME")
	if home == "" {
		home = "data"
	}
	return filepath.Join(home, "tenants.json")
}

// LoadRegistry reads the tenant registry from disk. A missing registry is
// returned as an empty one, not an error.
func LoadRegistry() (*Registry, error) {
	path := registryPath()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Registry{Tenants: make(map[string]*Config)}, nil
		}
		return nil, fmt.Errorf("failed to read tenant registry %s: %w", path, err)
	}

	var registry Registry
	if err := json.Unmarshal(raw, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse tenant registry %s: %w", path, err)
	}
	if registry.Tenants == nil {
		registry.Tenants = make(map[string]*Config)
	}
	return &registry, nil
}

// SaveRegistry writes the tenant registry to disk.
func SaveRegistry(registry *Registry) error {
	path := registryPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

// RegisterTenant adds a tenant with default sqlite settings.
func RegisterTenant(tenantID string) error {
	registry, err := LoadRegistry()
	if err != nil {
		return err
	}
	if _, exists := registry.Tenants[tenantID]; exists {
		return nil
	}

	home := os.Getenv("SHOPMETRICS_HOME")
	if home == "" {
		home = "data"
	}
	registry.Tenants[tenantID] = &Config{
		TenantID: tenantID,
		Status:   "active",
		DBDriver: "sqlite3",
		DBDsn:    filepath.Join(home, tenantID+".db"),
	}
	return SaveRegistry(registry)
}
