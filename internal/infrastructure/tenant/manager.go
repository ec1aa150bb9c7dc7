package tenant

import (
	"fmt"
	"sync"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/persistence/database"
)

// Manager owns the tenant registry and the pool of open tenant databases.
type Manager struct {
	logger    *logging.ChanneledLogger
	registry  *Registry
	databases map[string]*database.DB
	mu        sync.RWMutex
}

// NewManager creates a tenant manager over the on-disk registry.
func NewManager(logger *logging.ChanneledLogger) (*Manager, error) {
	registry, err := LoadRegistry()
	if err != nil {
		return nil, err
	}

	return &Manager{
		logger:    logger,
		registry:  registry,
		databases: make(map[string]*database.DB),
	}, nil
}

// Registry returns the loaded tenant registry.
func (m *Manager) Registry() *Registry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry
}

// Reload re-reads the on-disk registry, picking up tenants registered
// after startup. Already-open databases are untouched.
func (m *Manager) Reload() error {
	registry, err := LoadRegistry()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.registry = registry
	m.mu.Unlock()
	return nil
}

// ActivateAll opens a database connection for every active tenant and
// bootstraps its schema. Called once at startup.
func (m *Manager) ActivateAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	creator := database.NewTableCreator()
	for tenantID, cfg := range m.registry.Tenants {
		if cfg.Status != "active" {
			m.logger.Tenant().Warn("Skipping inactive tenant", "tenantId", tenantID, "status", cfg.Status)
			continue
		}
		if _, open := m.databases[tenantID]; open {
			continue
		}

		db, err := database.NewConnectionWithLogger(cfg.DBDriver, cfg.DBDsn, m.logger)
		if err != nil {
			return fmt.Errorf("failed to open database for tenant %s: %w", tenantID, err)
		}
		if err := creator.CreateSchema(db.DB); err != nil {
			db.Close()
			return fmt.Errorf("failed to bootstrap schema for tenant %s: %w", tenantID, err)
		}

		m.databases[tenantID] = db
		m.logger.Tenant().Info("Tenant activated", "tenantId", tenantID, "driver", cfg.DBDriver)
	}
	return nil
}

// ActiveTenantCount returns the number of tenants with an open database.
func (m *Manager) ActiveTenantCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.databases)
}

// GetContext returns a request context for the given tenant, or an error
// when the tenant is unknown or not active.
func (m *Manager) GetContext(tenantID string) (*Context, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, exists := m.registry.Tenants[tenantID]
	if !exists {
		return nil, fmt.Errorf("unknown tenant: %s", tenantID)
	}
	db, open := m.databases[tenantID]
	if !open {
		return nil, fmt.Errorf("tenant %s is not active", tenantID)
	}

	return &Context{
		TenantID: tenantID,
		Config:   cfg,
		Database: db,
		Logger:   m.logger,
	}, nil
}

// Close shuts down all tenant database connections.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for tenantID, db := range m.databases {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close database for tenant %s: %w", tenantID, err)
		}
		delete(m.databases, tenantID)
	}
	return firstErr
}
