package tenant

import (
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/domain/repositories"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/persistence/database"
	persistenceRetail "github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/persistence/retail"
)

// Context holds tenant-specific request context.
type Context struct {
	TenantID string
	Config   *Config
	Database *database.DB
	Logger   *logging.ChanneledLogger
}

// GetTenantID returns the tenant ID for this context.
func (ctx *Context) GetTenantID() string {
	return ctx.TenantID
}

// IsActive returns true if the tenant is active.
func (ctx *Context) IsActive() bool {
	return ctx.Config != nil && ctx.Config.Status == "active"
}

// =============================================================================
// Repository Factory Methods
// =============================================================================

// CustomerRepo returns a customer repository instance.
func (ctx *Context) CustomerRepo() repositories.CustomerRepository {
	return persistenceRetail.NewSQLCustomerRepository(ctx.Database, ctx.Logger)
}

// SaleRepo returns a sale repository instance.
func (ctx *Context) SaleRepo() repositories.SaleRepository {
	return persistenceRetail.NewSQLSaleRepository(ctx.Database, ctx.Logger)
}

// InsightRepo returns an insight repository instance.
func (ctx *Context) InsightRepo() repositories.InsightRepository {
	return persistenceRetail.NewSQLInsightRepository(ctx.Database, ctx.Logger)
}
