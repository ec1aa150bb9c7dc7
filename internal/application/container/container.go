// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/application/services"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/email"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/messaging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Engine Services (stateless singletons)
	LoyaltyService      *services.LoyaltyService
	ChurnService        *services.ChurnService
	RFMService          *services.RFMService
	CLVService          *services.CLVService
	SegmentationService *services.SegmentationService
	ForecastService     *services.ForecastService
	InsightService      *services.InsightService
	BatchService        *services.BatchService
	AuthService         *services.AuthService

	// Infrastructure Dependencies
	TenantManager *tenant.Manager
	Broadcaster   *messaging.Broadcaster
	EmailService  email.Service
	Logger        *logging.ChanneledLogger
	PerfTracker   *performance.Tracker
}

// NewContainer creates and wires all singleton services
func NewContainer(
	tenantManager *tenant.Manager,
	emailService email.Service,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *Container {
	broadcaster := messaging.NewBroadcaster(logger)

	rfmService := services.NewRFMService(logger, perfTracker)
	loyaltyService := services.NewLoyaltyService(logger, perfTracker, rfmService)
	churnService := services.NewChurnService(logger, perfTracker)
	clvService := services.NewCLVService(logger, perfTracker)
	segmentationService := services.NewSegmentationService(logger, perfTracker, loyaltyService)
	forecastService := services.NewForecastService(logger, perfTracker)
	insightService := services.NewInsightService(
		logger, perfTracker,
		churnService, clvService, rfmService, segmentationService, forecastService,
		broadcaster,
	)
	batchService := services.NewBatchService(logger, perfTracker, loyaltyService, insightService, broadcaster)

	return &Container{
		LoyaltyService:      loyaltyService,
		ChurnService:        churnService,
		RFMService:          rfmService,
		CLVService:          clvService,
		SegmentationService: segmentationService,
		ForecastService:     forecastService,
		InsightService:      insightService,
		BatchService:        batchService,
		AuthService:         services.NewAuthService(logger, perfTracker),

		TenantManager: tenantManager,
		Broadcaster:   broadcaster,
		EmailService:  emailService,
		Logger:        logger,
		PerfTracker:   perfTracker,
	}
}
