// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/application/container"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/presentation/http/handlers"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(appContainer *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	analyticsHandlers := handlers.NewAnalyticsHandlers(
		appContainer.LoyaltyService,
		appContainer.ChurnService,
		appContainer.RFMService,
		appContainer.CLVService,
		appContainer.SegmentationService,
		appContainer.Logger,
		appContainer.PerfTracker,
	)
	forecastHandlers := handlers.NewForecastHandlers(appContainer.ForecastService, appContainer.Logger, appContainer.PerfTracker)
	insightHandlers := handlers.NewInsightHandlers(appContainer.InsightService, appContainer.EmailService, appContainer.Logger, appContainer.PerfTracker)
	authHandlers := handlers.NewAuthHandlers(appContainer.AuthService, appContainer.Logger, appContainer.PerfTracker)
	batchHandlers := handlers.NewBatchHandlers(appContainer.BatchService, appContainer.Logger, appContainer.PerfTracker)
	systemHandlers := handlers.NewSystemHandlers(appContainer.TenantManager, appContainer.Logger, appContainer.PerfTracker)
	streamHandlers := handlers.NewStreamHandlers(appContainer.Broadcaster, appContainer.Logger)

	r.GET("/health", systemHandlers.Health)

	// Provisioning routes have no tenant of their own.
	r.POST("/api/v1/tenants", systemHandlers.RegisterTenant)

	api := r.Group("/api/v1")
	api.Use(middleware.TenantMiddleware(appContainer.TenantManager))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.Login)
			auth.POST("/refresh", authHandlers.Refresh)
		}

		// Everything below requires an admin session for the tenant.
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(appContainer.AuthService))
		{
			analytics := protected.Group("/analytics")
			{
				analytics.GET("/customers/:customerId/loyalty", analyticsHandlers.GetLoyaltyScore)
				analytics.POST("/customers/:customerId/loyalty/refresh", analyticsHandlers.RefreshLoyaltyScore)
				analytics.GET("/customers/:customerId/churn", analyticsHandlers.GetChurnRisk)
				analytics.GET("/customers/:customerId/rfm", analyticsHandlers.GetRFMAnalysis)
				analytics.GET("/customers/:customerId/clv", analyticsHandlers.GetCustomerCLV)

				analytics.GET("/owners/:ownerId/churn-risk", analyticsHandlers.GetHighRiskCustomers)
				analytics.GET("/owners/:ownerId/rfm", analyticsHandlers.GetAllCustomersRFM)
				analytics.GET("/owners/:ownerId/clv", analyticsHandlers.GetAverageCLV)
				analytics.GET("/owners/:ownerId/segments", analyticsHandlers.GetSegments)
				analytics.GET("/owners/:ownerId/forecast", forecastHandlers.GetRevenueForecast)
			}

			insightsGroup := protected.Group("/insights")
			{
				insightsGroup.POST("/owners/:ownerId/generate", insightHandlers.GenerateInsights)
				insightsGroup.GET("/owners/:ownerId/preview", insightHandlers.PreviewInsights)
				insightsGroup.GET("/owners/:ownerId", insightHandlers.GetRecentInsights)
				insightsGroup.POST("/owners/:ownerId/digest", insightHandlers.SendDigest)
			}

			protected.POST("/batch/recompute", batchHandlers.RecomputeAll)
			protected.GET("/system/perf", systemHandlers.PerfStats)
			protected.POST("/system/log-level", systemHandlers.SetLogLevel)
		}

		// Browsers cannot attach an Authorization header to websocket
		// connects, so the stream sits outside the auth group.
		api.GET("/stream", streamHandlers.Stream)
	}

	return r
}
