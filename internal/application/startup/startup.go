// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/application/container"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/email"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/security"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/presentation/http/server"
	"github.com/ShopmetricsHQ/shopmetrics-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete multi-tenant startup sequence
func Initialize() error {
	setupGinMode()

	start := time.Now().UTC()

	// Step 1: Initialize channeled logging
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("ShopMetrics engine starting")

	if err := ensureJWTSecret(logger); err != nil {
		return fmt.Errorf("failed to prepare JWT secret: %w", err)
	}

	// Step 2: Load the tenant registry
	tenantManager, err := tenant.NewManager(logger)
	if err != nil {
		return fmt.Errorf("failed to load tenant registry: %w", err)
	}

	if len(tenantManager.Registry().Tenants) == 0 {
		logger.Startup().Info("No tenants found in registry, creating default tenant")
		if err := tenant.RegisterTenant("default"); err != nil {
			return fmt.Errorf("failed to register default tenant: %w", err)
		}
		if err := tenantManager.Reload(); err != nil {
			return fmt.Errorf("failed to reload registry: %w", err)
		}
	}
	logger.Startup().Info("Tenant registry loaded", "tenants", len(tenantManager.Registry().Tenants))

	// Step 3: Activate tenant databases and bootstrap schemas
	if err := tenantManager.ActivateAll(); err != nil {
		return fmt.Errorf("tenant activation failed: %w", err)
	}
	logger.Startup().Info("Tenant databases activated", "active", tenantManager.ActiveTenantCount())

	// Step 4: Optional email delivery
	var emailService email.Service
	if config.DigestEnabled {
		emailService, err = email.NewService()
		if err != nil {
			logger.Startup().Warn("Email delivery disabled", "reason", err.Error())
			emailService = nil
		} else {
			logger.Startup().Info("Email delivery configured")
		}
	}

	// Step 5: Create the dependency injection container
	perfTracker := performance.NewTracker()
	appContainer := container.NewContainer(tenantManager, emailService, logger, perfTracker)
	logger.Startup().Info("Dependency injection container created with singleton services")

	// Step 6: Start HTTP server
	port := config.Port
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"activeTenants", tenantManager.ActiveTenantCount(),
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown")

	shutdownStart := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped")
	}

	if err := tenantManager.Close(); err != nil {
		logger.Shutdown().Error("Error closing tenant manager", "error", err.Error())
	} else {
		logger.Shutdown().Info("Tenant manager closed")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))
	return nil
}

// ensureJWTSecret generates an ephemeral signing secret when JWT_SECRET is
// unset. Sessions signed with a generated secret do not survive restarts.
func ensureJWTSecret(logger *logging.ChanneledLogger) error {
	if config.JWTSecret != "" {
		return nil
	}
	secret, err := security.GenerateSecureKey(64)
	if err != nil {
		return err
	}
	config.JWTSecret = secret
	logger.Startup().Warn("JWT_SECRET not configured, generated an ephemeral secret; set JWT_SECRET to keep sessions across restarts")
	return nil
}

// setupGinMode silences gin's debug output in release deployments
func setupGinMode() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		log.Println("Running in development mode; set GIN_MODE=release for production")
	}
}
