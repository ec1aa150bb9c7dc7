// Command shopmetrics-recompute refreshes loyalty scores and regenerates
// insight feeds for every owner of every active tenant, with progress
// output for operators running it from a terminal or cron wrapper.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/application/container"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
	"github.com/schollz/progressbar/v3"
)

func main() {
	tenantFilter := flag.String("tenant", "", "recompute a single tenant instead of all active tenants")
	flag.Parse()

	if err := run(*tenantFilter); err != nil {
		log.Fatalf("Recompute failed: %v", err)
	}
}

func run(tenantFilter string) error {
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	tenantManager, err := tenant.NewManager(logger)
	if err != nil {
		return fmt.Errorf("failed to load tenant registry: %w", err)
	}
	if err := tenantManager.ActivateAll(); err != nil {
		return fmt.Errorf("tenant activation failed: %w", err)
	}
	defer tenantManager.Close()

	appContainer := container.NewContainer(tenantManager, nil, logger, performance.NewTracker())

	failed := 0
	for tenantID := range tenantManager.Registry().Tenants {
		if tenantFilter != "" && tenantID != tenantFilter {
			continue
		}

		tenantCtx, err := tenantManager.GetContext(tenantID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping tenant %s: %v\n", tenantID, err)
			failed++
			continue
		}

		ownerIDs, err := tenantCtx.CustomerRepo().ListOwnerIDs()
		if err != nil {
			fmt.Fprintf(os.Stderr, "tenant %s: listing owners failed: %v\n", tenantID, err)
			failed++
			continue
		}

		bar := progressbar.NewOptions(len(ownerIDs),
			progressbar.OptionSetDescription(fmt.Sprintf("tenant %s", tenantID)),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		for _, ownerID := range ownerIDs {
			result := appContainer.BatchService.RecomputeOwner(tenantCtx, ownerID)
			if result.Error != "" {
				fmt.Fprintf(os.Stderr, "tenant %s owner %s: %s\n", tenantID, ownerID, result.Error)
				failed++
			}
			bar.Add(1)
		}
		bar.Finish()
		fmt.Printf("tenant %s: %d owners recomputed\n", tenantID, len(ownerIDs))
	}

	if failed > 0 {
		return fmt.Errorf("%d units failed", failed)
	}
	return nil
}
