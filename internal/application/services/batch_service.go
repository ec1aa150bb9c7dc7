package services

import (
	"sync"
	"time"

	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/messaging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/logging"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/observability/performance"
	"github.com/ShopmetricsHQ/shopmetrics-go/internal/infrastructure/tenant"
	"github.com/ShopmetricsHQ/shopmetrics-go/pkg/config"
	"github.com/google/uuid"
)

// OwnerResult records the outcome of one owner's recompute.
type OwnerResult struct {
	OwnerID         string `json:"ownerId"`
	Customers       int    `json:"customers"`
	ScoresRefreshed int    `json:"scoresRefreshed"`
	Insights        int    `json:"insights"`
	Error           string `json:"error,omitempty"`
}

// BatchResult summarizes a full recompute run across all owners.
type BatchResult struct {
	RunID      string        `json:"runId"`
	TenantID   string        `json:"tenantId"`
	Owners     int           `json:"owners"`
	Failed     int           `json:"failed"`
	Results    []OwnerResult `json:"results"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// BatchService recomputes scores and insights for every owner of a tenant.
// Owners are independent, so the run fans out across a bounded worker pool;
// one owner failing is recorded and never blocks the rest.
type BatchService struct {
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
	loyaltyService *LoyaltyService
	insightService *InsightService
	broadcaster    *messaging.Broadcaster
}

// NewBatchService creates the batch recompute orchestrator.
func NewBatchService(
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	loyaltyService *LoyaltyService,
	insightService *InsightService,
	broadcaster *messaging.Broadcaster,
) *BatchService {
	return &BatchService{
		logger:         logger,
		perfTracker:    perfTracker,
		loyaltyService: loyaltyService,
		insightService: insightService,
		broadcaster:    broadcaster,
	}
}

// RecomputeAll refreshes loyalty scores and regenerates insights for every
// owner in the tenant. Progress events stream to connected clients as each
// owner completes.
func (s *BatchService) RecomputeAll(tenantCtx *tenant.Context) (*BatchResult, error) {
	marker := s.perfTracker.StartOperation("batch_recompute", tenantCtx.TenantID)
	defer marker.Complete()

	ownerIDs, err := tenantCtx.CustomerRepo().ListOwnerIDs()
	if err != nil {
		marker.SetSuccess(false)
		return nil, err
	}

	result := &BatchResult{
		RunID:     uuid.NewString(),
		TenantID:  tenantCtx.TenantID,
		Owners:    len(ownerIDs),
		Results:   make([]OwnerResult, len(ownerIDs)),
		StartedAt: time.Now().UTC(),
	}

	s.logger.Batch().Info("Batch recompute started",
		"runId", result.RunID, "tenantId", tenantCtx.TenantID, "owners", len(ownerIDs))

	var wg sync.WaitGroup
	var completed int
	var mu sync.Mutex
	sem := make(chan struct{}, config.BatchOwnerConcurrency)

	for i, ownerID := range ownerIDs {
		wg.Add(1)
		go func(i int, ownerID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result.Results[i] = s.RecomputeOwner(tenantCtx, ownerID)

			mu.Lock()
			completed++
			done := completed
			mu.Unlock()

			if s.broadcaster != nil {
				s.broadcaster.Broadcast(messaging.Event{
					Kind:     "batch_progress",
					TenantID: tenantCtx.TenantID,
					Payload: map[string]any{
						"runId":     result.RunID,
						"completed": done,
						"total":     len(ownerIDs),
						"ownerId":   ownerID,
					},
				})
			}
		}(i, ownerID)
	}
	wg.Wait()

	result.FinishedAt = time.Now().UTC()
	for _, r := range result.Results {
		if r.Error != "" {
			result.Failed++
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(messaging.Event{
			Kind:     "batch_complete",
			TenantID: tenantCtx.TenantID,
			Payload:  result,
		})
	}

	s.logger.Batch().Info("Batch recompute finished",
		"runId", result.RunID, "tenantId", tenantCtx.TenantID,
		"owners", result.Owners, "failed", result.Failed,
		"duration", result.FinishedAt.Sub(result.StartedAt))
	return result, nil
}

// RecomputeOwner refreshes every customer score for one owner and then
// regenerates the owner's insight feed. The first hard failure stops this
// owner only.
func (s *BatchService) RecomputeOwner(tenantCtx *tenant.Context, ownerID string) OwnerResult {
	result := OwnerResult{OwnerID: ownerID}

	customers, err := tenantCtx.CustomerRepo().FindByOwner(ownerID)
	if err != nil {
		result.Error = err.Error()
		s.logger.Batch().Error("Owner recompute failed loading customers",
			"tenantId", tenantCtx.TenantID, "ownerId", ownerID, "error", err.Error())
		return result
	}
	result.Customers = len(customers)

	for _, customer := range customers {
		if _, err := s.loyaltyService.RefreshScore(tenantCtx, customer.ID); err != nil {
			s.logger.Batch().Warn("Score refresh failed for customer",
				"ownerId", ownerID, "customerId", customer.ID, "error", err.Error())
			continue
		}
		result.ScoresRefreshed++
	}

	feed, err := s.insightService.GenerateAndSave(tenantCtx, ownerID)
	if err != nil {
		result.Error = err.Error()
		s.logger.Batch().Error("Owner insight generation failed",
			"tenantId", tenantCtx.TenantID, "ownerId", ownerID, "error", err.Error())
		return result
	}
	result.Insights = len(feed)
	return result
}
