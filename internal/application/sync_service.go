package application

import (
	"context"
	"fmt"

	"conecta-core-integrations-layer/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// defaultSyncConcurrency bounds the parallel sync calls in one run.
const defaultSyncConcurrency = 8

// Syncer is the capability a handle must expose to participate in an
// orchestrated sync run.
type Syncer interface {
	Sync(ctx context.Context) domain.SyncReport
}

// SyncService fans a sync call out to every connected integration
// concurrently and aggregates per-integration outcomes. One integration's
// failure never cancels or delays the others; the aggregate is assembled
// only after every call has settled.
type SyncService struct {
	registry    *IntegrationRegistry
	health      *HealthService
	logger      zerolog.Logger
	concurrency int
}

// NewSyncService creates a new sync orchestrator.
func NewSyncService(registry *IntegrationRegistry, health *HealthService, logger zerolog.Logger) *SyncService {
	return &SyncService{
		registry:    registry,
		health:      health,
		logger:      logger,
		concurrency: defaultSyncConcurrency,
	}
}

// SyncAll queries the health service, selects integrations with status
// connected, and invokes each one's Sync concurrently. The outcome always
// satisfies Successful + Failed == number of connected integrations.
func (s *SyncService) SyncAll(ctx context.Context) domain.SyncOutcome {
	snapshots := s.health.CheckAll(ctx)

	connected := make([]domain.HealthSnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap.Status == domain.StatusConnected {
			connected = append(connected, snap)
		}
	}

	details := make([]domain.SyncDetail, len(connected))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, snap := range connected {
		i, snap := i, snap
		g.Go(func() error {
			details[i] = s.syncOne(ctx, snap.ID)
			return nil
		})
	}
	// syncOne never returns an error; Wait is an all-settled join.
	_ = g.Wait()

	outcome := domain.SyncOutcome{Details: details}
	for _, d := range details {
		if d.Status == "success" {
			outcome.Successful++
		} else {
			outcome.Failed++
		}
	}

	s.logger.Info().
		Int("connected", len(connected)).
		Int("successful", outcome.Successful).
		Int("failed", outcome.Failed).
		Msg("Sync orchestration finished")

	return outcome
}

// syncOne runs one integration's sync in isolation, folding panics and
// missing capabilities into an error detail.
func (s *SyncService) syncOne(ctx context.Context, id string) (detail domain.SyncDetail) {
	detail = domain.SyncDetail{ID: id, Status: "success"}
	defer func() {
		if r := recover(); r != nil {
			detail.Status = "error"
			detail.Error = fmt.Sprintf("sync panicked: %v", r)
			s.logger.Error().Str("integrationId", id).Interface("panic", r).Msg("Sync panicked")
		}
	}()

	handle, ok := s.registry.Handle(id)
	if !ok {
		detail.Status = "error"
		detail.Error = "integration no longer registered"
		return detail
	}

	syncer, ok := handle.(Syncer)
	if !ok {
		detail.Status = "error"
		detail.Error = "integration does not support sync"
		return detail
	}

	report := syncer.Sync(ctx)
	if !report.Success {
		detail.Status = "error"
		if len(report.Details) > 0 {
			detail.Error = report.Details[0]
		} else {
			detail.Error = fmt.Sprintf("sync finished with %d errors", report.Errors)
		}
	}
	return detail
}
