package application

import (
	"context"
	"time"

	"conecta-core-integrations-layer/internal/domain"
)

// ExportService assembles the full-state snapshot exposed to external
// collaborators: integration statuses, the retained operation history and
// aggregate stats.
type ExportService struct {
	registry *IntegrationRegistry
	ledger   *OperationLedger
	health   *HealthService
	now      func() time.Time
}

// NewExportService creates a new export service.
func NewExportService(registry *IntegrationRegistry, ledger *OperationLedger, health *HealthService) *ExportService {
	return &ExportService{
		registry: registry,
		ledger:   ledger,
		health:   health,
		now:      time.Now,
	}
}

// Snapshot produces a point-in-time export of integrations, operations
// and stats. Statuses are derived fresh via the health service.
func (s *ExportService) Snapshot(ctx context.Context) domain.ExportSnapshot {
	snapshots := s.health.CheckAll(ctx)

	integrations := make([]domain.IntegrationExport, 0, len(snapshots))
	for _, snap := range snapshots {
		integrations = append(integrations, domain.IntegrationExport{
			ID:       snap.ID,
			Type:     snap.Type,
			Platform: snap.Platform,
			Status:   snap.Status,
		})
	}

	return domain.ExportSnapshot{
		Integrations: integrations,
		Operations:   s.ledger.Query(domain.OperationFilter{}),
		Stats:        s.ledger.Stats(),
		ExportedAt:   s.now(),
	}
}
