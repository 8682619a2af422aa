package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"conecta-core-integrations-layer/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// metricsWindow is the trailing window for successRate and monthlyVolume.
const metricsWindow = 30 * 24 * time.Hour

// defaultProbeConcurrency bounds the parallel probes in one health pass.
const defaultProbeConcurrency = 8

// ConnectionChecker is the capability probe for messaging and payments
// handles.
type ConnectionChecker interface {
	CheckConnection(ctx context.Context) (bool, error)
}

// ConnectionTester is the capability probe for CRM and ERP handles.
type ConnectionTester interface {
	TestConnection(ctx context.Context) (bool, error)
}

// Configurable exposes an integration's credential requirements.
type Configurable interface {
	Configuration() domain.ConfigurationInfo
}

// StatusObserver receives derived statuses, e.g. for Prometheus gauges.
type StatusObserver interface {
	ObserveStatus(integration domain.Integration, status domain.IntegrationStatus)
}

// HealthService derives a HealthSnapshot per registered integration:
// a capability probe dispatched by integration type plus rolling metrics
// over the trailing 30 days of the operation ledger.
type HealthService struct {
	registry    *IntegrationRegistry
	ledger      *OperationLedger
	observer    StatusObserver
	logger      zerolog.Logger
	now         func() time.Time
	concurrency int
}

// NewHealthService creates a new health service.
func NewHealthService(registry *IntegrationRegistry, ledger *OperationLedger, logger zerolog.Logger) *HealthService {
	return &HealthService{
		registry:    registry,
		ledger:      ledger,
		logger:      logger,
		now:         time.Now,
		concurrency: defaultProbeConcurrency,
	}
}

// NewHealthServiceWithClock creates a health service with an injected
// time source, for tests.
func NewHealthServiceWithClock(registry *IntegrationRegistry, ledger *OperationLedger, logger zerolog.Logger, now func() time.Time) *HealthService {
	s := NewHealthService(registry, ledger, logger)
	s.now = now
	return s
}

// SetObserver attaches a status observer.
func (s *HealthService) SetObserver(o StatusObserver) {
	s.observer = o
}

// CheckAll computes the health of every registered integration. Probes
// run concurrently up to a modest bound and each integration is computed
// in isolation: a probe failure (or panic) becomes a snapshot with status
// error, never a failure of the whole pass.
func (s *HealthService) CheckAll(ctx context.Context) []domain.HealthSnapshot {
	integrations := s.registry.List()
	snapshots := make([]domain.HealthSnapshot, len(integrations))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, integration := range integrations {
		i, integration := i, integration
		g.Go(func() error {
			snapshots[i] = s.CheckOne(ctx, integration)
			return nil
		})
	}
	// Probe funcs never return errors; Wait is an all-settled join.
	_ = g.Wait()

	return snapshots
}

// CheckOne computes the health snapshot of a single integration.
func (s *HealthService) CheckOne(ctx context.Context, integration domain.Integration) domain.HealthSnapshot {
	snapshot := domain.HealthSnapshot{
		ID:       integration.ID,
		Name:     domain.DisplayName(integration.Platform),
		Type:     integration.Type,
		Platform: integration.Platform,
		LastSync: integration.LastActivity,
	}

	handle, _ := s.registry.Handle(integration.ID)
	snapshot.Status, snapshot.ErrorMessage = s.probe(ctx, integration.Type, handle)
	snapshot.Metrics = s.metrics(integration)
	snapshot.Configuration = configurationOf(handle)

	if s.observer != nil {
		s.observer.ObserveStatus(integration, snapshot.Status)
	}
	return snapshot
}

// probe dispatches the capability probe appropriate to the integration
// type: CheckConnection for messaging/payments, TestConnection for
// CRM/ERP. A nil handle or a handle lacking the method is disconnected;
// a probe error is status error with the message captured.
func (s *HealthService) probe(ctx context.Context, typ domain.IntegrationType, handle interface{}) (status domain.IntegrationStatus, errMsg string) {
	defer func() {
		if r := recover(); r != nil {
			status = domain.StatusError
			errMsg = fmt.Sprintf("probe panicked: %v", r)
		}
	}()

	if handle == nil {
		return domain.StatusDisconnected, ""
	}

	var ok bool
	var err error
	switch typ {
	case domain.IntegrationTypeMessaging, domain.IntegrationTypePayments:
		checker, has := handle.(ConnectionChecker)
		if !has {
			return domain.StatusDisconnected, ""
		}
		ok, err = checker.CheckConnection(ctx)
	case domain.IntegrationTypeCRM, domain.IntegrationTypeERP:
		tester, has := handle.(ConnectionTester)
		if !has {
			return domain.StatusDisconnected, ""
		}
		ok, err = tester.TestConnection(ctx)
	default:
		return domain.StatusDisconnected, ""
	}

	if err != nil {
		s.logger.Warn().Err(err).Str("type", string(typ)).Msg("Connection probe failed")
		return domain.StatusError, err.Error()
	}
	if !ok {
		return domain.StatusDisconnected, ""
	}
	return domain.StatusConnected, ""
}

// metrics derives the rolling 30-day metrics for (type, platform) from
// the ledger. TotalOperations is the lifetime counter on the Integration,
// not the windowed count.
func (s *HealthService) metrics(integration domain.Integration) domain.HealthMetrics {
	windowStart := s.now().Add(-metricsWindow)
	records := s.ledger.Query(domain.OperationFilter{
		Type:      integration.Type,
		Platform:  integration.Platform,
		StartDate: &windowStart,
	})

	successes := 0
	for _, rec := range records {
		if rec.Status == domain.OperationSuccess {
			successes++
		}
	}

	rate := 0.0
	if len(records) > 0 {
		rate = math.Round(float64(successes)/float64(len(records))*1000) / 10
	}

	return domain.HealthMetrics{
		TotalOperations: integration.OperationCount,
		SuccessRate:     rate,
		MonthlyVolume:   len(records),
		LastActivity:    integration.LastActivity,
	}
}

func configurationOf(handle interface{}) domain.ConfigurationInfo {
	if c, ok := handle.(Configurable); ok {
		return c.Configuration()
	}
	return domain.ConfigurationInfo{IsConfigured: false}
}
