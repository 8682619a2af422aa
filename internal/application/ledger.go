package application

import (
	"sort"
	"sync"
	"time"

	"conecta-core-integrations-layer/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// ledgerHardCap is the size that triggers a trim on append.
	ledgerHardCap = 10000
	// ledgerTrimTarget is how many newest entries survive a trim.
	ledgerTrimTarget = 5000
	// ledgerRetention is how long entries survive an explicit Cleanup.
	ledgerRetention = 90 * 24 * time.Hour
)

// ActivityCounter receives the per-integration side effect of every
// append. Implemented by IntegrationRegistry.
type ActivityCounter interface {
	RecordActivity(integrationID string, status domain.OperationStatus, at time.Time)
}

// OperationPublisher fans appended records out to live subscribers.
type OperationPublisher interface {
	Publish(record domain.OperationRecord)
}

// OperationObserver receives ledger telemetry.
type OperationObserver interface {
	ObserveOperation(record domain.OperationRecord)
	SetLedgerSize(n int)
}

// OperationLedger is the append-only, size-bounded, time-bounded record
// of operation outcomes. Appends and the trim they may trigger happen
// under one lock, so the ledger never exceeds its bound under concurrent
// appenders. Reads return point-in-time copies.
type OperationLedger struct {
	mu      sync.RWMutex
	entries []domain.OperationRecord

	counter   ActivityCounter
	publisher OperationPublisher
	observer  OperationObserver
	logger    zerolog.Logger
	now       func() time.Time
}

// NewOperationLedger creates a new operation ledger. counter may be nil
// when no registry bookkeeping is wanted.
func NewOperationLedger(counter ActivityCounter, logger zerolog.Logger) *OperationLedger {
	return &OperationLedger{
		entries: make([]domain.OperationRecord, 0, 256),
		counter: counter,
		logger:  logger,
		now:     time.Now,
	}
}

// NewOperationLedgerWithClock creates a ledger with an injected time
// source, for tests: the retention window and the 30-day metrics queries
// are moving windows relative to now().
func NewOperationLedgerWithClock(counter ActivityCounter, logger zerolog.Logger, now func() time.Time) *OperationLedger {
	l := NewOperationLedger(counter, logger)
	l.now = now
	return l
}

// SetPublisher attaches a live-feed publisher. Appends publish after the
// critical section; a slow subscriber never blocks an append.
func (l *OperationLedger) SetPublisher(p OperationPublisher) {
	l.publisher = p
}

// SetObserver attaches a telemetry observer.
func (l *OperationLedger) SetObserver(o OperationObserver) {
	l.observer = o
}

// Append records one operation outcome. The record's ID and Timestamp are
// assigned here, the owning integration's counters are bumped, and when
// the ledger exceeds its hard cap it is trimmed to the newest entries in
// the same critical section.
func (l *OperationLedger) Append(record domain.OperationRecord) domain.OperationRecord {
	l.mu.Lock()
	record.ID = uuid.NewString()
	record.Timestamp = l.now()
	l.entries = append(l.entries, record)

	if len(l.entries) > ledgerHardCap {
		// Timestamps are assigned under this lock, so append order is
		// time order: dropping the head keeps the newest entries.
		trimmed := len(l.entries) - ledgerTrimTarget
		l.entries = append(l.entries[:0:0], l.entries[trimmed:]...)
		l.logger.Warn().
			Int("removed", trimmed).
			Int("retained", ledgerTrimTarget).
			Msg("Operation ledger exceeded hard cap, trimmed oldest entries")
	}
	size := len(l.entries)
	l.mu.Unlock()

	if l.counter != nil && record.IntegrationID != "" {
		l.counter.RecordActivity(record.IntegrationID, record.Status, record.Timestamp)
	}
	if l.publisher != nil {
		l.publisher.Publish(record)
	}
	if l.observer != nil {
		l.observer.ObserveOperation(record)
		l.observer.SetLedgerSize(size)
	}

	return record
}

// Query returns the records matching every set filter, sorted by
// timestamp descending, truncated to Limit when positive. The result is
// a copy; timestamps are re-sorted because monotonicity is expected but
// not guaranteed.
func (l *OperationLedger) Query(filter domain.OperationFilter) []domain.OperationRecord {
	l.mu.RLock()
	matched := make([]domain.OperationRecord, 0, len(l.entries))
	for _, rec := range l.entries {
		if matchesFilter(rec, filter) {
			matched = append(matched, rec)
		}
	}
	l.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched
}

func matchesFilter(rec domain.OperationRecord, f domain.OperationFilter) bool {
	if f.Type != "" && rec.IntegrationType != f.Type {
		return false
	}
	if f.Platform != "" && rec.Platform != f.Platform {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.StartDate != nil && rec.Timestamp.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && rec.Timestamp.After(*f.EndDate) {
		return false
	}
	return true
}

// Cleanup removes entries older than the retention window and returns
// how many were removed. Scheduling is the caller's responsibility.
func (l *OperationLedger) Cleanup() int {
	cutoff := l.now().Add(-ledgerRetention)

	l.mu.Lock()
	kept := l.entries[:0]
	for _, rec := range l.entries {
		if !rec.Timestamp.Before(cutoff) {
			kept = append(kept, rec)
		}
	}
	removed := len(l.entries) - len(kept)
	l.entries = kept
	size := len(l.entries)
	l.mu.Unlock()

	if removed > 0 {
		l.logger.Info().Int("removed", removed).Msg("Cleaned up expired operation records")
	}
	if l.observer != nil {
		l.observer.SetLedgerSize(size)
	}
	return removed
}

// Size returns the current number of retained records.
func (l *OperationLedger) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Stats aggregates the retained records for the export contract.
func (l *OperationLedger) Stats() domain.IntegrationStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := domain.IntegrationStats{
		TotalOperations: len(l.entries),
		ByPlatform:      make(map[string]int),
		ByType:          make(map[domain.IntegrationType]int),
	}
	for _, rec := range l.entries {
		switch rec.Status {
		case domain.OperationSuccess:
			stats.SuccessCount++
		case domain.OperationError:
			stats.ErrorCount++
		case domain.OperationPending:
			stats.PendingCount++
		}
		stats.ByPlatform[rec.Platform]++
		stats.ByType[rec.IntegrationType]++
	}
	return stats
}
