package application

import (
	"sync"
	"time"

	"conecta-core-integrations-layer/internal/domain"

	"github.com/rs/zerolog"
)

// IntegrationRegistry is the in-memory directory of live integration
// instances. It is constructed once at process start and passed by handle
// to every consumer; there is no hidden global instance.
//
// The registry owns the Integration records exclusively: they are created
// on Register, their activity counters are mutated through RecordActivity,
// and they disappear on Unregister.
type IntegrationRegistry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
	logger  zerolog.Logger
	now     func() time.Time
}

type registryEntry struct {
	integration domain.Integration
	handle      interface{}
}

// NewIntegrationRegistry creates a new integration registry.
func NewIntegrationRegistry(logger zerolog.Logger) *IntegrationRegistry {
	return &IntegrationRegistry{
		entries: make(map[string]*registryEntry),
		logger:  logger,
		now:     time.Now,
	}
}

// NewIntegrationRegistryWithClock creates a registry with an injected
// time source, for tests.
func NewIntegrationRegistryWithClock(logger zerolog.Logger, now func() time.Time) *IntegrationRegistry {
	r := NewIntegrationRegistry(logger)
	r.now = now
	return r
}

// Register adds an adapter handle under a unique id. Registering an id
// that is already present fails with DuplicateIDError: re-registration
// must go through Unregister first so accumulated counters are never
// silently overwritten. (id, type, platform) need not be unique beyond
// the id itself; multiple instances of the same vendor may coexist.
func (r *IntegrationRegistry) Register(id string, handle interface{}, typ domain.IntegrationType, platform string) error {
	if id == "" {
		return domain.NewValidationError("id", "integration id is required")
	}
	if !typ.Valid() {
		return domain.NewValidationError("type", "unknown integration type: "+string(typ))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return &domain.DuplicateIDError{ID: id}
	}

	r.entries[id] = &registryEntry{
		integration: domain.Integration{
			ID:           id,
			Type:         typ,
			Platform:     platform,
			RegisteredAt: r.now(),
		},
		handle: handle,
	}

	r.logger.Info().
		Str("integrationId", id).
		Str("type", string(typ)).
		Str("platform", platform).
		Msg("Registered integration")

	return nil
}

// Unregister removes an integration. Removing an absent id is a no-op,
// not an error.
func (r *IntegrationRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return
	}

	delete(r.entries, id)
	r.logger.Info().Str("integrationId", id).Msg("Unregistered integration")
}

// List returns a stable snapshot of all registered integrations. The
// returned slice holds copies, so concurrent health checks never observe
// a mutation mid-iteration.
func (r *IntegrationRegistry) List() []domain.Integration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Integration, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.integration)
	}
	return out
}

// Get returns a copy of one integration.
func (r *IntegrationRegistry) Get(id string) (domain.Integration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return domain.Integration{}, false
	}
	return e.integration, true
}

// Handle returns the opaque capability handle registered for an
// integration. Capabilities are discovered by interface assertion on the
// caller's side.
func (r *IntegrationRegistry) Handle(id string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.handle, true
}

// RecordActivity bumps the activity counters of the owning integration.
// The ledger calls this on every append so OperationCount, ErrorCount and
// LastActivity track the lifetime of the instance.
func (r *IntegrationRegistry) RecordActivity(integrationID string, status domain.OperationStatus, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[integrationID]
	if !ok {
		return
	}

	e.integration.OperationCount++
	if status == domain.OperationError {
		e.integration.ErrorCount++
	}
	ts := at
	e.integration.LastActivity = &ts
}
