package pubsub

import (
	"context"
	"fmt"
	"sync"

	"conecta-core-integrations-layer/internal/domain"

	"github.com/rs/zerolog"
)

// OperationChannel represents a subscription channel
type OperationChannel struct {
	ID     string
	Filter *OperationFilter
	Events chan domain.OperationRecord
	Done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// OperationFilter filters published operation records
type OperationFilter struct {
	Types    []domain.IntegrationType // Filter by integration type
	Platform string                   // Filter by platform
	Status   domain.OperationStatus   // Filter by outcome
}

// OperationPubSub broadcasts recorded operations to in-process subscribers
type OperationPubSub struct {
	mu       sync.RWMutex
	channels map[string]*OperationChannel
	logger   zerolog.Logger
	nextID   int64
	idMu     sync.Mutex
}

// NewOperationPubSub creates a new operation pub/sub system
func NewOperationPubSub(logger zerolog.Logger) *OperationPubSub {
	return &OperationPubSub{
		channels: make(map[string]*OperationChannel),
		logger:   logger,
	}
}

// Subscribe creates a new subscription channel
func (ps *OperationPubSub) Subscribe(ctx context.Context, filter *OperationFilter) *OperationChannel {
	ps.idMu.Lock()
	id := ps.generateID()
	ps.idMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)

	channel := &OperationChannel{
		ID:     id,
		Filter: filter,
		Events: make(chan domain.OperationRecord, 10), // Buffered channel
		Done:   make(chan struct{}),
		ctx:    subCtx,
		cancel: cancel,
	}

	ps.mu.Lock()
	ps.channels[id] = channel
	ps.mu.Unlock()

	ps.logger.Info().
		Str("channelId", id).
		Interface("filter", filter).
		Msg("Operation subscription created")

	// Cleanup when context is cancelled
	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(id)
	}()

	return channel
}

// Unsubscribe removes a subscription channel
func (ps *OperationPubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	close(channel.Events)
	close(channel.Done)
	channel.cancel()
	delete(ps.channels, channelID)

	ps.logger.Info().
		Str("channelId", channelID).
		Msg("Operation subscription removed")
}

// Publish broadcasts an operation record to all matching subscribers
func (ps *OperationPubSub) Publish(record domain.OperationRecord) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	publishedCount := 0
	for _, channel := range ps.channels {
		if ps.matchesFilter(record, channel.Filter) {
			select {
			case channel.Events <- record:
				publishedCount++
			case <-channel.ctx.Done():
				// Channel is closed, skip
			default:
				// Channel buffer full, skip (non-blocking)
				ps.logger.Warn().
					Str("channelId", channel.ID).
					Msg("Channel buffer full, dropping record")
			}
		}
	}

	if publishedCount > 0 {
		ps.logger.Debug().
			Str("operation", record.Operation).
			Str("platform", record.Platform).
			Int("subscribers", publishedCount).
			Msg("Published operation record to subscribers")
	}
}

// matchesFilter checks if a record matches the subscription filter
func (ps *OperationPubSub) matchesFilter(record domain.OperationRecord, filter *OperationFilter) bool {
	if filter == nil {
		return true // No filter, match all
	}

	if len(filter.Types) > 0 {
		typeMatch := false
		for _, t := range filter.Types {
			if record.IntegrationType == t {
				typeMatch = true
				break
			}
		}
		if !typeMatch {
			return false
		}
	}

	if filter.Platform != "" && record.Platform != filter.Platform {
		return false
	}

	if filter.Status != "" && record.Status != filter.Status {
		return false
	}

	return true
}

// generateID generates a unique channel ID
func (ps *OperationPubSub) generateID() string {
	ps.nextID++
	return fmt.Sprintf("channel-%d", ps.nextID)
}

// GetStats returns pub/sub statistics
func (ps *OperationPubSub) GetStats() map[string]interface{} {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return map[string]interface{}{
		"active_subscriptions": len(ps.channels),
	}
}
