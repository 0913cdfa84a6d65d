// Package outbox relays stored CRM sync events to a broker or webhook.
package outbox

import (
	"context"
	"fmt"
	"time"

	"adminBackend/internal/logger"
	"adminBackend/models"
)

// BatchSize is how many pending events one tick handles.
const BatchSize = 10

// Publisher delivers one event.
type Publisher interface {
	Publish(ctx context.Context, id string, topic string, payload []byte) error
}

// Store is the event table the processor drains.
type Store interface {
	FetchPending(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	Delete(ctx context.Context, id string) error
}

// Processor publishes pending events and deletes them once delivered.
// Delivery is at-least-once: an event whose delete fails is published again.
type Processor struct {
	store     Store
	publisher Publisher
	interval  time.Duration
	log       logger.Logger
}

func NewProcessor(store Store, pub Publisher, interval time.Duration, log logger.Logger) *Processor {
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{store: store, publisher: pub, interval: interval, log: log}
}

// Start ticks until ctx is canceled.
func (p *Processor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch handles up to BatchSize pending events and returns how many were delivered.
func (p *Processor) ProcessBatch(ctx context.Context) int {
	events, err := p.store.FetchPending(ctx, BatchSize)
	if err != nil {
		p.log.Error(fmt.Sprintf("[Outbox] failed to fetch events: %v", err))
		return 0
	}
	if len(events) == 0 {
		return 0
	}
	p.log.Debug(fmt.Sprintf("[Outbox] processing batch of %d events", len(events)))

	delivered := 0
	for _, e := range events {
		if err := p.publisher.Publish(ctx, e.ID, e.Topic, e.Payload); err != nil {
			// retried next tick
			p.log.Warn(fmt.Sprintf("[Outbox] failed to publish event %s (%s): %v", e.ID, e.Topic, err))
			continue
		}
		if err := p.store.Delete(ctx, e.ID); err != nil {
			p.log.Error(fmt.Sprintf("[Outbox] failed to delete event %s: %v", e.ID, err))
			continue
		}
		delivered++
	}
	return delivered
}
