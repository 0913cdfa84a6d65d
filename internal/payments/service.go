// Package payments turns raw gateway transactions into reconciled payments
// and runs the batch jobs operating on them.
package payments

import (
	"context"
	"time"

	"adminBackend/internal/gateway"
	"adminBackend/internal/logger"
	"adminBackend/repository"
)

// DefaultMaxAttempts is how many times a queue item is tried before it is marked failed.
const DefaultMaxAttempts = 5

// Gateway is the part of the gateway client the jobs need.
type Gateway interface {
	ListTransactions(ctx context.Context, from time.Time, page int) ([]gateway.Transaction, error)
	GetReceipt(ctx context.Context, uid string) (string, error)
}

// Service wires the payment repositories, the gateway and the side-effect sinks.
type Service struct {
	payments repository.PaymentRepositoryI
	profiles repository.ProfileRepositoryI
	orders   repository.OrderRepositoryI
	queue    repository.QueueRepositoryI
	rules    repository.FeeRuleRepositoryI
	audit    repository.AuditRepositoryI
	outbox   repository.OutboxRepositoryI
	gateway  Gateway
	log      logger.Logger

	MaxAttempts   int
	FetchLookback time.Duration
	ReceiptDelay  time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Payments repository.PaymentRepositoryI
	Profiles repository.ProfileRepositoryI
	Orders   repository.OrderRepositoryI // optional
	Queue    repository.QueueRepositoryI
	Rules    repository.FeeRuleRepositoryI
	Audit    repository.AuditRepositoryI
	Outbox   repository.OutboxRepositoryI
	Gateway  Gateway
	Logger   logger.Logger
}

// NewService creates a Service with default job settings.
func NewService(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		payments:      d.Payments,
		profiles:      d.Profiles,
		orders:        d.Orders,
		queue:         d.Queue,
		rules:         d.Rules,
		audit:         d.Audit,
		outbox:        d.Outbox,
		gateway:       d.Gateway,
		log:           log,
		MaxAttempts:   DefaultMaxAttempts,
		FetchLookback: 48 * time.Hour,
		ReceiptDelay:  DefaultReceiptDelay,
		now:           time.Now,
		sleep:         sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// system is the audit actor for job-driven changes.
const system = "system"
