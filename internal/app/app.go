// Package app wires configuration, storage and services for the server and the CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"adminBackend/internal/config"
	"adminBackend/internal/db"
	"adminBackend/internal/fees"
	"adminBackend/internal/gateway"
	"adminBackend/internal/logger"
	"adminBackend/internal/outbox"
	"adminBackend/internal/payments"
	"adminBackend/internal/support"
	"adminBackend/internal/telegram"
	"adminBackend/repository"
)

// Repositories groups every table accessor.
type Repositories struct {
	Users         *repository.UserRepository
	Profiles      *repository.ProfileRepository
	Orders        *repository.OrderRepository
	Payments      *repository.PaymentRepository
	Queue         *repository.QueueRepository
	FeeRules      *repository.FeeRuleRepository
	Grants        *repository.GrantRepository
	Subscriptions *repository.SubscriptionRepository
	Tickets       *repository.TicketRepository
	Audit         *repository.AuditRepository
	Outbox        *repository.OutboxRepository
}

// App holds the initialized application components.
type App struct {
	Config   *config.Config
	Log      logger.Logger
	DB       *sql.DB
	Repos    Repositories
	Gateway  *gateway.Client
	Payments *payments.Service
	Telegram *telegram.Service
	Support  *support.Service
}

// New opens the database, applies migrations and builds the services.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	log.Info(fmt.Sprintf("[App] database ready at %s", cfg.Database.Path))

	r := Repositories{
		Users:         repository.NewUserRepository(d),
		Profiles:      repository.NewProfileRepository(d),
		Orders:        repository.NewOrderRepository(d),
		Payments:      repository.NewPaymentRepository(d),
		Queue:         repository.NewQueueRepository(d),
		FeeRules:      repository.NewFeeRuleRepository(d),
		Grants:        repository.NewGrantRepository(d),
		Subscriptions: repository.NewSubscriptionRepository(d),
		Tickets:       repository.NewTicketRepository(d),
		Audit:         repository.NewAuditRepository(d),
		Outbox:        repository.NewOutboxRepository(d),
	}

	gw := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.ShopID, cfg.Gateway.SecretKey, cfg.Gateway.Timeout)
	paymentSvc := payments.NewService(payments.Deps{
		Payments: r.Payments,
		Profiles: r.Profiles,
		Orders:   r.Orders,
		Queue:    r.Queue,
		Rules:    r.FeeRules,
		Audit:    r.Audit,
		Outbox:   r.Outbox,
		Gateway:  gw,
		Logger:   log,
	})
	paymentSvc.FetchLookback = cfg.Jobs.FetchLookback
	paymentSvc.ReceiptDelay = cfg.Jobs.ReceiptDelay

	bot := telegram.NewClient(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken, cfg.Gateway.Timeout)
	telegramSvc := telegram.NewService(r.Grants, r.Profiles, r.Subscriptions, r.Audit, r.Outbox, bot, log)

	return &App{
		Config:   cfg,
		Log:      log,
		DB:       d,
		Repos:    r,
		Gateway:  gw,
		Payments: paymentSvc,
		Telegram: telegramSvc,
		Support:  support.NewService(r.Tickets, r.Subscriptions, r.Audit, r.Outbox, log),
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// ImportFeeRules replaces the fee table with the rules in a YAML file.
func (a *App) ImportFeeRules(ctx context.Context, actor, path string) (int, error) {
	rules, err := fees.LoadRulesFile(path)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", path, err)
	}
	if err := a.Repos.FeeRules.ReplaceAll(ctx, rules); err != nil {
		return 0, fmt.Errorf("replace fee rules: %w", err)
	}
	if _, err := a.Repos.Audit.Append(ctx, actor, "fee_rules.imported", "fee_rules", "", map[string]any{"count": len(rules), "file": path}); err != nil {
		a.Log.Warn(fmt.Sprintf("[App] audit fee rule import: %v", err))
	}
	a.Log.Info(fmt.Sprintf("[App] imported %d fee rules from %s", len(rules), path))
	return len(rules), nil
}

// NewPublisher picks the outbox sink: RabbitMQ and/or the CRM webhook, or the
// log when neither is configured. The returned closer releases broker connections.
func (a *App) NewPublisher(ctx context.Context) (outbox.Publisher, io.Closer, error) {
	cfg := a.Config.Outbox
	var pubs outbox.FanOut
	var closer io.Closer = nopCloser{}
	if cfg.AMQPURL != "" {
		rmq, err := outbox.NewRabbitMQPublisher(ctx, cfg.AMQPURL, cfg.Queue, a.Log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		pubs = append(pubs, rmq)
		closer = closeFunc(func() error { rmq.Close(); return nil })
	}
	if cfg.CRMWebhookURL != "" {
		pubs = append(pubs, outbox.NewWebhookPublisher(cfg.CRMWebhookURL, a.Config.Gateway.Timeout))
	}
	switch len(pubs) {
	case 0:
		return &outbox.LogPublisher{Log: a.Log}, closer, nil
	case 1:
		return pubs[0], closer, nil
	}
	return pubs, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type closeFunc func() error

func (f closeFunc) Close() error { return f() }
