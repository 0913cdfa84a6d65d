package httpapi

import (
	"context"

	"adminBackend/internal/gateway"
	"adminBackend/internal/payments"
	"adminBackend/internal/support"
	"adminBackend/internal/telegram"
	"adminBackend/models"
	"adminBackend/repository"
)

// PaymentService is implemented by *payments.Service.
type PaymentService interface {
	Enqueue(ctx context.Context, tx gateway.Transaction, source string) (bool, error)
	UnlinkedReport(ctx context.Context, req payments.UnlinkedRequest) (*payments.UnlinkedResponse, error)
	PaymentByUID(ctx context.Context, uid string) (*models.Payment, error)
	Backfill(ctx context.Context, actor string, req payments.BackfillRequest) (payments.BackfillResult, error)
	Reconcile(ctx context.Context, dryRun bool, limit int) (payments.ReconcileResult, error)
	FetchReceipts(ctx context.Context, actor string, req payments.ReceiptRequest) (payments.ReceiptResult, error)
	Sync(ctx context.Context, drainLimit int) (payments.SyncResult, error)
}

// TelegramService is implemented by *telegram.Service.
type TelegramService interface {
	Grant(ctx context.Context, actor string, req telegram.GrantRequest) (*models.TelegramGrant, error)
	Sweep(ctx context.Context) (telegram.SweepResult, error)
}

// SupportService is implemented by *support.Service.
type SupportService interface {
	CreateTicket(ctx context.Context, actor string, req support.CreateTicketRequest) (*models.Ticket, error)
	ListTickets(ctx context.Context, status string, pageSize int, afterID int64) (*support.TicketPage, error)
	GetTicket(ctx context.Context, id int64) (*models.Ticket, error)
	AddMessage(ctx context.Context, actor string, ticketID int64, req support.MessageRequest) (*models.TicketMessage, error)
	ChangeStatus(ctx context.Context, actor string, id int64, req support.StatusRequest) (*models.Ticket, error)
	ListSubscriptions(ctx context.Context, profileID int64) ([]models.Subscription, error)
	CancelSubscription(ctx context.Context, actor string, id int64) (*models.Subscription, error)
}

var (
	_ PaymentService  = (*payments.Service)(nil)
	_ TelegramService = (*telegram.Service)(nil)
	_ SupportService  = (*support.Service)(nil)

	_ repository.FeeRuleRepositoryI = (*repository.FeeRuleRepository)(nil)
)
