package repository

import (
	"context"
	"time"

	"adminBackend/models"
)

// UserRepositoryI defines operations on staff accounts.
type UserRepositoryI interface {
	Create(ctx context.Context, username string) (*models.User, error)
	CreateWithRole(ctx context.Context, username, role string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

// ProfileRepositoryI defines the profile lookups used by reconciliation and Telegram jobs.
type ProfileRepositoryI interface {
	GetByID(ctx context.Context, id int64) (*models.Profile, error)
	FindIDsByEmail(ctx context.Context, email string) ([]int64, error)
	FindIDsByPhone(ctx context.Context, phone string) ([]int64, error)
}

// PaymentRepositoryI defines operations on mirrored gateway payments.
type PaymentRepositoryI interface {
	Upsert(ctx context.Context, p *models.Payment) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	GetByExternalUID(ctx context.Context, uid string) (*models.Payment, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Payment, error)
	ListNeedingClassification(ctx context.Context, afterID int64, limit int) ([]models.Payment, error)
	ListUnlinked(ctx context.Context, afterID int64, limit int) ([]models.Payment, error)
	ListWithoutReceipt(ctx context.Context, limit int) ([]models.Payment, error)
	UpdateClassification(ctx context.Context, id int64, c Classification) error
	LinkProfile(ctx context.Context, id, profileID int64) error
	SetReceiptURL(ctx context.Context, id int64, url string) error
	UnlinkedCards(ctx context.Context, p UnlinkedCardParams) ([]CardSummary, int, error)
	UnlinkedCardPayments(ctx context.Context, last4, brand, currency string, limit, offset int) ([]models.Payment, error)
	ProfilesForCard(ctx context.Context, last4, brand string) ([]int64, error)
}

// OrderRepositoryI defines the order lookups used when recording payments.
type OrderRepositoryI interface {
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error
}

// QueueRepositoryI defines operations on the raw transaction queue.
type QueueRepositoryI interface {
	Enqueue(ctx context.Context, uid, source string, payload []byte) (bool, error)
	Requeue(ctx context.Context, uid string, payload []byte) error
	ListPending(ctx context.Context, limit int) ([]models.QueueItem, error)
	MarkProcessed(ctx context.Context, id int64) error
	MarkAttemptFailed(ctx context.Context, id int64, cause string, maxAttempts int) (models.QueueStatus, error)
	CountByStatus(ctx context.Context) (map[models.QueueStatus]int, error)
}

// FeeRuleRepositoryI defines operations on the fee table.
type FeeRuleRepositoryI interface {
	List(ctx context.Context, activeOnly bool) ([]models.FeeRule, error)
	ReplaceAll(ctx context.Context, rules []models.FeeRule) error
}

// GrantRepositoryI defines operations on Telegram grants.
type GrantRepositoryI interface {
	Create(ctx context.Context, profileID, chatID int64, start, end time.Time) (*models.TelegramGrant, error)
	GetByID(ctx context.Context, id int64) (*models.TelegramGrant, error)
	SetInviteLink(ctx context.Context, id int64, link string) error
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]models.TelegramGrant, error)
	HasOtherActive(ctx context.Context, profileID, chatID, excludeID int64, now time.Time) (bool, error)
	MarkRevoked(ctx context.Context, id int64, reason string, at time.Time) error
	MarkExpired(ctx context.Context, id int64, reason string, at time.Time) error
}

// SubscriptionRepositoryI defines operations on subscriptions.
type SubscriptionRepositoryI interface {
	GetByID(ctx context.Context, id int64) (*models.Subscription, error)
	ListByProfile(ctx context.Context, profileID int64) ([]models.Subscription, error)
	Cancel(ctx context.Context, id int64, at time.Time) (*models.Subscription, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// TicketRepositoryI defines operations on support tickets.
type TicketRepositoryI interface {
	Create(ctx context.Context, t *models.Ticket) (*models.Ticket, error)
	GetWithMessages(ctx context.Context, id int64) (*models.Ticket, error)
	List(ctx context.Context, p ListTicketsParams) ([]models.Ticket, error)
	AddMessage(ctx context.Context, m *models.TicketMessage) (*models.TicketMessage, error)
	UpdateStatus(ctx context.Context, id int64, to models.TicketStatus) (*models.Ticket, error)
}

// AuditRepositoryI is the append-only audit log.
type AuditRepositoryI interface {
	Append(ctx context.Context, actor, action, entity, entityID string, meta any) (*models.AuditLog, error)
	List(ctx context.Context, f AuditFilter) ([]models.AuditLog, error)
}

// OutboxRepositoryI stores and drains CRM sync events.
type OutboxRepositoryI interface {
	Append(ctx context.Context, topic string, payload map[string]any) (string, error)
	FetchPending(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ UserRepositoryI         = (*UserRepository)(nil)
	_ ProfileRepositoryI      = (*ProfileRepository)(nil)
	_ PaymentRepositoryI      = (*PaymentRepository)(nil)
	_ OrderRepositoryI        = (*OrderRepository)(nil)
	_ QueueRepositoryI        = (*QueueRepository)(nil)
	_ FeeRuleRepositoryI      = (*FeeRuleRepository)(nil)
	_ GrantRepositoryI        = (*GrantRepository)(nil)
	_ SubscriptionRepositoryI = (*SubscriptionRepository)(nil)
	_ TicketRepositoryI       = (*TicketRepository)(nil)
	_ AuditRepositoryI        = (*AuditRepository)(nil)
	_ OutboxRepositoryI       = (*OutboxRepository)(nil)
)
