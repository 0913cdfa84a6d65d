package httpapi

import (
	"context"

	"github.com/stretchr/testify/mock"

	"adminBackend/internal/gateway"
	"adminBackend/internal/payments"
	"adminBackend/internal/support"
	"adminBackend/internal/telegram"
	"adminBackend/models"
	"adminBackend/repository"
)

// MockPaymentService is a mock implementation of PaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Enqueue(ctx context.Context, tx gateway.Transaction, source string) (bool, error) {
	args := m.Called(ctx, tx, source)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentService) PaymentByUID(ctx context.Context, uid string) (*models.Payment, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) UnlinkedReport(ctx context.Context, req payments.UnlinkedRequest) (*payments.UnlinkedResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.UnlinkedResponse), args.Error(1)
}

func (m *MockPaymentService) Backfill(ctx context.Context, actor string, req payments.BackfillRequest) (payments.BackfillResult, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(payments.BackfillResult), args.Error(1)
}

func (m *MockPaymentService) Reconcile(ctx context.Context, dryRun bool, limit int) (payments.ReconcileResult, error) {
	args := m.Called(ctx, dryRun, limit)
	return args.Get(0).(payments.ReconcileResult), args.Error(1)
}

func (m *MockPaymentService) FetchReceipts(ctx context.Context, actor string, req payments.ReceiptRequest) (payments.ReceiptResult, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(payments.ReceiptResult), args.Error(1)
}

func (m *MockPaymentService) Sync(ctx context.Context, drainLimit int) (payments.SyncResult, error) {
	args := m.Called(ctx, drainLimit)
	return args.Get(0).(payments.SyncResult), args.Error(1)
}

// MockTelegramService is a mock implementation of TelegramService
type MockTelegramService struct {
	mock.Mock
}

func (m *MockTelegramService) Grant(ctx context.Context, actor string, req telegram.GrantRequest) (*models.TelegramGrant, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TelegramGrant), args.Error(1)
}

func (m *MockTelegramService) Sweep(ctx context.Context) (telegram.SweepResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(telegram.SweepResult), args.Error(1)
}

// MockSupportService is a mock implementation of SupportService
type MockSupportService struct {
	mock.Mock
}

func (m *MockSupportService) CreateTicket(ctx context.Context, actor string, req support.CreateTicketRequest) (*models.Ticket, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockSupportService) ListTickets(ctx context.Context, status string, pageSize int, afterID int64) (*support.TicketPage, error) {
	args := m.Called(ctx, status, pageSize, afterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*support.TicketPage), args.Error(1)
}

func (m *MockSupportService) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockSupportService) AddMessage(ctx context.Context, actor string, ticketID int64, req support.MessageRequest) (*models.TicketMessage, error) {
	args := m.Called(ctx, actor, ticketID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketMessage), args.Error(1)
}

func (m *MockSupportService) ChangeStatus(ctx context.Context, actor string, id int64, req support.StatusRequest) (*models.Ticket, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockSupportService) ListSubscriptions(ctx context.Context, profileID int64) ([]models.Subscription, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

func (m *MockSupportService) CancelSubscription(ctx context.Context, actor string, id int64) (*models.Subscription, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

// MockFeeRuleRepository is a mock implementation of repository.FeeRuleRepositoryI
type MockFeeRuleRepository struct {
	mock.Mock
}

func (m *MockFeeRuleRepository) List(ctx context.Context, activeOnly bool) ([]models.FeeRule, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeeRule), args.Error(1)
}

func (m *MockFeeRuleRepository) ReplaceAll(ctx context.Context, rules []models.FeeRule) error {
	args := m.Called(ctx, rules)
	return args.Error(0)
}

// MockAuditRepository is a mock implementation of repository.AuditRepositoryI
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, actor, action, entity, entityID string, meta any) (*models.AuditLog, error) {
	args := m.Called(ctx, actor, action, entity, entityID, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditLog), args.Error(1)
}

func (m *MockAuditRepository) List(ctx context.Context, f repository.AuditFilter) ([]models.AuditLog, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuditLog), args.Error(1)
}
