package payments

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adminBackend/internal/gateway"
	"adminBackend/internal/testutil"
	"adminBackend/models"
	"adminBackend/repository"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) ListTransactions(ctx context.Context, from time.Time, page int) ([]gateway.Transaction, error) {
	args := m.Called(ctx, from, page)
	txs, _ := args.Get(0).([]gateway.Transaction)
	return txs, args.Error(1)
}

func (m *mockGateway) GetReceipt(ctx context.Context, uid string) (string, error) {
	args := m.Called(ctx, uid)
	return args.String(0), args.Error(1)
}

type fixture struct {
	db       *sql.DB
	svc      *Service
	gw       *mockGateway
	payments *repository.PaymentRepository
	profiles *repository.ProfileRepository
	orders   *repository.OrderRepository
	queue    *repository.QueueRepository
	audit    *repository.AuditRepository
	outbox   *repository.OutboxRepository
}

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	f := &fixture{
		db:       d,
		gw:       &mockGateway{},
		payments: repository.NewPaymentRepository(d),
		profiles: repository.NewProfileRepository(d),
		orders:   repository.NewOrderRepository(d),
		queue:    repository.NewQueueRepository(d),
		audit:    repository.NewAuditRepository(d),
		outbox:   repository.NewOutboxRepository(d),
	}
	f.svc = NewService(Deps{
		Payments: f.payments,
		Profiles: f.profiles,
		Orders:   f.orders,
		Queue:    f.queue,
		Rules:    repository.NewFeeRuleRepository(d),
		Audit:    f.audit,
		Outbox:   f.outbox,
		Gateway:  f.gw,
	})
	f.svc.now = func() time.Time { return fixedNow }
	f.svc.sleep = func(context.Context, time.Duration) error { return nil }
	return f
}

func (f *fixture) profile(t *testing.T, email, phone string) int64 {
	t.Helper()
	p, err := f.profiles.Create(context.Background(), &models.Profile{Email: email, Phone: phone})
	require.NoError(t, err)
	return p.ID
}

func (f *fixture) payment(t *testing.T, p models.Payment) int64 {
	t.Helper()
	if p.Status == "" {
		p.Status = models.PaymentStatusSuccessful
	}
	if p.Currency == "" {
		p.Currency = "BYN"
	}
	id, err := f.payments.Upsert(context.Background(), &p)
	require.NoError(t, err)
	return id
}

func cardTx(uid, last4, email string) gateway.Transaction {
	return gateway.Transaction{
		UID:               uid,
		Status:            "successful",
		Amount:            10000,
		Currency:          "BYN",
		PaymentMethodType: "credit_card",
		CreatedAt:         "2026-03-09T12:00:00Z",
		CreditCard:        &gateway.CreditCard{Brand: "visa", Last4: last4, Bin: "411111", IssuerCountry: "BY"},
		Customer:          &gateway.Customer{Email: email},
	}
}
