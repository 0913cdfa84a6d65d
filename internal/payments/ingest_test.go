package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adminBackend/internal/gateway"
	"adminBackend/models"
	"adminBackend/repository"
)

func TestDrain_RecordsPaymentOnce(t *testing.T) {
	f := newFixture(t, "drain_once")
	ctx := context.Background()
	pid := f.profile(t, "buyer@example.com", "")

	tx := cardTx("uid-1", "4242", "Buyer@Example.com")
	ok, err := f.svc.Enqueue(ctx, tx, SourceFetch)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.Enqueue(ctx, tx, SourceFetch)
	require.NoError(t, err)
	assert.False(t, ok, "same uid must not be queued twice")

	res, err := f.svc.Drain(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Claimed: 1, Processed: 1, Linked: 1,
		Backlog: map[models.QueueStatus]int{models.QueueProcessed: 1}}, res)

	p, err := f.payments.GetByExternalUID(ctx, "uid-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.PaymentStatusSuccessful, p.Status)
	assert.Equal(t, "checkout", p.Channel)
	assert.Equal(t, "card", p.MethodKind)
	assert.Equal(t, "visa", p.CardBrand)
	require.NotNil(t, p.FeeAmount)
	assert.Equal(t, int64(204), *p.FeeAmount)
	assert.Equal(t, models.FeeSourceFallback, p.FeeSource)
	assert.Equal(t, "2026-03-09 12:00:00", p.PaidAt)
	require.NotNil(t, p.ProfileID)
	assert.Equal(t, pid, *p.ProfileID)

	entries, err := f.audit.List(ctx, repository.AuditFilter{Action: "payment.recorded"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	events, err := f.outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "payment.recorded", events[0].Topic)

	// nothing left to drain
	res, err = f.svc.Drain(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, res.Claimed)
}

func TestEnqueue_WebhookResendRequeues(t *testing.T) {
	f := newFixture(t, "drain_requeue")
	ctx := context.Background()

	tx := cardTx("uid-2", "1111", "")
	tx.Status = "incomplete"
	_, err := f.svc.Enqueue(ctx, tx, SourceWebhook)
	require.NoError(t, err)
	_, err = f.svc.Drain(ctx, 10)
	require.NoError(t, err)

	tx.Status = "successful"
	ok, err := f.svc.Enqueue(ctx, tx, SourceWebhook)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = f.svc.Drain(ctx, 10)
	require.NoError(t, err)

	p, _ := f.payments.GetByExternalUID(ctx, "uid-2")
	assert.Equal(t, models.PaymentStatusSuccessful, p.Status)

	_, err = f.svc.Enqueue(ctx, gateway.Transaction{}, SourceWebhook)
	assert.Error(t, err)
}

func TestDrain_CountsFailedAttempts(t *testing.T) {
	f := newFixture(t, "drain_fail")
	ctx := context.Background()
	f.svc.MaxAttempts = 2

	_, err := f.queue.Enqueue(ctx, "broken", SourceWebhook, []byte(`{not json`))
	require.NoError(t, err)
	_, err = f.svc.Enqueue(ctx, cardTx("good", "2222", ""), SourceFetch)
	require.NoError(t, err)

	res, err := f.svc.Drain(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed, "a broken item must not stop the batch")
	assert.Equal(t, 1, res.Retrying)

	res, err = f.svc.Drain(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	assert.Equal(t, 1, res.Backlog[models.QueueFailed])
	assert.Equal(t, 1, res.Backlog[models.QueueProcessed])
	assert.Zero(t, res.Backlog[models.QueuePending])
}

func TestDrain_UsesStoredFeeRules(t *testing.T) {
	f := newFixture(t, "drain_rules")
	ctx := context.Background()
	require.NoError(t, repository.NewFeeRuleRepository(f.db).ReplaceAll(ctx, []models.FeeRule{
		{CardBrand: "visa", Percent: 1, FixedMinor: 7, Priority: 1, Active: true},
	}))
	_, err := f.svc.Enqueue(ctx, cardTx("ruled", "3333", ""), SourceFetch)
	require.NoError(t, err)
	_, err = f.svc.Drain(ctx, 10)
	require.NoError(t, err)

	p, _ := f.payments.GetByExternalUID(ctx, "ruled")
	require.NotNil(t, p.FeeAmount)
	assert.Equal(t, int64(107), *p.FeeAmount)
	assert.Equal(t, models.FeeSourceRule, p.FeeSource)
}

func TestSync_FetchesThenDrains(t *testing.T) {
	f := newFixture(t, "sync")
	ctx := context.Background()
	from := fixedNow.Add(-f.svc.FetchLookback)
	f.gw.On("ListTransactions", mock.Anything, from, 1).
		Return([]gateway.Transaction{cardTx("s-1", "1234", ""), cardTx("s-2", "5678", "")}, nil).Once()

	res, err := f.svc.Sync(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.Enqueued)
	assert.Equal(t, 2, res.Drain.Processed)
	f.gw.AssertExpectations(t)
}

func TestSync_DrainsEvenWhenFetchFails(t *testing.T) {
	f := newFixture(t, "sync_fail")
	ctx := context.Background()
	_, err := f.svc.Enqueue(ctx, cardTx("webhook-1", "1234", ""), SourceWebhook)
	require.NoError(t, err)
	f.gw.On("ListTransactions", mock.Anything, mock.Anything, 1).
		Return(nil, &gateway.APIError{StatusCode: 502, Message: "bad gateway"}).Once()

	res, err := f.svc.Sync(ctx, 50)
	assert.Error(t, err)
	assert.Equal(t, 1, res.Drain.Processed)
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, models.PaymentStatusSuccessful, mapStatus("Successful"))
	assert.Equal(t, models.PaymentStatusFailed, mapStatus("declined"))
	assert.Equal(t, models.PaymentStatusRefunded, mapStatus("refunded"))
	assert.Equal(t, models.PaymentStatusPending, mapStatus("incomplete"))
}

func TestDrain_SettlesOrderFromTrackingID(t *testing.T) {
	f := newFixture(t, "drain_order")
	ctx := context.Background()
	buyer := f.profile(t, "buyer@example.com", "")
	other := f.profile(t, "payer@example.com", "")
	order, err := f.orders.Create(ctx, &models.Order{ProfileID: buyer, ProductCode: "course", Amount: 10000})
	require.NoError(t, err)

	// the card holder's email belongs to someone else; the order wins
	tx := cardTx("uid-order", "4242", "payer@example.com")
	tx.TrackingID = fmt.Sprintf("order-%d", order.ID)
	_, err = f.svc.Enqueue(ctx, tx, SourceWebhook)
	require.NoError(t, err)
	res, err := f.svc.Drain(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Linked)

	p, err := f.payments.GetByExternalUID(ctx, "uid-order")
	require.NoError(t, err)
	require.NotNil(t, p.OrderID)
	assert.Equal(t, order.ID, *p.OrderID)
	require.NotNil(t, p.ProfileID)
	assert.Equal(t, buyer, *p.ProfileID)
	assert.NotEqual(t, other, *p.ProfileID)

	got, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)

	// a later refund of the same transaction refunds the order
	tx.Status = "refunded"
	_, err = f.svc.Enqueue(ctx, tx, SourceWebhook)
	require.NoError(t, err)
	_, err = f.svc.Drain(ctx, 10)
	require.NoError(t, err)
	got, err = f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRefunded, got.Status)
}

func TestDrain_IgnoresForeignTrackingID(t *testing.T) {
	f := newFixture(t, "drain_foreign_tracking")
	ctx := context.Background()
	tx := cardTx("uid-x", "4242", "nobody@example.com")
	tx.TrackingID = "crm-lead-77"
	_, err := f.svc.Enqueue(ctx, tx, SourceFetch)
	require.NoError(t, err)
	res, err := f.svc.Drain(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)

	p, err := f.payments.GetByExternalUID(ctx, "uid-x")
	require.NoError(t, err)
	assert.Nil(t, p.OrderID)
}

type failingOutbox struct {
	repository.OutboxRepositoryI
	err error
}

func (o failingOutbox) Append(context.Context, string, map[string]any) (string, error) {
	return "", o.err
}

func TestDrain_OutboxFailureLeavesNoAuditEntry(t *testing.T) {
	f := newFixture(t, "drain_outbox_fail")
	ctx := context.Background()
	_, err := f.svc.Enqueue(ctx, cardTx("uid-o", "4444", ""), SourceFetch)
	require.NoError(t, err)

	f.svc.outbox = failingOutbox{OutboxRepositoryI: f.outbox, err: errors.New("disk full")}
	res, err := f.svc.Drain(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Retrying)
	entries, err := f.audit.List(ctx, repository.AuditFilter{Action: "payment.recorded"})
	require.NoError(t, err)
	assert.Empty(t, entries)

	f.svc.outbox = f.outbox
	res, err = f.svc.Drain(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	entries, err = f.audit.List(ctx, repository.AuditFilter{Action: "payment.recorded"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

type vanishingPayments struct {
	repository.PaymentRepositoryI
}

func (vanishingPayments) GetByID(context.Context, int64) (*models.Payment, error) {
	return nil, nil
}

func TestDrain_MissingPaymentRowIsAnError(t *testing.T) {
	f := newFixture(t, "drain_vanished")
	ctx := context.Background()
	_, err := f.svc.Enqueue(ctx, cardTx("uid-v", "5555", ""), SourceFetch)
	require.NoError(t, err)

	f.svc.payments = vanishingPayments{PaymentRepositoryI: f.payments}
	items, err := f.queue.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	_, err = f.svc.processItem(ctx, items[0], nil)
	assert.ErrorIs(t, err, ErrPaymentMissing)
	assert.NotContains(t, err.Error(), "<nil>")
}
