package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminBackend/models"
	"adminBackend/repository"
)

func TestUnlinkedRequest_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		in        UnlinkedRequest
		wantLimit int
		wantErr   string
	}{
		{"defaults", UnlinkedRequest{}, DefaultReportLimit, ""},
		{"clamps large limit", UnlinkedRequest{Limit: 999}, MaxReportLimit, ""},
		{"negative limit uses default", UnlinkedRequest{Limit: -5}, DefaultReportLimit, ""},
		{"short last4", UnlinkedRequest{Last4: "12"}, 0, "4 digits"},
		{"letters in last4", UnlinkedRequest{Last4: "12a4"}, 0, "4 digits"},
		{"details needs last4", UnlinkedRequest{Mode: "details"}, 0, "requires last4"},
		{"unknown mode", UnlinkedRequest{Mode: "everything"}, 0, "mode must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			err := req.Normalize()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRequest))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, req.Limit)
			assert.Equal(t, ModeSummary, req.Mode)
		})
	}
}

func TestUnlinkedReport(t *testing.T) {
	f := newFixture(t, "report")
	ctx := context.Background()
	p1 := f.profile(t, "one@example.com", "")
	p2 := f.profile(t, "two@example.com", "")

	f.payment(t, models.Payment{ExternalUID: "l1", CardLast4: "1111", CardBrand: "visa", ProfileID: &p1})
	f.payment(t, models.Payment{ExternalUID: "l2", CardLast4: "1111", CardBrand: "visa", ProfileID: &p2})
	f.payment(t, models.Payment{ExternalUID: "u1", Amount: 300, CardLast4: "1111", CardBrand: "visa", PaidAt: "2026-01-01 10:00:00"})
	f.payment(t, models.Payment{ExternalUID: "u2", Amount: 200, CardLast4: "1111", CardBrand: "visa", PaidAt: "2026-01-04 10:00:00"})
	f.payment(t, models.Payment{ExternalUID: "u3", Amount: 50, CardLast4: "2222", CardBrand: "mastercard", PaidAt: "2026-01-02 10:00:00"})

	out, err := f.svc.UnlinkedReport(ctx, UnlinkedRequest{Limit: 999})
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, Pagination{Limit: 500, Offset: 0, Total: 2, HasMore: false}, out.Pagination)
	require.Len(t, out.Cards, 2)
	assert.Equal(t, "1111", out.Cards[0].Last4)
	assert.Equal(t, 2, out.Cards[0].PaymentsCount)
	assert.Equal(t, int64(500), out.Cards[0].TotalAmount)
	assert.True(t, out.Cards[0].CollisionRisk)
	assert.False(t, out.Cards[1].CollisionRisk)
	assert.Nil(t, out.Cards[0].Payments)

	page, err := f.svc.UnlinkedReport(ctx, UnlinkedRequest{Limit: 1})
	require.NoError(t, err)
	assert.True(t, page.Pagination.HasMore)

	details, err := f.svc.UnlinkedReport(ctx, UnlinkedRequest{Mode: "details", Last4: "1111", Brand: "VISA"})
	require.NoError(t, err)
	require.Len(t, details.Cards, 1)
	require.Len(t, details.Cards[0].Payments, 2)
	assert.Equal(t, "u2", details.Cards[0].Payments[0].ExternalUID)

	_, err = f.svc.UnlinkedReport(ctx, UnlinkedRequest{Last4: "12"})
	assert.ErrorContains(t, err, "4 digits")
}

func TestUnlinkedReport_MatchesReconcileScope(t *testing.T) {
	f := newFixture(t, "report_scope")
	ctx := context.Background()

	f.payment(t, models.Payment{ExternalUID: "ok", Amount: 1000, CardLast4: "3333", CardBrand: "visa", PaidAt: "2026-02-01 10:00:00"})
	f.payment(t, models.Payment{ExternalUID: "declined", Amount: 99999, Status: models.PaymentStatusFailed, CardLast4: "3333", CardBrand: "visa", PaidAt: "2026-02-02 10:00:00"})
	f.payment(t, models.Payment{ExternalUID: "usd", Amount: 5000, Currency: "USD", CardLast4: "3333", CardBrand: "visa", PaidAt: "2026-02-03 10:00:00"})

	out, err := f.svc.UnlinkedReport(ctx, UnlinkedRequest{Last4: "3333"})
	require.NoError(t, err)
	require.Len(t, out.Cards, 2)
	byCurrency := map[string]CardReport{}
	count := 0
	for _, c := range out.Cards {
		byCurrency[c.Currency] = c
		count += c.PaymentsCount
	}
	assert.Equal(t, int64(1000), byCurrency["BYN"].TotalAmount)
	assert.Equal(t, int64(5000), byCurrency["USD"].TotalAmount)

	rec, err := f.svc.Reconcile(ctx, true, 0)
	require.NoError(t, err)
	assert.Equal(t, rec.Scanned, count, "report and reconcile must see the same unlinked payments")

	details, err := f.svc.UnlinkedReport(ctx, UnlinkedRequest{Mode: "details", Last4: "3333"})
	require.NoError(t, err)
	for _, c := range details.Cards {
		require.Len(t, c.Payments, 1)
		assert.Equal(t, c.Currency, c.Payments[0].Currency)
	}
}

func TestPaymentByUID(t *testing.T) {
	f := newFixture(t, "by_uid")
	ctx := context.Background()
	f.payment(t, models.Payment{ExternalUID: "tx-9", Amount: 700})

	p, err := f.svc.PaymentByUID(ctx, " tx-9 ")
	require.NoError(t, err)
	assert.Equal(t, int64(700), p.Amount)

	_, err = f.svc.PaymentByUID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.PaymentByUID(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
