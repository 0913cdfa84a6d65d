package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminBackend/models"
)

func TestReconcile_MatchOrder(t *testing.T) {
	f := newFixture(t, "reconcile")
	ctx := context.Background()

	alice := f.profile(t, "alice@example.com", "+375 29 111-22-33")
	bob := f.profile(t, "bob@example.com", "")
	f.profile(t, "twin@example.com", "")
	f.profile(t, "TWIN@example.com", "")
	carol := f.profile(t, "carol@example.com", "")
	dave := f.profile(t, "dave@example.com", "")

	// card history: 4242/visa belongs to bob only, 9999/visa to carol and dave
	for _, p := range []models.Payment{
		{ExternalUID: "h1", CardLast4: "4242", CardBrand: "visa", ProfileID: &bob},
		{ExternalUID: "h2", CardLast4: "9999", CardBrand: "visa", ProfileID: &carol},
		{ExternalUID: "h3", CardLast4: "9999", CardBrand: "visa", ProfileID: &dave},
	} {
		f.payment(t, p)
	}

	byEmail := f.payment(t, models.Payment{ExternalUID: "u1", CustomerEmail: "ALICE@example.com", CardLast4: "5555", CardBrand: "visa"})
	byPhone := f.payment(t, models.Payment{ExternalUID: "u2", CustomerPhone: "375291112233"})
	byCard := f.payment(t, models.Payment{ExternalUID: "u3", CardLast4: "4242", CardBrand: "visa"})
	ambiguousEmail := f.payment(t, models.Payment{ExternalUID: "u4", CustomerEmail: "twin@example.com", CardLast4: "4242", CardBrand: "visa"})
	collision := f.payment(t, models.Payment{ExternalUID: "u5", CardLast4: "9999", CardBrand: "visa"})
	shortPhone := f.payment(t, models.Payment{ExternalUID: "u6", CustomerPhone: "12345"})

	dry, err := f.svc.Reconcile(ctx, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, dry.Linked)
	p, _ := f.payments.GetByID(ctx, byEmail)
	assert.Nil(t, p.ProfileID, "dry run must not link")

	res, err := f.svc.Reconcile(ctx, false, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Scanned)
	assert.Equal(t, 3, res.Linked)
	assert.Equal(t, 2, res.Ambiguous)
	assert.Equal(t, 1, res.Unmatched)
	assert.Equal(t, map[string]int{MatchEmail: 1, MatchPhone: 1, MatchCard: 1}, res.ByReason)

	expect := map[int64]*int64{byEmail: &alice, byPhone: &alice, byCard: &bob, ambiguousEmail: nil, collision: nil, shortPhone: nil}
	for id, want := range expect {
		p, err := f.payments.GetByID(ctx, id)
		require.NoError(t, err)
		if want == nil {
			assert.Nil(t, p.ProfileID, "payment %d", id)
			continue
		}
		require.NotNil(t, p.ProfileID, "payment %d", id)
		assert.Equal(t, *want, *p.ProfileID, "payment %d", id)
	}
}

func TestReconcile_RespectsLimit(t *testing.T) {
	f := newFixture(t, "reconcile_limit")
	for _, uid := range []string{"a", "b", "c"} {
		f.payment(t, models.Payment{ExternalUID: uid})
	}
	res, err := f.svc.Reconcile(context.Background(), true, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Scanned)
}
