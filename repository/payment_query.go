package repository

import (
	"context"
	"strings"
	"time"

	"adminBackend/models"
)

// UnlinkedCardParams filters the unlinked-payments report.
type UnlinkedCardParams struct {
	Last4  string // exact match when non-empty
	Brand  string // exact match when non-empty
	Limit  int
	Offset int
}

// CardSummary aggregates unlinked successful payments made with one card
// fingerprint (last4 + brand) in one currency.
type CardSummary struct {
	Last4          string
	Brand          string
	PaymentsCount  int
	TotalAmount    int64
	Currency       string
	FirstPaidAt    string
	LastPaidAt     string
	LinkedProfiles int // distinct profiles already linked to payments with the same fingerprint
}

func (p UnlinkedCardParams) where() (string, []any) {
	where := []string{"p.profile_id IS NULL", "p.status = 'successful'", "p.card_last4 <> ''"}
	var args []any
	if p.Last4 != "" {
		where = append(where, "p.card_last4 = ?")
		args = append(args, p.Last4)
	}
	if p.Brand != "" {
		where = append(where, "p.card_brand = ?")
		args = append(args, strings.ToLower(p.Brand))
	}
	return strings.Join(where, " AND "), args
}

// UnlinkedCards groups unlinked successful payments by card fingerprint and
// currency, largest groups first, and returns the page plus the total number of groups.
// Amounts are never summed across currencies.
func (r *PaymentRepository) UnlinkedCards(ctx context.Context, p UnlinkedCardParams) ([]CardSummary, int, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout*time.Second)
	defer cancel()

	where, args := p.where()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM (SELECT 1 FROM payments p WHERE `+where+` GROUP BY p.card_last4, p.card_brand, p.currency)`, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
SELECT p.card_last4, p.card_brand, COUNT(*), COALESCE(SUM(p.amount), 0), p.currency, MIN(p.paid_at), MAX(p.paid_at),
    (SELECT COUNT(DISTINCT l.profile_id) FROM payments l
     WHERE l.profile_id IS NOT NULL AND l.card_last4 = p.card_last4 AND l.card_brand = p.card_brand)
FROM payments p
WHERE ` + where + `
GROUP BY p.card_last4, p.card_brand, p.currency
ORDER BY COUNT(*) DESC, p.card_last4, p.card_brand, p.currency
LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []CardSummary
	for rows.Next() {
		var c CardSummary
		if err := rows.Scan(&c.Last4, &c.Brand, &c.PaymentsCount, &c.TotalAmount, &c.Currency, &c.FirstPaidAt, &c.LastPaidAt, &c.LinkedProfiles); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UnlinkedCardPayments lists the unlinked successful payments behind one
// fingerprint, newest first. Empty brand or currency matches any.
func (r *PaymentRepository) UnlinkedCardPayments(ctx context.Context, last4, brand, currency string, limit, offset int) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE profile_id IS NULL AND status = 'successful' AND card_last4 = ?`
	args := []any{last4}
	if brand != "" {
		query += ` AND card_brand = ?`
		args = append(args, strings.ToLower(brand))
	}
	if currency != "" {
		query += ` AND currency = ?`
		args = append(args, strings.ToUpper(currency))
	}
	query += ` ORDER BY paid_at DESC, id DESC LIMIT ? OFFSET ?`
	return r.list(ctx, query, append(args, limit, offset)...)
}

// ProfilesForCard returns the distinct profiles already linked to a card fingerprint.
func (r *PaymentRepository) ProfilesForCard(ctx context.Context, last4, brand string) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT profile_id FROM payments
WHERE profile_id IS NOT NULL AND card_last4 = ? AND card_brand = ?
ORDER BY profile_id`, last4, strings.ToLower(brand))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}
