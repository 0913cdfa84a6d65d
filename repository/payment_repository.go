package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"adminBackend/models"
)

// PaymentRepository mirrors gateway transactions. external_uid is the natural key.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, external_uid, order_id, profile_id, amount, currency, status, channel, method_kind,
card_last4, card_brand, issuer_country, customer_email, customer_phone, fee_amount, fee_source,
receipt_url, raw_payload, paid_at, created_at`

// Upsert inserts a payment or refreshes the gateway-owned fields of an existing one.
// An existing profile or order link is never cleared by a refresh.
func (r *PaymentRepository) Upsert(ctx context.Context, p *models.Payment) (int64, error) {
	if p == nil || p.ExternalUID == "" {
		return 0, errors.New("payment external_uid is required")
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()

	paidAt := p.PaidAt
	if paidAt == "" {
		paidAt = time.Now().UTC().Format("2006-01-02 15:04:05")
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO payments (external_uid, order_id, profile_id, amount, currency, status, channel, method_kind,
    card_last4, card_brand, issuer_country, customer_email, customer_phone, fee_amount, fee_source, raw_payload, paid_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(external_uid) DO UPDATE SET
    order_id = COALESCE(payments.order_id, excluded.order_id),
    profile_id = COALESCE(payments.profile_id, excluded.profile_id),
    amount = excluded.amount,
    currency = excluded.currency,
    status = excluded.status,
    channel = excluded.channel,
    method_kind = excluded.method_kind,
    card_last4 = excluded.card_last4,
    card_brand = excluded.card_brand,
    issuer_country = excluded.issuer_country,
    customer_email = excluded.customer_email,
    customer_phone = excluded.customer_phone,
    fee_amount = excluded.fee_amount,
    fee_source = excluded.fee_source,
    raw_payload = excluded.raw_payload,
    paid_at = excluded.paid_at
RETURNING id`,
		p.ExternalUID, nullInt64(p.OrderID), nullInt64(p.ProfileID), p.Amount, strings.ToUpper(p.Currency), string(p.Status),
		p.Channel, p.MethodKind, p.CardLast4, strings.ToLower(p.CardBrand), strings.ToUpper(p.IssuerCountry),
		NormalizeEmail(p.CustomerEmail), NormalizePhone(p.CustomerPhone), nullInt64(p.FeeAmount), p.FeeSource,
		p.RawPayload, paidAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
}

func (r *PaymentRepository) GetByExternalUID(ctx context.Context, uid string) (*models.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE external_uid = ?`, uid)
}

func (r *PaymentRepository) getOne(ctx context.Context, query string, args ...any) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list, err := scanPayments(rows)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// ListByIDs returns the payments with the given ids, ordered by id.
func (r *PaymentRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Payment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id IN (`+strings.Join(placeholders, ",")+`) ORDER BY id`, args...)
}

// ListNeedingClassification returns payments with missing derived fields and id > afterID.
func (r *PaymentRepository) ListNeedingClassification(ctx context.Context, afterID int64, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments
WHERE id > ? AND (channel = '' OR method_kind = '' OR card_brand = '' OR fee_amount IS NULL)
ORDER BY id LIMIT ?`, afterID, limit)
}

// ListUnlinked returns successful payments without a profile, oldest first.
func (r *PaymentRepository) ListUnlinked(ctx context.Context, afterID int64, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments
WHERE profile_id IS NULL AND status = 'successful' AND id > ?
ORDER BY id LIMIT ?`, afterID, limit)
}

// ListWithoutReceipt returns successful payments lacking a receipt URL.
func (r *PaymentRepository) ListWithoutReceipt(ctx context.Context, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments
WHERE receipt_url = '' AND status = 'successful'
ORDER BY id LIMIT ?`, limit)
}

// Classification holds the derived fields recomputed by backfill.
type Classification struct {
	Channel       string
	MethodKind    string
	CardBrand     string
	IssuerCountry string
	FeeAmount     int64
	FeeSource     string
}

// UpdateClassification stores recomputed derived fields.
func (r *PaymentRepository) UpdateClassification(ctx context.Context, id int64, c Classification) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE payments SET channel = ?, method_kind = ?, card_brand = ?, issuer_country = ?, fee_amount = ?, fee_source = ? WHERE id = ?`,
		c.Channel, c.MethodKind, strings.ToLower(c.CardBrand), strings.ToUpper(c.IssuerCountry), c.FeeAmount, c.FeeSource, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// LinkProfile attaches an unlinked payment to a profile. Already linked payments are left alone.
func (r *PaymentRepository) LinkProfile(ctx context.Context, id, profileID int64) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE payments SET profile_id = ? WHERE id = ? AND profile_id IS NULL`, profileID, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// SetReceiptURL records the receipt fetched from the gateway.
func (r *PaymentRepository) SetReceiptURL(ctx context.Context, id int64, url string) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE payments SET receipt_url = ? WHERE id = ?`, url, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

// scanPayments is a helper to scan rows into Payment objects.
func scanPayments(rows *sql.Rows) ([]models.Payment, error) {
	var out []models.Payment
	for rows.Next() {
		var p models.Payment
		var status string
		var orderID, profileID, fee sql.NullInt64
		if err := rows.Scan(&p.ID, &p.ExternalUID, &orderID, &profileID, &p.Amount, &p.Currency, &status, &p.Channel, &p.MethodKind,
			&p.CardLast4, &p.CardBrand, &p.IssuerCountry, &p.CustomerEmail, &p.CustomerPhone, &fee, &p.FeeSource,
			&p.ReceiptURL, &p.RawPayload, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Status = models.PaymentStatus(status)
		if orderID.Valid {
			v := orderID.Int64
			p.OrderID = &v
		}
		if profileID.Valid {
			v := profileID.Int64
			p.ProfileID = &v
		}
		if fee.Valid {
			v := fee.Int64
			p.FeeAmount = &v
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
