package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"adminBackend/internal/db"
	"adminBackend/models"
)

// SubscriptionRepository manages access subscriptions.
type SubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(d *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: d}
}

const subscriptionColumns = `id, profile_id, product_code, status, access_end, canceled_at, created_at`

func (r *SubscriptionRepository) Create(ctx context.Context, profileID int64, product string, accessEnd time.Time) (*models.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO subscriptions (profile_id, product_code, status, access_end) VALUES (?,?,?,?)`,
		profileID, product, string(models.SubscriptionActive), db.FormatTime(accessEnd))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id int64) (*models.Subscription, error) {
	list, err := r.list(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r *SubscriptionRepository) ListByProfile(ctx context.Context, profileID int64) ([]models.Subscription, error) {
	return r.list(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE profile_id = ? ORDER BY id DESC`, profileID)
}

// Cancel moves an active subscription to canceled. Anything else is ErrInvalidTransition.
func (r *SubscriptionRepository) Cancel(ctx context.Context, id int64, at time.Time) (*models.Subscription, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotFound
	}
	if s.Status != models.SubscriptionActive {
		return nil, fmt.Errorf("%w: subscription is %s", ErrInvalidTransition, s.Status)
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE subscriptions SET status = ?, canceled_at = ? WHERE id = ? AND status = 'active'`,
		string(models.SubscriptionCanceled), db.FormatTime(at), id)
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ExpireDue marks active subscriptions whose access ended as expired and returns how many changed.
func (r *SubscriptionRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE subscriptions SET status = ? WHERE status = 'active' AND access_end <= ?`,
		string(models.SubscriptionExpired), db.FormatTime(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SubscriptionRepository) list(ctx context.Context, query string, args ...any) ([]models.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Subscription
	for rows.Next() {
		var s models.Subscription
		var status string
		var canceledAt sql.NullString
		if err := rows.Scan(&s.ID, &s.ProfileID, &s.ProductCode, &status, &s.AccessEnd, &canceledAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Status = models.SubscriptionStatus(status)
		if canceledAt.Valid {
			v := canceledAt.String
			s.CanceledAt = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
