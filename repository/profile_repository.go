package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"adminBackend/models"
)

// ProfileRepository stores customer profiles. Phones are stored as digits only
// so that reconciliation can compare them with a plain equality.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// NormalizePhone strips everything but digits.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if p == nil {
		return nil, errors.New("profile is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO profiles (email, phone, full_name, telegram_user_id) VALUES (?,?,?,?)`,
		NormalizeEmail(p.Email), NormalizePhone(p.Phone), p.FullName, nullInt64(p.TelegramUserID))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()

	var p models.Profile
	var tg sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT id, email, phone, full_name, telegram_user_id, created_at FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.Email, &p.Phone, &p.FullName, &tg, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if tg.Valid {
		v := tg.Int64
		p.TelegramUserID = &v
	}
	return &p, nil
}

// FindIDsByEmail returns ids of profiles with the given email (case-insensitive).
func (r *ProfileRepository) FindIDsByEmail(ctx context.Context, email string) ([]int64, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return r.queryIDs(ctx, `SELECT id FROM profiles WHERE lower(email) = ? ORDER BY id`, email)
}

// FindIDsByPhone returns ids of profiles whose normalised phone matches.
func (r *ProfileRepository) FindIDsByPhone(ctx context.Context, phone string) ([]int64, error) {
	phone = NormalizePhone(phone)
	if phone == "" {
		return nil, nil
	}
	return r.queryIDs(ctx, `SELECT id FROM profiles WHERE phone = ? ORDER BY id`, phone)
}

// SetTelegramUserID links a Telegram account to a profile.
func (r *ProfileRepository) SetTelegramUserID(ctx context.Context, id, telegramUserID int64) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET telegram_user_id = ? WHERE id = ?`, telegramUserID, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *ProfileRepository) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
