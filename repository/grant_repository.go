package repository

import (
	"context"
	"database/sql"
	"time"

	"adminBackend/internal/db"
	"adminBackend/models"
)

// GrantRepository stores Telegram access grants.
type GrantRepository struct {
	db *sql.DB
}

func NewGrantRepository(d *sql.DB) *GrantRepository {
	return &GrantRepository{db: d}
}

const grantColumns = `id, profile_id, chat_id, status, start_at, end_at, revoked_at, revoke_reason, invite_link`

// Create inserts an active grant valid from start to end.
func (r *GrantRepository) Create(ctx context.Context, profileID, chatID int64, start, end time.Time) (*models.TelegramGrant, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO telegram_grants (profile_id, chat_id, status, start_at, end_at) VALUES (?,?,?,?,?)`,
		profileID, chatID, string(models.GrantActive), db.FormatTime(start), db.FormatTime(end))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *GrantRepository) GetByID(ctx context.Context, id int64) (*models.TelegramGrant, error) {
	list, err := r.list(ctx, `SELECT `+grantColumns+` FROM telegram_grants WHERE id = ?`, id)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// SetInviteLink stores the invite link generated for a grant.
func (r *GrantRepository) SetInviteLink(ctx context.Context, id int64, link string) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE telegram_grants SET invite_link = ? WHERE id = ?`, link, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// ListExpiredActive returns active grants whose end_at is at or before now.
func (r *GrantRepository) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]models.TelegramGrant, error) {
	if limit <= 0 {
		limit = 500
	}
	return r.list(ctx, `SELECT `+grantColumns+` FROM telegram_grants
WHERE status = 'active' AND end_at <= ?
ORDER BY end_at, id LIMIT ?`, db.FormatTime(now), limit)
}

// ListByProfile returns every grant of a profile, newest first.
func (r *GrantRepository) ListByProfile(ctx context.Context, profileID int64) ([]models.TelegramGrant, error) {
	return r.list(ctx, `SELECT `+grantColumns+` FROM telegram_grants WHERE profile_id = ? ORDER BY id DESC`, profileID)
}

// HasOtherActive reports whether the profile holds another unexpired active grant for the chat.
func (r *GrantRepository) HasOtherActive(ctx context.Context, profileID, chatID, excludeID int64, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM telegram_grants
WHERE profile_id = ? AND chat_id = ? AND id <> ? AND status = 'active' AND end_at > ?`,
		profileID, chatID, excludeID, db.FormatTime(now)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkRevoked closes an active grant after the member was removed from the chat.
func (r *GrantRepository) MarkRevoked(ctx context.Context, id int64, reason string, at time.Time) error {
	return r.close(ctx, id, models.GrantRevoked, reason, at)
}

// MarkExpired closes an active grant without any Telegram side effect.
func (r *GrantRepository) MarkExpired(ctx context.Context, id int64, reason string, at time.Time) error {
	return r.close(ctx, id, models.GrantExpired, reason, at)
}

func (r *GrantRepository) close(ctx context.Context, id int64, status models.GrantStatus, reason string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE telegram_grants SET status = ?, revoke_reason = ?, revoked_at = ? WHERE id = ? AND status = 'active'`,
		string(status), reason, db.FormatTime(at), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *GrantRepository) list(ctx context.Context, query string, args ...any) ([]models.TelegramGrant, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.TelegramGrant
	for rows.Next() {
		var g models.TelegramGrant
		var status string
		var revokedAt sql.NullString
		if err := rows.Scan(&g.ID, &g.ProfileID, &g.ChatID, &status, &g.StartAt, &g.EndAt, &revokedAt, &g.RevokeReason, &g.InviteLink); err != nil {
			return nil, err
		}
		g.Status = models.GrantStatus(status)
		if revokedAt.Valid {
			v := revokedAt.String
			g.RevokedAt = &v
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
