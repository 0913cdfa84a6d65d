package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"adminBackend/internal/db"
	"adminBackend/models"

	"github.com/google/uuid"
)

// AuditRepository is append-only: there is no update or delete, and the
// table carries triggers rejecting both.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(d *sql.DB) *AuditRepository {
	return &AuditRepository{db: d}
}

// Append records an action. meta is marshalled to JSON when non-nil.
func (r *AuditRepository) Append(ctx context.Context, actor, action, entity, entityID string, meta any) (*models.AuditLog, error) {
	entry := &models.AuditLog{
		ID:        uuid.New().String(),
		Actor:     actor,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		CreatedAt: db.FormatTime(time.Now()),
	}
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("marshal audit meta: %w", err)
		}
		entry.Meta = string(b)
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `INSERT INTO audit_logs (id, actor, action, entity, entity_id, meta, created_at) VALUES (?,?,?,?,?,?,?)`,
		entry.ID, entry.Actor, entry.Action, entry.Entity, entry.EntityID, entry.Meta, entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AuditFilter narrows List. Empty fields match everything.
type AuditFilter struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Limit    int
}

// List returns matching entries, newest first.
func (r *AuditRepository) List(ctx context.Context, f AuditFilter) ([]models.AuditLog, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	var where []string
	var args []any
	for _, c := range []struct{ col, val string }{
		{"actor", f.Actor}, {"action", f.Action}, {"entity", f.Entity}, {"entity_id", f.EntityID},
	} {
		if c.val != "" {
			where = append(where, c.col+" = ?")
			args = append(args, c.val)
		}
	}
	query := `SELECT id, actor, action, entity, entity_id, meta, created_at FROM audit_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, f.Limit)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.AuditLog
	for rows.Next() {
		var e models.AuditLog
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Entity, &e.EntityID, &e.Meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
