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

// TicketRepository stores support tickets and their messages.
type TicketRepository struct {
	db *sql.DB
}

func NewTicketRepository(d *sql.DB) *TicketRepository {
	return &TicketRepository{db: d}
}

const ticketColumns = `id, number, profile_id, subject, description, status, priority, created_by, created_at, updated_at`

// Create inserts an open ticket and assigns its public number in the same transaction.
func (r *TicketRepository) Create(ctx context.Context, t *models.Ticket) (*models.Ticket, error) {
	if t == nil {
		return nil, errors.New("ticket is nil")
	}
	if t.Priority == "" {
		t.Priority = models.PriorityNormal
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO tickets (profile_id, subject, description, status, priority, created_by) VALUES (?,?,?,?,?,?)`,
		nullInt64(t.ProfileID), t.Subject, t.Description, string(models.TicketOpen), t.Priority, t.CreatedBy)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tickets SET number = ? WHERE id = ?`, models.TicketNumber(id), id); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches a ticket without its messages.
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	list, err := r.list(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// GetWithMessages fetches a ticket and its conversation in chronological order.
func (r *TicketRepository) GetWithMessages(ctx context.Context, id int64) (*models.Ticket, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil || t == nil {
		return t, err
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, ticket_id, author, body, is_internal, created_at FROM ticket_messages WHERE ticket_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m models.TicketMessage
		if err := rows.Scan(&m.ID, &m.TicketID, &m.Author, &m.Body, &m.IsInternal, &m.CreatedAt); err != nil {
			return nil, err
		}
		t.Messages = append(t.Messages, m)
	}
	return t, rows.Err()
}

// ListTicketsParams filters and paginates List. AfterID is a keyset cursor on id (descending).
type ListTicketsParams struct {
	Status   models.TicketStatus
	PageSize int
	AfterID  int64
}

// List returns tickets newest first.
func (r *TicketRepository) List(ctx context.Context, p ListTicketsParams) ([]models.Ticket, error) {
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE 1=1`
	var args []any
	if p.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(p.Status))
	}
	if p.AfterID > 0 {
		query += ` AND id < ?`
		args = append(args, p.AfterID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	return r.list(ctx, query, append(args, p.PageSize)...)
}

// AddMessage appends a message and bumps updated_at.
func (r *TicketRepository) AddMessage(ctx context.Context, m *models.TicketMessage) (*models.TicketMessage, error) {
	if m == nil {
		return nil, errors.New("message is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	now := db.FormatTime(time.Now())
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `UPDATE tickets SET updated_at = ? WHERE id = ?`, now, m.TicketID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	res, err = tx.ExecContext(ctx, `INSERT INTO ticket_messages (ticket_id, author, body, is_internal, created_at) VALUES (?,?,?,?,?)`,
		m.TicketID, m.Author, m.Body, m.IsInternal, now)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.CreatedAt = now
	return &out, nil
}

// UpdateStatus changes a ticket's status if the transition is allowed.
func (r *TicketRepository) UpdateStatus(ctx context.Context, id int64, to models.TicketStatus) (*models.Ticket, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if !t.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE tickets SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), db.FormatTime(time.Now()), id, string(t.Status))
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		// lost a race with a concurrent status change
		return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	}
	return r.GetByID(ctx, id)
}

func (r *TicketRepository) list(ctx context.Context, query string, args ...any) ([]models.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Ticket
	for rows.Next() {
		var t models.Ticket
		var status string
		var profileID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Number, &profileID, &t.Subject, &t.Description, &status, &t.Priority, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.Status = models.TicketStatus(status)
		if profileID.Valid {
			v := profileID.Int64
			t.ProfileID = &v
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
