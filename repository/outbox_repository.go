package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"adminBackend/internal/db"
	"adminBackend/models"

	"github.com/google/uuid"
)

// OutboxRepository stores CRM sync events until the processor publishes them.
type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(d *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: d}
}

// Append marshals payload and stores it as a pending event for topic.
// The payload gets an "event_type" field so consumers can route on it.
func (r *OutboxRepository) Append(ctx context.Context, topic string, payload map[string]any) (string, error) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["event_type"] = topic
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal outbox payload: %w", err)
	}
	id := uuid.New().String()
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	_, err = r.db.ExecContext(ctx, `INSERT INTO outbox_events (id, topic, payload, status, created_at) VALUES (?,?,?,'PENDING',?)`,
		id, topic, b, db.FormatTime(time.Now()))
	if err != nil {
		return "", err
	}
	return id, nil
}

// FetchPending returns up to limit pending events, oldest first.
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, topic, payload, status, created_at FROM outbox_events
WHERE status = 'PENDING' ORDER BY created_at, rowid LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.OutboxEvent
	for rows.Next() {
		var e models.OutboxEvent
		if err := rows.Scan(&e.ID, &e.Topic, &e.Payload, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes a published event.
func (r *OutboxRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM outbox_events WHERE id = ?`, id)
	return err
}
