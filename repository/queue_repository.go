package repository

import (
	"context"
	"database/sql"
	"time"

	"adminBackend/models"
)

// QueueRepository stores raw gateway transactions until they are processed.
type QueueRepository struct {
	db *sql.DB
}

func NewQueueRepository(d *sql.DB) *QueueRepository {
	return &QueueRepository{db: d}
}

// Enqueue stores a raw transaction. It returns false when the uid was already queued.
func (r *QueueRepository) Enqueue(ctx context.Context, uid, source string, payload []byte) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO payment_queue (external_uid, source, payload) VALUES (?,?,?)
ON CONFLICT(external_uid) DO NOTHING`, uid, source, string(payload))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Requeue resets an item to pending with a fresh payload (the gateway may resend an updated status).
func (r *QueueRepository) Requeue(ctx context.Context, uid string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE payment_queue SET payload = ?, status = 'pending', attempts = 0, last_error = '' WHERE external_uid = ?`,
		string(payload), uid)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// ListPending returns up to limit pending items in arrival order.
func (r *QueueRepository) ListPending(ctx context.Context, limit int) ([]models.QueueItem, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, external_uid, source, payload, status, attempts, last_error, created_at
FROM payment_queue WHERE status = 'pending' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.QueueItem
	for rows.Next() {
		var q models.QueueItem
		var status string
		if err := rows.Scan(&q.ID, &q.ExternalUID, &q.Source, &q.Payload, &status, &q.Attempts, &q.LastError, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.Status = models.QueueStatus(status)
		out = append(out, q)
	}
	return out, rows.Err()
}

// MarkProcessed flags an item as done.
func (r *QueueRepository) MarkProcessed(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE payment_queue SET status = 'processed', last_error = '' WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// MarkAttemptFailed records a failed attempt; the item becomes failed once maxAttempts is reached.
// It returns the resulting status.
func (r *QueueRepository) MarkAttemptFailed(ctx context.Context, id int64, cause string, maxAttempts int) (models.QueueStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	var status string
	err := r.db.QueryRowContext(ctx, `UPDATE payment_queue
SET attempts = attempts + 1,
    last_error = ?,
    status = CASE WHEN attempts + 1 >= ? THEN 'failed' ELSE 'pending' END
WHERE id = ?
RETURNING status`, cause, maxAttempts, id).Scan(&status)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return models.QueueStatus(status), nil
}

// CountByStatus returns the number of queue items per status.
func (r *QueueRepository) CountByStatus(ctx context.Context) (map[models.QueueStatus]int, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM payment_queue GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[models.QueueStatus]int{}
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[models.QueueStatus(s)] = n
	}
	return out, rows.Err()
}
