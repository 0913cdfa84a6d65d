package models

// QueueStatus is the processing state of a raw gateway transaction.
type QueueStatus string

const (
	QueuePending   QueueStatus = "pending"
	QueueProcessed QueueStatus = "processed"
	QueueFailed    QueueStatus = "failed"
)

// QueueItem holds a raw gateway transaction waiting to be turned into a Payment.
type QueueItem struct {
	ID          int64       `db:"id" json:"id"`
	ExternalUID string      `db:"external_uid" json:"external_uid"`
	Source      string      `db:"source" json:"source"`
	Payload     string      `db:"payload" json:"payload"`
	Status      QueueStatus `db:"status" json:"status"`
	Attempts    int         `db:"attempts" json:"attempts"`
	LastError   string      `db:"last_error" json:"last_error,omitempty"`
	CreatedAt   string      `db:"created_at" json:"created_at"`
}

// OutboxEvent is a pending CRM sync message.
type OutboxEvent struct {
	ID        string `db:"id" json:"id"`
	Topic     string `db:"topic" json:"topic"`
	Payload   []byte `db:"payload" json:"payload"`
	Status    string `db:"status" json:"status"`
	CreatedAt string `db:"created_at" json:"created_at"`
}
