package models

// AuditLog is an append-only record of an admin or system action.
type AuditLog struct {
	ID        string `db:"id" json:"id"`
	Actor     string `db:"actor" json:"actor"`
	Action    string `db:"action" json:"action"`
	Entity    string `db:"entity" json:"entity"`
	EntityID  string `db:"entity_id" json:"entity_id"`
	Meta      string `db:"meta" json:"meta,omitempty"`
	CreatedAt string `db:"created_at" json:"created_at"`
}
