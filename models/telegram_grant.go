package models

// GrantStatus is the state of a Telegram access grant.
type GrantStatus string

const (
	GrantActive  GrantStatus = "active"
	GrantRevoked GrantStatus = "revoked"
	GrantExpired GrantStatus = "expired"
)

// TelegramGrant is a time-bounded entitlement of a profile to a Telegram chat.
type TelegramGrant struct {
	ID           int64       `db:"id" json:"id"`
	ProfileID    int64       `db:"profile_id" json:"profile_id"`
	ChatID       int64       `db:"chat_id" json:"chat_id"`
	Status       GrantStatus `db:"status" json:"status"`
	StartAt      string      `db:"start_at" json:"start_at"`
	EndAt        string      `db:"end_at" json:"end_at"`
	RevokedAt    *string     `db:"revoked_at" json:"revoked_at,omitempty"`
	RevokeReason string      `db:"revoke_reason" json:"revoke_reason,omitempty"`
	InviteLink   string      `db:"invite_link" json:"invite_link,omitempty"`
}
