package models

// SubscriptionStatus is the state of a recurring access entitlement.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// Subscription grants a profile access to a product until AccessEnd.
type Subscription struct {
	ID          int64              `db:"id" json:"id"`
	ProfileID   int64              `db:"profile_id" json:"profile_id"`
	ProductCode string             `db:"product_code" json:"product_code"`
	Status      SubscriptionStatus `db:"status" json:"status"`
	AccessEnd   string             `db:"access_end" json:"access_end"`
	CanceledAt  *string            `db:"canceled_at" json:"canceled_at,omitempty"`
	CreatedAt   string             `db:"created_at" json:"created_at"`
}
