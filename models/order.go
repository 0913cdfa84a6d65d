package models

// OrderStatus represents the lifecycle state of a purchase.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusRefunded OrderStatus = "refunded"
	OrderStatusCanceled OrderStatus = "canceled"
)

// Order is a purchase of a product by a profile. Amount is in minor units.
type Order struct {
	ID          int64       `db:"id" json:"id"`
	ProfileID   int64       `db:"profile_id" json:"profile_id"`
	ProductCode string      `db:"product_code" json:"product_code"`
	Amount      int64       `db:"amount" json:"amount"`
	Currency    string      `db:"currency" json:"currency"`
	Status      OrderStatus `db:"status" json:"status"`
	CreatedAt   string      `db:"created_at" json:"created_at"`
}
