package models

// PaymentStatus mirrors the gateway transaction status.
type PaymentStatus string

const (
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// Fee sources recorded on a payment.
const (
	FeeSourceRule     = "rule"
	FeeSourceFallback = "fallback"
)

// Payment is a gateway transaction mirrored into the database.
// ProfileID is nil while the payment is unlinked.
type Payment struct {
	ID            int64         `db:"id" json:"id"`
	ExternalUID   string        `db:"external_uid" json:"external_uid"`
	OrderID       *int64        `db:"order_id" json:"order_id,omitempty"`
	ProfileID     *int64        `db:"profile_id" json:"profile_id,omitempty"`
	Amount        int64         `db:"amount" json:"amount"`
	Currency      string        `db:"currency" json:"currency"`
	Status        PaymentStatus `db:"status" json:"status"`
	Channel       string        `db:"channel" json:"channel"`
	MethodKind    string        `db:"method_kind" json:"method_kind"`
	CardLast4     string        `db:"card_last4" json:"card_last4"`
	CardBrand     string        `db:"card_brand" json:"card_brand"`
	IssuerCountry string        `db:"issuer_country" json:"issuer_country"`
	CustomerEmail string        `db:"customer_email" json:"customer_email"`
	CustomerPhone string        `db:"customer_phone" json:"customer_phone"`
	FeeAmount     *int64        `db:"fee_amount" json:"fee_amount,omitempty"`
	FeeSource     string        `db:"fee_source" json:"fee_source,omitempty"`
	ReceiptURL    string        `db:"receipt_url" json:"receipt_url,omitempty"`
	RawPayload    string        `db:"raw_payload" json:"-"`
	PaidAt        string        `db:"paid_at" json:"paid_at"`
	CreatedAt     string        `db:"created_at" json:"created_at"`
}

// NeedsClassification reports whether derived fields are missing.
func (p *Payment) NeedsClassification() bool {
	return p.Channel == "" || p.MethodKind == "" || p.CardBrand == "" || p.FeeAmount == nil
}
