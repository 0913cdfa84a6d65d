package gateway

import (
	"fmt"
	"sort"
	"strings"
)

// Transaction is a gateway transaction as delivered by webhooks and the
// transactions listing.
type Transaction struct {
	UID               string         `json:"uid"`
	Status            string         `json:"status"`
	Type              string         `json:"type"`
	Amount            int64          `json:"amount"`
	Currency          string         `json:"currency"`
	Description       string         `json:"description"`
	TrackingID        string         `json:"tracking_id"`
	PaymentMethodType string         `json:"payment_method_type"`
	RecurringType     string         `json:"recurring_type,omitempty"`
	CreatedAt         string         `json:"created_at"`
	PaidAt            string         `json:"paid_at,omitempty"`
	ReceiptURL        string         `json:"receipt_url,omitempty"`
	CreditCard        *CreditCard    `json:"credit_card,omitempty"`
	Customer          *Customer      `json:"customer,omitempty"`
	AdditionalData    map[string]any `json:"additional_data,omitempty"`
}

// CreditCard is the card block of a transaction.
type CreditCard struct {
	Holder        string `json:"holder"`
	Brand         string `json:"brand"`
	Last4         string `json:"last_4"`
	Bin           string `json:"bin"`
	IssuerCountry string `json:"issuer_country"`
	IssuerName    string `json:"issuer_name,omitempty"`
	Token         string `json:"token,omitempty"`
	TokenProvider string `json:"token_provider,omitempty"`
}

// Customer is the payer block of a transaction.
type Customer struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// WebhookEnvelope is the body the gateway POSTs to the webhook endpoint.
type WebhookEnvelope struct {
	Transaction Transaction `json:"transaction"`
}

// Card returns the card block or an empty one.
func (t Transaction) Card() CreditCard {
	if t.CreditCard == nil {
		return CreditCard{}
	}
	return *t.CreditCard
}

// Payer returns the customer block or an empty one.
func (t Transaction) Payer() Customer {
	if t.Customer == nil {
		return Customer{}
	}
	return *t.Customer
}

// AdditionalText flattens every string value of additional_data, lowercased,
// into one space-separated string for substring checks.
func (t Transaction) AdditionalText() string {
	var parts []string
	collectStrings(t.AdditionalData, &parts)
	sort.Strings(parts)
	return strings.ToLower(strings.Join(parts, " "))
}

func collectStrings(v any, out *[]string) {
	switch x := v.(type) {
	case string:
		*out = append(*out, x)
	case map[string]any:
		for k, inner := range x {
			// keys carry meaning too ("apple_pay": {...})
			*out = append(*out, k)
			collectStrings(inner, out)
		}
	case []any:
		for _, inner := range x {
			collectStrings(inner, out)
		}
	case bool, float64, nil:
	default:
		*out = append(*out, fmt.Sprint(x))
	}
}
