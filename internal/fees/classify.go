package fees

import (
	"strings"

	"adminBackend/internal/gateway"
)

// Classification is everything derived from a raw transaction.
type Classification struct {
	Channel       Channel
	MethodKind    MethodKind
	CardBrand     string
	IssuerCountry string
	Fee           Fee
}

// Classify detects channel, method and brand of tx and prices it with rules.
// A nil rule set uses the fallback fee.
func Classify(tx gateway.Transaction, rules *RuleSet) Classification {
	card := tx.Card()
	c := Classification{
		Channel:       DetectPaymentChannel(tx),
		MethodKind:    DetectPaymentMethodKind(tx),
		CardBrand:     DetectCardBrand(card.Brand, card.Bin),
		IssuerCountry: strings.ToUpper(strings.TrimSpace(card.IssuerCountry)),
	}
	c.Fee = rules.Calculate(Input{
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		IssuerCountry: c.IssuerCountry,
		Channel:       c.Channel,
		MethodKind:    c.MethodKind,
		CardBrand:     c.CardBrand,
	})
	return c
}
