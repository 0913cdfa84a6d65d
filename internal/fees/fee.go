// Package fees computes gateway fees and classifies payments by channel,
// method and card brand.
package fees

import (
	"math"
	"strings"

	"adminBackend/models"
)

// Fallback rates in percent, used when no fee rule matches.
const (
	RateForeignCurrency = 3.75
	RateVerification    = 2.50
	RateDomestic        = 2.04
	RateForeignCard     = 3.35
)

const (
	// VerificationAmount is the 1.00 BYN charge made when a card is tokenized.
	VerificationAmount int64 = 100
	DomesticCurrency         = "BYN"
	DomesticCountry          = "BY"
)

// Fee is a computed fee in minor units together with how it was derived.
type Fee struct {
	Amount  int64   `json:"amount"`
	Percent float64 `json:"percent"`
	Fixed   int64   `json:"fixed"`
	Source  string  `json:"source"`
	RuleID  int64   `json:"rule_id,omitempty"`
}

// CalculateFallbackFee picks one of the fallback rates from currency, amount and issuer country.
func CalculateFallbackFee(amountMinor int64, currency, issuerCountry string) Fee {
	var rate float64
	switch {
	case !strings.EqualFold(strings.TrimSpace(currency), DomesticCurrency):
		rate = RateForeignCurrency
	case amountMinor == VerificationAmount:
		rate = RateVerification
	case strings.EqualFold(strings.TrimSpace(issuerCountry), DomesticCountry):
		rate = RateDomestic
	default:
		rate = RateForeignCard
	}
	return Fee{Amount: percentOf(amountMinor, rate), Percent: rate, Source: models.FeeSourceFallback}
}

// percentOf returns amount*percent/100 rounded half away from zero.
// The percentage is taken in basis points so the division stays in integers.
func percentOf(amount int64, percent float64) int64 {
	bp := int64(math.Round(percent * 100))
	return roundDiv(amount*bp, 10000)
}

func roundDiv(n, d int64) int64 {
	if n < 0 {
		return -roundDiv(-n, d)
	}
	return (n + d/2) / d
}
