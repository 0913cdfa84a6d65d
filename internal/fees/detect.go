package fees

import (
	"strings"

	"adminBackend/internal/gateway"
)

// Channel is where a payment came from.
type Channel string

const (
	ChannelERIP       Channel = "erip"
	ChannelApplePay   Channel = "apple_pay"
	ChannelGooglePay  Channel = "google_pay"
	ChannelSamsungPay Channel = "samsung_pay"
	ChannelRecurring  Channel = "recurring"
	ChannelCheckout   Channel = "checkout"
	ChannelUnknown    Channel = "unknown"
)

// MethodKind is the instrument a payment was made with.
type MethodKind string

const (
	MethodERIP    MethodKind = "erip"
	MethodWallet  MethodKind = "wallet"
	MethodToken   MethodKind = "token"
	MethodCard    MethodKind = "card"
	MethodUnknown MethodKind = "unknown"
)

var recurringTypes = map[string]bool{
	"recurring":    true,
	"unscheduled":  true,
	"card_on_file": true,
	"subscription": true,
}

// DetectPaymentChannel inspects the method type, card token provider,
// additional data and description of a transaction.
func DetectPaymentChannel(tx gateway.Transaction) Channel {
	method := strings.ToLower(tx.PaymentMethodType)
	if strings.Contains(method, "erip") {
		return ChannelERIP
	}

	wallet := strings.ToLower(tx.Card().TokenProvider) + " " + tx.AdditionalText()
	switch {
	case strings.Contains(wallet, "apple"):
		return ChannelApplePay
	case strings.Contains(wallet, "google"):
		return ChannelGooglePay
	case strings.Contains(wallet, "samsung"):
		return ChannelSamsungPay
	}
	if strings.Contains(wallet, "erip") {
		return ChannelERIP
	}

	desc := strings.ToLower(tx.Description)
	if recurringTypes[strings.ToLower(tx.RecurringType)] || strings.Contains(desc, "recurring") ||
		strings.Contains(desc, "автоплатеж") || strings.Contains(desc, "подписк") {
		return ChannelRecurring
	}
	if strings.Contains(method, "credit_card") || strings.Contains(method, "card") || tx.CreditCard != nil {
		return ChannelCheckout
	}
	return ChannelUnknown
}

// DetectPaymentMethodKind maps a transaction to the instrument used.
func DetectPaymentMethodKind(tx gateway.Transaction) MethodKind {
	switch DetectPaymentChannel(tx) {
	case ChannelERIP:
		return MethodERIP
	case ChannelApplePay, ChannelGooglePay, ChannelSamsungPay:
		return MethodWallet
	case ChannelRecurring:
		return MethodToken
	case ChannelCheckout:
		if tx.Card().Last4 == "" && tx.Card().Bin == "" && tx.Card().Token != "" {
			return MethodToken
		}
		return MethodCard
	}
	return MethodUnknown
}

// Card brands.
const (
	BrandVisa       = "visa"
	BrandMastercard = "mastercard"
	BrandBelkart    = "belkart"
	BrandMir        = "mir"
	BrandMaestro    = "maestro"
	BrandAmex       = "amex"
	BrandUnknown    = "unknown"
)

var brandAliases = map[string]string{
	"visa":            BrandVisa,
	"visaelectron":    BrandVisa,
	"electron":        BrandVisa,
	"master":          BrandMastercard,
	"mastercard":      BrandMastercard,
	"mc":              BrandMastercard,
	"belkart":         BrandBelkart,
	"belcard":         BrandBelkart,
	"белкарт":         BrandBelkart,
	"mir":             BrandMir,
	"мир":             BrandMir,
	"maestro":         BrandMaestro,
	"amex":            BrandAmex,
	"americanexpress": BrandAmex,
}

// DetectCardBrand normalises a reported brand and falls back to BIN prefixes.
func DetectCardBrand(brand, bin string) string {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(brand)))
	if b, ok := brandAliases[key]; ok {
		return b
	}
	if strings.Contains(key, "master") {
		return BrandMastercard
	}
	if strings.Contains(key, "visa") {
		return BrandVisa
	}
	return brandFromBIN(bin)
}

func brandFromBIN(bin string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, bin)
	if digits == "" {
		return BrandUnknown
	}
	prefix := func(n int) int {
		if len(digits) < n {
			return -1
		}
		v := 0
		for _, r := range digits[:n] {
			v = v*10 + int(r-'0')
		}
		return v
	}
	p2, p4 := prefix(2), prefix(4)
	switch {
	case p4 == 9112:
		return BrandBelkart
	case p4 >= 2200 && p4 <= 2204:
		return BrandMir
	case p2 == 34 || p2 == 37:
		return BrandAmex
	case (p2 >= 51 && p2 <= 55) || (p4 >= 2221 && p4 <= 2720):
		return BrandMastercard
	case p2 == 50 || (p2 >= 56 && p2 <= 58) || p2 == 63 || p2 == 67:
		return BrandMaestro
	case digits[0] == '4':
		return BrandVisa
	}
	return BrandUnknown
}

// Issuer regions used by fee rules.
const (
	RegionDomestic = "domestic"
	RegionForeign  = "foreign"
)

// IssuerRegion returns "domestic" for BY, "foreign" for other countries and "" when unknown.
func IssuerRegion(country string) string {
	c := strings.ToUpper(strings.TrimSpace(country))
	switch c {
	case "":
		return ""
	case DomesticCountry:
		return RegionDomestic
	}
	return RegionForeign
}
