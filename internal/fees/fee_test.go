package fees

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminBackend/internal/gateway"
	"adminBackend/models"
)

func TestCalculateFallbackFee(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		currency string
		country  string
		percent  float64
		fee      int64
	}{
		{"foreign currency wins over everything", 10000, "USD", "BY", RateForeignCurrency, 375},
		{"verification charge", VerificationAmount, "BYN", "US", RateVerification, 3},
		{"domestic card", 10000, "BYN", "BY", RateDomestic, 204},
		{"domestic card lowercase", 10000, "byn", "by", RateDomestic, 204},
		{"foreign card", 10000, "BYN", "PL", RateForeignCard, 335},
		{"unknown issuer is foreign", 10000, "BYN", "", RateForeignCard, 335},
		{"rounds half away from zero", 1250, "BYN", "BY", RateDomestic, 26},
		{"rounds down below half", 1200, "BYN", "BY", RateDomestic, 24},
		{"refund stays symmetric", -1250, "BYN", "BY", RateDomestic, -26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := CalculateFallbackFee(tt.amount, tt.currency, tt.country)
			assert.Equal(t, tt.percent, f.Percent)
			assert.Equal(t, tt.fee, f.Amount)
			assert.Equal(t, models.FeeSourceFallback, f.Source)
		})
	}
}

func TestDetectPaymentChannelAndMethod(t *testing.T) {
	tests := []struct {
		name    string
		tx      gateway.Transaction
		channel Channel
		method  MethodKind
	}{
		{"erip method type", gateway.Transaction{PaymentMethodType: "erip"}, ChannelERIP, MethodERIP},
		{"apple pay token provider", gateway.Transaction{PaymentMethodType: "credit_card",
			CreditCard: &gateway.CreditCard{TokenProvider: "Apple Pay", Last4: "1111"}}, ChannelApplePay, MethodWallet},
		{"google pay in additional data", gateway.Transaction{PaymentMethodType: "credit_card",
			AdditionalData: map[string]any{"payment_method": map[string]any{"type": "google_pay"}}}, ChannelGooglePay, MethodWallet},
		{"samsung pay key", gateway.Transaction{AdditionalData: map[string]any{"samsung_pay": map[string]any{"id": 1.0}}}, ChannelSamsungPay, MethodWallet},
		{"recurring type", gateway.Transaction{PaymentMethodType: "credit_card", RecurringType: "recurring",
			CreditCard: &gateway.CreditCard{Last4: "1111"}}, ChannelRecurring, MethodToken},
		{"recurring description", gateway.Transaction{Description: "Monthly recurring charge"}, ChannelRecurring, MethodToken},
		{"plain card checkout", gateway.Transaction{PaymentMethodType: "credit_card",
			CreditCard: &gateway.CreditCard{Last4: "4242", Bin: "424242"}}, ChannelCheckout, MethodCard},
		{"token only checkout", gateway.Transaction{PaymentMethodType: "credit_card",
			CreditCard: &gateway.CreditCard{Token: "tok_1"}}, ChannelCheckout, MethodToken},
		{"nothing known", gateway.Transaction{}, ChannelUnknown, MethodUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.channel, DetectPaymentChannel(tt.tx))
			assert.Equal(t, tt.method, DetectPaymentMethodKind(tt.tx))
		})
	}
}

func TestDetectCardBrand(t *testing.T) {
	tests := []struct {
		brand, bin, want string
	}{
		{"VISA", "", BrandVisa},
		{"Visa Electron", "", BrandVisa},
		{"master", "", BrandMastercard},
		{"MasterCard World", "", BrandMastercard},
		{"BELKART", "", BrandBelkart},
		{"mir", "", BrandMir},
		{"American Express", "", BrandAmex},
		{"", "911200", BrandBelkart},
		{"", "220070", BrandMir},
		{"", "371449", BrandAmex},
		{"", "510000", BrandMastercard},
		{"", "222100", BrandMastercard},
		{"", "676770", BrandMaestro},
		{"", "4111 11", BrandVisa},
		{"", "", BrandUnknown},
		{"diners", "300000", BrandUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectCardBrand(tt.brand, tt.bin), "brand=%q bin=%q", tt.brand, tt.bin)
	}
}

func TestIssuerRegion(t *testing.T) {
	assert.Equal(t, RegionDomestic, IssuerRegion(" by "))
	assert.Equal(t, RegionForeign, IssuerRegion("LT"))
	assert.Equal(t, "", IssuerRegion(""))
}

func TestRuleSet_Calculate(t *testing.T) {
	rs := NewRuleSet([]models.FeeRule{
		{ID: 1, Percent: 3, Priority: 0, Active: true},
		{ID: 2, Channel: "erip", Percent: 1.2, Priority: 10, Active: true},
		{ID: 3, CardBrand: "Visa", IssuerRegion: "domestic", Percent: 1.9, FixedMinor: 10, Priority: 5, Active: true},
		{ID: 4, CardBrand: "visa", Percent: 2.2, Priority: 5, Active: true},
		{ID: 5, Channel: "apple_pay", Percent: 0.1, Priority: 100, Active: false},
	})
	require.Len(t, rs.Rules(), 4)

	f := rs.Calculate(Input{Amount: 10000, Currency: "BYN", Channel: ChannelERIP, MethodKind: MethodERIP})
	assert.Equal(t, int64(2), f.RuleID)
	assert.Equal(t, int64(120), f.Amount)
	assert.Equal(t, models.FeeSourceRule, f.Source)

	// same priority: the rule with more fields wins
	f = rs.Calculate(Input{Amount: 10000, Currency: "BYN", IssuerCountry: "BY", Channel: ChannelCheckout, CardBrand: "visa"})
	assert.Equal(t, int64(3), f.RuleID)
	assert.Equal(t, int64(190+10), f.Amount)

	f = rs.Calculate(Input{Amount: 10000, Currency: "BYN", IssuerCountry: "DE", Channel: ChannelCheckout, CardBrand: "visa"})
	assert.Equal(t, int64(4), f.RuleID)

	// the wildcard rule catches the rest; the disabled apple pay rule is ignored
	f = rs.Calculate(Input{Amount: 10000, Currency: "BYN", Channel: ChannelApplePay})
	assert.Equal(t, int64(1), f.RuleID)
	assert.Equal(t, int64(300), f.Amount)
}

func TestRuleSet_FallbackWhenNoMatch(t *testing.T) {
	rs := NewRuleSet([]models.FeeRule{{ID: 1, Channel: "erip", Percent: 1, Active: true}})
	f := rs.Calculate(Input{Amount: 10000, Currency: "BYN", IssuerCountry: "BY", Channel: ChannelCheckout})
	assert.Equal(t, models.FeeSourceFallback, f.Source)
	assert.Equal(t, int64(204), f.Amount)

	var empty *RuleSet
	assert.Equal(t, models.FeeSourceFallback, empty.Calculate(Input{Amount: 100, Currency: "BYN"}).Source)
}

func TestParseRulesYAML(t *testing.T) {
	rules, err := ParseRulesYAML(strings.NewReader(`
rules:
  - channel: erip
    percent: 1.5
    priority: 10
  - card_brand: visa
    issuer_region: domestic
    percent: 2.04
    fixed_minor: 5
  - percent: 9
    active: false
`))
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.True(t, rules[0].Active)
	assert.Equal(t, int64(5), rules[1].FixedMinor)
	assert.False(t, rules[2].Active)

	_, err = ParseRulesYAML(strings.NewReader("rules:\n  - percent: 150\n"))
	assert.Error(t, err)
	_, err = ParseRulesYAML(strings.NewReader("rules:\n  - channel: pigeon\n    percent: 1\n"))
	assert.ErrorContains(t, err, "unknown channel")
	_, err = ParseRulesYAML(strings.NewReader("rules:\n  - chanel: erip\n"))
	assert.Error(t, err)

	rules, err = ParseRulesYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestValidateRule_PercentPrecision(t *testing.T) {
	assert.NoError(t, ValidateRule(models.FeeRule{Percent: 2.04}))
	assert.NoError(t, ValidateRule(models.FeeRule{Percent: 3.35}))
	assert.NoError(t, ValidateRule(models.FeeRule{Percent: 0}))
	assert.ErrorContains(t, ValidateRule(models.FeeRule{Percent: 2.045}), "two decimals")

	_, err := ParseRulesYAML(strings.NewReader("rules:\n  - percent: 1.234\n"))
	assert.ErrorContains(t, err, "rule 1")
}

func TestRules_DefaultsToActive(t *testing.T) {
	off := false
	rules, err := Rules([]RuleInput{{Channel: "erip", Percent: 1.5}, {Percent: 2, Active: &off}})
	require.NoError(t, err)
	assert.True(t, rules[0].Active)
	assert.False(t, rules[1].Active)
}

func TestClassify(t *testing.T) {
	tx := gateway.Transaction{
		UID: "t1", Amount: 5000, Currency: "BYN", PaymentMethodType: "credit_card",
		CreditCard: &gateway.CreditCard{Brand: "master", Last4: "0001", Bin: "520000", IssuerCountry: "by"},
	}
	c := Classify(tx, nil)
	assert.Equal(t, ChannelCheckout, c.Channel)
	assert.Equal(t, MethodCard, c.MethodKind)
	assert.Equal(t, BrandMastercard, c.CardBrand)
	assert.Equal(t, "BY", c.IssuerCountry)
	assert.Equal(t, int64(102), c.Fee.Amount)
}
