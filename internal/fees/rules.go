package fees

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"adminBackend/models"
)

// Input is what a fee rule is matched against.
type Input struct {
	Amount        int64
	Currency      string
	IssuerCountry string
	Channel       Channel
	MethodKind    MethodKind
	CardBrand     string
}

// RuleSet is an immutable, ordered view of the active fee rules.
type RuleSet struct {
	rules []models.FeeRule
}

// NewRuleSet keeps the active rules, normalised and ordered by priority,
// then specificity, then id.
func NewRuleSet(rules []models.FeeRule) *RuleSet {
	out := make([]models.FeeRule, 0, len(rules))
	for _, r := range rules {
		if !r.Active {
			continue
		}
		r.Channel = strings.ToLower(strings.TrimSpace(r.Channel))
		r.MethodKind = strings.ToLower(strings.TrimSpace(r.MethodKind))
		r.CardBrand = strings.ToLower(strings.TrimSpace(r.CardBrand))
		r.IssuerRegion = strings.ToLower(strings.TrimSpace(r.IssuerRegion))
		r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if sa, sb := specificity(a), specificity(b); sa != sb {
			return sa > sb
		}
		return a.ID < b.ID
	})
	return &RuleSet{rules: out}
}

// Rules returns the ordered active rules.
func (s *RuleSet) Rules() []models.FeeRule {
	if s == nil {
		return nil
	}
	return append([]models.FeeRule(nil), s.rules...)
}

// Calculate applies the first matching rule, or the fallback fee when none matches.
func (s *RuleSet) Calculate(in Input) Fee {
	if s != nil {
		for _, r := range s.rules {
			if !matches(r, in) {
				continue
			}
			return Fee{
				Amount:  percentOf(in.Amount, r.Percent) + r.FixedMinor,
				Percent: r.Percent,
				Fixed:   r.FixedMinor,
				Source:  models.FeeSourceRule,
				RuleID:  r.ID,
			}
		}
	}
	return CalculateFallbackFee(in.Amount, in.Currency, in.IssuerCountry)
}

func matches(r models.FeeRule, in Input) bool {
	field := func(rule, got string) bool {
		return rule == "" || rule == got
	}
	return field(r.Channel, strings.ToLower(string(in.Channel))) &&
		field(r.MethodKind, strings.ToLower(string(in.MethodKind))) &&
		field(r.CardBrand, strings.ToLower(in.CardBrand)) &&
		field(r.IssuerRegion, IssuerRegion(in.IssuerCountry)) &&
		field(r.Currency, strings.ToUpper(strings.TrimSpace(in.Currency)))
}

func specificity(r models.FeeRule) int {
	n := 0
	for _, f := range []string{r.Channel, r.MethodKind, r.CardBrand, r.IssuerRegion, r.Currency} {
		if f != "" {
			n++
		}
	}
	return n
}

// RuleSource lists stored fee rules.
type RuleSource interface {
	List(ctx context.Context, activeOnly bool) ([]models.FeeRule, error)
}

// Load builds a RuleSet from the active stored rules.
func Load(ctx context.Context, src RuleSource) (*RuleSet, error) {
	rules, err := src.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load fee rules: %w", err)
	}
	return NewRuleSet(rules), nil
}

// RuleInput is a fee rule as submitted through the API or a YAML file.
// A rule is active unless active is explicitly false.
type RuleInput struct {
	Channel      string  `json:"channel" yaml:"channel"`
	MethodKind   string  `json:"method_kind" yaml:"method_kind"`
	CardBrand    string  `json:"card_brand" yaml:"card_brand"`
	IssuerRegion string  `json:"issuer_region" yaml:"issuer_region"`
	Currency     string  `json:"currency" yaml:"currency"`
	Percent      float64 `json:"percent" yaml:"percent"`
	FixedMinor   int64   `json:"fixed_minor" yaml:"fixed_minor"`
	Priority     int     `json:"priority" yaml:"priority"`
	Active       *bool   `json:"active" yaml:"active"`
}

// Rule converts the input into a validated rule.
func (in RuleInput) Rule() (models.FeeRule, error) {
	rule := models.FeeRule{
		Channel:      in.Channel,
		MethodKind:   in.MethodKind,
		CardBrand:    in.CardBrand,
		IssuerRegion: in.IssuerRegion,
		Currency:     in.Currency,
		Percent:      in.Percent,
		FixedMinor:   in.FixedMinor,
		Priority:     in.Priority,
		Active:       in.Active == nil || *in.Active,
	}
	return rule, ValidateRule(rule)
}

// Rules converts a list of inputs, naming the first invalid one by position.
func Rules(in []RuleInput) ([]models.FeeRule, error) {
	out := make([]models.FeeRule, 0, len(in))
	for i, r := range in {
		rule, err := r.Rule()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

type yamlFile struct {
	Rules []RuleInput `yaml:"rules"`
}

var validate = validator.New()

// ParseRulesYAML reads a fee table of the form
//
//	rules:
//	  - channel: erip
//	    percent: 1.5
//
// Rules are active unless "active: false" is given.
func ParseRulesYAML(r io.Reader) ([]models.FeeRule, error) {
	var f yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fee rules: %w", err)
	}
	return Rules(f.Rules)
}

// LoadRulesFile parses a YAML fee table from disk.
func LoadRulesFile(path string) ([]models.FeeRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseRulesYAML(f)
}

// ValidateRule checks numeric bounds, the two-decimal precision of the
// percentage and that match fields use known values.
func ValidateRule(r models.FeeRule) error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if bp := r.Percent * 100; math.Abs(bp-math.Round(bp)) > 1e-6 {
		return fmt.Errorf("percent %v has more than two decimals", r.Percent)
	}
	if r.Channel != "" && !knownChannel(Channel(strings.ToLower(r.Channel))) {
		return fmt.Errorf("unknown channel %q", r.Channel)
	}
	switch MethodKind(strings.ToLower(r.MethodKind)) {
	case "", MethodERIP, MethodWallet, MethodToken, MethodCard:
	default:
		return fmt.Errorf("unknown method kind %q", r.MethodKind)
	}
	switch strings.ToLower(r.IssuerRegion) {
	case "", RegionDomestic, RegionForeign:
	default:
		return fmt.Errorf("unknown issuer region %q", r.IssuerRegion)
	}
	return nil
}

func knownChannel(c Channel) bool {
	switch c {
	case ChannelERIP, ChannelApplePay, ChannelGooglePay, ChannelSamsungPay, ChannelRecurring, ChannelCheckout:
		return true
	}
	return false
}
