package models

// FeeRule is one row of the gateway fee table. Empty match fields are wildcards.
// Percent carries at most two decimals since fees are computed in basis points.
type FeeRule struct {
	ID           int64   `db:"id" json:"id" yaml:"-"`
	Channel      string  `db:"channel" json:"channel" yaml:"channel"`
	MethodKind   string  `db:"method_kind" json:"method_kind" yaml:"method_kind"`
	CardBrand    string  `db:"card_brand" json:"card_brand" yaml:"card_brand"`
	IssuerRegion string  `db:"issuer_region" json:"issuer_region" yaml:"issuer_region"`
	Currency     string  `db:"currency" json:"currency" yaml:"currency"`
	Percent      float64 `db:"percent" json:"percent" yaml:"percent" validate:"gte=0,lte=100"`
	FixedMinor   int64   `db:"fixed_minor" json:"fixed_minor" yaml:"fixed_minor" validate:"gte=0"`
	Priority     int     `db:"priority" json:"priority" yaml:"priority"`
	Active       bool    `db:"active" json:"active" yaml:"active"`
}
